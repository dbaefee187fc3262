// The mosquitto2hivemq tool reads a mosquitto persistence file and reports
// its content, or packs it into a compressed snapshot.
package main

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/hivemq/mosquitto2hivemq/internal/config"
	"github.com/hivemq/mosquitto2hivemq/pkg/archive"
	"github.com/hivemq/mosquitto2hivemq/pkg/chunk"
	"github.com/hivemq/mosquitto2hivemq/pkg/mosqdb"
)

var version = "dev"

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := newApp().Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func newApp() *cli.App {
	commonFlags := []cli.Flag{
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, TakesFile: true, Usage: "Path of the mosquitto.db file", EnvVars: []string{"INPUT"}},
		&cli.StringFlag{Name: "config", TakesFile: true, Usage: "Path of a TOML configuration file", EnvVars: []string{"CONFIG"}},
		&cli.StringFlag{Name: "log-level", Usage: "Set log level (panic, fatal, error, warn, info, debug, trace)", EnvVars: []string{"LOG_LEVEL"}},
	}

	return &cli.App{
		Name:    "mosquitto2hivemq",
		Usage:   "Mosquitto persistence file reader",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "decode",
				Usage: "Decode a persistence file and report its content",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Continue past an unknown header, chunk type or property type", EnvVars: []string{"FORCE"}},
					&cli.BoolFlag{Name: "display-chunks", Aliases: []string{"dc"}, Usage: "Log a hex dump of the file and every decoded chunk"},
					&cli.IntFlag{Name: "workers", Usage: "Number of goroutines decoding chunk payloads", EnvVars: []string{"WORKERS"}},
				}, commonFlags...),
				Action: runDecode,
			},
			{
				Name:  "pack",
				Usage: "Write a persistence file into a compressed snapshot",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, TakesFile: true, Usage: "Path of the snapshot to write"},
					&cli.IntFlag{Name: "level", Usage: "zstd compression level"},
				}, commonFlags...),
				Action: runPack,
			},
		},
	}
}

// loadConfig merges the configuration file, if any, with explicitly set flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("force") {
		cfg.Decode.Force = c.Bool("force")
	}
	if c.IsSet("display-chunks") {
		cfg.Decode.DisplayChunks = c.Bool("display-chunks")
	}
	if c.IsSet("workers") {
		cfg.Decode.Workers = c.Int("workers")
	}
	if c.IsSet("level") {
		cfg.Pack.Level = c.Int("level")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, err
	}
	logrus.SetLevel(level)
	return cfg, nil
}

func decoderOptions(cfg config.Config) []mosqdb.Option {
	return []mosqdb.Option{
		mosqdb.WithForce(cfg.Decode.Force),
		mosqdb.WithWorkers(cfg.Decode.Workers),
		mosqdb.WithDisplayChunks(cfg.Decode.DisplayChunks),
		mosqdb.WithLogger(logrus.StandardLogger()),
	}
}

func runDecode(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	input := c.String("input")
	data, err := mosqdb.ReadImage(input)
	if err != nil {
		return err
	}
	logrus.Infof("Read %s (%s)", input, humanize.Bytes(uint64(len(data))))

	db, err := mosqdb.Decode(data, decoderOptions(cfg)...)
	if err != nil {
		return errors.Wrapf(err, "decode %s", input)
	}
	report(db)
	return nil
}

func report(db *mosqdb.DB) {
	logrus.WithFields(logrus.Fields{
		"crc":     db.Header.CRC,
		"version": db.Header.Version,
	}).Info("File header")

	counts := db.Counts()
	fields := logrus.Fields{}
	for _, k := range chunk.Kinds {
		fields[k.String()] = counts[k]
	}
	logrus.WithFields(fields).Infof("Decoded %s chunks", humanize.Comma(int64(db.Len())))

	retained := db.RetainedMessages()
	var payload uint64
	for _, m := range retained {
		payload += uint64(m.PayloadLength())
	}
	logrus.Infof("Retained messages: %d (%s payload)", len(retained), humanize.Bytes(payload))

	for _, r := range db.Retains {
		if _, ok := db.MessageByStoreID(r.StoreID); !ok {
			logrus.WithField("storeId", r.StoreID).Warn("Retain chunk references a missing message")
		}
	}
}

func runPack(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	input, output := c.String("input"), c.String("output")
	data, err := mosqdb.ReadImage(input)
	if err != nil {
		return err
	}
	if _, err := mosqdb.Decode(data, decoderOptions(cfg)...); err != nil {
		return errors.Wrapf(err, "validate %s", input)
	}

	size, err := writeSnapshot(output, data, cfg.Pack.Level)
	if err != nil {
		return err
	}
	logrus.Infof("Wrote %s: %s -> %s", output, humanize.Bytes(uint64(len(data))), humanize.Bytes(uint64(size)))
	return nil
}

// writeSnapshot packs data into a new file at path and returns its size. The
// file is removed when packing fails.
func writeSnapshot(path string, data []byte, level int) (size int64, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, "create output")
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(path)
		}
	}()

	if err := archive.Encode(f, data, archive.WithCompressionLevel(level)); err != nil {
		return 0, errors.Wrapf(err, "pack %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		return 0, errors.Wrap(err, "stat output")
	}
	if err := f.Close(); err != nil {
		return 0, errors.Wrap(err, "close output")
	}
	return info.Size(), nil
}
