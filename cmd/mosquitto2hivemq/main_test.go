package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivemq/mosquitto2hivemq/pkg/archive"
	"github.com/hivemq/mosquitto2hivemq/pkg/chunk"
	"github.com/hivemq/mosquitto2hivemq/pkg/mosqdb"
	"github.com/hivemq/mosquitto2hivemq/pkg/property"
)

func writeDB(t *testing.T, dir string) string {
	var buf bytes.Buffer
	w, err := mosqdb.NewWriter(&buf, mosqdb.NewFileHeader(mosqdb.DefaultVersion))
	require.NoError(t, err)
	for _, c := range []chunk.Chunk{
		&chunk.Config{LastDBID: 1},
		&chunk.MessageStore{
			StoreID: 1,
			Topic:   "t",
			Retain:  true,
			Payload: []byte("x"),
			Properties: property.List{
				{ID: property.ContentType, Value: property.StringValue("text/plain")},
			},
		},
		&chunk.Retain{StoreID: 1},
		&chunk.Retain{StoreID: 2},
	} {
		require.NoError(t, w.WriteChunk(c))
	}
	path := filepath.Join(dir, "mosquitto.db")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestDecodeCommand(t *testing.T) {
	hook := test.NewGlobal()
	defer logrus.SetLevel(logrus.InfoLevel)
	dir := t.TempDir()
	input := writeDB(t, dir)

	require.NoError(t, newApp().Run([]string{"mosquitto2hivemq", "decode", "--input", input}))

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["storeId"] == uint64(2) {
			warned = true
		}
	}
	assert.True(t, warned, "dangling retain is reported")

	t.Run("config file", func(t *testing.T) {
		cfg := filepath.Join(dir, "config.toml")
		require.NoError(t, os.WriteFile(cfg, []byte("log_level = \"warn\"\n[decode]\nworkers = 2\n"), 0o644))
		require.NoError(t, newApp().Run([]string{"mosquitto2hivemq", "decode", "--input", input, "--config", cfg}))
		assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
	})

	t.Run("invalid file", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.db")
		require.NoError(t, os.WriteFile(bad, []byte("not a mosquitto db at all"), 0o644))
		assert.Error(t, newApp().Run([]string{"mosquitto2hivemq", "decode", "--input", bad}))
	})
}

func TestPackCommand(t *testing.T) {
	test.NewGlobal()
	dir := t.TempDir()
	input := writeDB(t, dir)
	output := filepath.Join(dir, "mosquitto.db.zst")

	require.NoError(t, newApp().Run([]string{"mosquitto2hivemq", "pack", "--input", input, "--output", output, "--level", "9"}))

	packed, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, archive.IsArchive(packed))

	db, err := mosqdb.ReadFile(output)
	require.NoError(t, err)
	assert.Len(t, db.RetainedMessages(), 1)
}

func TestWriteSnapshot(t *testing.T) {
	dir := t.TempDir()

	t.Run("written", func(t *testing.T) {
		path := filepath.Join(dir, "ok.zst")
		size, err := writeSnapshot(path, []byte("\x00\xb5\x00mosquitto db"), 3)
		require.NoError(t, err)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, info.Size(), size)
	})

	t.Run("failure removes output", func(t *testing.T) {
		path := filepath.Join(dir, "empty.zst")
		_, err := writeSnapshot(path, nil, 3)
		require.Error(t, err)
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})
}
