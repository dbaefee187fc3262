package chunk

import (
	"fmt"

	"github.com/hivemq/mosquitto2hivemq/internal/wire"
)

// Config is the broker state chunk. One is expected per file.
type Config struct {
	LastDBID uint64
	Shutdown uint8
	DBIDSize uint8
}

func (*Config) Kind() Kind { return KindConfig }

// MarshalBinary encodes:
//
//	<last_db_id:u64 LE><shutdown:u8><db_id_size:u8>
func (c *Config) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 10)
	buf = wire.AppendUint64LE(buf, c.LastDBID)
	return append(buf, c.Shutdown, c.DBIDSize), nil
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{shutdown=%d dbIdSize=%d lastDbId=%d}", c.Shutdown, c.DBIDSize, c.LastDBID)
}

func decodeConfig(buf []byte, start, length int) (*Config, error) {
	r := payloadCursor(buf, start, length)
	c := &Config{}
	var err error
	if c.LastDBID, err = r.Uint64LE("last db id"); err != nil {
		return nil, err
	}
	if c.Shutdown, err = r.Uint8("shutdown"); err != nil {
		return nil, err
	}
	if c.DBIDSize, err = r.Uint8("db id size"); err != nil {
		return nil, err
	}
	return c, nil
}
