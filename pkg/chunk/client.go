package chunk

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/hivemq/mosquitto2hivemq/internal/wire"
)

// SessionExpiryNever is the session expiry interval of a session that never
// expires. The stored 32-bit value 0xFFFFFFFF is widened to it.
const SessionExpiryNever uint64 = math.MaxUint32

// Client is a persisted client session.
type Client struct {
	ClientID              string
	LastMID               uint16
	SessionExpiryTime     int64  // seconds since the epoch
	SessionExpiryInterval uint64 // seconds
}

func (*Client) Kind() Kind { return KindClient }

// NeverExpires reports whether the session has an infinite expiry interval.
func (c *Client) NeverExpires() bool {
	return c.SessionExpiryInterval == SessionExpiryNever
}

// MarshalBinary encodes:
//
//	<session_expiry_time:i64 LE><session_expiry_interval:u32><last_mid:u16>
//	<id_len:u16><client_id>
func (c *Client) MarshalBinary() ([]byte, error) {
	if c.SessionExpiryInterval > SessionExpiryNever {
		return nil, errors.Errorf("session expiry interval %d does not fit 32 bits", c.SessionExpiryInterval)
	}
	id, err := wire.EncodeLatin1(c.ClientID)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, 16+len(id))
	buf = wire.AppendUint64LE(buf, uint64(c.SessionExpiryTime))
	buf = wire.AppendUint32(buf, uint32(c.SessionExpiryInterval))
	buf = wire.AppendUint16(buf, c.LastMID)
	return wire.AppendPrefixed(buf, id)
}

func (c *Client) String() string {
	return fmt.Sprintf("Client{clientId=%q lastMid=%d sessionExpiryTime=%d sessionExpiryInterval=%d}",
		c.ClientID, c.LastMID, c.SessionExpiryTime, c.SessionExpiryInterval)
}

func decodeClient(buf []byte, start, length int) (*Client, error) {
	r := payloadCursor(buf, start, length)
	c := &Client{}
	var (
		err      error
		interval uint32
		idLen    uint16
	)
	if c.SessionExpiryTime, err = r.Int64LE("session expiry time"); err != nil {
		return nil, err
	}
	if interval, err = r.Uint32("session expiry interval"); err != nil {
		return nil, err
	}
	c.SessionExpiryInterval = uint64(interval)
	if c.LastMID, err = r.Uint16("last mid"); err != nil {
		return nil, err
	}
	if idLen, err = r.Uint16("client id length"); err != nil {
		return nil, err
	}
	if c.ClientID, err = r.String(int(idLen), "client id"); err != nil {
		return nil, err
	}
	return c, nil
}
