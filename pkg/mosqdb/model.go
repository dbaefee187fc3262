package mosqdb

import (
	"github.com/hivemq/mosquitto2hivemq/pkg/chunk"
)

// DB is the decoded content of a persistence file. Each collection keeps the
// file order of its chunks.
type DB struct {
	Header         FileHeader
	Configs        []*chunk.Config
	MessageStores  []*chunk.MessageStore
	ClientMessages []*chunk.ClientMessage
	Retains        []*chunk.Retain
	Subscriptions  []*chunk.Subscription
	Clients        []*chunk.Client
}

// Add appends c to the collection for its kind.
func (db *DB) Add(c chunk.Chunk) {
	switch v := c.(type) {
	case *chunk.Config:
		db.Configs = append(db.Configs, v)
	case *chunk.MessageStore:
		db.MessageStores = append(db.MessageStores, v)
	case *chunk.ClientMessage:
		db.ClientMessages = append(db.ClientMessages, v)
	case *chunk.Retain:
		db.Retains = append(db.Retains, v)
	case *chunk.Subscription:
		db.Subscriptions = append(db.Subscriptions, v)
	case *chunk.Client:
		db.Clients = append(db.Clients, v)
	}
}

// RetainedMessages returns the message store entries with the retain flag set.
func (db *DB) RetainedMessages() []*chunk.MessageStore {
	var out []*chunk.MessageStore
	for _, m := range db.MessageStores {
		if m.Retain {
			out = append(out, m)
		}
	}
	return out
}

// MessageByStoreID returns the first message store entry with the given id.
func (db *DB) MessageByStoreID(id uint64) (*chunk.MessageStore, bool) {
	for _, m := range db.MessageStores {
		if m.StoreID == id {
			return m, true
		}
	}
	return nil, false
}

// Counts returns the number of decoded chunks per kind.
func (db *DB) Counts() map[chunk.Kind]int {
	return map[chunk.Kind]int{
		chunk.KindConfig:        len(db.Configs),
		chunk.KindMessageStore:  len(db.MessageStores),
		chunk.KindClientMessage: len(db.ClientMessages),
		chunk.KindRetain:        len(db.Retains),
		chunk.KindSubscription:  len(db.Subscriptions),
		chunk.KindClient:        len(db.Clients),
	}
}

// Len returns the total number of decoded chunks.
func (db *DB) Len() int {
	n := 0
	for _, c := range db.Counts() {
		n += c
	}
	return n
}

// Chunks returns every decoded chunk grouped by kind in kind order.
func (db *DB) Chunks() []chunk.Chunk {
	out := make([]chunk.Chunk, 0, db.Len())
	for _, c := range db.Configs {
		out = append(out, c)
	}
	for _, c := range db.MessageStores {
		out = append(out, c)
	}
	for _, c := range db.ClientMessages {
		out = append(out, c)
	}
	for _, c := range db.Retains {
		out = append(out, c)
	}
	for _, c := range db.Subscriptions {
		out = append(out, c)
	}
	for _, c := range db.Clients {
		out = append(out, c)
	}
	return out
}
