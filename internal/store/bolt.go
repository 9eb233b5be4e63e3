package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	countersBucket = "counters"
	metaBucket     = "meta"
)

// Bolt is the durable Store, one bbolt bucket per entity kind. Records are
// keyed by the bucket sequence number so a cursor walk yields insertion
// order; updating a record rewrites the value under its existing key.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the database file and ensures all
// buckets exist.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, kind := range Kinds() {
			if _, err := tx.CreateBucketIfNotExists([]byte(kind)); err != nil {
				return fmt.Errorf("create bucket %s: %w", kind, err)
			}
		}
		for _, name := range []string{countersBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

func (b *Bolt) List(_ context.Context, kind Kind) ([]json.RawMessage, error) {
	records := make([]json.RawMessage, 0)
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(kind)).ForEach(func(_, value []byte) error {
			records = append(records, bytes.Clone(value))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return records, nil
}

func (b *Bolt) Get(_ context.Context, kind Kind, id string) (json.RawMessage, error) {
	var record json.RawMessage
	err := b.db.View(func(tx *bolt.Tx) error {
		key, value, err := findRecord(tx.Bucket([]byte(kind)), id)
		if err != nil {
			return err
		}
		if key == nil {
			return ErrNotFound
		}
		record = bytes.Clone(value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (b *Bolt) Insert(_ context.Context, kind Kind, record json.RawMessage) (json.RawMessage, error) {
	stored, _, err := withRecordID(record)
	if err != nil {
		return nil, err
	}
	err = b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(kind))
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		return bucket.Put(seqKey(seq), stored)
	})
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", kind, err)
	}
	return stored, nil
}

func (b *Bolt) Update(_ context.Context, kind Kind, id string, partial json.RawMessage) (json.RawMessage, error) {
	var merged json.RawMessage
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(kind))
		key, existing, err := findRecord(bucket, id)
		if err != nil {
			return err
		}
		if key == nil {
			return ErrNotFound
		}
		merged, err = mergeRecord(existing, partial)
		if err != nil {
			return err
		}
		return bucket.Put(key, merged)
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

func (b *Bolt) Delete(_ context.Context, kind Kind, id string) (bool, error) {
	removed := false
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(kind))
		key, _, err := findRecord(bucket, id)
		if err != nil {
			return err
		}
		if key == nil {
			return nil
		}
		removed = true
		return bucket.Delete(key)
	})
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", kind, err)
	}
	return removed, nil
}

func (b *Bolt) Counter(_ context.Context, name string) (int64, error) {
	var value int64
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(countersBucket)).Get([]byte(name))
		if raw == nil {
			return nil
		}
		parsed, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("corrupt counter %s: %w", name, err)
		}
		value = parsed
		return nil
	})
	return value, err
}

func (b *Bolt) SetCounter(_ context.Context, name string, value int64) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(countersBucket)).Put([]byte(name), []byte(strconv.FormatInt(value, 10)))
	})
}

func (b *Bolt) Meta(_ context.Context, key string) (json.RawMessage, error) {
	var value json.RawMessage
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(metaBucket)).Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}
		value = bytes.Clone(raw)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *Bolt) PutMeta(_ context.Context, key string, value json.RawMessage) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(metaBucket)).Put([]byte(key), value)
	})
}

func (b *Bolt) DeleteMeta(_ context.Context, key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(metaBucket)).Delete([]byte(key))
	})
}

// findRecord walks the bucket looking for the record whose "id" field equals
// id. Returns a nil key when no record matches.
func findRecord(bucket *bolt.Bucket, id string) ([]byte, []byte, error) {
	cursor := bucket.Cursor()
	for key, value := cursor.First(); key != nil; key, value = cursor.Next() {
		candidate, err := recordID(value)
		if err != nil {
			return nil, nil, err
		}
		if candidate == id {
			return key, value, nil
		}
	}
	return nil, nil, nil
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
