package storage

import (
	"time"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("snapshots")

// BoltKV is a KV backed by a single bbolt file -- the single-process
// backend spec section 6 asks for, grounded on the store/db.go pattern the
// broader pack uses for bbolt: one bucket, Update/View transactions, keys
// as raw bytes.
type BoltKV struct {
	db *bolt.DB
}

// OpenBoltKV opens (creating if necessary) a bbolt database at path and
// ensures the snapshot bucket exists.
func OpenBoltKV(path string) (*BoltKV, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, xStorage("bolt.open", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, xStorage("bolt.open", err)
	}
	return &BoltKV{db: db}, nil
}

// Close releases the underlying bbolt file handle.
func (b *BoltKV) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Get returns the value stored under key, or a nil slice if absent.
func (b *BoltKV) Get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(boltBucket).Get(key)
		if v != nil {
			out = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, xStorage("bolt.get", err)
	}
	return out, nil
}

// Set writes value under key, overwriting any prior value.
func (b *BoltKV) Set(key, value []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put(key, value)
	})
	if err != nil {
		return xStorage("bolt.set", err)
	}
	return nil
}
