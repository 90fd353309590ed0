package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")
)

// CorruptSuffix is appended to an index file that could not be opened.
const CorruptSuffix = ".corrupt"

// openBolt opens the index database at path, creating the buckets it needs.
func openBolt(path string) (*bbolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			closeQuietly(db)
			panic(r)
		}
	}()

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketVectors, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// quarantine moves an unreadable index file to path+CorruptSuffix so the
// next ingestion starts from an empty index.
func quarantine(path string, cause error, logger *slog.Logger) error {
	moved := path + CorruptSuffix
	if err := os.Rename(path, moved); err != nil {
		return fmt.Errorf("failed to open index (%v) and failed to move it aside: %w", cause, err)
	}
	logger.Warn("index file is unreadable, starting with an empty index",
		"path", path, "moved_to", moved, "error", cause)
	return nil
}

// closeQuietly closes a database whose pages may be damaged.
func closeQuietly(db *bbolt.DB) {
	defer func() { _ = recover() }()
	db.Close()
}

// clearBuckets drops every stored vector and the fingerprint.
func clearBuckets(db *bbolt.DB) error {
	return db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketVectors, bucketMeta} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}
