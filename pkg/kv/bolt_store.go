package kv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	boltDirPerm  = fs.FileMode(0o700)
	boltFilePerm = fs.FileMode(0o600)
)

var defaultBucket = []byte("kv")

// BoltConfig configures the local embedded database.
type BoltConfig struct {
	Path        string        `env:"KV_BOLT_PATH" envDefault:"noteauth.db"`
	OpenTimeout time.Duration `env:"KV_BOLT_OPEN_TIMEOUT" envDefault:"5s"`
	Bucket      string        `env:"KV_BOLT_BUCKET" envDefault:"kv"`
}

// BoltStore implements Store on top of a bbolt database file.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
}

// OpenBolt opens (creating if needed) the database at cfg.Path.
func OpenBolt(cfg BoltConfig) (*BoltStore, error) {
	if cfg.Path == "" {
		return nil, errors.Join(ErrUnavailable, errors.New("empty database path"))
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), boltDirPerm); err != nil {
		return nil, errors.Join(ErrUnavailable, fmt.Errorf("creating database directory: %w", err))
	}

	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	db, err := bolt.Open(cfg.Path, boltFilePerm, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, errors.Join(ErrUnavailable, fmt.Errorf("opening database: %w", err))
	}

	bucket := defaultBucket
	if cfg.Bucket != "" {
		bucket = []byte(cfg.Bucket)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrUnavailable, fmt.Errorf("creating bucket: %w", err))
	}

	return &BoltStore{db: db, bucket: bucket}, nil
}

// Get returns the value for key.
func (s *BoltStore) Get(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v != nil {
			// bbolt values are only valid for the life of the transaction.
			value = string(v)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", errors.Join(ErrUnavailable, err)
	}
	if !found {
		return "", ErrNotFound
	}
	return value, nil
}

// Set stores value under key.
func (s *BoltStore) Set(_ context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}

// Remove deletes key.
func (s *BoltStore) Remove(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}

// Close releases the database file lock.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
