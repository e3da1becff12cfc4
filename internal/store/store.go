package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	xxhash "github.com/OneOfOne/xxhash"
	"github.com/dgraph-io/badger/v3"

	"amply-waveform/internal/waveform"
)

const (
	docPrefix    = "doc/"
	sumPrefix    = "sum/"
	docSumPrefix = "docsum/"
)

var ErrNotFound = errors.New("store: not found")

// Store keeps waveform documents by key, plus an index from the content checksum
// of the source audio to the document key.
type Store struct {
	db *badger.DB
}

// Open opens a store under dir, creating it if needed. An empty dir opens an
// in-memory store.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Checksum hashes audio content for duplicate detection.
func Checksum(data []byte) uint64 {
	return xxhash.Checksum64(data)
}

func sumKey(sum uint64) []byte {
	k := make([]byte, len(sumPrefix)+8)
	copy(k, sumPrefix)
	binary.BigEndian.PutUint64(k[len(sumPrefix):], sum)
	return k
}

func encodeSum(sum uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, sum)
}

// Put stores doc under key and records sum as its source checksum. The index
// entry of the content previously stored under key is dropped when it still
// points there.
func (s *Store) Put(key string, sum uint64, doc waveform.Document) error {
	val, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if prev, err := sumOf(txn, key); err == nil && prev != sum {
			if err := dropSum(txn, prev, key); err != nil {
				return err
			}
		} else if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set([]byte(docPrefix+key), val); err != nil {
			return err
		}
		if err := txn.Set([]byte(docSumPrefix+key), encodeSum(sum)); err != nil {
			return err
		}
		return txn.Set(sumKey(sum), []byte(key))
	})
}

func sumOf(txn *badger.Txn, key string) (uint64, error) {
	item, err := txn.Get([]byte(docSumPrefix + key))
	if err != nil {
		return 0, err
	}
	v, err := item.ValueCopy(nil)
	if err != nil {
		return 0, err
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("corrupt checksum for %s", key)
	}
	return binary.BigEndian.Uint64(v), nil
}

func dropSum(txn *badger.Txn, sum uint64, key string) error {
	item, err := txn.Get(sumKey(sum))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	owner, err := item.ValueCopy(nil)
	if err != nil || string(owner) != key {
		return err
	}
	return txn.Delete(sumKey(sum))
}

// Get returns the document stored under key.
func (s *Store) Get(key string) (*waveform.Document, error) {
	var doc waveform.Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(docPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return &doc, nil
}

// SumForKey returns the source checksum of the document stored under key.
func (s *Store) SumForKey(key string) (uint64, error) {
	var sum uint64
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		sum, err = sumOf(txn, key)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, ErrNotFound
	}
	return sum, err
}

// KeyForSum returns the key of the document last stored for content sum.
func (s *Store) KeyForSum(sum uint64) (string, error) {
	var key string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sumKey(sum))
		if err != nil {
			return err
		}
		v, err := item.ValueCopy(nil)
		key = string(v)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	return key, err
}

// Keys lists the document keys starting with prefix, in key order.
func (s *Store) Keys(prefix string) ([]string, error) {
	var keys []string
	full := []byte(docPrefix + prefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(full); it.ValidForPrefix(full); it.Next() {
			keys = append(keys, string(it.Item().Key()[len(docPrefix):]))
		}
		return nil
	})
	return keys, err
}
