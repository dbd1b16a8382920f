package evidence

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/linesmerrill/court-session-api/models"
	"github.com/linesmerrill/court-session-api/registry"
)

const (
	metaPrefix = "evidence:meta:"
	blobPrefix = "evidence:blob:"
)

// Store keeps uploaded evidence bytes and their metadata in badger
type Store struct {
	db *badger.DB
}

// OpenStore opens a badger store at path, or an in-memory one when path is
// empty.
func OpenStore(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open evidence store: %w", err)
	}
	return &Store{db: db}, nil
}

// Put stores a file and its metadata in one transaction
func (s *Store) Put(file models.EvidenceFile, data []byte) error {
	meta, err := json.Marshal(file)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(metaPrefix+file.Label), meta); err != nil {
			return err
		}
		return txn.Set([]byte(blobPrefix+file.Label), data)
	})
}

// Meta returns a file's metadata
func (s *Store) Meta(label string) (models.EvidenceFile, error) {
	var file models.EvidenceFile
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaPrefix + label))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &file)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.EvidenceFile{}, fmt.Errorf("evidence %q: %w", label, registry.ErrNotFound)
	}
	return file, err
}

// Get returns a file's metadata and contents
func (s *Store) Get(label string) (models.EvidenceFile, []byte, error) {
	file, err := s.Meta(label)
	if err != nil {
		return models.EvidenceFile{}, nil, err
	}
	var data []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(blobPrefix + label))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.EvidenceFile{}, nil, fmt.Errorf("evidence %q: %w", label, registry.ErrNotFound)
	}
	return file, data, err
}

// List returns the metadata of every stored file in label order
func (s *Store) List() ([]models.EvidenceFile, error) {
	files := []models.EvidenceFile{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(metaPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var file models.EvidenceFile
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &file)
			})
			if err != nil {
				return err
			}
			files = append(files, file)
		}
		return nil
	})
	return files, err
}

// Delete removes a file. Deleting an unknown label is ErrNotFound.
func (s *Store) Delete(label string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(metaPrefix + label)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("evidence %q: %w", label, registry.ErrNotFound)
			}
			return err
		}
		if err := txn.Delete([]byte(metaPrefix + label)); err != nil {
			return err
		}
		return txn.Delete([]byte(blobPrefix + label))
	})
}

// Close releases the store
func (s *Store) Close() error {
	return s.db.Close()
}
