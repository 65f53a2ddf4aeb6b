package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/photogram-hq/photogram-poster/internal/domain"
)

const accountBucket = "accounts"

// boltStore implements a Store backed by BoltDB. Each mutation runs in a
// single update transaction, which gives per-record atomicity for free.
type boltStore struct {
	db *bolt.DB
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(accountBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *boltStore) LoadAll() ([]domain.Account, error) {
	var accounts []domain.Account
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(accountBucket))
		if bucket == nil {
			return fmt.Errorf("account bucket missing")
		}
		return bucket.ForEach(func(k, v []byte) error {
			_, acc, err := decodeRecord(v)
			if err != nil {
				return fmt.Errorf("account %s: %w", string(k), err)
			}
			accounts = append(accounts, acc)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate accounts: %w", err)
	}

	sort.Slice(accounts, func(i, j int) bool { return accounts[i].UserID < accounts[j].UserID })
	return accounts, nil
}

func (b *boltStore) Load(userID string) (domain.Account, error) {
	var acc domain.Account
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(accountBucket))
		if bucket == nil {
			return fmt.Errorf("account bucket missing")
		}
		raw := bucket.Get([]byte(userID))
		if raw == nil {
			return ErrNotFound
		}
		var err error
		_, acc, err = decodeRecord(raw)
		return err
	})
	if err != nil {
		if err == ErrNotFound {
			return domain.Account{}, ErrNotFound
		}
		return domain.Account{}, fmt.Errorf("load account %s: %w", userID, err)
	}
	return acc, nil
}

func (b *boltStore) Upsert(acc domain.Account) error {
	if acc.UserID == "" {
		return fmt.Errorf("account user id is empty")
	}
	return b.update(acc.UserID, func(doc map[string]any, _ domain.Account, _ bool) (map[string]any, error) {
		return overlayAccount(doc, acc), nil
	})
}

func (b *boltStore) MergeName(userID, name string) (bool, error) {
	created := false
	err := b.update(userID, func(doc map[string]any, _ domain.Account, exists bool) (map[string]any, error) {
		if !exists {
			created = true
			return overlayAccount(nil, newAccount(userID, name)), nil
		}
		doc[keyName] = name
		return doc, nil
	})
	return created, err
}

func (b *boltStore) AppendPostID(userID, imageID string) error {
	return b.update(userID, func(doc map[string]any, acc domain.Account, exists bool) (map[string]any, error) {
		if !exists {
			return nil, ErrNotFound
		}
		if acc.HasPosted(imageID) {
			return doc, nil
		}
		doc[keyPostIDs] = append(stringsOrEmpty(acc.PostIDs), imageID)
		return doc, nil
	})
}

// update applies a read-modify-write of one record inside a transaction.
func (b *boltStore) update(userID string, fn func(doc map[string]any, acc domain.Account, exists bool) (map[string]any, error)) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(accountBucket))
		if bucket == nil {
			return fmt.Errorf("account bucket missing")
		}

		key := []byte(userID)
		var (
			doc    map[string]any
			acc    domain.Account
			exists bool
		)
		if raw := bucket.Get(key); raw != nil {
			var err error
			doc, acc, err = decodeRecord(raw)
			if err != nil {
				return err
			}
			exists = true
		}

		doc, err := fn(doc, acc, exists)
		if err != nil {
			return err
		}

		raw, err := encodeRecord(doc)
		if err != nil {
			return err
		}
		return bucket.Put(key, raw)
	})
	if err != nil {
		if err == ErrNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("update account %s: %w", userID, err)
	}
	return nil
}
