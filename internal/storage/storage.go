// Package storage provides the durable per-account record store.
package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/photogram-hq/photogram-poster/internal/domain"
)

// ErrNotFound is returned when no record exists for the requested user id.
var ErrNotFound = errors.New("account not found")

// Store persists one record per business account, keyed by user id. Every
// mutation is atomic per record: a reader observes either the prior complete
// record or the new complete record, never a mix. Unknown fields present in
// a stored record survive all merge-writes.
type Store interface {
	Close() error

	// LoadAll returns every stored account in a stable (key-sorted) order.
	LoadAll() ([]domain.Account, error)

	// Load returns the account for userID, or ErrNotFound.
	Load(userID string) (domain.Account, error)

	// Upsert writes the full record, overwriting the canonical fields by
	// user id while preserving any unknown fields already stored.
	Upsert(acc domain.Account) error

	// MergeName updates only the name field, creating a fresh record
	// (empty captions/hashtags/post_ids, no collections) when absent.
	// It reports whether the record was created.
	MergeName(userID, name string) (bool, error)

	// AppendPostID appends imageID to the account's dedup ledger and makes
	// the write durable before returning. Appending an id already present
	// is a no-op; ledger entries are never removed.
	AppendPostID(userID, imageID string) error
}

// NewStore creates the configured storage backend.
func NewStore(typ, path string) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("account storage requires a path")
	}

	switch typ {
	case "", "file":
		return newFileStore(path)
	case "bbolt":
		return openBolt(path)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}
