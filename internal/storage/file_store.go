package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/photogram-hq/photogram-poster/internal/domain"
)

// fileStore keeps one <user_id>.json document per account under a directory.
type fileStore struct {
	dir string
}

// newFileStore initializes the directory-backed Store.
func newFileStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create accounts directory: %w", err)
	}
	return &fileStore{dir: dir}, nil
}

func (f *fileStore) Close() error { return nil }

// LoadAll reads every account record, sorted by user id.
func (f *fileStore) LoadAll() ([]domain.Account, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("enumerate accounts: %w", err)
	}

	accounts := make([]domain.Account, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		acc, err := f.Load(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}

	sort.Slice(accounts, func(i, j int) bool { return accounts[i].UserID < accounts[j].UserID })
	return accounts, nil
}

func (f *fileStore) Load(userID string) (domain.Account, error) {
	raw, err := os.ReadFile(f.recordPath(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Account{}, ErrNotFound
		}
		return domain.Account{}, fmt.Errorf("read account %s: %w", userID, err)
	}
	_, acc, err := decodeRecord(raw)
	if err != nil {
		return domain.Account{}, fmt.Errorf("account %s: %w", userID, err)
	}
	return acc, nil
}

func (f *fileStore) Upsert(acc domain.Account) error {
	if strings.TrimSpace(acc.UserID) == "" {
		return fmt.Errorf("account user id is empty")
	}
	doc, err := f.loadDoc(acc.UserID)
	if err != nil && err != ErrNotFound {
		return err
	}
	return f.writeDoc(acc.UserID, overlayAccount(doc, acc))
}

func (f *fileStore) MergeName(userID, name string) (bool, error) {
	doc, err := f.loadDoc(userID)
	if err == ErrNotFound {
		acc := newAccount(userID, name)
		return true, f.writeDoc(userID, overlayAccount(nil, acc))
	}
	if err != nil {
		return false, err
	}

	doc[keyName] = name
	return false, f.writeDoc(userID, doc)
}

func (f *fileStore) AppendPostID(userID, imageID string) error {
	doc, acc, err := f.loadRecord(userID)
	if err != nil {
		return err
	}
	if acc.HasPosted(imageID) {
		return nil
	}

	doc[keyPostIDs] = append(stringsOrEmpty(acc.PostIDs), imageID)
	return f.writeDoc(userID, doc)
}

func (f *fileStore) loadDoc(userID string) (map[string]any, error) {
	doc, _, err := f.loadRecord(userID)
	return doc, err
}

func (f *fileStore) loadRecord(userID string) (map[string]any, domain.Account, error) {
	raw, err := os.ReadFile(f.recordPath(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.Account{}, ErrNotFound
		}
		return nil, domain.Account{}, fmt.Errorf("read account %s: %w", userID, err)
	}
	doc, acc, err := decodeRecord(raw)
	if err != nil {
		return nil, domain.Account{}, fmt.Errorf("account %s: %w", userID, err)
	}
	return doc, acc, nil
}

// writeDoc replaces the record atomically: the document is written to a
// temporary file in the same directory, synced, then renamed over the record.
func (f *fileStore) writeDoc(userID string, doc map[string]any) error {
	raw, err := encodeRecord(doc)
	if err != nil {
		return fmt.Errorf("account %s: %w", userID, err)
	}

	tmp, err := os.CreateTemp(f.dir, ".account-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write account %s: %w", userID, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync account %s: %w", userID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close account %s: %w", userID, err)
	}

	if err := os.Rename(tmpName, f.recordPath(userID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace account %s: %w", userID, err)
	}
	return nil
}

func (f *fileStore) recordPath(userID string) string {
	return filepath.Join(f.dir, userID+".json")
}
