package storage

import (
	"encoding/json"
	"fmt"

	"github.com/photogram-hq/photogram-poster/internal/domain"
)

// Records are held as generic JSON documents rather than typed structs so
// fields this system does not know about are carried through merge-writes
// untouched. The canonical keys below are the only ones it ever rewrites.

const (
	keyUserID      = "user_id"
	keyName        = "name"
	keyCollections = "collections"
	keyCaptions    = "captions"
	keyHashtags    = "hashtags"
	keyPostIDs     = "post_ids"
)

// decodeRecord parses a stored document and extracts the typed account view.
func decodeRecord(raw []byte) (map[string]any, domain.Account, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, domain.Account{}, fmt.Errorf("decode account record: %w", err)
	}

	var acc domain.Account
	if err := json.Unmarshal(raw, &acc); err != nil {
		return nil, domain.Account{}, fmt.Errorf("decode account fields: %w", err)
	}
	return doc, acc, nil
}

// overlayAccount writes the canonical fields into the document, leaving any
// other keys as they were.
func overlayAccount(doc map[string]any, acc domain.Account) map[string]any {
	if doc == nil {
		doc = make(map[string]any, 6)
	}
	doc[keyUserID] = acc.UserID
	doc[keyName] = acc.Name
	doc[keyCollections] = acc.Collections
	doc[keyCaptions] = stringsOrEmpty(acc.Captions)
	doc[keyHashtags] = stringsOrEmpty(acc.Hashtags)
	doc[keyPostIDs] = stringsOrEmpty(acc.PostIDs)
	return doc
}

// encodeRecord serializes the document for storage.
func encodeRecord(doc map[string]any) ([]byte, error) {
	raw, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode account record: %w", err)
	}
	return raw, nil
}

// newAccount builds the fresh record created on first discovery.
func newAccount(userID, name string) domain.Account {
	return domain.Account{
		UserID:   userID,
		Name:     name,
		Captions: []string{},
		Hashtags: []string{},
		PostIDs:  []string{},
	}
}

// stringsOrEmpty keeps empty sequences serialized as [] rather than null.
func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
