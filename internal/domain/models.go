// Package domain contains core models shared across the poster and provisioner.
package domain

// Account is the persisted record for one business account. UserID is the
// storage key and never changes once assigned; Name is refreshed on each
// reconciliation; the remaining fields are operator-owned and only ever
// touched by explicit operator edits or the posting pipeline (PostIDs).
type Account struct {
	UserID      string   `json:"user_id"`
	Name        string   `json:"name"`
	Collections string   `json:"collections"`
	Captions    []string `json:"captions"`
	Hashtags    []string `json:"hashtags"`
	PostIDs     []string `json:"post_ids"`
}

// HasPosted reports whether the given image id is already in the dedup ledger.
func (a Account) HasPosted(imageID string) bool {
	for _, id := range a.PostIDs {
		if id == imageID {
			return true
		}
	}
	return false
}

// ImageDescriptor is the transient result of one supplier fetch. ID is the
// stable identifier derived from the final image URL and keys the dedup
// ledger; it is never persisted outside an account's post_ids.
type ImageDescriptor struct {
	ID     string
	URL    string
	Author string
}

// PostDraft bundles everything handed to the publishing client for one
// attempt. Discarded after the attempt regardless of outcome.
type PostDraft struct {
	UserID   string
	ImageURL string
	Caption  string
}
