package provisioner

import (
	"context"
	"errors"
	"fmt"

	"github.com/photogram-hq/photogram-poster/internal/logger"
	"github.com/photogram-hq/photogram-poster/internal/storage"
	"github.com/photogram-hq/photogram-poster/pkg/instagram"
	"github.com/photogram-hq/photogram-poster/pkg/seeds"
)

// Directory is the account discovery surface of the Graph API.
type Directory interface {
	ListPages(ctx context.Context) ([]instagram.Page, error)
	BusinessUserID(ctx context.Context, pageID string) (string, error)
	MediaCount(ctx context.Context, userID string) (int, error)
}

// Service reconciles the account store against the remote directory.
// Discovery owns only the name field; operator-owned fields (captions,
// hashtags, collections, post_ids) are never overwritten on existing
// records. Accounts that disappear remotely are left untouched.
type Service struct {
	directory Directory
	store     storage.Store
	defaults  *seeds.Defaults
	log       logger.Logger
}

// NewService wires the provisioner. defaults may be nil when no seeds file
// is configured.
func NewService(directory Directory, store storage.Store, defaults *seeds.Defaults, log logger.Logger) *Service {
	return &Service{
		directory: directory,
		store:     store,
		defaults:  defaults,
		log:       logger.Ensure(log),
	}
}

// Reconcile discovers the business accounts reachable under the configured
// credential and creates or refreshes their store records.
func (s *Service) Reconcile(ctx context.Context) error {
	if s == nil || s.directory == nil || s.store == nil {
		return fmt.Errorf("provisioner is not initialized")
	}

	s.log.InfoObj("fetching account information from directory", "op", "reconcile")
	pages, err := s.directory.ListPages(ctx)
	if err != nil {
		return fmt.Errorf("list pages: %w", err)
	}
	if len(pages) == 0 {
		s.log.WarnObj("directory returned no pages; nothing to reconcile", "pages_count", 0)
		return nil
	}

	var errs []error
	created, refreshed := 0, 0
	for _, page := range pages {
		userID, err := s.directory.BusinessUserID(ctx, page.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("page %s: %w", page.ID, err))
			s.log.ErrorObj("business account resolution failed", "page_error", map[string]any{
				"page_id": page.ID,
				"error":   err.Error(),
			})
			continue
		}
		if userID == "" {
			s.log.InfoObj("page has no linked business account; skipping", "page_id", page.ID)
			continue
		}

		wasCreated, err := s.store.MergeName(userID, page.Name)
		if err != nil {
			errs = append(errs, fmt.Errorf("account %s: %w", userID, err))
			continue
		}
		if wasCreated {
			created++
			if err := s.applySeeds(userID); err != nil {
				errs = append(errs, fmt.Errorf("seed account %s: %w", userID, err))
				continue
			}
			s.log.InfoObj("account record created", "account", map[string]any{
				"user_id": userID,
				"name":    page.Name,
			})
		} else {
			refreshed++
			s.log.InfoObj("account name refreshed", "account", map[string]any{
				"user_id": userID,
				"name":    page.Name,
			})
		}

		s.logMediaCount(ctx, userID, page.Name)
	}

	s.log.InfoObj("reconciliation completed", "reconcile_result", map[string]any{
		"pages_count": len(pages),
		"created":     created,
		"refreshed":   refreshed,
	})
	return errors.Join(errs...)
}

// applySeeds fills the operator-owned fields of a freshly created record
// from the configured defaults. Never called for existing records.
func (s *Service) applySeeds(userID string) error {
	if s.defaults == nil {
		return nil
	}

	acc, err := s.store.Load(userID)
	if err != nil {
		return err
	}
	acc.Collections = s.defaults.Collections
	acc.Captions = append([]string(nil), s.defaults.Captions...)
	acc.Hashtags = append([]string(nil), s.defaults.Hashtags...)
	return s.store.Upsert(acc)
}

// logMediaCount reports the account's remote post count. Informational only.
func (s *Service) logMediaCount(ctx context.Context, userID, name string) {
	count, err := s.directory.MediaCount(ctx, userID)
	if err != nil {
		s.log.DebugObj("media count fetch failed", "media_count_error", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}
	s.log.InfoObj("account media count", "media_count", map[string]any{
		"user_id": userID,
		"name":    name,
		"posts":   count,
	})
}
