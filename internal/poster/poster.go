package poster

import (
	"context"
	"errors"
	"fmt"

	"github.com/photogram-hq/photogram-poster/internal/caption"
	"github.com/photogram-hq/photogram-poster/internal/domain"
	"github.com/photogram-hq/photogram-poster/internal/logger"
	"github.com/photogram-hq/photogram-poster/internal/storage"
	"github.com/photogram-hq/photogram-poster/pkg/notify"
)

// Service drives one posting cycle across all stored accounts. Accounts are
// processed strictly one at a time; a failure in one never prevents
// processing of the next.
type Service struct {
	store     storage.Store
	supplier  ImageSupplier
	publisher PublishingClient
	captions  *caption.Builder
	notifier  EventNotifier
	log       logger.Logger
}

// NewService wires the posting orchestrator. notifier may be nil when no
// downstream sinks are configured.
func NewService(store storage.Store, supplier ImageSupplier, publisher PublishingClient, captions *caption.Builder, notifier EventNotifier, log logger.Logger) *Service {
	return &Service{
		store:     store,
		supplier:  supplier,
		publisher: publisher,
		captions:  captions,
		notifier:  notifier,
		log:       logger.Ensure(log),
	}
}

// RunCycle attempts to produce and publish one post per stored account.
// Per-account failures are collected and joined; only an unenumerable store
// aborts the cycle outright.
func (s *Service) RunCycle(ctx context.Context) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("poster service is not initialized")
	}

	accounts, err := s.store.LoadAll()
	if err != nil {
		return fmt.Errorf("enumerate accounts: %w", err)
	}
	if len(accounts) == 0 {
		s.log.WarnObj("no accounts in store; nothing to post", "accounts_count", 0)
		return nil
	}

	errs := make([]error, 0, len(accounts))
	for _, acc := range accounts {
		if err := s.postOne(ctx, acc); err != nil {
			errs = append(errs, fmt.Errorf("account %s: %w", acc.UserID, err))
			s.log.ErrorObj("account posting failed", "account_error", map[string]any{
				"user_id": acc.UserID,
				"name":    acc.Name,
				"error":   err.Error(),
			})
		}
	}
	return errors.Join(errs...)
}

// postOne runs the per-account pipeline: eligibility, image fetch, dedup,
// caption, publish. Skips (incomplete configuration, duplicate image) return
// nil; only genuine step failures surface as errors.
func (s *Service) postOne(ctx context.Context, acc domain.Account) error {
	s.log.InfoObj("starting posting process", "account", map[string]any{
		"user_id": acc.UserID,
		"name":    acc.Name,
	})

	if acc.Collections == "" {
		s.log.WarnObj("account skipped: no image source configured", "user_id", acc.UserID)
		return nil
	}

	img, err := s.supplier.FetchRandom(ctx, acc.Collections)
	if err != nil {
		return fmt.Errorf("image fetch failed: %w", err)
	}

	if acc.HasPosted(img.ID) {
		s.log.InfoObj("duplicate image; skipping account this cycle", "duplicate", map[string]any{
			"user_id":  acc.UserID,
			"image_id": img.ID,
		})
		return nil
	}

	// The dedup ledger entry is made durable before any publish attempt so
	// a crash later in the cycle can never cause the same image to be
	// selected again. If the publish below fails, the entry stands.
	if err := s.store.AppendPostID(acc.UserID, img.ID); err != nil {
		return fmt.Errorf("record image id: %w", err)
	}

	if len(acc.Captions) == 0 {
		s.log.WarnObj("account skipped: no captions configured", "user_id", acc.UserID)
		return nil
	}

	draft := domain.PostDraft{
		UserID:   acc.UserID,
		ImageURL: img.URL,
		Caption:  s.captions.Build(acc, img),
	}
	s.log.InfoObj("caption built", "draft", map[string]any{
		"user_id":  draft.UserID,
		"image_id": img.ID,
	})

	containerID, err := s.publisher.CreateContainer(ctx, draft.UserID, draft.ImageURL, draft.Caption)
	if err != nil {
		return err
	}
	if err := s.publisher.Publish(ctx, draft.UserID, containerID); err != nil {
		return err
	}

	s.log.InfoObj("post published", "published", map[string]any{
		"user_id":      acc.UserID,
		"image_id":     img.ID,
		"container_id": containerID,
	})

	s.notify(ctx, acc, img, draft, containerID)
	return nil
}

// notify emits a post event to the configured sinks. Best effort: sink
// failures are logged, never propagated into the account's result.
func (s *Service) notify(ctx context.Context, acc domain.Account, img domain.ImageDescriptor, draft domain.PostDraft, containerID string) {
	if s.notifier == nil {
		return
	}

	evt := notify.NewEvent(acc.UserID, acc.Name, img.ID, draft.ImageURL, draft.Caption, containerID)
	if _, err := s.notifier.Send(ctx, evt); err != nil {
		s.log.WarnObj("post event delivery failed", "notify_error", map[string]any{
			"user_id": acc.UserID,
			"error":   err.Error(),
		})
	}
}
