package poster

import (
	"context"
	"errors"
	"testing"

	"github.com/photogram-hq/photogram-poster/internal/caption"
	"github.com/photogram-hq/photogram-poster/internal/domain"
	"github.com/photogram-hq/photogram-poster/internal/storage"
	"github.com/photogram-hq/photogram-poster/pkg/notify"
)

type fakeStore struct {
	accounts   map[string]*domain.Account
	order      []string
	loadAllErr error
	appendErr  error
	appends    []string
}

func newFakeStore(accounts ...domain.Account) *fakeStore {
	s := &fakeStore{accounts: make(map[string]*domain.Account)}
	for i := range accounts {
		acc := accounts[i]
		s.accounts[acc.UserID] = &acc
		s.order = append(s.order, acc.UserID)
	}
	return s
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) LoadAll() ([]domain.Account, error) {
	if s.loadAllErr != nil {
		return nil, s.loadAllErr
	}
	out := make([]domain.Account, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.accounts[id])
	}
	return out, nil
}

func (s *fakeStore) Load(userID string) (domain.Account, error) {
	acc, ok := s.accounts[userID]
	if !ok {
		return domain.Account{}, storage.ErrNotFound
	}
	return *acc, nil
}

func (s *fakeStore) Upsert(acc domain.Account) error {
	cp := acc
	s.accounts[acc.UserID] = &cp
	return nil
}

func (s *fakeStore) MergeName(userID, name string) (bool, error) {
	if acc, ok := s.accounts[userID]; ok {
		acc.Name = name
		return false, nil
	}
	s.accounts[userID] = &domain.Account{UserID: userID, Name: name}
	s.order = append(s.order, userID)
	return true, nil
}

func (s *fakeStore) AppendPostID(userID, imageID string) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	acc, ok := s.accounts[userID]
	if !ok {
		return storage.ErrNotFound
	}
	if !acc.HasPosted(imageID) {
		acc.PostIDs = append(acc.PostIDs, imageID)
	}
	s.appends = append(s.appends, userID+":"+imageID)
	return nil
}

type fakeSupplier struct {
	byCollections map[string]domain.ImageDescriptor
	err           error
	calls         int
}

func (f *fakeSupplier) FetchRandom(_ context.Context, collections string) (domain.ImageDescriptor, error) {
	f.calls++
	if f.err != nil {
		return domain.ImageDescriptor{}, f.err
	}
	return f.byCollections[collections], nil
}

type publishedPost struct {
	userID   string
	imageURL string
	caption  string
}

type fakePublisher struct {
	createErr  error
	publishErr error
	created    []publishedPost
	published  []string
}

func (f *fakePublisher) CreateContainer(_ context.Context, userID, imageURL, caption string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, publishedPost{userID: userID, imageURL: imageURL, caption: caption})
	return "container-" + userID, nil
}

func (f *fakePublisher) Publish(_ context.Context, userID, containerID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, userID+"/"+containerID)
	return nil
}

type fakeNotifier struct {
	events []notify.Event
	err    error
}

func (f *fakeNotifier) Send(_ context.Context, evt notify.Event) (int, error) {
	f.events = append(f.events, evt)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

func pickFirst(int) int { return 0 }

func newService(store *fakeStore, supplier *fakeSupplier, publisher *fakePublisher, notifier EventNotifier) *Service {
	return NewService(store, supplier, publisher, caption.NewBuilder(pickFirst, nil), notifier, nil)
}

func TestRunCyclePublishesNewImage(t *testing.T) {
	store := newFakeStore(domain.Account{
		UserID:      "U1",
		Name:        "Cars Daily",
		Collections: "C1",
		Captions:    []string{"Hi"},
		Hashtags:    []string{},
		PostIDs:     []string{},
	})
	supplier := &fakeSupplier{byCollections: map[string]domain.ImageDescriptor{
		"C1": {ID: "IMG1", URL: "https://x/photo-IMG1?raw", Author: "Jane"},
	}}
	publisher := &fakePublisher{}

	if err := newService(store, supplier, publisher, nil).RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	acc, _ := store.Load("U1")
	if len(acc.PostIDs) != 1 || acc.PostIDs[0] != "IMG1" {
		t.Fatalf("post_ids = %v, want [IMG1]", acc.PostIDs)
	}
	if len(publisher.created) != 1 {
		t.Fatalf("expected one container created, got %d", len(publisher.created))
	}
	draft := publisher.created[0]
	if draft.userID != "U1" || draft.imageURL != "https://x/photo-IMG1?raw" {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	if draft.caption != "Hi\n\nPhoto by Jane." {
		t.Fatalf("caption = %q", draft.caption)
	}
	if len(publisher.published) != 1 || publisher.published[0] != "U1/container-U1" {
		t.Fatalf("publish calls = %v", publisher.published)
	}
}

func TestRunCycleSkipsDuplicateImage(t *testing.T) {
	store := newFakeStore(domain.Account{
		UserID:      "U1",
		Collections: "C1",
		Captions:    []string{"Hi"},
		PostIDs:     []string{"IMG1"},
	})
	supplier := &fakeSupplier{byCollections: map[string]domain.ImageDescriptor{
		"C1": {ID: "IMG1", URL: "https://x/photo-IMG1?raw", Author: "Jane"},
	}}
	publisher := &fakePublisher{}

	if err := newService(store, supplier, publisher, nil).RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	acc, _ := store.Load("U1")
	if len(acc.PostIDs) != 1 {
		t.Fatalf("post_ids = %v, want unchanged [IMG1]", acc.PostIDs)
	}
	if len(publisher.created) != 0 || len(publisher.published) != 0 {
		t.Fatal("duplicate image must not reach the publishing client")
	}
}

func TestRunCycleSkipsAccountWithoutCollections(t *testing.T) {
	store := newFakeStore(domain.Account{
		UserID:   "U1",
		Captions: []string{"Hi"},
	})
	supplier := &fakeSupplier{}
	publisher := &fakePublisher{}

	if err := newService(store, supplier, publisher, nil).RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if supplier.calls != 0 {
		t.Fatal("supplier must not be called without an image source")
	}
	if len(publisher.created) != 0 {
		t.Fatal("publisher must not be called without an image source")
	}
}

func TestRunCycleAppendStandsWhenCaptionsMissing(t *testing.T) {
	store := newFakeStore(domain.Account{
		UserID:      "U1",
		Collections: "C1",
	})
	supplier := &fakeSupplier{byCollections: map[string]domain.ImageDescriptor{
		"C1": {ID: "IMG1", URL: "https://x/photo-IMG1?raw"},
	}}
	publisher := &fakePublisher{}

	if err := newService(store, supplier, publisher, nil).RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	acc, _ := store.Load("U1")
	if len(acc.PostIDs) != 1 || acc.PostIDs[0] != "IMG1" {
		t.Fatalf("dedup append must stand, post_ids = %v", acc.PostIDs)
	}
	if len(publisher.created) != 0 {
		t.Fatal("publisher must not be called without captions")
	}
}

func TestRunCycleCreateContainerFailureKeepsLedger(t *testing.T) {
	store := newFakeStore(
		domain.Account{UserID: "U1", Collections: "C1", Captions: []string{"Hi"}},
		domain.Account{UserID: "U2", Collections: "C2", Captions: []string{"Yo"}},
	)
	supplier := &fakeSupplier{byCollections: map[string]domain.ImageDescriptor{
		"C1": {ID: "IMG1", URL: "https://x/photo-IMG1?raw", Author: "A"},
		"C2": {ID: "IMG2", URL: "https://x/photo-IMG2?raw", Author: "B"},
	}}
	publisher := &fakePublisher{createErr: errors.New("graph create media container: status 400")}

	err := newService(store, supplier, publisher, nil).RunCycle(context.Background())
	if err == nil {
		t.Fatal("expected joined per-account errors")
	}

	// Both accounts were attempted despite the first failure.
	if supplier.calls != 2 {
		t.Fatalf("supplier calls = %d, want 2", supplier.calls)
	}
	acc1, _ := store.Load("U1")
	if len(acc1.PostIDs) != 1 || acc1.PostIDs[0] != "IMG1" {
		t.Fatalf("dedup append must survive the publish failure, post_ids = %v", acc1.PostIDs)
	}
	if len(publisher.published) != 0 {
		t.Fatal("publish must not be called after container creation fails")
	}
}

func TestRunCycleSupplierFailureIsolatesAccount(t *testing.T) {
	store := newFakeStore(
		domain.Account{UserID: "U1", Collections: "C1", Captions: []string{"Hi"}},
		domain.Account{UserID: "U2", Collections: "C2", Captions: []string{"Yo"}},
	)
	supplier := &fakeSupplier{err: errors.New("unsplash fetch random photo: status 500")}
	publisher := &fakePublisher{}

	err := newService(store, supplier, publisher, nil).RunCycle(context.Background())
	if err == nil {
		t.Fatal("expected errors")
	}
	if supplier.calls != 2 {
		t.Fatalf("both accounts must be attempted, supplier calls = %d", supplier.calls)
	}
}

func TestRunCycleFatalWhenStoreUnenumerable(t *testing.T) {
	store := newFakeStore()
	store.loadAllErr = errors.New("permission denied")

	err := newService(store, &fakeSupplier{}, &fakePublisher{}, nil).RunCycle(context.Background())
	if err == nil {
		t.Fatal("unenumerable store must abort the cycle")
	}
}

func TestRunCycleStorageErrorFailsOnlyThatAccount(t *testing.T) {
	store := newFakeStore(domain.Account{
		UserID:      "U1",
		Collections: "C1",
		Captions:    []string{"Hi"},
	})
	store.appendErr = errors.New("disk full")
	supplier := &fakeSupplier{byCollections: map[string]domain.ImageDescriptor{
		"C1": {ID: "IMG1", URL: "https://x/photo-IMG1?raw"},
	}}
	publisher := &fakePublisher{}

	err := newService(store, supplier, publisher, nil).RunCycle(context.Background())
	if err == nil {
		t.Fatal("expected error from failed ledger write")
	}
	if len(publisher.created) != 0 {
		t.Fatal("publish must not proceed when the ledger write fails")
	}
}

func TestRunCycleNotifiesAfterPublish(t *testing.T) {
	store := newFakeStore(domain.Account{
		UserID:      "U1",
		Name:        "Cars Daily",
		Collections: "C1",
		Captions:    []string{"Hi"},
	})
	supplier := &fakeSupplier{byCollections: map[string]domain.ImageDescriptor{
		"C1": {ID: "IMG1", URL: "https://x/photo-IMG1?raw", Author: "Jane"},
	}}
	publisher := &fakePublisher{}
	notifier := &fakeNotifier{}

	if err := newService(store, supplier, publisher, notifier).RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("expected one event, got %d", len(notifier.events))
	}
	evt := notifier.events[0]
	if evt.UserID != "U1" || evt.ImageID != "IMG1" || evt.AccountName != "Cars Daily" {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestRunCycleNotifierFailureIsNonFatal(t *testing.T) {
	store := newFakeStore(domain.Account{
		UserID:      "U1",
		Collections: "C1",
		Captions:    []string{"Hi"},
	})
	supplier := &fakeSupplier{byCollections: map[string]domain.ImageDescriptor{
		"C1": {ID: "IMG1", URL: "https://x/photo-IMG1?raw"},
	}}
	notifier := &fakeNotifier{err: errors.New("sink down")}

	if err := newService(store, supplier, &fakePublisher{}, notifier).RunCycle(context.Background()); err != nil {
		t.Fatalf("sink failure must not fail the account: %v", err)
	}
}
