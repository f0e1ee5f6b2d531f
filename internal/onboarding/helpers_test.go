package onboarding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/janisto/dating-onboarding/internal/service/profile"
)

var testNow = time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)

var errDisk = errors.New("disk full")

// flakyKV wraps MemoryKV and fails the configured operations.
type flakyKV struct {
	*MemoryKV
	mu         sync.Mutex
	failGet    bool
	failSet    bool
	failDelete bool
	failSetKey string
}

func newFlakyKV() *flakyKV {
	return &flakyKV{MemoryKV: NewMemoryKV()}
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return nil, errDisk
	}
	return f.MemoryKV.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	fail := f.failSet || (f.failSetKey != "" && f.failSetKey == key)
	f.mu.Unlock()
	if fail {
		return errDisk
	}
	return f.MemoryKV.Set(ctx, key, value, ttl)
}

func (f *flakyKV) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	fail := f.failDelete
	f.mu.Unlock()
	if fail {
		return errDisk
	}
	return f.MemoryKV.Delete(ctx, keys...)
}

type recordingNotifier struct {
	mu    sync.Mutex
	users []string
	err   error
}

func (n *recordingNotifier) OnboardingCompleted(_ context.Context, userID string, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID)
	return n.err
}

type fixture struct {
	kv       *flakyKV
	store    *DraftStore
	profiles *profile.MockStore
	notifier *recordingNotifier
	clock    time.Time
	manager  *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rules := DefaultRules()
	f := &fixture{
		kv:       newFlakyKV(),
		profiles: profile.NewMockStore(rules.MinInterests),
		notifier: &recordingNotifier{},
		clock:    testNow,
	}
	f.store = NewDraftStore(f.kv, 0, rules)
	f.manager = NewManager(Options{
		Store:    f.store,
		Profiles: f.profiles,
		Notifier: f.notifier,
		Rules:    rules,
		IdleTTL:  30 * time.Minute,
		Now:      func() time.Time { return f.clock },
	})
	return f
}

func (f *fixture) open(t *testing.T, device, userID string) *Session {
	t.Helper()
	s, err := f.manager.Open(context.Background(), device, userID)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	return s
}

func ptr[T any](v T) *T { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fill answers every question of s with uploaded photos.
func fill(t *testing.T, s *Session) {
	t.Helper()
	ctx := context.Background()
	_, err := s.Update(ctx, Patch{
		FirstName: ptr("Ada"),
		LastName:  ptr("Lovelace"),
		Birthdate: ptr(date(1995, time.March, 14)),
		Gender:    ptr(profile.GenderWoman),
		Interests: []string{"Travel", "Music", "Hiking"},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if _, err := s.SetPhoto(ctx, 0, "https://cdn.example.com/profiles/a.jpg"); err != nil {
		t.Fatalf("set photo failed: %v", err)
	}
}
