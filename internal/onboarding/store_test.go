package onboarding

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/janisto/dating-onboarding/internal/platform/timeutil"
	"github.com/janisto/dating-onboarding/internal/service/profile"
	"github.com/janisto/dating-onboarding/internal/testutil"
)

func TestDraftStoreRoundTrip(t *testing.T) {
	store := NewDraftStore(NewMemoryKV(), 0, DefaultRules())
	ctx := context.Background()

	d := Draft{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Birthdate:  timeutil.NewTime(date(2000, time.January, 1)),
		Gender:     profile.GenderNonbinary,
		ShowGender: false,
		Photos:     []string{"file:///a.jpg", "https://cdn.example.com/b.jpg"},
		Interests:  []string{"Travel", "Music", "Hiking"},
	}
	if err := store.Save(ctx, "device-1", d); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got := store.Load(ctx, "device-1")
	if !reflect.DeepEqual(got.Photos, d.Photos) || !reflect.DeepEqual(got.Interests, d.Interests) {
		t.Fatalf("collections differ: %+v", got)
	}
	if !got.Birthdate.Equal(d.Birthdate.Time) {
		t.Fatalf("birthdate drifted: %v != %v", got.Birthdate, d.Birthdate)
	}
	got.Birthdate, d.Birthdate = timeutil.Time{}, timeutil.Time{}
	if !reflect.DeepEqual(got, d) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, d)
	}
}

func TestDraftStoreSnapshotFormat(t *testing.T) {
	kv := NewMemoryKV()
	store := NewDraftStore(kv, 0, DefaultRules())
	ctx := context.Background()

	if err := store.Save(ctx, "device-1", NewDraft()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	raw, err := kv.Get(ctx, "onboarding:draft:device-1")
	if err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("snapshot is not JSON: %v", err)
	}
	if m["birthdate"] != "2000-01-01T00:00:00.000Z" {
		t.Errorf("unexpected birthdate encoding %v", m["birthdate"])
	}
	for _, key := range []string{"firstName", "lastName", "gender", "showGender", "photos", "interests"} {
		if _, ok := m[key]; !ok {
			t.Errorf("snapshot missing %q", key)
		}
	}
}

func TestDraftStoreLoadFallbacks(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyKV()
	store := NewDraftStore(kv, 0, DefaultRules())

	if d := store.Load(ctx, "absent"); !reflect.DeepEqual(d, NewDraft()) {
		t.Fatalf("expected default draft for absent snapshot, got %+v", d)
	}

	_ = kv.Set(ctx, "onboarding:draft:corrupt", []byte("{not json"), 0)
	if d := store.Load(ctx, "corrupt"); !reflect.DeepEqual(d, NewDraft()) {
		t.Fatalf("expected default draft for corrupt snapshot, got %+v", d)
	}

	_ = kv.Set(ctx, "onboarding:draft:partial", []byte(`{"firstName":"Ada","gender":"robot","photos":null}`), 0)
	d := store.Load(ctx, "partial")
	if d.FirstName != "Ada" || d.Gender != "" || d.Photos == nil || !d.ShowGender {
		t.Fatalf("expected repaired partial snapshot, got %+v", d)
	}
	if !d.Birthdate.Equal(DefaultBirthdate) {
		t.Fatalf("expected default birthdate, got %v", d.Birthdate)
	}

	kv.failGet = true
	if d := store.Load(ctx, "partial"); !reflect.DeepEqual(d, NewDraft()) {
		t.Fatalf("expected default draft on read failure, got %+v", d)
	}
}

func TestDraftStoreSaveFailureReturned(t *testing.T) {
	kv := newFlakyKV()
	kv.failSet = true
	store := NewDraftStore(kv, 0, DefaultRules())
	if err := store.Save(context.Background(), "device-1", NewDraft()); err == nil {
		t.Fatal("expected save error")
	}
}

func TestDraftStoreStepMarker(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	store := NewDraftStore(kv, 0, DefaultRules())

	if step, ok := store.LoadStep(ctx, "device-1"); ok || step != StepWelcome {
		t.Fatalf("expected no marker, got %s %v", step, ok)
	}
	if err := store.SaveStep(ctx, "device-1", StepPhotos); err != nil {
		t.Fatalf("save step failed: %v", err)
	}
	raw, _ := kv.Get(ctx, "onboarding:step:device-1")
	if string(raw) != "photos" {
		t.Fatalf("expected literal marker, got %q", raw)
	}
	if step, ok := store.LoadStep(ctx, "device-1"); !ok || step != StepPhotos {
		t.Fatalf("expected photos, got %s %v", step, ok)
	}

	_ = kv.Set(ctx, "onboarding:step:device-1", []byte("checkout"), 0)
	if step, ok := store.LoadStep(ctx, "device-1"); !ok || step != StepWelcome {
		t.Fatalf("expected unknown marker to read as welcome, got %s %v", step, ok)
	}
}

func TestDraftStoreClear(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	store := NewDraftStore(kv, 0, DefaultRules())
	_ = store.Save(ctx, "device-1", NewDraft())
	_ = store.SaveStep(ctx, "device-1", StepReview)

	if err := store.Clear(ctx, "device-1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, err := kv.Get(ctx, "onboarding:draft:device-1"); err != ErrKeyNotFound {
		t.Fatalf("draft not cleared: %v", err)
	}
	if _, ok := store.LoadStep(ctx, "device-1"); ok {
		t.Fatal("marker not cleared")
	}
}

func TestMemoryKVExpiry(t *testing.T) {
	kv := NewMemoryKV()
	now := testNow
	kv.now = func() time.Time { return now }
	ctx := context.Background()

	_ = kv.Set(ctx, "k", []byte("v"), time.Minute)
	if _, err := kv.Get(ctx, "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := kv.Get(ctx, "k"); err != ErrKeyNotFound {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestRedisKV(t *testing.T) {
	addr := testutil.SkipIfRedisUnavailable(t)
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	kv := NewRedisKV(client)
	store := NewDraftStore(kv, time.Hour, DefaultRules())
	device := "test-" + t.Name()
	t.Cleanup(func() { _ = store.Clear(ctx, device) })

	d := NewDraft()
	d.FirstName = "Ada"
	if err := store.Save(ctx, device, d); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if got := store.Load(ctx, device); got.FirstName != "Ada" {
		t.Fatalf("unexpected draft %+v", got)
	}
	ttl, err := client.TTL(ctx, draftKey(device)).Result()
	if err != nil || ttl <= 0 {
		t.Fatalf("expected TTL on draft key, got %v %v", ttl, err)
	}
	if err := store.Clear(ctx, device); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, err := kv.Get(ctx, draftKey(device)); err != ErrKeyNotFound {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}
