package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	applog "github.com/janisto/dating-onboarding/internal/platform/logging"
	"github.com/janisto/dating-onboarding/internal/platform/metrics"
)

const keyPrefix = "onboarding:"

func draftKey(device string) string { return keyPrefix + "draft:" + device }
func stepKey(device string) string  { return keyPrefix + "step:" + device }

// DraftStore persists one draft and one step marker per device.
//
// Read failures never surface: Load falls back to a fresh draft and LoadStep
// reports no marker. Write failures are logged and returned so the caller can
// decide whether they matter.
type DraftStore struct {
	kv    KV
	ttl   time.Duration
	rules Rules
}

// NewDraftStore creates a store on kv. Entries expire after ttl of
// inactivity; zero keeps them forever.
func NewDraftStore(kv KV, ttl time.Duration, rules Rules) *DraftStore {
	return &DraftStore{kv: kv, ttl: ttl, rules: rules}
}

// Load returns the persisted draft for device, or a fresh draft when none is
// stored or the snapshot cannot be read.
func (s *DraftStore) Load(ctx context.Context, device string) Draft {
	raw, err := s.kv.Get(ctx, draftKey(device))
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			metrics.RecordDraftStoreError("load")
			applog.LogWarn(ctx, "draft load failed", zap.Error(err))
		}
		return NewDraft()
	}

	d := NewDraft()
	if err := json.Unmarshal(raw, &d); err != nil {
		metrics.RecordDraftStoreError("decode")
		applog.LogWarn(ctx, "discarding corrupt draft snapshot", zap.Error(err))
		return NewDraft()
	}
	d.normalize(s.rules)
	return d
}

// Save writes the full draft.
func (s *DraftStore) Save(ctx context.Context, device string, d Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.kv.Set(ctx, draftKey(device), raw, s.ttl); err != nil {
		metrics.RecordDraftStoreError("save")
		applog.LogError(ctx, "draft save failed", err)
		return err
	}
	return nil
}

// Clear removes the draft and the step marker.
func (s *DraftStore) Clear(ctx context.Context, device string) error {
	if err := s.kv.Delete(ctx, draftKey(device), stepKey(device)); err != nil {
		metrics.RecordDraftStoreError("clear")
		applog.LogError(ctx, "draft clear failed", err)
		return err
	}
	return nil
}

// LoadStep returns the persisted step marker. ok is false when no marker is
// stored. An unrecognised marker reads as welcome.
func (s *DraftStore) LoadStep(ctx context.Context, device string) (step Step, ok bool) {
	raw, err := s.kv.Get(ctx, stepKey(device))
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			metrics.RecordDraftStoreError("load_step")
			applog.LogWarn(ctx, "step marker load failed", zap.Error(err))
		}
		return StepWelcome, false
	}
	step, ok = ParseStep(string(raw))
	if !ok {
		applog.LogWarn(ctx, "unknown step marker", zap.String("marker", string(raw)))
		return StepWelcome, true
	}
	return step, true
}

// SaveStep writes the step marker.
func (s *DraftStore) SaveStep(ctx context.Context, device string, step Step) error {
	if err := s.kv.Set(ctx, stepKey(device), []byte(step), s.ttl); err != nil {
		metrics.RecordDraftStoreError("save_step")
		applog.LogError(ctx, "step marker save failed", err)
		return err
	}
	return nil
}
