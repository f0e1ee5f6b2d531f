package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	applog "github.com/janisto/dating-onboarding/internal/platform/logging"
	"github.com/janisto/dating-onboarding/internal/platform/metrics"
	"github.com/janisto/dating-onboarding/internal/platform/timeutil"
	"github.com/janisto/dating-onboarding/internal/service/profile"
)

// Session errors
var (
	ErrSessionClosed = errors.New("onboarding session closed")
	ErrNoIdentity    = errors.New("sign-in required to finish onboarding")
	ErrIncomplete    = errors.New("onboarding answers incomplete")
	ErrPhotosPending = errors.New("photos not uploaded yet")
	ErrFinalize      = errors.New("profile could not be saved")
)

// State is a read-only view of a session.
type State struct {
	Step       Step
	Draft      Draft
	CanAdvance bool
	UserID     string
}

// Session is one device's onboarding progress. Its methods are serialised;
// sessions of different devices run independently.
type Session struct {
	mu       sync.Mutex
	m        *Manager
	device   string
	userID   string
	draft    Draft
	step     Step
	loaded   bool
	released bool
	lastUsed time.Time
}

// Device returns the device id the session belongs to.
func (s *Session) Device() string { return s.device }

func (s *Session) stateLocked() State {
	return State{
		Step:       s.step,
		Draft:      s.draft.Clone(),
		CanAdvance: CanAdvance(s.step, s.draft, s.m.rules),
		UserID:     s.userID,
	}
}

// lock acquires the session and fails if it has been released.
func (s *Session) lock() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.lastUsed = s.m.now()
	return nil
}

// State returns the current step and draft.
func (s *Session) State() (State, error) {
	if err := s.lock(); err != nil {
		return State{}, err
	}
	defer s.mu.Unlock()
	return s.stateLocked(), nil
}

// coldStart loads persisted progress. With an identity the step is derived
// from the remote record; without one, or when the record is missing or
// unreadable, the local marker decides. Answers kept on the device are pushed
// once when the remote record is missing or unfinished, so a sign-in that
// arrives after the session was swept still reaches the remote profile.
func (s *Session) coldStart(ctx context.Context, userID string) {
	s.userID = userID
	s.draft = s.m.store.Load(ctx, s.device)
	s.step, _ = s.m.store.LoadStep(ctx, s.device)
	s.loaded = true

	if userID == "" {
		return
	}
	rec, err := s.m.profiles.Get(ctx, userID)
	switch {
	case err == nil && rec.OnboardingCompleted:
		s.step = StepDone
		return
	case err == nil, errors.Is(err, profile.ErrNotFound):
	default:
		applog.LogWarn(ctx, "remote profile unavailable, using local step", zap.Error(err))
		return
	}

	if pending := populated(s.draft); pending != 0 {
		s.m.syncer.SyncFields(ctx, userID, pending, s.draft)
		if fresh, err := s.m.profiles.Get(ctx, userID); err == nil {
			rec = fresh
		}
	}
	if rec != nil {
		s.step = DeriveStep(rec)
	}
}

// attach binds an anonymous session to userID. A returning user whose
// profile is already complete goes straight to done; otherwise everything
// answered so far is pushed once.
func (s *Session) attach(ctx context.Context, userID string) {
	s.userID = userID

	rec, err := s.m.profiles.Get(ctx, userID)
	if err == nil && rec.OnboardingCompleted {
		s.step = StepDone
		_ = s.m.store.SaveStep(ctx, s.device, StepDone)
		return
	}
	s.m.syncer.SyncFields(ctx, userID, populated(s.draft), s.draft)
}

// DeriveStep maps a remote record to the step its owner should resume at.
// It walks back from done and stops at the latest group that holds data, so
// a partially synced record never sends the user behind their furthest answer.
func DeriveStep(rec *profile.Record) Step {
	switch {
	case rec.OnboardingCompleted:
		return StepDone
	case len(rec.Interests) > 0:
		return StepReview
	case len(rec.Photos) > 0:
		return StepInterests
	case rec.BirthDate != nil:
		return StepPhotos
	case strings.TrimSpace(rec.FirstName) != "":
		return StepBasics
	default:
		return StepName
	}
}

// commit persists next as the session draft and syncs the changed groups.
// A failed local save keeps next in memory.
func (s *Session) commit(ctx context.Context, next Draft, changed FieldSet) {
	s.draft = next
	if changed == 0 {
		return
	}
	_ = s.m.store.Save(ctx, s.device, next)
	s.m.syncer.SyncFields(ctx, s.userID, changed, next)
}

// Update applies a partial draft change. Validation failures leave the draft
// untouched and are returned as *FieldError.
func (s *Session) Update(ctx context.Context, p Patch) (State, error) {
	if err := s.lock(); err != nil {
		return State{}, err
	}
	defer s.mu.Unlock()

	next, changed, err := p.apply(s.draft, s.m.rules, s.m.now())
	if err != nil {
		return s.stateLocked(), err
	}
	s.commit(ctx, next, changed)
	return s.stateLocked(), nil
}

// ToggleInterest selects or deselects tag and reports whether it is now
// selected.
func (s *Session) ToggleInterest(ctx context.Context, tag string) (State, bool, error) {
	if err := s.lock(); err != nil {
		return State{}, false, err
	}
	defer s.mu.Unlock()

	next := s.draft.Clone()
	selected, err := next.toggleInterest(tag, s.m.rules)
	if err != nil {
		return s.stateLocked(), false, err
	}
	s.commit(ctx, next, FieldInterests)
	return s.stateLocked(), selected, nil
}

// CheckPhotoSlot reports whether slot can receive a photo right now.
func (s *Session) CheckPhotoSlot(slot int) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	return s.draft.checkPhotoSlot(slot, s.m.rules)
}

// SetPhoto places ref into slot. slot == number of photos appends.
func (s *Session) SetPhoto(ctx context.Context, slot int, ref string) (State, error) {
	if err := s.lock(); err != nil {
		return State{}, err
	}
	defer s.mu.Unlock()

	next := s.draft.Clone()
	if err := next.setPhoto(slot, ref, s.m.rules); err != nil {
		return s.stateLocked(), err
	}
	s.commit(ctx, next, FieldPhotos)
	return s.stateLocked(), nil
}

// SetDeviceReference places a photo that is still on the device into slot.
// URLs are refused: a slot only becomes remote through an upload.
func (s *Session) SetDeviceReference(ctx context.Context, slot int, ref string) (State, error) {
	if IsRemote(ref) {
		st, err := s.State()
		if err != nil {
			return st, err
		}
		return st, &FieldError{Field: "uri", Value: ref, Err: ErrNotOnDevice}
	}
	return s.SetPhoto(ctx, slot, ref)
}

// RemovePhoto deletes slot.
func (s *Session) RemovePhoto(ctx context.Context, slot int) (State, error) {
	if err := s.lock(); err != nil {
		return State{}, err
	}
	defer s.mu.Unlock()

	next := s.draft.Clone()
	if err := next.removePhoto(slot); err != nil {
		return s.stateLocked(), err
	}
	s.commit(ctx, next, FieldPhotos)
	return s.stateLocked(), nil
}

// Advance moves to the next step when the current one is satisfied. It
// returns false without persisting anything when the step is not satisfied
// or the new marker cannot be stored. Done is only entered through Finalize.
func (s *Session) Advance(ctx context.Context) (State, bool, error) {
	if err := s.lock(); err != nil {
		return State{}, false, err
	}
	defer s.mu.Unlock()

	next := s.step.Next()
	if next == StepDone || !CanAdvance(s.step, s.draft, s.m.rules) {
		return s.stateLocked(), false, nil
	}
	ok := s.moveTo(ctx, next)
	return s.stateLocked(), ok, nil
}

// Back moves to the previous step. It is a no-op on welcome and done.
func (s *Session) Back(ctx context.Context) (State, bool, error) {
	if err := s.lock(); err != nil {
		return State{}, false, err
	}
	defer s.mu.Unlock()

	prev := s.step.Prev()
	if prev == s.step {
		return s.stateLocked(), false, nil
	}
	ok := s.moveTo(ctx, prev)
	return s.stateLocked(), ok, nil
}

func (s *Session) moveTo(ctx context.Context, step Step) bool {
	if err := s.m.store.SaveStep(ctx, s.device, step); err != nil {
		return false
	}
	s.step = step
	metrics.RecordStepAdvance(string(step))
	return true
}

// Reset discards the draft and step marker on user request. The in-memory
// draft is reset even when the stored copy cannot be removed.
func (s *Session) Reset(ctx context.Context) (State, error) {
	if err := s.lock(); err != nil {
		return State{}, err
	}
	defer s.mu.Unlock()

	_ = s.m.store.Clear(ctx, s.device)
	s.draft = NewDraft()
	s.step = StepWelcome
	return s.stateLocked(), nil
}

// Finalize commits the draft as a completed remote profile, then clears the
// local draft and moves to done. Nothing local changes unless the remote
// write succeeds. On success the session is released.
func (s *Session) Finalize(ctx context.Context) (State, error) {
	if err := s.lock(); err != nil {
		return State{}, err
	}
	defer s.mu.Unlock()

	if err := s.checkFinalize(); err != nil {
		metrics.RecordFinalize(metrics.ResultSkipped)
		return s.stateLocked(), err
	}

	if _, err := s.m.profiles.Complete(ctx, s.userID, s.draft.Record(s.userID)); err != nil {
		metrics.RecordFinalize(metrics.ResultFailure)
		applog.LogError(ctx, "finalize failed", err)
		return s.stateLocked(), fmt.Errorf("%w: %w", ErrFinalize, err)
	}
	metrics.RecordFinalize(metrics.ResultSuccess)

	// The remote record is authoritative from here on; local cleanup
	// failures are logged by the store.
	_ = s.m.store.Clear(ctx, s.device)
	s.draft = NewDraft()
	s.step = StepDone
	_ = s.m.store.SaveStep(ctx, s.device, StepDone)

	if s.m.notifier != nil {
		if err := s.m.notifier.OnboardingCompleted(ctx, s.userID, s.m.now()); err != nil {
			applog.LogWarn(ctx, "completion event not published", zap.Error(err))
		}
	}

	state := s.stateLocked()
	s.released = true
	s.m.forget(s)
	return state, nil
}

func (s *Session) checkFinalize() error {
	if s.userID == "" {
		return ErrNoIdentity
	}
	if !s.m.rules.OldEnough(s.draft.Birthdate.Time, s.m.now()) {
		return &FieldError{Field: "birthdate", Value: s.draft.Birthdate.Format(timeutil.DateOnly), Err: ErrUnderage}
	}
	rec := s.draft.Record(s.userID)
	if !rec.IsComplete(s.m.rules.MinInterests) {
		return ErrIncomplete
	}
	if !s.draft.PhotosUploaded() {
		return ErrPhotosPending
	}
	return nil
}
