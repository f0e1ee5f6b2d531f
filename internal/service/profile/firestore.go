package profile

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	applog "github.com/janisto/dating-onboarding/internal/platform/logging"
	"github.com/janisto/dating-onboarding/internal/platform/timeutil"
)

const profilesCollection = "profiles"

// firestoreProfile maps to Firestore document structure.
type firestoreProfile struct {
	FirstName           string    `firestore:"first_name"`
	LastName            string    `firestore:"last_name"`
	BirthDate           string    `firestore:"birth_date"`
	Gender              string    `firestore:"gender"`
	ShowGender          bool      `firestore:"show_gender"`
	Photos              []string  `firestore:"photos"`
	Interests           []string  `firestore:"interests"`
	OnboardingCompleted bool      `firestore:"onboarding_completed"`
	UpdatedAt           time.Time `firestore:"updated_at"`
}

func (fp *firestoreProfile) toRecord(userID string) (*Record, error) {
	rec := &Record{
		UserID:              userID,
		FirstName:           fp.FirstName,
		LastName:            fp.LastName,
		Gender:              Gender(fp.Gender),
		ShowGender:          fp.ShowGender,
		Photos:              fp.Photos,
		Interests:           fp.Interests,
		OnboardingCompleted: fp.OnboardingCompleted,
		UpdatedAt:           fp.UpdatedAt,
	}
	if fp.BirthDate != "" {
		d, err := time.Parse(timeutil.DateOnly, fp.BirthDate)
		if err != nil {
			return nil, err
		}
		rec.BirthDate = &d
	}
	return rec, nil
}

func fromRecord(rec *Record) firestoreProfile {
	fp := firestoreProfile{
		FirstName:           rec.FirstName,
		LastName:            rec.LastName,
		Gender:              string(rec.Gender),
		ShowGender:          rec.ShowGender,
		Photos:              rec.Photos,
		Interests:           rec.Interests,
		OnboardingCompleted: rec.OnboardingCompleted,
		UpdatedAt:           rec.UpdatedAt,
	}
	if rec.BirthDate != nil {
		fp.BirthDate = rec.BirthDate.UTC().Format(timeutil.DateOnly)
	}
	return fp
}

// FirestoreStore implements Service using Firestore with transactions.
type FirestoreStore struct {
	client       *firestore.Client
	minInterests int
}

// NewFirestoreStore creates a new Firestore-backed store. minInterests is the
// interest count a record needs to count as complete.
func NewFirestoreStore(client *firestore.Client, minInterests int) *FirestoreStore {
	return &FirestoreStore{client: client, minInterests: minInterests}
}

// Get retrieves a profile by user ID.
func (s *FirestoreStore) Get(ctx context.Context, userID string) (*Record, error) {
	doc, err := s.client.Collection(profilesCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var fp firestoreProfile
	if err := doc.DataTo(&fp); err != nil {
		return nil, err
	}
	return fp.toRecord(userID)
}

// UpsertGroup writes one field group inside a transaction so concurrent group
// writes for the same user never lose each other's fields.
func (s *FirestoreStore) UpsertGroup(ctx context.Context, userID string, group Group) (*Record, error) {
	return s.write(ctx, userID, "sync."+group.Name(), func(rec *Record) (bool, error) {
		group.apply(rec)
		return rec.OnboardingCompleted, nil
	})
}

// Complete writes the full record and sets the completion flag.
func (s *FirestoreStore) Complete(ctx context.Context, userID string, in Record) (*Record, error) {
	if !in.IsComplete(s.minInterests) {
		applog.LogAuditEvent(ctx, "finalize", userID, "profile", userID, applog.AuditFailure,
			map[string]any{"error": categorizeError(ErrIncomplete)})
		return nil, ErrIncomplete
	}
	return s.write(ctx, userID, "finalize", func(rec *Record) (bool, error) {
		for _, g := range Groups(in) {
			g.apply(rec)
		}
		return true, nil
	})
}

func (s *FirestoreStore) write(
	ctx context.Context,
	userID, action string,
	mutate func(rec *Record) (completed bool, err error),
) (*Record, error) {
	docRef := s.client.Collection(profilesCollection).Doc(userID)

	var result *Record

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		rec := &Record{ShowGender: true, Photos: []string{}, Interests: []string{}}
		doc, err := tx.Get(docRef)
		switch {
		case err == nil && doc.Exists():
			var fp firestoreProfile
			if err := doc.DataTo(&fp); err != nil {
				return err
			}
			if rec, err = fp.toRecord(userID); err != nil {
				return err
			}
		case err != nil && status.Code(err) != codes.NotFound:
			return err
		}

		completed, err := mutate(rec)
		if err != nil {
			return err
		}
		finish(rec, userID, completed, s.minInterests, time.Now().UTC())

		if err := tx.Set(docRef, fromRecord(rec)); err != nil {
			return err
		}
		result = rec
		return nil
	})
	if err != nil {
		applog.LogAuditEvent(ctx, action, userID, "profile", userID, applog.AuditFailure,
			map[string]any{"error": categorizeError(err)})
		return nil, err
	}

	applog.LogAuditEvent(ctx, action, userID, "profile", userID, applog.AuditSuccess, nil)

	return result, nil
}

// Compile-time interface check
var _ Service = (*FirestoreStore)(nil)
