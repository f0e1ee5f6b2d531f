package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	applog "github.com/janisto/dating-onboarding/internal/platform/logging"
)

// Schema creates the profiles table used by PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id                   TEXT PRIMARY KEY,
	first_name           TEXT NOT NULL DEFAULT '',
	last_name            TEXT NOT NULL DEFAULT '',
	birth_date           DATE,
	gender               TEXT NOT NULL DEFAULT '',
	show_gender          BOOLEAN NOT NULL DEFAULT TRUE,
	photos               TEXT[] NOT NULL DEFAULT '{}',
	interests            TEXT[] NOT NULL DEFAULT '{}',
	onboarding_completed BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const selectProfile = `
	SELECT first_name, last_name, birth_date, gender, show_gender, photos, interests,
	       onboarding_completed, updated_at
	FROM profiles WHERE id = $1`

// PostgresStore implements Service on a PostgreSQL profiles table.
type PostgresStore struct {
	db           *pgxpool.Pool
	minInterests int
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(db *pgxpool.Pool, minInterests int) *PostgresStore {
	return &PostgresStore{db: db, minInterests: minInterests}
}

// Migrate creates the profiles table when it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate profiles: %w", err)
	}
	return nil
}

// Get retrieves a profile by user ID.
func (s *PostgresStore) Get(ctx context.Context, userID string) (*Record, error) {
	return scanRecord(s.db.QueryRow(ctx, selectProfile, userID), userID)
}

// UpsertGroup writes one field group. The row is locked for the duration of
// the read-modify-write.
func (s *PostgresStore) UpsertGroup(ctx context.Context, userID string, group Group) (*Record, error) {
	return s.write(ctx, userID, "sync."+group.Name(), func(rec *Record) bool {
		group.apply(rec)
		return rec.OnboardingCompleted
	})
}

// Complete writes the full record and sets the completion flag.
func (s *PostgresStore) Complete(ctx context.Context, userID string, in Record) (*Record, error) {
	if !in.IsComplete(s.minInterests) {
		applog.LogAuditEvent(ctx, "finalize", userID, "profile", userID, applog.AuditFailure,
			map[string]any{"error": categorizeError(ErrIncomplete)})
		return nil, ErrIncomplete
	}
	return s.write(ctx, userID, "finalize", func(rec *Record) bool {
		for _, g := range Groups(in) {
			g.apply(rec)
		}
		return true
	})
}

func (s *PostgresStore) write(
	ctx context.Context,
	userID, action string,
	mutate func(rec *Record) (completed bool),
) (*Record, error) {
	var result *Record

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		rec, err := scanRecord(tx.QueryRow(ctx, selectProfile+" FOR UPDATE", userID), userID)
		if errors.Is(err, ErrNotFound) {
			rec = &Record{ShowGender: true, Photos: []string{}, Interests: []string{}}
		} else if err != nil {
			return err
		}

		completed := mutate(rec)
		finish(rec, userID, completed, s.minInterests, time.Now().UTC())

		q := `
			INSERT INTO profiles (id, first_name, last_name, birth_date, gender, show_gender,
			                      photos, interests, onboarding_completed, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE SET
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name,
				birth_date = EXCLUDED.birth_date,
				gender = EXCLUDED.gender,
				show_gender = EXCLUDED.show_gender,
				photos = EXCLUDED.photos,
				interests = EXCLUDED.interests,
				onboarding_completed = EXCLUDED.onboarding_completed,
				updated_at = EXCLUDED.updated_at`
		if _, err := tx.Exec(ctx, q,
			userID, rec.FirstName, rec.LastName, rec.BirthDate, string(rec.Gender), rec.ShowGender,
			rec.Photos, rec.Interests, rec.OnboardingCompleted, rec.UpdatedAt,
		); err != nil {
			return fmt.Errorf("upsert profile: %w", err)
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

func scanRecord(row pgx.Row, userID string) (*Record, error) {
	rec := &Record{UserID: userID}
	var gender string
	err := row.Scan(
		&rec.FirstName, &rec.LastName, &rec.BirthDate, &gender, &rec.ShowGender,
		&rec.Photos, &rec.Interests, &rec.OnboardingCompleted, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query profile: %w", err)
	}
	rec.Gender = Gender(gender)
	if rec.BirthDate != nil {
		d := rec.BirthDate.UTC()
		rec.BirthDate = &d
	}
	return rec, nil
}

// Compile-time interface check
var _ Service = (*PostgresStore)(nil)
