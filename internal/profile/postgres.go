package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const profileColumns = `
	u.id,
	u.gender,
	u.birthdate,
	COALESCE(p.is_complete, FALSE),
	p.location_lat,
	p.location_lon,
	p.preferences,
	p.physical_preferences,
	p.value_tags,
	p.interest_tags,
	p.communication_style,
	p.dealbreakers,
	p.photos`

// PostgresStore is the Postgres-backed system-of-record adapter.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{db: db, logger: logger}
}

func (s *PostgresStore) GetUserWithProfile(ctx context.Context, userID int64) (*UserProfile, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE u.id = $1`, profileColumns)

	row := s.db.QueryRowContext(ctx, query, userID)
	prof, err := s.scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query profile %d: %w", userID, err)
	}
	return prof, nil
}

// birthdateWindow converts an inclusive age window into birthdate bounds: a
// candidate is inside the window iff earliest < birthdate <= latest. Someone
// exactly at MinAge or MaxAge today stays in.
func birthdateWindow(now time.Time, minAge, maxAge int) (earliest, latest time.Time) {
	latest = now.AddDate(-minAge, 0, 0)
	earliest = now.AddDate(-(maxAge + 1), 0, 0)
	return earliest, latest
}

func (s *PostgresStore) FindCandidateProfiles(ctx context.Context, criteria FilterCriteria, limit int) ([]*UserProfile, error) {
	gender := strings.ToLower(strings.TrimSpace(criteria.Gender))
	if gender == GenderAny {
		gender = ""
	}

	earliestBirth, latestBirth := birthdateWindow(criteria.Now, criteria.MinAge, criteria.MaxAge)

	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE p.is_complete = TRUE
		  AND p.preferences IS NOT NULL
		  AND NOT (u.id = ANY($1))
		  AND ($2 = '' OR LOWER(u.gender) = $2)
		  AND u.birthdate > $3
		  AND u.birthdate <= $4
		ORDER BY u.id
		LIMIT $5`, profileColumns)

	rows, err := s.db.QueryContext(ctx, query,
		pq.Array(criteria.ExcludeIDs), gender, earliestBirth, latestBirth, limit)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var profiles []*UserProfile
	for rows.Next() {
		prof, err := s.scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		profiles = append(profiles, prof)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return profiles, nil
}

func (s *PostgresStore) GetExclusionIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT CASE WHEN user_id = $1 THEN target_user_id ELSE user_id END
		FROM match_decisions
		WHERE user_id = $1 OR target_user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("query match decisions for %d: %w", userID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan decided user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanProfile(row rowScanner) (*UserProfile, error) {
	var (
		prof                     UserProfile
		lat, lon                 sql.NullFloat64
		prefsRaw, physRaw        []byte
		valuesRaw, interRaw      []byte
		commRaw, dealbreakersRaw []byte
		photosRaw                []byte
	)

	err := row.Scan(
		&prof.ID, &prof.Gender, &prof.Birthdate, &prof.Complete,
		&lat, &lon,
		&prefsRaw, &physRaw, &valuesRaw, &interRaw, &commRaw, &dealbreakersRaw, &photosRaw,
	)
	if err != nil {
		return nil, err
	}

	if lat.Valid && lon.Valid {
		prof.Location = &Location{Lat: lat.Float64, Lon: lon.Float64}
	}

	if prefs, err := decodePreferences(prefsRaw); err != nil {
		s.logger.Warn("dropping malformed dating preferences",
			zap.Int64("user_id", prof.ID), zap.Error(err))
	} else {
		prof.Preferences = prefs
	}

	if phys, err := decodePhysical(physRaw); err != nil {
		s.logger.Warn("dropping malformed physical preferences",
			zap.Int64("user_id", prof.ID), zap.Error(err))
	} else {
		prof.Physical = phys
	}

	unmarshalDoc(valuesRaw, &prof.Values)
	unmarshalDoc(interRaw, &prof.Interests)
	unmarshalDoc(commRaw, &prof.Communication)
	unmarshalDoc(dealbreakersRaw, &prof.Dealbreakers)
	unmarshalDoc(photosRaw, &prof.Photos)

	return &prof, nil
}

// decodePreferences turns the loosely-typed JSONB document into the typed
// struct, tolerating numeric fields stored as strings.
func decodePreferences(raw []byte) (*DatingPreferences, error) {
	doc, err := rawDocument(raw)
	if err != nil || doc == nil {
		return nil, err
	}

	var prefs DatingPreferences
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &prefs,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(doc); err != nil {
		return nil, err
	}
	return &prefs, nil
}

func decodePhysical(raw []byte) (*PhysicalPreferences, error) {
	doc, err := rawDocument(raw)
	if err != nil || doc == nil {
		return nil, err
	}

	var phys PhysicalPreferences
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &phys,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(doc); err != nil {
		return nil, err
	}
	return &phys, nil
}

func rawDocument(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if len(doc) == 0 {
		return nil, nil
	}
	return doc, nil
}

func unmarshalDoc(raw []byte, target any) {
	if len(raw) == 0 {
		return
	}
	// Malformed tag lists degrade to empty rather than failing the fetch.
	_ = json.Unmarshal(raw, target)
}

var _ Store = (*PostgresStore)(nil)
