package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/umnpray/umnpray/internal/models"
)

// OpenPostgres opens a pooled connection to dsn
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}

const spaceColumns = `id, slug, name, building, building_full_name, room, campus, address,
	latitude, longitude,
	has_prayer_rugs, has_wudu_access, has_divider, is_private_from_public, is_quiet, is_clean_tidy,
	capacity, gender_privacy_details, access_instructions, photos`

// PostgresStore reads spaces from the spaces table, ordered by sort_order
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// All returns every space in curated order
func (p *PostgresStore) All(ctx context.Context) ([]models.Space, error) {
	rows, err := p.db.QueryContext(ctx, "SELECT "+spaceColumns+" FROM spaces ORDER BY sort_order, name")
	if err != nil {
		return nil, fmt.Errorf("querying spaces: %w", err)
	}
	defer rows.Close()

	var spaces []models.Space
	for rows.Next() {
		sp, err := scanSpace(rows)
		if err != nil {
			return nil, err
		}
		spaces = append(spaces, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading spaces: %w", err)
	}
	return spaces, nil
}

// Get finds a space by slug or ID
func (p *PostgresStore) Get(ctx context.Context, key string) (models.Space, error) {
	row := p.db.QueryRowContext(ctx,
		"SELECT "+spaceColumns+" FROM spaces WHERE slug = $1 OR id = $1 ORDER BY (slug = $1) DESC LIMIT 1", key)
	sp, err := scanSpace(row)
	if err == sql.ErrNoRows {
		return models.Space{}, ErrNotFound
	}
	return sp, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSpace(r scanner) (models.Space, error) {
	var (
		sp                             models.Space
		fullName, room, gender, access sql.NullString
		lat, lng                       sql.NullFloat64
		capacity                       sql.NullInt64
		campus                         string
		photos                         []byte
	)

	err := r.Scan(
		&sp.ID, &sp.Slug, &sp.Name, &sp.Building, &fullName, &room, &campus, &sp.Address,
		&lat, &lng,
		&sp.PrayerRugs, &sp.WuduAccess, &sp.Divider, &sp.PrivateFromPublic, &sp.Quiet, &sp.CleanTidy,
		&capacity, &gender, &access, &photos,
	)
	if err == sql.ErrNoRows {
		return sp, err
	}
	if err != nil {
		return sp, fmt.Errorf("scanning space: %w", err)
	}

	if err := sp.Campus.UnmarshalText([]byte(campus)); err != nil {
		return sp, err
	}
	sp.BuildingFullName = fullName.String
	sp.Room = room.String
	sp.GenderPrivacyDetails = gender.String
	sp.AccessInstructions = access.String
	if lat.Valid && lng.Valid {
		sp.Latitude, sp.Longitude = &lat.Float64, &lng.Float64
	}
	if capacity.Valid {
		n := int(capacity.Int64)
		sp.Capacity = &n
	}
	if len(photos) > 0 {
		if err := json.Unmarshal(photos, &sp.Photos); err != nil {
			return sp, fmt.Errorf("decoding photos of %s: %w", sp.ID, err)
		}
	}
	return sp, nil
}
