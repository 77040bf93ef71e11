package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"autoshop/internal/models"
)

const profileColumns = `id, email, full_name, phone, avatar_url, role, created_at, updated_at`

func (db *DB) ListProfiles(ctx context.Context) ([]*models.Profile, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY full_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (db *DB) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	p, err := scanProfile(db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// UpsertProfile keeps created_at of an existing row.
func (db *DB) UpsertProfile(ctx context.Context, p *models.Profile) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	query := `INSERT INTO profiles (` + profileColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                email = excluded.email,
                full_name = excluded.full_name,
                phone = excluded.phone,
                avatar_url = excluded.avatar_url,
                role = excluded.role,
                updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query,
		p.ID, p.Email, p.FullName, p.Phone, p.AvatarURL, string(p.Role), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(s scanner) (*models.Profile, error) {
	var p models.Profile
	var role string
	if err := s.Scan(&p.ID, &p.Email, &p.FullName, &p.Phone, &p.AvatarURL, &role, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Role = models.Role(role)
	return &p, nil
}
