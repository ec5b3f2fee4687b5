package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/recognizer"
)

// Profile is a recognizer profile stored in the database.
type Profile struct {
	ID string `json:"id"`
	recognizer.Profile
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileRepository provides CRUD operations for recognizer profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

const profileColumns = `id, name, family, params, enabled, created_at, updated_at`

// Create inserts a new profile into the database.
func (r *ProfileRepository) Create(p *Profile) error {
	params, err := json.Marshal(p.Profile)
	if err != nil {
		return fmt.Errorf("encode profile %q: %w", p.Name, err)
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err = r.db.Exec(
		`INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, string(p.Family), string(params), p.IsEnabled(), p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	return scanProfile(r.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
}

// GetByName retrieves a profile by its recognizer name.
func (r *ProfileRepository) GetByName(name string) (*Profile, error) {
	return scanProfile(r.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE name = ?`, name))
}

// List retrieves all profiles in creation order, which is the order their
// recognizers are registered in.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(`SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Update updates an existing profile in the database.
func (r *ProfileRepository) Update(p *Profile) error {
	params, err := json.Marshal(p.Profile)
	if err != nil {
		return fmt.Errorf("encode profile %q: %w", p.Name, err)
	}
	p.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE profiles SET name = ?, family = ?, params = ?, enabled = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, string(p.Family), string(params), p.IsEnabled(), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a profile from the database by its ID.
func (r *ProfileRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	p := &Profile{}
	var family, params string
	var enabled int

	err := row.Scan(&p.ID, &p.Name, &family, &params, &enabled, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	name := p.Name
	if err := json.Unmarshal([]byte(params), &p.Profile); err != nil {
		return nil, fmt.Errorf("decode profile %q: %w", name, err)
	}
	p.Name = name
	p.Family = recognizer.Family(family)
	on := enabled != 0
	p.Enabled = &on

	return p, nil
}
