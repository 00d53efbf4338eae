package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"petmatch/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, name, species, breed, age, description,
	photo_url, photo_key, traits,
	shelter_id, shelter_name,
	created_at, updated_at`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	traits, err := encodeTraits(p.Traits)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		p.ID,
		p.Name,
		string(p.Species),
		p.Breed,
		p.Age,
		p.Description,
		p.PhotoURL,
		p.PhotoKey,
		traits,
		p.ShelterID,
		p.ShelterName,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// Update no toca shelter_id ni created_at.
func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	traits, err := encodeTraits(p.Traits)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			name = $2,
			species = $3,
			breed = $4,
			age = $5,
			description = $6,
			photo_url = $7,
			photo_key = $8,
			traits = $9,
			updated_at = $10
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		string(p.Species),
		p.Breed,
		p.Age,
		p.Description,
		p.PhotoURL,
		p.PhotoKey,
		traits,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, pets.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)

	p, err := scanPet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pets.Pet{}, pets.ErrNotFound
		}
		return pets.Pet{}, err
	}
	return p, nil
}

func (r *PetsRepo) List(ctx context.Context) ([]pets.Pet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		ORDER BY created_at DESC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(s rowScanner) (pets.Pet, error) {
	var (
		p       pets.Pet
		species string
		traits  []byte
	)
	if err := s.Scan(
		&p.ID,
		&p.Name,
		&species,
		&p.Breed,
		&p.Age,
		&p.Description,
		&p.PhotoURL,
		&p.PhotoKey,
		&traits,
		&p.ShelterID,
		&p.ShelterName,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return pets.Pet{}, err
	}
	p.Species = pets.Species(species)

	if len(traits) > 0 {
		if err := json.Unmarshal(traits, &p.Traits); err != nil {
			return pets.Pet{}, fmt.Errorf("decode traits: %w", err)
		}
	}
	return p, nil
}

// traits es JSONB: se guarda como array (nunca null).
func encodeTraits(t []string) ([]byte, error) {
	if t == nil {
		t = []string{}
	}
	return json.Marshal(t)
}
