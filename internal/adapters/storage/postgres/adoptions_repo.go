package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"petmatch/internal/domain/adoptions"
)

type AdoptionsRepo struct {
	db *sql.DB
}

func NewAdoptionsRepo(db *sql.DB) *AdoptionsRepo {
	return &AdoptionsRepo{db: db}
}

const requestColumns = `
	id, pet_id, pet_name,
	adopter_id, adopter_name, adopter_email, adopter_phone,
	shelter_id, shelter_name,
	status, pet_available,
	created_at, updated_at`

func (r *AdoptionsRepo) Create(ctx context.Context, req adoptions.Request) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO adoption_requests (`+requestColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		req.ID, req.PetID, req.PetName,
		req.AdopterID, req.AdopterName, req.AdopterEmail, req.AdopterPhone,
		req.ShelterID, req.ShelterName,
		string(req.Status), req.PetAvailable,
		req.CreatedAt, req.UpdatedAt,
	)
	return err
}

func (r *AdoptionsRepo) GetByID(ctx context.Context, id string) (adoptions.Request, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM adoption_requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return adoptions.Request{}, adoptions.ErrNotFound
		}
		return adoptions.Request{}, err
	}
	return req, nil
}

func (r *AdoptionsRepo) ListByAdopter(ctx context.Context, adopterID string) ([]adoptions.Request, error) {
	return r.list(ctx, `WHERE adopter_id = $1 ORDER BY created_at DESC, id ASC`, adopterID)
}

func (r *AdoptionsRepo) ListByShelter(ctx context.Context, shelterID string) ([]adoptions.Request, error) {
	return r.list(ctx, `WHERE shelter_id = $1 ORDER BY created_at DESC, id ASC`, shelterID)
}

func (r *AdoptionsRepo) ListByPet(ctx context.Context, petID string) ([]adoptions.Request, error) {
	return r.list(ctx, `WHERE pet_id = $1 ORDER BY created_at DESC, id ASC`, petID)
}

// UpdateStatus es un compare-and-set: solo escribe si el estado sigue
// siendo from. Si no, distingue "no existe" de "cambió".
func (r *AdoptionsRepo) UpdateStatus(ctx context.Context, id string, from, to adoptions.Status, at time.Time) (adoptions.Request, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE adoption_requests
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING `+requestColumns,
		id, string(from), string(to), at,
	)

	req, err := scanRequest(row)
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return adoptions.Request{}, err
	}

	if _, gerr := r.GetByID(ctx, id); gerr != nil {
		return adoptions.Request{}, gerr
	}
	return adoptions.Request{}, adoptions.ErrStatusConflict
}

// MarkPetUnavailable relee las filas después del UPDATE para devolver el
// estado actual, incluidos cambios de estado que se colaron entre medias.
func (r *AdoptionsRepo) MarkPetUnavailable(ctx context.Context, petID string, at time.Time) ([]adoptions.Request, error) {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE adoption_requests
		SET pet_available = FALSE, updated_at = $2
		WHERE pet_id = $1 AND pet_available
	`, petID, at); err != nil {
		return nil, err
	}
	return r.ListByPet(ctx, petID)
}

func (r *AdoptionsRepo) DeleteByPet(ctx context.Context, petID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM adoption_requests WHERE pet_id = $1`, petID)
	return err
}

func (r *AdoptionsRepo) list(ctx context.Context, where string, arg any) ([]adoptions.Request, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+requestColumns+` FROM adoption_requests `+where, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]adoptions.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanRequest(s rowScanner) (adoptions.Request, error) {
	var (
		req    adoptions.Request
		status string
	)
	if err := s.Scan(
		&req.ID, &req.PetID, &req.PetName,
		&req.AdopterID, &req.AdopterName, &req.AdopterEmail, &req.AdopterPhone,
		&req.ShelterID, &req.ShelterName,
		&status, &req.PetAvailable,
		&req.CreatedAt, &req.UpdatedAt,
	); err != nil {
		return adoptions.Request{}, err
	}
	req.Status = adoptions.Status(status)
	return req, nil
}
