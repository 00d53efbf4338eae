package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"petmatch/internal/domain/accounts"
	"petmatch/internal/ports/auth"
	"petmatch/internal/session"
)

// AccountsRepo cubre perfiles, registros de rol y credenciales locales.
type AccountsRepo struct {
	db *sql.DB
}

func NewAccountsRepo(db *sql.DB) *AccountsRepo {
	return &AccountsRepo{db: db}
}

// CreateAccount inserta perfil y rol en la misma transacción.
func (r *AccountsRepo) CreateAccount(ctx context.Context, p accounts.Profile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	a, s := profileRoleFields(p)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (
			id, role, email, phone, address, province,
			photo_url, photo_key,
			first_name, last_name, national_id,
			shelter_name, website,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		p.ID, string(p.Role), p.Email, p.Phone, p.Address, p.Province,
		p.PhotoURL, p.PhotoKey,
		a.FirstName, a.LastName, a.NationalID,
		s.ShelterName, s.Website,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO roles (principal_id, role) VALUES ($1, $2)
		ON CONFLICT (principal_id) DO UPDATE SET role = EXCLUDED.role
	`, p.ID, string(p.Role)); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *AccountsRepo) UpdateProfile(ctx context.Context, p accounts.Profile) error {
	a, s := profileRoleFields(p)
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET
			email = $2,
			phone = $3,
			address = $4,
			province = $5,
			photo_url = $6,
			photo_key = $7,
			first_name = $8,
			last_name = $9,
			national_id = $10,
			shelter_name = $11,
			website = $12,
			updated_at = $13
		WHERE id = $1
	`,
		p.ID, p.Email, p.Phone, p.Address, p.Province,
		p.PhotoURL, p.PhotoKey,
		a.FirstName, a.LastName, a.NationalID,
		s.ShelterName, s.Website,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return accounts.ErrNotFound
	}
	return nil
}

func (r *AccountsRepo) GetProfile(ctx context.Context, id string) (accounts.Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, role, email, phone, address, province,
			photo_url, photo_key,
			first_name, last_name, national_id,
			shelter_name, website,
			created_at, updated_at
		FROM profiles
		WHERE id = $1
	`, strings.TrimSpace(id))

	var (
		p    accounts.Profile
		role string
		a    accounts.AdopterFields
		s    accounts.ShelterFields
	)
	if err := row.Scan(
		&p.ID, &role, &p.Email, &p.Phone, &p.Address, &p.Province,
		&p.PhotoURL, &p.PhotoKey,
		&a.FirstName, &a.LastName, &a.NationalID,
		&s.ShelterName, &s.Website,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accounts.Profile{}, accounts.ErrNotFound
		}
		return accounts.Profile{}, err
	}

	p.Role = session.Role(role)
	if p.Role == session.RoleShelter {
		p.Shelter = &s
	} else {
		p.Adopter = &a
	}
	return p, nil
}

func (r *AccountsRepo) GetRole(ctx context.Context, principalID string) (session.Role, error) {
	var role string
	err := r.db.QueryRowContext(ctx, `SELECT role FROM roles WHERE principal_id = $1`, principalID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", accounts.ErrNotFound
		}
		return "", err
	}
	return session.Role(role), nil
}

func (r *AccountsRepo) CreateCredential(ctx context.Context, c auth.Credential) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credentials (principal_id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, c.PrincipalID, c.Email, c.PasswordHash, c.CreatedAt)
	if isUniqueViolation(err) {
		return auth.ErrEmailTaken
	}
	return err
}

func (r *AccountsRepo) GetCredentialByEmail(ctx context.Context, email string) (auth.Credential, error) {
	var c auth.Credential
	err := r.db.QueryRowContext(ctx, `
		SELECT principal_id, email, password_hash, created_at
		FROM credentials
		WHERE email = $1
	`, email).Scan(&c.PrincipalID, &c.Email, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Credential{}, auth.ErrCredentialNotFound
		}
		return auth.Credential{}, err
	}
	return c, nil
}

func (r *AccountsRepo) DeleteCredential(ctx context.Context, principalID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE principal_id = $1`, principalID)
	return err
}

func profileRoleFields(p accounts.Profile) (accounts.AdopterFields, accounts.ShelterFields) {
	var (
		a accounts.AdopterFields
		s accounts.ShelterFields
	)
	if p.Adopter != nil {
		a = *p.Adopter
	}
	if p.Shelter != nil {
		s = *p.Shelter
	}
	return a, s
}
