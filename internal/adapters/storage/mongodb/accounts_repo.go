package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"petmatch/internal/domain/accounts"
	"petmatch/internal/ports/auth"
	"petmatch/internal/session"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type profileDoc struct {
	ID       string `bson:"_id"`
	Role     string `bson:"role"`
	Email    string `bson:"email"`
	Phone    string `bson:"phone"`
	Address  string `bson:"address"`
	Province string `bson:"province"`
	PhotoURL string `bson:"photo_url"`
	PhotoKey string `bson:"photo_key"`

	// adoptante
	FirstName  string `bson:"first_name,omitempty"`
	LastName   string `bson:"last_name,omitempty"`
	NationalID string `bson:"national_id,omitempty"`

	// refugio
	ShelterName string `bson:"shelter_name,omitempty"`
	Website     string `bson:"website,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toProfileDoc(p accounts.Profile) profileDoc {
	d := profileDoc{
		ID: p.ID, Role: string(p.Role), Email: p.Email, Phone: p.Phone, Address: p.Address,
		Province: p.Province, PhotoURL: p.PhotoURL, PhotoKey: p.PhotoKey,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
	if p.Adopter != nil {
		d.FirstName, d.LastName, d.NationalID = p.Adopter.FirstName, p.Adopter.LastName, p.Adopter.NationalID
	}
	if p.Shelter != nil {
		d.ShelterName, d.Website = p.Shelter.ShelterName, p.Shelter.Website
	}
	return d
}

func (d profileDoc) toProfile() accounts.Profile {
	p := accounts.Profile{
		ID: d.ID, Role: session.Role(d.Role), Email: d.Email, Phone: d.Phone, Address: d.Address,
		Province: d.Province, PhotoURL: d.PhotoURL, PhotoKey: d.PhotoKey,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
	if p.Role == session.RoleShelter {
		p.Shelter = &accounts.ShelterFields{ShelterName: d.ShelterName, Website: d.Website}
	} else {
		p.Adopter = &accounts.AdopterFields{FirstName: d.FirstName, LastName: d.LastName, NationalID: d.NationalID}
	}
	return p
}

type credentialDoc struct {
	PrincipalID  string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

// AccountsRepo cubre perfiles, registros de rol y credenciales locales.
type AccountsRepo struct {
	profiles *mongo.Collection
	roles    *mongo.Collection
	creds    *mongo.Collection
}

func NewAccountsRepo(db *mongo.Database) *AccountsRepo {
	return &AccountsRepo{
		profiles: db.Collection(colProfiles),
		roles:    db.Collection(colRoles),
		creds:    db.Collection(colCredentials),
	}
}

// CreateAccount inserta el perfil y después el rol. Si el rol no se
// escribe, el perfil se retira para no dejar un alta a medias.
func (r *AccountsRepo) CreateAccount(ctx context.Context, p accounts.Profile) error {
	if _, err := r.profiles.InsertOne(ctx, toProfileDoc(p)); err != nil {
		return err
	}

	_, err := r.roles.UpdateByID(ctx, p.ID,
		bson.M{"$set": bson.M{"role": string(p.Role)}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if _, derr := r.profiles.DeleteOne(ctx, bson.M{"_id": p.ID}); derr != nil {
			return errors.Join(err, fmt.Errorf("remove profile: %w", derr))
		}
		return err
	}
	return nil
}

func (r *AccountsRepo) UpdateProfile(ctx context.Context, p accounts.Profile) error {
	res, err := r.profiles.ReplaceOne(ctx, bson.M{"_id": p.ID}, toProfileDoc(p))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return accounts.ErrNotFound
	}
	return nil
}

func (r *AccountsRepo) GetProfile(ctx context.Context, id string) (accounts.Profile, error) {
	var d profileDoc
	if err := r.profiles.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return accounts.Profile{}, accounts.ErrNotFound
		}
		return accounts.Profile{}, err
	}
	return d.toProfile(), nil
}

func (r *AccountsRepo) GetRole(ctx context.Context, principalID string) (session.Role, error) {
	var d struct {
		Role string `bson:"role"`
	}
	if err := r.roles.FindOne(ctx, bson.M{"_id": principalID}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", accounts.ErrNotFound
		}
		return "", err
	}
	return session.Role(d.Role), nil
}

func (r *AccountsRepo) CreateCredential(ctx context.Context, c auth.Credential) error {
	_, err := r.creds.InsertOne(ctx, credentialDoc{
		PrincipalID:  c.PrincipalID,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		CreatedAt:    c.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return auth.ErrEmailTaken
	}
	return err
}

func (r *AccountsRepo) GetCredentialByEmail(ctx context.Context, email string) (auth.Credential, error) {
	var d credentialDoc
	if err := r.creds.FindOne(ctx, bson.M{"email": email}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return auth.Credential{}, auth.ErrCredentialNotFound
		}
		return auth.Credential{}, err
	}
	return auth.Credential{PrincipalID: d.PrincipalID, Email: d.Email, PasswordHash: d.PasswordHash, CreatedAt: d.CreatedAt}, nil
}

func (r *AccountsRepo) DeleteCredential(ctx context.Context, principalID string) error {
	_, err := r.creds.DeleteOne(ctx, bson.M{"_id": principalID})
	return err
}
