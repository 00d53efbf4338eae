package mongodb

import (
	"context"
	"errors"
	"time"

	"petmatch/internal/domain/adoptions"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type requestDoc struct {
	ID           string    `bson:"_id"`
	PetID        string    `bson:"pet_id"`
	PetName      string    `bson:"pet_name"`
	AdopterID    string    `bson:"adopter_id"`
	AdopterName  string    `bson:"adopter_name"`
	AdopterEmail string    `bson:"adopter_email"`
	AdopterPhone string    `bson:"adopter_phone"`
	ShelterID    string    `bson:"shelter_id"`
	ShelterName  string    `bson:"shelter_name"`
	Status       string    `bson:"status"`
	PetAvailable bool      `bson:"pet_available"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toRequestDoc(r adoptions.Request) requestDoc {
	return requestDoc{
		ID: r.ID, PetID: r.PetID, PetName: r.PetName,
		AdopterID: r.AdopterID, AdopterName: r.AdopterName, AdopterEmail: r.AdopterEmail, AdopterPhone: r.AdopterPhone,
		ShelterID: r.ShelterID, ShelterName: r.ShelterName,
		Status: string(r.Status), PetAvailable: r.PetAvailable,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func (d requestDoc) toRequest() adoptions.Request {
	return adoptions.Request{
		ID: d.ID, PetID: d.PetID, PetName: d.PetName,
		AdopterID: d.AdopterID, AdopterName: d.AdopterName, AdopterEmail: d.AdopterEmail, AdopterPhone: d.AdopterPhone,
		ShelterID: d.ShelterID, ShelterName: d.ShelterName,
		Status: adoptions.Status(d.Status), PetAvailable: d.PetAvailable,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

type AdoptionsRepo struct {
	col *mongo.Collection
}

func NewAdoptionsRepo(db *mongo.Database) *AdoptionsRepo {
	return &AdoptionsRepo{col: db.Collection(colRequests)}
}

func (r *AdoptionsRepo) Create(ctx context.Context, req adoptions.Request) error {
	_, err := r.col.InsertOne(ctx, toRequestDoc(req))
	return err
}

func (r *AdoptionsRepo) GetByID(ctx context.Context, id string) (adoptions.Request, error) {
	var d requestDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return adoptions.Request{}, adoptions.ErrNotFound
		}
		return adoptions.Request{}, err
	}
	return d.toRequest(), nil
}

func (r *AdoptionsRepo) ListByAdopter(ctx context.Context, adopterID string) ([]adoptions.Request, error) {
	return r.find(ctx, bson.M{"adopter_id": adopterID})
}

func (r *AdoptionsRepo) ListByShelter(ctx context.Context, shelterID string) ([]adoptions.Request, error) {
	return r.find(ctx, bson.M{"shelter_id": shelterID})
}

func (r *AdoptionsRepo) ListByPet(ctx context.Context, petID string) ([]adoptions.Request, error) {
	return r.find(ctx, bson.M{"pet_id": petID})
}

// UpdateStatus filtra por {_id, status: from}: el documento solo cambia si
// nadie lo decidió antes.
func (r *AdoptionsRepo) UpdateStatus(ctx context.Context, id string, from, to adoptions.Status, at time.Time) (adoptions.Request, error) {
	var d requestDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "updated_at": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err == nil {
		return d.toRequest(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return adoptions.Request{}, err
	}

	if _, gerr := r.GetByID(ctx, id); gerr != nil {
		return adoptions.Request{}, gerr
	}
	return adoptions.Request{}, adoptions.ErrStatusConflict
}

func (r *AdoptionsRepo) MarkPetUnavailable(ctx context.Context, petID string, at time.Time) ([]adoptions.Request, error) {
	if _, err := r.col.UpdateMany(ctx,
		bson.M{"pet_id": petID, "pet_available": true},
		bson.M{"$set": bson.M{"pet_available": false, "updated_at": at}},
	); err != nil {
		return nil, err
	}
	return r.find(ctx, bson.M{"pet_id": petID})
}

func (r *AdoptionsRepo) DeleteByPet(ctx context.Context, petID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"pet_id": petID})
	return err
}

func (r *AdoptionsRepo) find(ctx context.Context, filter bson.M) ([]adoptions.Request, error) {
	cur, err := r.col.Find(ctx, filter, newestFirst)
	if err != nil {
		return nil, err
	}
	var docs []requestDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]adoptions.Request, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toRequest())
	}
	return out, nil
}
