package mongodb

import (
	"context"
	"errors"
	"time"

	"petmatch/internal/domain/pets"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type petDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Species     string    `bson:"species"`
	Breed       string    `bson:"breed"`
	Age         string    `bson:"age"`
	Description string    `bson:"description"`
	PhotoURL    string    `bson:"photo_url"`
	PhotoKey    string    `bson:"photo_key"`
	Traits      []string  `bson:"traits"`
	ShelterID   string    `bson:"shelter_id"`
	ShelterName string    `bson:"shelter_name"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toPetDoc(p pets.Pet) petDoc {
	traits := p.Traits
	if traits == nil {
		traits = []string{}
	}
	return petDoc{
		ID: p.ID, Name: p.Name, Species: string(p.Species), Breed: p.Breed, Age: p.Age,
		Description: p.Description, PhotoURL: p.PhotoURL, PhotoKey: p.PhotoKey, Traits: traits,
		ShelterID: p.ShelterID, ShelterName: p.ShelterName, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func (d petDoc) toPet() pets.Pet {
	return pets.Pet{
		ID: d.ID, Name: d.Name, Species: pets.Species(d.Species), Breed: d.Breed, Age: d.Age,
		Description: d.Description, PhotoURL: d.PhotoURL, PhotoKey: d.PhotoKey, Traits: d.Traits,
		ShelterID: d.ShelterID, ShelterName: d.ShelterName, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

type PetsRepo struct {
	col *mongo.Collection
}

func NewPetsRepo(db *mongo.Database) *PetsRepo {
	return &PetsRepo{col: db.Collection(colPets)}
}

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.col.InsertOne(ctx, toPetDoc(p))
	return err
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	d := toPetDoc(p)
	res, err := r.col.UpdateByID(ctx, p.ID, bson.M{"$set": bson.M{
		"name":        d.Name,
		"species":     d.Species,
		"breed":       d.Breed,
		"age":         d.Age,
		"description": d.Description,
		"photo_url":   d.PhotoURL,
		"photo_key":   d.PhotoKey,
		"traits":      d.Traits,
		"updated_at":  d.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	var d petDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return pets.Pet{}, pets.ErrNotFound
		}
		return pets.Pet{}, err
	}
	return d.toPet(), nil
}

func (r *PetsRepo) List(ctx context.Context) ([]pets.Pet, error) {
	cur, err := r.col.Find(ctx, bson.M{}, newestFirst)
	if err != nil {
		return nil, err
	}
	var docs []petDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]pets.Pet, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toPet())
	}
	return out, nil
}
