package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oksasatya/go-rental-marketplace/internal/domain/entity"
	"github.com/oksasatya/go-rental-marketplace/internal/domain/repository"
)

type ServiceRepository struct {
	col *mongo.Collection
}

func NewServiceRepository(db *mongo.Database) *ServiceRepository {
	return &ServiceRepository{col: db.Collection(servicesCollection)}
}

func (r *ServiceRepository) Create(ctx context.Context, s *entity.Service) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, s)
	return translate(err)
}

func (r *ServiceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*entity.Service, error) {
	s := &entity.Service{}
	if err := r.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(s); err != nil {
		return nil, translate(err)
	}
	return s, nil
}

func (r *ServiceRepository) Update(ctx context.Context, s *entity.Service) error {
	s.UpdatedAt = time.Now().UTC()
	res, err := r.col.ReplaceOne(ctx, bson.D{{Key: "_id", Value: s.ID}}, s)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ServiceRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// serviceFilter builds the query document. A Male or Female gender filter
// also matches listings open to both or with no preference.
func serviceFilter(f repository.ServiceFilter) bson.D {
	filter := bson.D{}
	if f.Active != nil {
		filter = append(filter, bson.E{Key: "isActive", Value: *f.Active})
	}
	if f.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: f.Category})
	}
	switch f.Gender {
	case "":
	case entity.GenderMale, entity.GenderFemale:
		filter = append(filter, bson.E{Key: "genderPreference", Value: bson.D{{Key: "$in", Value: bson.A{f.Gender, entity.GenderBoth, entity.GenderNotSpecified}}}})
	default:
		filter = append(filter, bson.E{Key: "genderPreference", Value: f.Gender})
	}
	if f.Age != nil {
		filter = append(filter,
			bson.E{Key: "agePreference.minimumAge", Value: bson.D{{Key: "$lte", Value: *f.Age}}},
			bson.E{Key: "agePreference.maximumAge", Value: bson.D{{Key: "$gte", Value: *f.Age}}},
		)
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.D{}
		if f.MinPrice != nil {
			price = append(price, bson.E{Key: "$gte", Value: *f.MinPrice})
		}
		if f.MaxPrice != nil {
			price = append(price, bson.E{Key: "$lte", Value: *f.MaxPrice})
		}
		filter = append(filter, bson.E{Key: "price", Value: price})
	}
	if f.ProviderID != nil {
		filter = append(filter, bson.E{Key: "providerId", Value: *f.ProviderID})
	}
	return filter
}

// List returns one page, newest first, with the total match count
func (r *ServiceRepository) List(ctx context.Context, f repository.ServiceFilter) ([]*entity.Service, int64, error) {
	filter := serviceFilter(f)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip((f.Page - 1) * f.Limit).
		SetLimit(f.Limit)
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	out := []*entity.Service{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

var _ repository.ServiceRepository = (*ServiceRepository)(nil)
