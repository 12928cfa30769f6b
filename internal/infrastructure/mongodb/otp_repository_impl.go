package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oksasatya/go-rental-marketplace/internal/domain/entity"
	"github.com/oksasatya/go-rental-marketplace/internal/domain/repository"
)

type OTPRepository struct {
	col *mongo.Collection
}

func NewOTPRepository(db *mongo.Database) *OTPRepository {
	return &OTPRepository{col: db.Collection(otpsCollection)}
}

func (r *OTPRepository) Create(ctx context.Context, o *entity.OTP) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	o.Email = entity.NormalizeEmail(o.Email)
	_, err := r.col.InsertOne(ctx, o)
	return translate(err)
}

func (r *OTPRepository) Latest(ctx context.Context, email string) (*entity.OTP, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	o := &entity.OTP{}
	if err := r.col.FindOne(ctx, bson.D{{Key: "email", Value: entity.NormalizeEmail(email)}}, opts).Decode(o); err != nil {
		return nil, translate(err)
	}
	return o, nil
}

func (r *OTPRepository) IncrementAttempts(ctx context.Context, id primitive.ObjectID) (int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	o := &entity.OTP{}
	err := r.col.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$inc", Value: bson.D{{Key: "attempts", Value: 1}}}}, opts).Decode(o)
	if err != nil {
		return 0, translate(err)
	}
	return o.Attempts, nil
}

func (r *OTPRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	return err
}

func (r *OTPRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.col.DeleteMany(ctx, bson.D{{Key: "email", Value: entity.NormalizeEmail(email)}})
	return err
}

var _ repository.OTPRepository = (*OTPRepository)(nil)
