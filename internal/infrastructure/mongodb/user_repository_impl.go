package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oksasatya/go-rental-marketplace/internal/domain/entity"
	"github.com/oksasatya/go-rental-marketplace/internal/domain/repository"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(usersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, u)
	return translate(err)
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.D) (*entity.User, error) {
	u := &entity.User{}
	if err := r.col.FindOne(ctx, filter).Decode(u); err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: entity.NormalizeEmail(email)}})
}

func (r *UserRepository) exists(ctx context.Context, filter bson.D) (bool, error) {
	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.D{{Key: "email", Value: entity.NormalizeEmail(email)}})
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, bson.D{{Key: "username", Value: entity.NormalizeUsername(username)}})
}

// profileUpdate $sets the editable profile fields. Optional fields that are
// empty are $unset so the stored shape matches a freshly inserted document.
func profileUpdate(u *entity.User, now time.Time) bson.D {
	set := bson.D{
		{Key: "preferences", Value: u.Preferences},
		{Key: "socialMedia", Value: u.SocialMedia},
		{Key: "notifications", Value: u.Notifications},
		{Key: "language", Value: u.Language},
		{Key: "availabilityHours", Value: u.AvailabilityHours},
		{Key: "updatedAt", Value: now},
	}
	unset := bson.D{}
	optional := func(key string, v any, empty bool) {
		if empty {
			unset = append(unset, bson.E{Key: key, Value: ""})
			return
		}
		set = append(set, bson.E{Key: key, Value: v})
	}
	optional("name", u.Name, u.Name == "")
	optional("phoneNumber", u.PhoneNumber, u.PhoneNumber == "")
	optional("bio", u.Bio, u.Bio == "")
	optional("gender", u.Gender, u.Gender == "")
	optional("timezone", u.Timezone, u.Timezone == "")
	optional("dob", u.DOB, u.DOB == nil)
	optional("location", u.Location, u.Location == nil)
	optional("geo", u.Geo, u.Geo == nil)

	update := bson.D{{Key: "$set", Value: set}}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}
	return update
}

func (r *UserRepository) UpdateProfile(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := r.col.UpdateByID(ctx, u.ID, profileUpdate(u, u.UpdatedAt))
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetPicture(ctx context.Context, id primitive.ObjectID, field, url string) error {
	if field != repository.FieldProfilePicture && field != repository.FieldCoverPicture {
		return fmt.Errorf("unknown picture field %q", field)
	}
	res, err := r.col.UpdateByID(ctx, id, bson.D{{Key: "$set", Value: bson.D{
		{Key: field, Value: url},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// loginFailurePipeline increments the counter and, once it reaches max,
// locks the account and starts counting again from zero.
func loginFailurePipeline(maxAttempts int, lockUntil, now time.Time) mongo.Pipeline {
	reached := bson.D{{Key: "$gte", Value: bson.A{"$loginAttempts", maxAttempts}}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "loginAttempts", Value: bson.D{{Key: "$add", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{"$loginAttempts", 0}}}, 1}}}},
			{Key: "updatedAt", Value: now},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "lockUntil", Value: bson.D{{Key: "$cond", Value: bson.A{reached, lockUntil, "$lockUntil"}}}},
			{Key: "loginAttempts", Value: bson.D{{Key: "$cond", Value: bson.A{reached, 0, "$loginAttempts"}}}},
		}}},
	}
}

func (r *UserRepository) RecordLoginFailure(ctx context.Context, id primitive.ObjectID, maxAttempts int, lockUntil time.Time) (*entity.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	u := &entity.User{}
	err := r.col.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, loginFailurePipeline(maxAttempts, lockUntil, time.Now().UTC()), opts).Decode(u)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (r *UserRepository) RecordLoginSuccess(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := r.col.UpdateByID(ctx, id, bson.D{
		{Key: "$set", Value: bson.D{{Key: "loginAttempts", Value: 0}, {Key: "lastActive", Value: at}}},
		{Key: "$unset", Value: bson.D{{Key: "lockUntil", Value: ""}}},
	})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) AddService(ctx context.Context, userID, serviceID primitive.ObjectID) error {
	res, err := r.col.UpdateByID(ctx, userID, bson.D{
		{Key: "$addToSet", Value: bson.D{{Key: "services", Value: serviceID}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
	})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nearbyFilter(q repository.NearbyQuery) bson.D {
	filter := bson.D{
		{Key: "geo", Value: bson.D{{Key: "$nearSphere", Value: bson.D{
			{Key: "$geometry", Value: bson.D{
				{Key: "type", Value: "Point"},
				{Key: "coordinates", Value: bson.A{q.Lng, q.Lat}},
			}},
			{Key: "$maxDistance", Value: q.MaxDistanceMeters},
		}}}},
		{Key: "isActive", Value: true},
		{Key: "accountStatus", Value: entity.AccountActive},
	}
	if q.UserType != "" {
		filter = append(filter, bson.E{Key: "userType", Value: q.UserType})
	}
	return filter
}

// Nearby returns matches nearest first
func (r *UserRepository) Nearby(ctx context.Context, q repository.NearbyQuery) ([]*entity.User, error) {
	opts := options.Find().SetLimit(q.Limit).SetProjection(bson.D{{Key: "password", Value: 0}})
	cur, err := r.col.Find(ctx, nearbyFilter(q), opts)
	if err != nil {
		return nil, err
	}
	out := []*entity.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
