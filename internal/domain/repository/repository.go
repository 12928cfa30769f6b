package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/go-rental-marketplace/internal/domain/entity"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

// UserRepository defines the persistence operations on accounts.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// UpdateProfile writes only the user-editable profile fields, leaving
	// counters, services and timestamps owned by other flows untouched.
	UpdateProfile(ctx context.Context, u *entity.User) error
	// SetPicture sets profilePicture or coverPicture to url.
	SetPicture(ctx context.Context, id primitive.ObjectID, field, url string) error
	// RecordLoginFailure increments loginAttempts; when the count reaches
	// maxAttempts it sets lockUntil and resets the count. Returns the new state.
	RecordLoginFailure(ctx context.Context, id primitive.ObjectID, maxAttempts int, lockUntil time.Time) (*entity.User, error)
	RecordLoginSuccess(ctx context.Context, id primitive.ObjectID, at time.Time) error
	AddService(ctx context.Context, userID, serviceID primitive.ObjectID) error
	Nearby(ctx context.Context, q NearbyQuery) ([]*entity.User, error)
}

// Picture fields accepted by SetPicture
const (
	FieldProfilePicture = "profilePicture"
	FieldCoverPicture   = "coverPicture"
)

// NearbyQuery finds active users of a type within MaxDistanceMeters of a point
type NearbyQuery struct {
	Lng, Lat          float64
	MaxDistanceMeters float64
	UserType          entity.UserType
	Limit             int64
}

// ServiceRepository defines the persistence operations on listings.
type ServiceRepository interface {
	Create(ctx context.Context, s *entity.Service) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*entity.Service, error)
	Update(ctx context.Context, s *entity.Service) error
	// Delete removes a listing outright; only used to undo a failed create.
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, f ServiceFilter) ([]*entity.Service, int64, error)
}

// ServiceFilter narrows a listing query. Nil pointers mean "no constraint".
type ServiceFilter struct {
	Category   string
	Gender     string
	Age        *int
	MinPrice   *float64
	MaxPrice   *float64
	ProviderID *primitive.ObjectID
	Active     *bool
	Page       int64
	Limit      int64
}

// OTPRepository stores pending signup codes.
type OTPRepository interface {
	Create(ctx context.Context, o *entity.OTP) error
	// Latest returns the most recently created code for the email.
	Latest(ctx context.Context, email string) (*entity.OTP, error)
	IncrementAttempts(ctx context.Context, id primitive.ObjectID) (int, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByEmail(ctx context.Context, email string) error
}

// AuditRepository appends account events.
type AuditRepository interface {
	Insert(ctx context.Context, a *entity.AuditLog) error
	ListByUser(ctx context.Context, userID string, limit int) ([]entity.AuditLog, error)
}
