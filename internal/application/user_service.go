package application

import (
	"context"
	"errors"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/go-rental-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/go-rental-marketplace/internal/domain/repository"
)

const (
	MaxPictureBytes    = 5 << 20
	DefaultNearbyKm    = 50
	MaxNearbyKm        = 500
	MaxNearbyResults   = 50
	DefaultActivity    = 20
	MaxActivity        = 100
	PictureKindProfile = "profile"
	PictureKindCover   = "cover"
)

// ObjectUploader stores a blob and returns its public URL
type ObjectUploader interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// UserService serves the signed-in user's profile and geo lookups.
type UserService struct {
	Users   repo.UserRepository
	Audit   repo.AuditRepository
	Storage ObjectUploader
	Redis   *redis.Client
	Logger  *logrus.Logger
	now     func() time.Time
}

func NewUserService(users repo.UserRepository, storage ObjectUploader, rdb *redis.Client, logger *logrus.Logger) *UserService {
	return &UserService{Users: users, Storage: storage, Redis: rdb, Logger: logger, now: time.Now}
}

func (s *UserService) getUser(ctx context.Context, userID string) (*entity.User, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	u, err := s.Users.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return s.getUser(ctx, userID)
}

// UpdateProfileInput carries a partial update; nil fields are left alone.
type UpdateProfileInput struct {
	Name              *string
	PhoneNumber       *string
	Bio               *string
	Gender            *string
	DOB               *time.Time
	Location          *entity.Location
	Preferences       *entity.Preferences
	SocialMedia       *entity.SocialMedia
	Notifications     *entity.Notifications
	Language          *string
	Timezone          *string
	AvailabilityHours []entity.Availability
}

func (in UpdateProfileInput) apply(u *entity.User) {
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.PhoneNumber != nil {
		u.PhoneNumber = *in.PhoneNumber
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if in.Gender != nil {
		u.Gender = *in.Gender
	}
	if in.DOB != nil {
		dob := in.DOB.UTC()
		u.DOB = &dob
	}
	if in.Location != nil {
		u.SetLocation(in.Location)
	}
	if in.Preferences != nil {
		p := *in.Preferences
		if p.Gender == nil {
			p.Gender = []string{}
		}
		if p.Services == nil {
			p.Services = []string{}
		}
		u.Preferences = p
	}
	if in.SocialMedia != nil {
		u.SocialMedia = *in.SocialMedia
	}
	if in.Notifications != nil {
		u.Notifications = *in.Notifications
	}
	if in.Language != nil {
		u.Language = *in.Language
	}
	if in.Timezone != nil {
		u.Timezone = *in.Timezone
	}
	if in.AvailabilityHours != nil {
		u.AvailabilityHours = in.AvailabilityHours
	}
}

// UpdateProfile applies the changes, re-validates the whole document and saves
// the profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	in.apply(u)
	if err := u.Validate(); err != nil {
		return nil, err
	}
	u.UpdatedAt = s.now()
	if err := s.Users.UpdateProfile(ctx, u); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	touchSession(ctx, s.Redis, s.Logger, u)
	return u, nil
}

// UploadPicture stores a profile or cover image and saves its URL on the user.
func (s *UserService) UploadPicture(ctx context.Context, userID, kind string, r io.Reader, filename, contentType string, size int64) (string, error) {
	if kind == "" {
		kind = PictureKindProfile
	}
	if kind != PictureKindProfile && kind != PictureKindCover {
		return "", ErrInvalidImage
	}
	if !strings.HasPrefix(contentType, "image/") || size <= 0 || size > MaxPictureBytes {
		return "", ErrInvalidImage
	}
	if s.Storage == nil {
		return "", ErrStorageUnavailable
	}
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := "users/" + userID + "/" + kind + "/" + uuid.NewString() + ext
	url, err := s.Storage.Upload(ctx, objectPath, contentType, io.LimitReader(r, MaxPictureBytes))
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("object", objectPath).Error("picture upload failed")
		}
		return "", err
	}

	field := repo.FieldProfilePicture
	if kind == PictureKindCover {
		field = repo.FieldCoverPicture
	}
	if err := s.Users.SetPicture(ctx, u.ID, field, url); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return url, nil
}

// Activity lists the user's recent account events, newest first. Without an
// audit store the list is empty.
func (s *UserService) Activity(ctx context.Context, userID string, limit int) ([]entity.AuditLog, error) {
	if _, err := primitive.ObjectIDFromHex(userID); err != nil {
		return nil, ErrUserNotFound
	}
	if limit <= 0 {
		limit = DefaultActivity
	}
	if limit > MaxActivity {
		limit = MaxActivity
	}
	if s.Audit == nil {
		return []entity.AuditLog{}, nil
	}
	logs, err := s.Audit.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []entity.AuditLog{}
	}
	return logs, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// NearbyInput locates users around a point; Km <= 0 means the default radius.
type NearbyInput struct {
	Lng, Lat float64
	Km       float64
	UserType entity.UserType
}

func (s *UserService) Nearby(ctx context.Context, in NearbyInput) ([]*entity.User, error) {
	if !finite(in.Lng, in.Lat, in.Km) {
		return nil, ErrInvalidQuery
	}
	if in.Lng < -180 || in.Lng > 180 || in.Lat < -90 || in.Lat > 90 {
		return nil, ErrInvalidQuery
	}
	if in.UserType == "" {
		in.UserType = entity.UserTypeProvider
	}
	if !in.UserType.Valid() {
		return nil, ErrInvalidQuery
	}
	km := in.Km
	if km <= 0 {
		km = DefaultNearbyKm
	}
	if km > MaxNearbyKm {
		km = MaxNearbyKm
	}
	return s.Users.Nearby(ctx, repo.NearbyQuery{
		Lng:               in.Lng,
		Lat:               in.Lat,
		MaxDistanceMeters: km * 1000,
		UserType:          in.UserType,
		Limit:             MaxNearbyResults,
	})
}
