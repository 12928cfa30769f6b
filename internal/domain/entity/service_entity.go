package entity

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/go-rental-marketplace/pkg/validation"
)

// Gender preferences a provider can set on a listing
const (
	GenderMale         = "Male"
	GenderFemale       = "Female"
	GenderBoth         = "Both"
	GenderOthers       = "Others"
	GenderNotSpecified = "Not Specified"
)

// Service is a listing offered by a provider
type Service struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProviderID       primitive.ObjectID `bson:"providerId" json:"providerId"`
	ServiceName      string             `bson:"serviceName" json:"serviceName" validate:"required,max=100"`
	Description      string             `bson:"description" json:"description" validate:"required,max=1000"`
	Category         string             `bson:"category" json:"category" validate:"required,max=60"`
	Location         string             `bson:"location" json:"location" validate:"required,max=200"`
	Price            float64            `bson:"price" json:"price" validate:"gte=0"`
	Duration         Duration           `bson:"duration" json:"duration"`
	AgePreference    AgePreference      `bson:"agePreference" json:"agePreference"`
	GenderPreference string             `bson:"genderPreference" json:"genderPreference" validate:"required,oneof=Male Female Both Others 'Not Specified'"`
	IsActive         bool               `bson:"isActive" json:"isActive"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type Duration struct {
	StartDuration time.Time `bson:"startDuration" json:"startDuration" validate:"required"`
	EndDuration   time.Time `bson:"endDuration" json:"endDuration" validate:"required,gtfield=StartDuration"`
}

type AgePreference struct {
	MinimumAge int `bson:"minimumAge" json:"minimumAge" validate:"gte=0,lte=120"`
	MaximumAge int `bson:"maximumAge" json:"maximumAge" validate:"gtefield=MinimumAge,lte=120"`
}

// Validate trims text fields and applies the schema rules
func (s *Service) Validate() error {
	s.ServiceName = strings.TrimSpace(s.ServiceName)
	s.Description = strings.TrimSpace(s.Description)
	s.Category = strings.TrimSpace(s.Category)
	s.Location = strings.TrimSpace(s.Location)
	if s.ProviderID.IsZero() {
		return ErrServiceWithoutProvider
	}
	return validation.Struct(s)
}

// Admits reports whether a person of the given age fits the listing
func (s *Service) Admits(age int) bool {
	return age >= s.AgePreference.MinimumAge && age <= s.AgePreference.MaximumAge
}

// OwnedBy reports whether the user id owns the listing
func (s *Service) OwnedBy(userID primitive.ObjectID) bool {
	return s.ProviderID == userID
}
