package entity

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/go-rental-marketplace/pkg/validation"
)

const (
	DefaultProfilePicture = "default-profile.jpg"
	DefaultCoverPicture   = "default-cover.jpg"
	DefaultMaxDistanceKm  = 50
	DefaultLanguage       = "en"
)

// User is the aggregate root for the account domain.
// Password holds a bcrypt hash and is never serialized to JSON.
type User struct {
	ID                 primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name               string               `bson:"name,omitempty" json:"name,omitempty" validate:"max=100"`
	Username           string               `bson:"username" json:"username" validate:"required,username"`
	Email              string               `bson:"email" json:"email" validate:"required,email"`
	PhoneNumber        string               `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty" validate:"omitempty,phone10"`
	UserType           UserType             `bson:"userType" json:"userType" validate:"required,oneof=Client Provider"`
	IsAdmin            bool                 `bson:"isAdmin" json:"isAdmin"`
	AdminType          AdminType            `bson:"adminType,omitempty" json:"adminType,omitempty" validate:"omitempty,oneof=Super Moderator Support"`
	Password           string               `bson:"password,omitempty" json:"-" validate:"omitempty,min=8"`
	DOB                *time.Time           `bson:"dob,omitempty" json:"dob,omitempty" validate:"omitempty,notfuture"`
	Gender             string               `bson:"gender,omitempty" json:"gender,omitempty" validate:"omitempty,oneof=Male Female Other 'Prefer not to say'"`
	Location           *Location            `bson:"location,omitempty" json:"location,omitempty"`
	Geo                *GeoPoint            `bson:"geo,omitempty" json:"-"`
	ProfilePicture     string               `bson:"profilePicture" json:"profilePicture"`
	CoverPicture       string               `bson:"coverPicture" json:"coverPicture"`
	Bio                string               `bson:"bio,omitempty" json:"bio,omitempty" validate:"max=500"`
	Services           []primitive.ObjectID `bson:"services" json:"services"`
	Preferences        Preferences          `bson:"preferences" json:"preferences"`
	VerificationStatus VerificationStatus   `bson:"verificationStatus" json:"verificationStatus"`
	Rating             float64              `bson:"rating" json:"rating" validate:"min=0,max=5"`
	NumReviews         int                  `bson:"numReviews" json:"numReviews" validate:"min=0"`
	Reviews            []primitive.ObjectID `bson:"reviews" json:"reviews"`
	IsActive           bool                 `bson:"isActive" json:"isActive"`
	LastActive         time.Time            `bson:"lastActive" json:"lastActive"`
	AuthProvider       AuthProvider         `bson:"authProvider" json:"authProvider" validate:"oneof=Google Email Twitter"`
	SocialMedia        SocialMedia          `bson:"socialMedia" json:"socialMedia"`
	Notifications      Notifications        `bson:"notifications" json:"notifications"`
	Language           string               `bson:"language" json:"language" validate:"max=10"`
	Timezone           string               `bson:"timezone,omitempty" json:"timezone,omitempty" validate:"omitempty,timezone"`
	AvailabilityHours  []Availability       `bson:"availabilityHours" json:"availabilityHours" validate:"max=21,dive"`
	AccountStatus      AccountStatus        `bson:"accountStatus" json:"accountStatus" validate:"oneof=Active Suspended Deactivated"`
	LastPasswordChange *time.Time           `bson:"lastPasswordChange,omitempty" json:"-"`
	LoginAttempts      int                  `bson:"loginAttempts" json:"-"`
	LockUntil          *time.Time           `bson:"lockUntil,omitempty" json:"-"`
	CreatedAt          time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Location is how a user chose to describe where they are
type Location struct {
	Type        string    `bson:"type" json:"type" validate:"oneof=Point Address PINCODE"`
	Coordinates []float64 `bson:"coordinates,omitempty" json:"coordinates,omitempty" validate:"lnglat"`
	Address     string    `bson:"address,omitempty" json:"address,omitempty" validate:"max=300"`
	Pincode     string    `bson:"pincode,omitempty" json:"pincode,omitempty" validate:"max=12"`
}

// GeoPoint is the GeoJSON form kept in sync with Location for the 2dsphere index
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

type AgeRange struct {
	Min int `bson:"min,omitempty" json:"min,omitempty" validate:"omitempty,min=18"`
	Max int `bson:"max,omitempty" json:"max,omitempty" validate:"omitempty,max=100"`
}

type Preferences struct {
	Age         AgeRange `bson:"age" json:"age"`
	Gender      []string `bson:"gender" json:"gender" validate:"max=5"`
	Services    []string `bson:"services" json:"services" validate:"max=50"`
	Location    string   `bson:"location,omitempty" json:"location,omitempty"`
	MaxDistance float64  `bson:"maxDistance" json:"maxDistance" validate:"min=0"`
}

type VerificationStatus struct {
	Email  bool `bson:"email" json:"email"`
	Phone  bool `bson:"phone" json:"phone"`
	GovtID bool `bson:"govtId" json:"govtId"`
}

type SocialMedia struct {
	Facebook  string `bson:"facebook,omitempty" json:"facebook,omitempty"`
	Twitter   string `bson:"twitter,omitempty" json:"twitter,omitempty"`
	Instagram string `bson:"instagram,omitempty" json:"instagram,omitempty"`
	LinkedIn  string `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
}

type Notifications struct {
	Email bool `bson:"email" json:"email"`
	Push  bool `bson:"push" json:"push"`
}

type Availability struct {
	Day   string `bson:"day" json:"day" validate:"oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	Start string `bson:"start" json:"start" validate:"omitempty,datetime=15:04"`
	End   string `bson:"end" json:"end" validate:"omitempty,datetime=15:04"`
}

// NormalizeEmail trims and lowercases; stored emails are always normalized
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername trims and lowercases; stored usernames are always normalized
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NewUser returns a user with schema defaults applied
func NewUser(username, email string, userType UserType, now time.Time) *User {
	if userType == "" {
		userType = UserTypeClient
	}
	return &User{
		Username:       NormalizeUsername(username),
		Email:          NormalizeEmail(email),
		UserType:       userType,
		ProfilePicture: DefaultProfilePicture,
		CoverPicture:   DefaultCoverPicture,
		Services:       []primitive.ObjectID{},
		Reviews:        []primitive.ObjectID{},
		Preferences: Preferences{
			Gender:      []string{},
			Services:    []string{},
			MaxDistance: DefaultMaxDistanceKm,
		},
		Notifications:     Notifications{Email: true, Push: true},
		IsActive:          true,
		LastActive:        now,
		AuthProvider:      AuthEmail,
		Language:          DefaultLanguage,
		AvailabilityHours: []Availability{},
		AccountStatus:     AccountActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Validate applies the declarative schema rules plus the cross-field ones
func (u *User) Validate() error {
	u.Name = strings.TrimSpace(u.Name)
	u.PhoneNumber = strings.TrimSpace(u.PhoneNumber)
	u.Username = NormalizeUsername(u.Username)
	u.Email = NormalizeEmail(u.Email)
	if err := validation.Struct(u); err != nil {
		return err
	}
	if !u.IsAdmin && u.AdminType != "" {
		return ErrAdminTypeWithoutAdmin
	}
	if a := u.Preferences.Age; a.Min != 0 && a.Max != 0 && a.Min > a.Max {
		return ErrAgeRange
	}
	return nil
}

// IsLocked reports whether failed logins currently block sign-in
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && now.Before(*u.LockUntil)
}

// CanSignIn reports whether the account status allows a session
func (u *User) CanSignIn() bool {
	return u.AccountStatus == AccountActive && u.IsActive
}

// SetLocation replaces the location and keeps the GeoJSON copy in sync
func (u *User) SetLocation(loc *Location) {
	u.Location = loc
	u.Geo = nil
	if loc == nil {
		return
	}
	if loc.Type == "" {
		loc.Type = "Point"
	}
	if len(loc.Coordinates) == 2 {
		u.Geo = &GeoPoint{Type: "Point", Coordinates: []float64{loc.Coordinates[0], loc.Coordinates[1]}}
	}
}

// AddService records a listing owned by this user, once
func (u *User) AddService(id primitive.ObjectID) {
	for _, s := range u.Services {
		if s == id {
			return
		}
	}
	u.Services = append(u.Services, id)
}
