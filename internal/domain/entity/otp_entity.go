package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OTP is a pending signup verification code. Only the bcrypt hash of the
// code is stored; MongoDB expires the document at Expires.
type OTP struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	CodeHash  string             `bson:"codeHash"`
	Expires   time.Time          `bson:"expires"`
	Attempts  int                `bson:"attempts"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// Expired reports whether now is past the expiry timestamp
func (o *OTP) Expired(now time.Time) bool {
	return now.After(o.Expires)
}
