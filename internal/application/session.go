package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-rental-marketplace/internal/domain/entity"
	"github.com/oksasatya/go-rental-marketplace/pkg/helpers"
)

// Session is what the handler needs to set the cookie
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// SessionKey is the Redis hash holding the active session of a user
func SessionKey(userID string) string {
	return helpers.CacheKey("user:session", userID)
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// issueSession signs a token bound to a fresh session id and records the
// session in Redis. A new session replaces any previous one for the user.
func issueSession(ctx context.Context, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, u *entity.User) (Session, error) {
	sid := uuid.NewString()
	uid := u.ID.Hex()
	token, exp, err := jwt.Generate(uid, u.Email, sid)
	if err != nil {
		if logger != nil {
			logger.WithError(err).WithField("user_id", uid).Error("generate session token failed")
		}
		return Session{}, err
	}
	if rdb != nil {
		key := SessionKey(uid)
		pipe := rdb.TxPipeline()
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    uid,
			"email":      u.Email,
			"username":   u.Username,
			"user_type":  string(u.UserType),
			"sid":        sid,
			"created_at": nowRFC3339(),
		})
		pipe.ExpireAt(ctx, key, exp)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			if logger != nil {
				logger.WithError(rErr).WithField("key", key).Error("redis session write failed")
			}
			return Session{}, rErr
		}
	}
	return Session{Token: token, ExpiresAt: exp}, nil
}

// touchSession updates cached profile fields without changing the TTL
func touchSession(ctx context.Context, rdb *redis.Client, logger *logrus.Logger, u *entity.User) {
	if rdb == nil {
		return
	}
	key := SessionKey(u.ID.Hex())
	if n, err := rdb.Exists(ctx, key).Result(); err != nil || n == 0 {
		return
	}
	err := rdb.HSet(ctx, key, map[string]any{
		"email":      u.Email,
		"username":   u.Username,
		"user_type":  string(u.UserType),
		"updated_at": nowRFC3339(),
	}).Err()
	if err != nil && logger != nil {
		logger.WithError(err).WithField("key", key).Warn("redis session update failed")
	}
}

func deleteSession(ctx context.Context, rdb *redis.Client, userID string) error {
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, SessionKey(userID)).Err()
}
