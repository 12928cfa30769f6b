package application

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-rental-marketplace/config"
	"github.com/oksasatya/go-rental-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/go-rental-marketplace/internal/domain/repository"
	"github.com/oksasatya/go-rental-marketplace/pkg/helpers"
	"github.com/oksasatya/go-rental-marketplace/pkg/mailer"
	tpl "github.com/oksasatya/go-rental-marketplace/pkg/mailer/templates"
)

// AuthService implements signup, the signup OTP flow, login and logout.
type AuthService struct {
	Users   repo.UserRepository
	OTPs    repo.OTPRepository
	Audit   *Auditor
	JWT     *helpers.JWTManager
	Redis   *redis.Client
	Pub     mailer.Publisher
	Geo     tpl.GeoResolver
	Cfg     *config.Config
	Logger  *logrus.Logger
	now     func() time.Time
	genCode func() (string, error)
}

func NewAuthService(users repo.UserRepository, otps repo.OTPRepository, audit *Auditor, jwt *helpers.JWTManager, rdb *redis.Client, pub mailer.Publisher, cfg *config.Config, logger *logrus.Logger) *AuthService {
	return &AuthService{
		Users:   users,
		OTPs:    otps,
		Audit:   audit,
		JWT:     jwt,
		Redis:   rdb,
		Pub:     pub,
		Cfg:     cfg,
		Logger:  logger,
		now:     time.Now,
		genCode: helpers.GenOTPCode,
	}
}

type SignupInput struct {
	Username string
	Email    string
	Password string
	UserType entity.UserType
}

type ConfirmSignupInput struct {
	SignupInput
	OTP string
}

// Signup creates an account with a password and opens a session.
func (s *AuthService) Signup(ctx context.Context, in SignupInput, meta RequestMeta) (*entity.User, Session, error) {
	u, err := s.createUser(ctx, in, false)
	if err != nil {
		return nil, Session{}, err
	}
	sess, err := issueSession(ctx, s.JWT, s.Redis, s.Logger, u)
	if err != nil {
		return nil, Session{}, err
	}
	s.Audit.Record(ctx, meta, u.ID.Hex(), u.Email, entity.AuditSignup, map[string]any{"user_type": u.UserType})
	return u, sess, nil
}

// RequestSignupOTP issues a fresh code for an unregistered email and queues
// it for delivery. Older codes for the email stay until they expire but only
// the latest one is ever checked.
func (s *AuthService) RequestSignupOTP(ctx context.Context, email string, meta RequestMeta) (time.Time, error) {
	email = entity.NormalizeEmail(email)
	exists, err := s.Users.ExistsByEmail(ctx, email)
	if err != nil {
		return time.Time{}, err
	}
	if exists {
		return time.Time{}, ErrUserExists
	}
	code, err := s.genCode()
	if err != nil {
		return time.Time{}, err
	}
	hash, err := helpers.HashPassword(code)
	if err != nil {
		return time.Time{}, err
	}
	now := s.now().UTC()
	o := &entity.OTP{
		Email:     email,
		CodeHash:  hash,
		Expires:   now.Add(s.Cfg.OTPTTL),
		CreatedAt: now,
	}
	if err := s.OTPs.Create(ctx, o); err != nil {
		return time.Time{}, err
	}

	if s.mailEnabled() {
		data := tpl.NewSignupOTPData(s.Cfg, email, code, o.Expires,
			tpl.WithTime(now),
			tpl.WithIP(meta.IP),
			tpl.WithUserAgent(meta.UserAgent),
			tpl.WithGeoFromIP(ctx, s.Geo, meta.IP),
		)
		s.enqueue(ctx, mailer.EmailJob{To: email, Template: tpl.SignupOTP, Data: data})
	} else if s.Logger != nil && !s.Cfg.IsProduction() {
		s.Logger.WithField("email", email).WithField("code", code).Debug("mail disabled; signup otp")
	}

	s.Audit.Record(ctx, meta, "", email, entity.AuditSignupOTPIssue, map[string]any{"expires": o.Expires})
	return o.Expires, nil
}

// ConfirmSignup checks the latest code for the email and, on a match, creates
// a verified account and opens a session.
func (s *AuthService) ConfirmSignup(ctx context.Context, in ConfirmSignupInput, meta RequestMeta) (*entity.User, Session, error) {
	email := entity.NormalizeEmail(in.Email)
	if err := s.checkOTP(ctx, email, in.OTP, meta); err != nil {
		return nil, Session{}, err
	}

	in.Email = email
	u, err := s.createUser(ctx, in.SignupInput, true)
	if err != nil {
		return nil, Session{}, err
	}
	if err := s.OTPs.DeleteByEmail(ctx, email); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("email", email).Warn("otp cleanup failed")
	}
	sess, err := issueSession(ctx, s.JWT, s.Redis, s.Logger, u)
	if err != nil {
		return nil, Session{}, err
	}

	if s.mailEnabled() {
		data := tpl.NewWelcomeData(s.Cfg, u.Username, u.Email, tpl.WithTime(s.now()))
		s.enqueue(ctx, mailer.EmailJob{To: u.Email, Template: tpl.Welcome, Data: data})
	}
	s.Audit.Record(ctx, meta, u.ID.Hex(), u.Email, entity.AuditSignupOTPConfirm, nil)
	return u, sess, nil
}

func (s *AuthService) checkOTP(ctx context.Context, email, code string, meta RequestMeta) error {
	o, err := s.OTPs.Latest(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		s.Audit.Record(ctx, meta, "", email, entity.AuditSignupOTPFailed, map[string]any{"reason": "missing"})
		return ErrInvalidOTP
	}
	if err != nil {
		return err
	}
	if o.Expired(s.now()) {
		_ = s.OTPs.Delete(ctx, o.ID)
		s.Audit.Record(ctx, meta, "", email, entity.AuditSignupOTPFailed, map[string]any{"reason": "expired"})
		return ErrInvalidOTP
	}
	if !helpers.CompareHashAndPassword(o.CodeHash, code) {
		attempts, err := s.OTPs.IncrementAttempts(ctx, o.ID)
		if err != nil {
			return err
		}
		if attempts >= s.Cfg.OTPMaxAttempts {
			_ = s.OTPs.Delete(ctx, o.ID)
		}
		s.Audit.Record(ctx, meta, "", email, entity.AuditSignupOTPFailed, map[string]any{"reason": "mismatch", "attempts": attempts})
		return ErrInvalidOTP
	}
	return nil
}

func (s *AuthService) createUser(ctx context.Context, in SignupInput, emailVerified bool) (*entity.User, error) {
	userType := in.UserType
	if userType == "" {
		userType = entity.UserTypeClient
	}
	u := entity.NewUser(in.Username, in.Email, userType, s.now())
	u.VerificationStatus.Email = emailVerified
	// validate before hashing so the plain password length is what gets checked
	u.Password = in.Password
	if err := u.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.Users.ExistsByEmail(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}
	taken, err := s.Users.ExistsByUsername(ctx, u.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u.Password = hash
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, s.duplicateCause(ctx, u.Email)
		}
		return nil, err
	}
	return u, nil
}

// duplicateCause resolves a unique index race to the field that collided
func (s *AuthService) duplicateCause(ctx context.Context, email string) error {
	if exists, err := s.Users.ExistsByEmail(ctx, email); err == nil && !exists {
		return ErrUsernameTaken
	}
	return ErrUserExists
}

// Login verifies credentials, applying the failed-attempt lockout.
func (s *AuthService) Login(ctx context.Context, email, password string, meta RequestMeta) (*entity.User, Session, error) {
	email = entity.NormalizeEmail(email)
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		s.Audit.Record(ctx, meta, "", email, entity.AuditLoginFailed, map[string]any{"reason": "unknown_email"})
		return nil, Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return nil, Session{}, err
	}

	now := s.now()
	if u.IsLocked(now) {
		s.Audit.Record(ctx, meta, u.ID.Hex(), email, entity.AuditLoginLocked, nil)
		return nil, Session{}, ErrAccountLocked
	}
	if u.Password == "" || !helpers.CompareHashAndPassword(u.Password, password) {
		updated, err := s.Users.RecordLoginFailure(ctx, u.ID, s.Cfg.LoginMaxAttempts, now.Add(s.Cfg.LoginLockDuration))
		if err != nil {
			return nil, Session{}, err
		}
		if updated != nil && updated.IsLocked(now) {
			s.Audit.Record(ctx, meta, u.ID.Hex(), email, entity.AuditLoginLocked, map[string]any{"until": updated.LockUntil})
			return nil, Session{}, ErrAccountLocked
		}
		s.Audit.Record(ctx, meta, u.ID.Hex(), email, entity.AuditLoginFailed, map[string]any{"reason": "password"})
		return nil, Session{}, ErrInvalidCredentials
	}
	// status is only disclosed to callers holding the password
	if !u.CanSignIn() {
		s.Audit.Record(ctx, meta, u.ID.Hex(), email, entity.AuditLoginFailed, map[string]any{"reason": "inactive"})
		return nil, Session{}, ErrAccountInactive
	}

	if err := s.Users.RecordLoginSuccess(ctx, u.ID, now); err != nil {
		return nil, Session{}, err
	}
	u.LoginAttempts = 0
	u.LockUntil = nil
	u.LastActive = now
	sess, err := issueSession(ctx, s.JWT, s.Redis, s.Logger, u)
	if err != nil {
		return nil, Session{}, err
	}

	if s.mailEnabled() && u.Notifications.Email {
		data := tpl.NewLoginNotificationData(s.Cfg, u.Username, u.Email,
			tpl.WithTime(now),
			tpl.WithIP(meta.IP),
			tpl.WithUserAgent(meta.UserAgent),
			tpl.WithGeoFromIP(ctx, s.Geo, meta.IP),
		)
		s.enqueue(ctx, mailer.EmailJob{To: u.Email, Template: tpl.LoginNotification, Data: data})
	}
	s.Audit.Record(ctx, meta, u.ID.Hex(), email, entity.AuditLoginSuccess, nil)
	return u, sess, nil
}

// Logout drops the Redis session so outstanding tokens stop working.
func (s *AuthService) Logout(ctx context.Context, userID, email string, meta RequestMeta) error {
	if err := deleteSession(ctx, s.Redis, userID); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Error("redis session delete failed")
		}
		return err
	}
	s.Audit.Record(ctx, meta, userID, email, entity.AuditLogout, nil)
	return nil
}

func (s *AuthService) mailEnabled() bool {
	return s.Pub != nil && s.Cfg != nil && s.Cfg.MailSendEnabled
}

func (s *AuthService) enqueue(ctx context.Context, job mailer.EmailJob) {
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("template", job.Template).Warn("failed to publish email job")
	}
}
