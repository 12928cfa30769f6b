package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-rental-marketplace/internal/domain/entity"
	"github.com/oksasatya/go-rental-marketplace/pkg/helpers"
	"github.com/oksasatya/go-rental-marketplace/pkg/mailer"
	tpl "github.com/oksasatya/go-rental-marketplace/pkg/mailer/templates"
	"github.com/oksasatya/go-rental-marketplace/pkg/validation"
)

type authFixture struct {
	svc   *AuthService
	users *fakeUsers
	otps  *fakeOTPs
	audit *fakeAudit
	pub   *fakePublisher
	clock time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	_, rdb := newTestRedis(t)
	f := &authFixture{
		users: newFakeUsers(),
		otps:  &fakeOTPs{},
		audit: &fakeAudit{},
		pub:   &fakePublisher{},
		clock: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
	}
	cfg := testConfig()
	logger := helpers.NewDiscardLogger()
	f.svc = NewAuthService(f.users, f.otps, NewAuditor(f.audit, logger), helpers.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL), rdb, f.pub, cfg, logger)
	f.svc.now = func() time.Time { return f.clock }
	f.svc.genCode = func() (string, error) { return "123456", nil }
	return f
}

var meta = RequestMeta{IP: "10.0.0.1", UserAgent: "test"}

func (f *authFixture) signup(t *testing.T, username, email, password string) *entity.User {
	t.Helper()
	u, _, err := f.svc.Signup(context.Background(), SignupInput{Username: username, Email: email, Password: password}, meta)
	require.NoError(t, err)
	return u
}

func TestSignup_CreatesUserAndSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	u, sess, err := f.svc.Signup(ctx, SignupInput{Username: " Alice ", Email: "Alice@Example.com", Password: "password123"}, meta)
	require.NoError(t, err)

	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, entity.UserTypeClient, u.UserType)
	assert.False(t, u.VerificationStatus.Email)
	assert.NotEqual(t, "password123", u.Password)
	assert.True(t, helpers.CompareHashAndPassword(u.Password, "password123"))

	claims, err := f.svc.JWT.Parse(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), claims.UserID)
	assert.Equal(t, u.Email, claims.Email)

	stored, err := f.svc.Redis.HGetAll(ctx, SessionKey(u.ID.Hex())).Result()
	require.NoError(t, err)
	assert.Equal(t, claims.SessionID, stored["sid"])
	assert.Equal(t, "Client", stored["user_type"])

	assert.Equal(t, []string{entity.AuditSignup}, f.audit.all())
}

func TestSignup_Conflicts(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "alice", "alice@example.com", "password123")

	_, _, err := f.svc.Signup(context.Background(), SignupInput{Username: "other", Email: "ALICE@example.com", Password: "password123"}, meta)
	assert.ErrorIs(t, err, ErrUserExists)

	_, _, err = f.svc.Signup(context.Background(), SignupInput{Username: "Alice", Email: "new@example.com", Password: "password123"}, meta)
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestSignup_Validation(t *testing.T) {
	f := newAuthFixture(t)

	_, _, err := f.svc.Signup(context.Background(), SignupInput{Username: "al", Email: "al@example.com", Password: "password123"}, meta)
	require.Error(t, err)
	assert.True(t, validation.IsValidation(err))

	_, _, err = f.svc.Signup(context.Background(), SignupInput{Username: "alice", Email: "alice@example.com", Password: "short"}, meta)
	require.Error(t, err)
	assert.Equal(t, []string{"password"}, validation.Fields(err))

	_, _, err = f.svc.Signup(context.Background(), SignupInput{Username: "alice", Email: "alice@example.com", Password: "password123", UserType: "Admin"}, meta)
	require.Error(t, err)
	assert.Equal(t, []string{"userType"}, validation.Fields(err))
}

func TestRequestSignupOTP(t *testing.T) {
	f := newAuthFixture(t)

	exp, err := f.svc.RequestSignupOTP(context.Background(), " New@Example.com ", meta)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Add(10*time.Minute), exp)

	o, err := f.otps.Latest(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.True(t, helpers.CompareHashAndPassword(o.CodeHash, "123456"))
	assert.Equal(t, 0, o.Attempts)

	require.Len(t, f.pub.jobs, 1)
	job := f.pub.jobs[0].(mailer.EmailJob)
	assert.Equal(t, "new@example.com", job.To)
	assert.Equal(t, tpl.SignupOTP, job.Template)
	assert.Equal(t, "123456", job.Data["Code"])
	assert.Equal(t, []string{entity.AuditSignupOTPIssue}, f.audit.all())
}

func TestRequestSignupOTP_ExistingUser(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "alice", "alice@example.com", "password123")

	_, err := f.svc.RequestSignupOTP(context.Background(), "alice@example.com", meta)
	assert.ErrorIs(t, err, ErrUserExists)
	assert.Equal(t, 0, f.otps.count())
}

func TestRequestSignupOTP_MailDisabled(t *testing.T) {
	f := newAuthFixture(t)
	f.svc.Cfg.MailSendEnabled = false

	_, err := f.svc.RequestSignupOTP(context.Background(), "new@example.com", meta)
	require.NoError(t, err)
	assert.Empty(t, f.pub.jobs)
	assert.Equal(t, 1, f.otps.count())
}

func confirmInput(code string) ConfirmSignupInput {
	return ConfirmSignupInput{
		SignupInput: SignupInput{Username: "newbie", Email: "new@example.com", Password: "password123", UserType: entity.UserTypeProvider},
		OTP:         code,
	}
}

func TestConfirmSignup_Success(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.RequestSignupOTP(ctx, "new@example.com", meta)
	require.NoError(t, err)

	u, sess, err := f.svc.ConfirmSignup(ctx, confirmInput("123456"), meta)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.True(t, u.VerificationStatus.Email)
	assert.Equal(t, entity.UserTypeProvider, u.UserType)
	assert.Equal(t, 0, f.otps.count())

	require.Len(t, f.pub.jobs, 2)
	assert.Equal(t, tpl.Welcome, f.pub.jobs[1].(mailer.EmailJob).Template)
	assert.Contains(t, f.audit.all(), entity.AuditSignupOTPConfirm)
}

func TestConfirmSignup_LatestCodeOnly(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.RequestSignupOTP(ctx, "new@example.com", meta)
	require.NoError(t, err)
	f.svc.genCode = func() (string, error) { return "654321", nil }
	_, err = f.svc.RequestSignupOTP(ctx, "new@example.com", meta)
	require.NoError(t, err)

	_, _, err = f.svc.ConfirmSignup(ctx, confirmInput("123456"), meta)
	assert.ErrorIs(t, err, ErrInvalidOTP)

	_, _, err = f.svc.ConfirmSignup(ctx, confirmInput("654321"), meta)
	assert.NoError(t, err)
}

func TestConfirmSignup_Missing(t *testing.T) {
	f := newAuthFixture(t)
	_, _, err := f.svc.ConfirmSignup(context.Background(), confirmInput("123456"), meta)
	assert.ErrorIs(t, err, ErrInvalidOTP)
	assert.Equal(t, []string{entity.AuditSignupOTPFailed}, f.audit.all())
}

func TestConfirmSignup_Expired(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.RequestSignupOTP(ctx, "new@example.com", meta)
	require.NoError(t, err)

	f.clock = f.clock.Add(11 * time.Minute)
	_, _, err = f.svc.ConfirmSignup(ctx, confirmInput("123456"), meta)
	assert.ErrorIs(t, err, ErrInvalidOTP)
	assert.Equal(t, 0, f.otps.count())

	exists, _ := f.users.ExistsByEmail(ctx, "new@example.com")
	assert.False(t, exists)
}

func TestConfirmSignup_AttemptsExhausted(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.RequestSignupOTP(ctx, "new@example.com", meta)
	require.NoError(t, err)

	for i := 1; i < 5; i++ {
		_, _, err = f.svc.ConfirmSignup(ctx, confirmInput("000000"), meta)
		require.ErrorIs(t, err, ErrInvalidOTP)
		o, lErr := f.otps.Latest(ctx, "new@example.com")
		require.NoError(t, lErr)
		assert.Equal(t, i, o.Attempts)
	}
	_, _, err = f.svc.ConfirmSignup(ctx, confirmInput("000000"), meta)
	require.ErrorIs(t, err, ErrInvalidOTP)
	assert.Equal(t, 0, f.otps.count())

	// the right code no longer helps once the OTP is gone
	_, _, err = f.svc.ConfirmSignup(ctx, confirmInput("123456"), meta)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	created := f.signup(t, "alice", "alice@example.com", "password123")

	u, sess, err := f.svc.Login(ctx, "ALICE@example.com", "password123", meta)
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	claims, err := f.svc.JWT.Parse(sess.Token)
	require.NoError(t, err)
	sid, err := f.svc.Redis.HGet(ctx, SessionKey(u.ID.Hex()), "sid").Result()
	require.NoError(t, err)
	assert.Equal(t, claims.SessionID, sid)

	require.Len(t, f.pub.jobs, 1)
	assert.Equal(t, tpl.LoginNotification, f.pub.jobs[0].(mailer.EmailJob).Template)
}

func TestLogin_NewSessionReplacesOld(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "alice", "alice@example.com", "password123")

	u, first, err := f.svc.Login(ctx, "alice@example.com", "password123", meta)
	require.NoError(t, err)
	_, second, err := f.svc.Login(ctx, "alice@example.com", "password123", meta)
	require.NoError(t, err)

	c1, _ := f.svc.JWT.Parse(first.Token)
	c2, _ := f.svc.JWT.Parse(second.Token)
	sid, _ := f.svc.Redis.HGet(ctx, SessionKey(u.ID.Hex()), "sid").Result()
	assert.NotEqual(t, c1.SessionID, sid)
	assert.Equal(t, c2.SessionID, sid)
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)
	_, _, err := f.svc.Login(context.Background(), "ghost@example.com", "password123", meta)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, []string{entity.AuditLoginFailed}, f.audit.all())
}

func TestLogin_Lockout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "alice", "alice@example.com", "password123")

	for i := 0; i < 4; i++ {
		_, _, err := f.svc.Login(ctx, "alice@example.com", "wrong-password", meta)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, _, err := f.svc.Login(ctx, "alice@example.com", "wrong-password", meta)
	require.ErrorIs(t, err, ErrAccountLocked)

	_, _, err = f.svc.Login(ctx, "alice@example.com", "password123", meta)
	require.ErrorIs(t, err, ErrAccountLocked)

	f.clock = f.clock.Add(16 * time.Minute)
	u, _, err := f.svc.Login(ctx, "alice@example.com", "password123", meta)
	require.NoError(t, err)
	assert.Equal(t, 0, u.LoginAttempts)
	assert.Nil(t, u.LockUntil)

	assert.Contains(t, f.audit.all(), entity.AuditLoginLocked)
}

func TestLogin_InactiveAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := f.signup(t, "alice", "alice@example.com", "password123")

	stored, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	stored.AccountStatus = entity.AccountSuspended
	f.users.put(stored)

	_, _, err = f.svc.Login(ctx, "alice@example.com", "wrongpass1", meta)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = f.svc.Login(ctx, "alice@example.com", "password123", meta)
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestLogout_DeletesSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := f.signup(t, "alice", "alice@example.com", "password123")

	require.NoError(t, f.svc.Logout(ctx, u.ID.Hex(), u.Email, meta))
	n, err := f.svc.Redis.Exists(ctx, SessionKey(u.ID.Hex())).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, entity.AuditLogout, f.audit.all()[len(f.audit.all())-1])
}

func TestAuditor_NilRepoIsNoop(t *testing.T) {
	var a *Auditor
	a.Record(context.Background(), meta, "", "x@example.com", entity.AuditLogout, nil)
	NewAuditor(nil, nil).Record(context.Background(), meta, "", "x@example.com", entity.AuditLogout, nil)
}
