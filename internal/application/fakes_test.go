package application

import (
	"context"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/go-rental-marketplace/config"
	"github.com/oksasatya/go-rental-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/go-rental-marketplace/internal/domain/repository"
)

type fakeUsers struct {
	mu         sync.Mutex
	items      map[primitive.ObjectID]*entity.User
	lastNearby repo.NearbyQuery
	// beforeProfileWrite runs between the service's read and its write
	beforeProfileWrite func()
	addServiceErr      error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{items: map[primitive.ObjectID]*entity.User{}}
}

func clone(u *entity.User) *entity.User {
	c := *u
	c.Services = append([]primitive.ObjectID{}, u.Services...)
	return &c
}

func (f *fakeUsers) Create(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.items {
		if x.Email == u.Email || x.Username == u.Username {
			return repo.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	f.items[u.ID] = clone(u)
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return clone(u), nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.items {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeUsers) ExistsByUsername(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.items {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// put stores u as-is, for arranging test state
func (f *fakeUsers) put(u *entity.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[u.ID] = clone(u)
}

func (f *fakeUsers) UpdateProfile(_ context.Context, u *entity.User) error {
	if f.beforeProfileWrite != nil {
		f.beforeProfileWrite()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.items[u.ID]
	if !ok {
		return repo.ErrNotFound
	}
	cur.Name, cur.PhoneNumber, cur.Bio, cur.Gender = u.Name, u.PhoneNumber, u.Bio, u.Gender
	cur.DOB, cur.Location, cur.Geo = u.DOB, u.Location, u.Geo
	cur.Preferences, cur.SocialMedia, cur.Notifications = u.Preferences, u.SocialMedia, u.Notifications
	cur.Language, cur.Timezone, cur.AvailabilityHours = u.Language, u.Timezone, u.AvailabilityHours
	cur.UpdatedAt = u.UpdatedAt
	return nil
}

func (f *fakeUsers) SetPicture(_ context.Context, id primitive.ObjectID, field, url string) error {
	if f.beforeProfileWrite != nil {
		f.beforeProfileWrite()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.items[id]
	if !ok {
		return repo.ErrNotFound
	}
	if field == repo.FieldCoverPicture {
		cur.CoverPicture = url
	} else {
		cur.ProfilePicture = url
	}
	return nil
}

func (f *fakeUsers) RecordLoginFailure(_ context.Context, id primitive.ObjectID, maxAttempts int, lockUntil time.Time) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	u.LoginAttempts++
	if u.LoginAttempts >= maxAttempts {
		lu := lockUntil
		u.LockUntil = &lu
		u.LoginAttempts = 0
	}
	return clone(u), nil
}

func (f *fakeUsers) RecordLoginSuccess(_ context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.items[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.LoginAttempts = 0
	u.LockUntil = nil
	u.LastActive = at
	return nil
}

func (f *fakeUsers) AddService(_ context.Context, userID, serviceID primitive.ObjectID) error {
	if f.addServiceErr != nil {
		return f.addServiceErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.items[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.AddService(serviceID)
	return nil
}

func (f *fakeUsers) Nearby(_ context.Context, q repo.NearbyQuery) ([]*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastNearby = q
	var out []*entity.User
	for _, u := range f.items {
		if u.UserType == q.UserType && u.Geo != nil {
			out = append(out, clone(u))
		}
	}
	return out, nil
}

type fakeOTPs struct {
	mu    sync.Mutex
	items []*entity.OTP
}

func (f *fakeOTPs) Create(_ context.Context, o *entity.OTP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.ID = primitive.NewObjectID()
	c := *o
	f.items = append(f.items, &c)
	return nil
}

func (f *fakeOTPs) Latest(_ context.Context, email string) (*entity.OTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.items[i].Email == email {
			c := *f.items[i]
			return &c, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeOTPs) IncrementAttempts(_ context.Context, id primitive.ObjectID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.items {
		if o.ID == id {
			o.Attempts++
			return o.Attempts, nil
		}
	}
	return 0, repo.ErrNotFound
}

func (f *fakeOTPs) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, o := range f.items {
		if o.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeOTPs) DeleteByEmail(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.items[:0]
	for _, o := range f.items {
		if o.Email != email {
			kept = append(kept, o)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeOTPs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

type fakeServices struct {
	mu         sync.Mutex
	items      map[primitive.ObjectID]*entity.Service
	gets       int
	lastFilter repo.ServiceFilter
}

func newFakeServices() *fakeServices {
	return &fakeServices{items: map[primitive.ObjectID]*entity.Service{}}
}

func (f *fakeServices) Create(_ context.Context, s *entity.Service) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = primitive.NewObjectID()
	c := *s
	f.items[s.ID] = &c
	return nil
}

func (f *fakeServices) GetByID(_ context.Context, id primitive.ObjectID) (*entity.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	s, ok := f.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (f *fakeServices) Update(_ context.Context, s *entity.Service) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[s.ID]; !ok {
		return repo.ErrNotFound
	}
	c := *s
	f.items[s.ID] = &c
	return nil
}

func (f *fakeServices) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeServices) List(_ context.Context, flt repo.ServiceFilter) ([]*entity.Service, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = flt
	var out []*entity.Service
	for _, s := range f.items {
		if flt.Active != nil && s.IsActive != *flt.Active {
			continue
		}
		if flt.ProviderID != nil && s.ProviderID != *flt.ProviderID {
			continue
		}
		c := *s
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

type fakeAudit struct {
	mu      sync.Mutex
	actions []string
	logs    []entity.AuditLog
}

func (f *fakeAudit) Insert(_ context.Context, a *entity.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, a.Action)
	a.ID = int64(len(f.logs) + 1)
	f.logs = append(f.logs, *a)
	return nil
}

func (f *fakeAudit) ListByUser(_ context.Context, userID string, limit int) ([]entity.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.AuditLog
	for i := len(f.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if f.logs[i].UserID == userID {
			out = append(out, f.logs[i])
		}
	}
	return out, nil
}

func (f *fakeAudit) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.actions...)
}

type fakePublisher struct {
	mu   sync.Mutex
	jobs []any
}

func (f *fakePublisher) PublishJSON(_ context.Context, body any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, body)
	return nil
}

type fakeUploader struct {
	path        string
	contentType string
	body        []byte
}

func (f *fakeUploader) Upload(_ context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.path, f.contentType, f.body = objectPath, contentType, b
	return "https://storage.googleapis.com/bucket/" + objectPath, nil
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func testConfig() *config.Config {
	return &config.Config{
		AppName:           "rental-marketplace",
		Env:               "test",
		JWTSecret:         "test-secret",
		JWTTTL:            480 * time.Hour,
		OTPTTL:            10 * time.Minute,
		OTPMaxAttempts:    5,
		LoginMaxAttempts:  5,
		LoginLockDuration: 15 * time.Minute,
		MailSendEnabled:   true,
	}
}
