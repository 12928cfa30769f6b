package handlers

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/go-rental-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/go-rental-marketplace/internal/domain/repository"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]entity.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[primitive.ObjectID]entity.User{}} }

func (m *memUsers) find(pred func(entity.User) bool) (*entity.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if pred(u) {
			c := u
			return &c, true
		}
	}
	return nil, false
}

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = primitive.NewObjectID()
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id primitive.ObjectID) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	if u, ok := m.find(func(u entity.User) bool { return u.Email == email }); ok {
		return u, nil
	}
	return nil, repo.ErrNotFound
}

func (m *memUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := m.find(func(u entity.User) bool { return u.Email == email })
	return ok, nil
}

func (m *memUsers) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := m.find(func(u entity.User) bool { return u.Username == username })
	return ok, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[u.ID]
	if !ok {
		return repo.ErrNotFound
	}
	cur.Name, cur.PhoneNumber, cur.Bio, cur.Gender = u.Name, u.PhoneNumber, u.Bio, u.Gender
	cur.DOB, cur.Location, cur.Geo = u.DOB, u.Location, u.Geo
	cur.Preferences, cur.SocialMedia, cur.Notifications = u.Preferences, u.SocialMedia, u.Notifications
	cur.Language, cur.Timezone, cur.AvailabilityHours = u.Language, u.Timezone, u.AvailabilityHours
	cur.UpdatedAt = u.UpdatedAt
	m.byID[u.ID] = cur
	return nil
}

func (m *memUsers) SetPicture(_ context.Context, id primitive.ObjectID, field, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	if field == repo.FieldCoverPicture {
		cur.CoverPicture = url
	} else {
		cur.ProfilePicture = url
	}
	m.byID[id] = cur
	return nil
}

// put stores u as-is, for arranging test state
func (m *memUsers) put(u *entity.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[u.ID] = *u
}

func (m *memUsers) RecordLoginFailure(_ context.Context, id primitive.ObjectID, maxAttempts int, lockUntil time.Time) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.byID[id]
	u.LoginAttempts++
	if u.LoginAttempts >= maxAttempts {
		u.LockUntil, u.LoginAttempts = &lockUntil, 0
	}
	m.byID[id] = u
	return &u, nil
}

func (m *memUsers) RecordLoginSuccess(_ context.Context, id primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.byID[id]
	u.LoginAttempts, u.LockUntil, u.LastActive = 0, nil, at
	m.byID[id] = u
	return nil
}

func (m *memUsers) AddService(_ context.Context, userID, serviceID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.byID[userID]
	u.AddService(serviceID)
	m.byID[userID] = u
	return nil
}

func (m *memUsers) Nearby(context.Context, repo.NearbyQuery) ([]*entity.User, error) {
	return nil, nil
}

type memOTPs struct {
	mu    sync.Mutex
	items []entity.OTP
}

func (m *memOTPs) Create(_ context.Context, o *entity.OTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = primitive.NewObjectID()
	m.items = append(m.items, *o)
	return nil
}

func (m *memOTPs) Latest(_ context.Context, email string) (*entity.OTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].Email == email {
			o := m.items[i]
			return &o, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memOTPs) IncrementAttempts(_ context.Context, id primitive.ObjectID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Attempts++
			return m.items[i].Attempts, nil
		}
	}
	return 0, repo.ErrNotFound
}

func (m *memOTPs) Delete(_ context.Context, id primitive.ObjectID) error {
	return m.remove(func(o entity.OTP) bool { return o.ID == id })
}

func (m *memOTPs) DeleteByEmail(_ context.Context, email string) error {
	return m.remove(func(o entity.OTP) bool { return o.Email == email })
}

func (m *memOTPs) remove(pred func(entity.OTP) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	for _, o := range m.items {
		if !pred(o) {
			kept = append(kept, o)
		}
	}
	m.items = kept
	return nil
}

type memServices struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]entity.Service
}

func newMemServices() *memServices {
	return &memServices{items: map[primitive.ObjectID]entity.Service{}}
}

func (m *memServices) Create(_ context.Context, s *entity.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = primitive.NewObjectID()
	m.items[s.ID] = *s
	return nil
}

func (m *memServices) GetByID(_ context.Context, id primitive.ObjectID) (*entity.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &s, nil
}

func (m *memServices) Update(_ context.Context, s *entity.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.ID] = *s
	return nil
}

func (m *memServices) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *memServices) List(_ context.Context, f repo.ServiceFilter) ([]*entity.Service, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Service
	for _, s := range m.items {
		if f.Active != nil && s.IsActive != *f.Active {
			continue
		}
		c := s
		out = append(out, &c)
	}
	return out, int64(len(out)), nil
}
