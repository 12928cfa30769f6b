package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/go-rental-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/go-rental-marketplace/internal/domain/repository"
	"github.com/oksasatya/go-rental-marketplace/pkg/helpers"
	"github.com/oksasatya/go-rental-marketplace/pkg/validation"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 50
	serviceCacheTTL  = 10 * time.Minute
)

// ServicesIndexMapping is the Elasticsearch mapping for listing documents
const ServicesIndexMapping = `{
  "mappings": {
    "properties": {
      "id":               {"type": "keyword"},
      "providerId":       {"type": "keyword"},
      "serviceName":      {"type": "text"},
      "description":      {"type": "text"},
      "category":         {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "location":         {"type": "text"},
      "price":            {"type": "double"},
      "genderPreference": {"type": "keyword"},
      "isActive":         {"type": "boolean"},
      "createdAt":        {"type": "date"},
      "updatedAt":        {"type": "date"}
    }
  }
}`

func serviceCacheKey(id string) string {
	return helpers.CacheKey("service", id)
}

// ListingService manages provider listings.
type ListingService struct {
	Services repo.ServiceRepository
	Users    repo.UserRepository
	Redis    *redis.Client
	ES       *elasticsearch.Client
	ESIndex  string
	Logger   *logrus.Logger
	now      func() time.Time
}

func NewListingService(services repo.ServiceRepository, users repo.UserRepository, rdb *redis.Client, es *elasticsearch.Client, esIndex string, logger *logrus.Logger) *ListingService {
	return &ListingService{Services: services, Users: users, Redis: rdb, ES: es, ESIndex: esIndex, Logger: logger, now: time.Now}
}

// ServiceInput holds listing fields; on update nil fields are left alone.
type ServiceInput struct {
	ServiceName      *string
	Description      *string
	Category         *string
	Location         *string
	Price            *float64
	StartDuration    *time.Time
	EndDuration      *time.Time
	MinimumAge       *int
	MaximumAge       *int
	GenderPreference *string
	IsActive         *bool
}

// createFields are the fields a new listing must state explicitly; zero is a
// valid price or age, so presence is checked on the pointers.
type createFields struct {
	Price            *float64 `bson:"price" validate:"required"`
	MinimumAge       *int     `bson:"agePreference.minimumAge" validate:"required"`
	MaximumAge       *int     `bson:"agePreference.maximumAge" validate:"required"`
	GenderPreference *string  `bson:"genderPreference" validate:"required"`
}

func (in ServiceInput) checkCreate() error {
	return validation.Struct(createFields{
		Price:            in.Price,
		MinimumAge:       in.MinimumAge,
		MaximumAge:       in.MaximumAge,
		GenderPreference: in.GenderPreference,
	})
}

func (in ServiceInput) apply(s *entity.Service) {
	if in.ServiceName != nil {
		s.ServiceName = *in.ServiceName
	}
	if in.Description != nil {
		s.Description = *in.Description
	}
	if in.Category != nil {
		s.Category = *in.Category
	}
	if in.Location != nil {
		s.Location = *in.Location
	}
	if in.Price != nil {
		s.Price = *in.Price
	}
	if in.StartDuration != nil {
		s.Duration.StartDuration = in.StartDuration.UTC()
	}
	if in.EndDuration != nil {
		s.Duration.EndDuration = in.EndDuration.UTC()
	}
	if in.MinimumAge != nil {
		s.AgePreference.MinimumAge = *in.MinimumAge
	}
	if in.MaximumAge != nil {
		s.AgePreference.MaximumAge = *in.MaximumAge
	}
	if in.GenderPreference != nil {
		s.GenderPreference = *in.GenderPreference
	}
	if in.IsActive != nil {
		s.IsActive = *in.IsActive
	}
}

// Create adds a listing for a provider and links it from the provider's document.
func (s *ListingService) Create(ctx context.Context, providerID string, in ServiceInput) (*entity.Service, error) {
	pid, err := primitive.ObjectIDFromHex(providerID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	u, err := s.Users.GetByID(ctx, pid)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if u.UserType != entity.UserTypeProvider {
		return nil, ErrNotProvider
	}

	if err := in.checkCreate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	svc := &entity.Service{
		ProviderID: pid,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	in.apply(svc)
	if err := svc.Validate(); err != nil {
		return nil, err
	}
	if err := s.Services.Create(ctx, svc); err != nil {
		return nil, err
	}
	if err := s.Users.AddService(ctx, pid, svc.ID); err != nil {
		// a listing must not outlive a failed link to its provider
		if dErr := s.Services.Delete(ctx, svc.ID); dErr != nil && s.Logger != nil {
			s.Logger.WithError(dErr).WithField("service_id", svc.ID.Hex()).Error("rollback of unlinked service failed")
		}
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("service_id", svc.ID.Hex()).Error("link service to provider failed")
		}
		return nil, err
	}
	_ = s.indexService(ctx, svc)
	return svc, nil
}

// Get returns a listing, served from the Redis cache when present.
func (s *ListingService) Get(ctx context.Context, id string) (*entity.Service, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrServiceNotFound
	}
	if s.Redis != nil {
		var cached entity.Service
		if ok, cErr := helpers.RedisGetJSON(ctx, s.Redis, serviceCacheKey(id), &cached); cErr == nil && ok {
			return &cached, nil
		}
	}
	svc, err := s.Services.GetByID(ctx, oid)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, err
	}
	if s.Redis != nil {
		if cErr := helpers.RedisSetJSON(ctx, s.Redis, serviceCacheKey(id), svc, serviceCacheTTL); cErr != nil && s.Logger != nil {
			s.Logger.WithError(cErr).WithField("service_id", id).Warn("service cache write failed")
		}
	}
	return svc, nil
}

// Update changes a listing owned by userID.
func (s *ListingService) Update(ctx context.Context, userID, id string, in ServiceInput) (*entity.Service, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrServiceNotFound
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrForbidden
	}
	svc, err := s.Services.GetByID(ctx, oid)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, err
	}
	if !svc.OwnedBy(uid) {
		return nil, ErrForbidden
	}
	in.apply(svc)
	if err := svc.Validate(); err != nil {
		return nil, err
	}
	svc.UpdatedAt = s.now().UTC()
	if err := s.Services.Update(ctx, svc); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	if s.Redis != nil {
		_ = helpers.RedisDel(ctx, s.Redis, serviceCacheKey(id))
	}
	_ = s.indexService(ctx, svc)
	return svc, nil
}

// ServicePage is one page of a listing query
type ServicePage struct {
	Items []*entity.Service
	Total int64
	Page  int64
	Limit int64
}

// List normalizes paging and applies the filter. Only active listings are
// returned unless the filter says otherwise.
func (s *ListingService) List(ctx context.Context, f repo.ServiceFilter) (ServicePage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if f.Active == nil {
		active := true
		f.Active = &active
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return ServicePage{}, ErrInvalidQuery
	}
	items, total, err := s.Services.List(ctx, f)
	if err != nil {
		return ServicePage{}, err
	}
	if items == nil {
		items = []*entity.Service{}
	}
	return ServicePage{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func serviceDocument(svc *entity.Service) map[string]any {
	return map[string]any{
		"id":               svc.ID.Hex(),
		"providerId":       svc.ProviderID.Hex(),
		"serviceName":      svc.ServiceName,
		"description":      svc.Description,
		"category":         svc.Category,
		"location":         svc.Location,
		"price":            svc.Price,
		"genderPreference": svc.GenderPreference,
		"isActive":         svc.IsActive,
		"createdAt":        svc.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt":        svc.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func (s *ListingService) indexService(ctx context.Context, svc *entity.Service) error {
	if s.ES == nil || s.ESIndex == "" {
		return nil
	}
	b, _ := json.Marshal(serviceDocument(svc))
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: svc.ID.Hex(), Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("service_id", svc.ID.Hex()).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("service_id", svc.ID.Hex()).Warn("es index response error")
	}
	return nil
}

// searchQuery matches listing text; deactivated listings never match
func searchQuery(q string, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  q,
						"fields": []string{"serviceName^2", "description", "category", "location"},
					},
				},
				"filter": []any{
					map[string]any{"term": map[string]any{"isActive": true}},
				},
			},
		},
		"size": size,
	}
}

// Search runs a multi_match over the indexed text of active listings.
func (s *ListingService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	q = strings.TrimSpace(q)
	if s.ES == nil || s.ESIndex == "" || q == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > MaxPageLimit {
		size = 10
	}
	b, _ := json.Marshal(searchQuery(q, size))

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.IsError() {
		if s.Logger != nil {
			s.Logger.WithField("status", res.Status()).Warn("es search response error")
		}
		return []map[string]any{}, nil
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
