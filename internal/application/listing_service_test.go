package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-rental-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/go-rental-marketplace/internal/domain/repository"
	"github.com/oksasatya/go-rental-marketplace/pkg/helpers"
	"github.com/oksasatya/go-rental-marketplace/pkg/validation"
)

func validServiceInput() ServiceInput {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return ServiceInput{
		ServiceName:      ptr("City walking tour"),
		Description:      ptr("Two hours around the old town"),
		Category:         ptr("Tours"),
		Location:         ptr("Bengaluru"),
		Price:            ptr(25.0),
		StartDuration:    &start,
		EndDuration:      ptr(start.Add(2 * time.Hour)),
		MinimumAge:       ptr(18),
		MaximumAge:       ptr(60),
		GenderPreference: ptr(entity.GenderBoth),
	}
}

type listingFixture struct {
	svc      *ListingService
	services *fakeServices
	users    *fakeUsers
	provider *entity.User
	client   *entity.User
}

func newListingFixture(t *testing.T) *listingFixture {
	t.Helper()
	_, rdb := newTestRedis(t)
	f := &listingFixture{services: newFakeServices(), users: newFakeUsers()}
	f.provider = seedUser(t, f.users, "provider", entity.UserTypeProvider)
	f.client = seedUser(t, f.users, "client", entity.UserTypeClient)
	f.svc = NewListingService(f.services, f.users, rdb, nil, "", helpers.NewDiscardLogger())
	return f
}

func TestListingService_Create(t *testing.T) {
	f := newListingFixture(t)
	ctx := context.Background()

	svc, err := f.svc.Create(ctx, f.provider.ID.Hex(), validServiceInput())
	require.NoError(t, err)
	assert.False(t, svc.ID.IsZero())
	assert.True(t, svc.IsActive)
	assert.Equal(t, f.provider.ID, svc.ProviderID)

	p, err := f.users.GetByID(ctx, f.provider.ID)
	require.NoError(t, err)
	assert.Contains(t, p.Services, svc.ID)
}

func TestListingService_Create_Rejects(t *testing.T) {
	f := newListingFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.client.ID.Hex(), validServiceInput())
	assert.ErrorIs(t, err, ErrNotProvider)

	in := validServiceInput()
	in.EndDuration = ptr(in.StartDuration.Add(-time.Hour))
	_, err = f.svc.Create(ctx, f.provider.ID.Hex(), in)
	require.Error(t, err)
	assert.Equal(t, "duration.endDuration must be after startDuration", validation.FirstMessage(err))

	in = validServiceInput()
	in.MaximumAge = ptr(10)
	_, err = f.svc.Create(ctx, f.provider.ID.Hex(), in)
	require.Error(t, err)
	assert.Equal(t, []string{"agePreference.maximumAge"}, validation.Fields(err))

	in = validServiceInput()
	in.ServiceName = nil
	_, err = f.svc.Create(ctx, f.provider.ID.Hex(), in)
	require.Error(t, err)
	assert.Equal(t, []string{"serviceName"}, validation.Fields(err))
	assert.Empty(t, f.services.items)
}

func TestListingService_Create_RequiresPriceAgeAndGender(t *testing.T) {
	f := newListingFixture(t)
	ctx := context.Background()

	in := validServiceInput()
	in.Price, in.MinimumAge, in.MaximumAge, in.GenderPreference = nil, nil, nil, nil
	_, err := f.svc.Create(ctx, f.provider.ID.Hex(), in)
	require.Error(t, err)
	assert.True(t, validation.IsValidation(err))
	assert.Equal(t, []string{
		"agePreference.maximumAge", "agePreference.minimumAge", "genderPreference", "price",
	}, validation.Fields(err))
	assert.Equal(t, "price is required", validation.ToDetails(err)["price"])
	assert.Empty(t, f.services.items)

	// zero is a stated value, not a missing one
	in = validServiceInput()
	in.Price, in.MinimumAge = ptr(0.0), ptr(0)
	svc, err := f.svc.Create(ctx, f.provider.ID.Hex(), in)
	require.NoError(t, err)
	assert.Equal(t, 0.0, svc.Price)
	assert.Equal(t, 0, svc.AgePreference.MinimumAge)
}

func TestListingService_Create_RollsBackWhenLinkFails(t *testing.T) {
	f := newListingFixture(t)
	f.users.addServiceErr = errors.New("mongo down")

	_, err := f.svc.Create(context.Background(), f.provider.ID.Hex(), validServiceInput())
	require.Error(t, err)
	assert.Empty(t, f.services.items)
}

func TestListingService_GetCaches(t *testing.T) {
	f := newListingFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, f.provider.ID.Hex(), validServiceInput())
	require.NoError(t, err)

	first, err := f.svc.Get(ctx, created.ID.Hex())
	require.NoError(t, err)
	second, err := f.svc.Get(ctx, created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, f.services.gets)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ServiceName, second.ServiceName)

	_, err = f.svc.Get(ctx, "64b7f0f0f0f0f0f0f0f0f0f0")
	assert.ErrorIs(t, err, ErrServiceNotFound)
	_, err = f.svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestListingService_Update(t *testing.T) {
	f := newListingFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, f.provider.ID.Hex(), validServiceInput())
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, created.ID.Hex())
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.client.ID.Hex(), created.ID.Hex(), ServiceInput{Price: ptr(1.0)})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := f.svc.Update(ctx, f.provider.ID.Hex(), created.ID.Hex(), ServiceInput{Price: ptr(30.0), IsActive: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, 30.0, updated.Price)
	assert.False(t, updated.IsActive)

	// cache was invalidated so the next read sees the change
	got, err := f.svc.Get(ctx, created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 30.0, got.Price)

	_, err = f.svc.Update(ctx, f.provider.ID.Hex(), created.ID.Hex(), ServiceInput{Price: ptr(-1.0)})
	require.Error(t, err)
	assert.True(t, validation.IsValidation(err))
}

func TestListingService_List(t *testing.T) {
	f := newListingFixture(t)
	ctx := context.Background()
	a, err := f.svc.Create(ctx, f.provider.ID.Hex(), validServiceInput())
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, f.provider.ID.Hex(), a.ID.Hex(), ServiceInput{IsActive: ptr(false)})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.provider.ID.Hex(), validServiceInput())
	require.NoError(t, err)

	page, err := f.svc.List(ctx, repo.ServiceFilter{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Page)
	assert.Equal(t, int64(MaxPageLimit), page.Limit)
	assert.Equal(t, int64(1), page.Total)
	require.NotNil(t, f.services.lastFilter.Active)
	assert.True(t, *f.services.lastFilter.Active)

	page, err = f.svc.List(ctx, repo.ServiceFilter{Active: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultPageLimit), page.Limit)
	require.Len(t, page.Items, 1)
	assert.Equal(t, a.ID, page.Items[0].ID)

	_, err = f.svc.List(ctx, repo.ServiceFilter{MinPrice: ptr(10.0), MaxPrice: ptr(5.0)})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestListingService_SearchUnconfigured(t *testing.T) {
	f := newListingFixture(t)
	got, err := f.svc.Search(context.Background(), "tour", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListingService_Search(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		assert.Equal(t, "/services/_search", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		_, _ = w.Write([]byte(`{"hits":{"hits":[{"_id":"1","_source":{"id":"1","serviceName":"City walking tour"}}]}}`))
	}))
	defer srv.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	f := newListingFixture(t)
	f.svc.ES = es
	f.svc.ESIndex = "services"

	got, err := f.svc.Search(context.Background(), "  tour ", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "City walking tour", got[0]["serviceName"])
	assert.Equal(t, float64(10), body["size"])
	boolQ := body["query"].(map[string]any)["bool"].(map[string]any)
	mm := boolQ["must"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "tour", mm["query"])
	assert.Equal(t, []any{map[string]any{"term": map[string]any{"isActive": true}}}, boolQ["filter"])
}

func TestServiceDocument(t *testing.T) {
	f := newListingFixture(t)
	svc, err := f.svc.Create(context.Background(), f.provider.ID.Hex(), validServiceInput())
	require.NoError(t, err)

	doc := serviceDocument(svc)
	assert.Equal(t, svc.ID.Hex(), doc["id"])
	assert.Equal(t, f.provider.ID.Hex(), doc["providerId"])
	assert.Equal(t, entity.GenderBoth, doc["genderPreference"])
	assert.Equal(t, true, doc["isActive"])
}
