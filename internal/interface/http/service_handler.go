package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/go-rental-marketplace/internal/application"
	repo "github.com/oksasatya/go-rental-marketplace/internal/domain/repository"
	"github.com/oksasatya/go-rental-marketplace/internal/interface/middleware"
	"github.com/oksasatya/go-rental-marketplace/pkg/response"
)

type ServiceHandler struct {
	Svc    *application.ListingService
	Logger *logrus.Logger
}

func NewServiceHandler(svc *application.ListingService, logger *logrus.Logger) *ServiceHandler {
	return &ServiceHandler{Svc: svc, Logger: logger}
}

type durationRequest struct {
	StartDuration *time.Time `json:"startDuration"`
	EndDuration   *time.Time `json:"endDuration"`
}

type ageRequest struct {
	MinimumAge *int `json:"minimumAge"`
	MaximumAge *int `json:"maximumAge"`
}

type serviceRequest struct {
	ServiceName      *string          `json:"serviceName"`
	Description      *string          `json:"description"`
	Category         *string          `json:"category"`
	Location         *string          `json:"location"`
	Price            *float64         `json:"price"`
	Duration         *durationRequest `json:"duration"`
	AgePreference    *ageRequest      `json:"agePreference"`
	GenderPreference *string          `json:"genderPreference"`
	IsActive         *bool            `json:"isActive"`
}

func (r serviceRequest) input() application.ServiceInput {
	in := application.ServiceInput{
		ServiceName:      r.ServiceName,
		Description:      r.Description,
		Category:         r.Category,
		Location:         r.Location,
		Price:            r.Price,
		GenderPreference: r.GenderPreference,
		IsActive:         r.IsActive,
	}
	if r.Duration != nil {
		in.StartDuration = r.Duration.StartDuration
		in.EndDuration = r.Duration.EndDuration
	}
	if r.AgePreference != nil {
		in.MinimumAge = r.AgePreference.MinimumAge
		in.MaximumAge = r.AgePreference.MaximumAge
	}
	return in
}

type listQuery struct {
	Category   string   `form:"category" binding:"omitempty,max=60"`
	Gender     string   `form:"gender" binding:"omitempty,oneof=Male Female Both Others 'Not Specified'"`
	Age        *int     `form:"age" binding:"omitempty,gte=0,lte=120"`
	MinPrice   *float64 `form:"min_price" binding:"omitempty,gte=0"`
	MaxPrice   *float64 `form:"max_price" binding:"omitempty,gte=0"`
	ProviderID string   `form:"provider_id" binding:"omitempty,mongodb"`
	Active     *bool    `form:"active"`
	Page       int64    `form:"page" binding:"omitempty,gte=1"`
	Limit      int64    `form:"limit" binding:"omitempty,gte=1,lte=50"`
}

func (q listQuery) filter() repo.ServiceFilter {
	f := repo.ServiceFilter{
		Category: q.Category,
		Gender:   q.Gender,
		Age:      q.Age,
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		Active:   q.Active,
		Page:     q.Page,
		Limit:    q.Limit,
	}
	if q.ProviderID != "" {
		if id, err := primitive.ObjectIDFromHex(q.ProviderID); err == nil {
			f.ProviderID = &id
		}
	}
	return f
}

// Create POST /api/services (providers only)
func (h *ServiceHandler) Create(c *gin.Context) {
	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	svc, err := h.Svc.Create(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), req.input())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, svc, "service created", nil)
}

// List GET /api/services
func (h *ServiceHandler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	page, err := h.Svc.List(c.Request.Context(), q.filter())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, page.Items, "services", map[string]any{
		"page":  page.Page,
		"limit": page.Limit,
		"total": page.Total,
	})
}

// Get GET /api/services/:id
func (h *ServiceHandler) Get(c *gin.Context) {
	svc, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, svc, "service", nil)
}

// Update PUT /api/services/:id (owner only)
func (h *ServiceHandler) Update(c *gin.Context) {
	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	svc, err := h.Svc.Update(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), c.Param("id"), req.input())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, svc, "service updated", nil)
}

// Search GET /api/services/search?q=&size=
func (h *ServiceHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.Search(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
}
