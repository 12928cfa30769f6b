package handlers

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-rental-marketplace/internal/application"
	"github.com/oksasatya/go-rental-marketplace/internal/domain/entity"
	"github.com/oksasatya/go-rental-marketplace/internal/interface/middleware"
	"github.com/oksasatya/go-rental-marketplace/pkg/response"
)

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type updateProfileRequest struct {
	Name              *string               `json:"name"`
	PhoneNumber       *string               `json:"phoneNumber"`
	Bio               *string               `json:"bio"`
	Gender            *string               `json:"gender"`
	DOB               *time.Time            `json:"dob"`
	Location          *entity.Location      `json:"location"`
	Preferences       *entity.Preferences   `json:"preferences"`
	SocialMedia       *entity.SocialMedia   `json:"socialMedia"`
	Notifications     *entity.Notifications `json:"notifications"`
	Language          *string               `json:"language"`
	Timezone          *string               `json:"timezone"`
	AvailabilityHours []entity.Availability `json:"availabilityHours"`
}

func (r updateProfileRequest) input() application.UpdateProfileInput {
	return application.UpdateProfileInput{
		Name:              r.Name,
		PhoneNumber:       r.PhoneNumber,
		Bio:               r.Bio,
		Gender:            r.Gender,
		DOB:               r.DOB,
		Location:          r.Location,
		Preferences:       r.Preferences,
		SocialMedia:       r.SocialMedia,
		Notifications:     r.Notifications,
		Language:          r.Language,
		Timezone:          r.Timezone,
		AvailabilityHours: r.AvailabilityHours,
	}
}

// GetProfile GET /api/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "profile", nil)
}

// UpdateProfile PUT /api/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), req.input())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "profile updated", nil)
}

// UploadPicture POST /api/profile/picture?kind=profile|cover (multipart "file")
func (h *UserHandler) UploadPicture(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "file is required", nil)
		return
	}
	if fh.Size > application.MaxPictureBytes {
		response.Error[any](c, http.StatusRequestEntityTooLarge, "file too large", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	defer func() { _ = f.Close() }()

	// trust the bytes, not the client's Content-Type
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		writeError(c, h.Logger, err)
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	body := io.MultiReader(bytes.NewReader(head), f)

	url, err := h.Svc.UploadPicture(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), c.Query("kind"), body, fh.Filename, contentType, fh.Size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"url": url}, "picture updated", nil)
}

// Nearby GET /api/users/nearby?lng=&lat=&km=&type=
func (h *UserHandler) Nearby(c *gin.Context) {
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	if errLng != nil || errLat != nil {
		response.Error[any](c, http.StatusBadRequest, "lng and lat are required", map[string]string{"lng": "must be a number", "lat": "must be a number"})
		return
	}
	var km float64
	if v := c.Query("km"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			response.Error[any](c, http.StatusBadRequest, "km must be a number", nil)
			return
		}
		km = parsed
	}
	users, err := h.Svc.Nearby(c.Request.Context(), application.NearbyInput{
		Lng:      lng,
		Lat:      lat,
		Km:       km,
		UserType: entity.UserType(c.Query("type")),
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if users == nil {
		users = []*entity.User{}
	}
	response.Success(c, http.StatusOK, users, "nearby users", map[string]any{"count": len(users)})
}

// Activity GET /api/profile/activity?limit=
func (h *UserHandler) Activity(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			response.Error[any](c, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}
	logs, err := h.Svc.Activity(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, logs, "account activity", map[string]any{"count": len(logs)})
}
