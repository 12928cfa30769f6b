package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-rental-marketplace/internal/application"
	"github.com/oksasatya/go-rental-marketplace/internal/domain/entity"
	"github.com/oksasatya/go-rental-marketplace/pkg/response"
	"github.com/oksasatya/go-rental-marketplace/pkg/validation"
)

func clientIP(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	return c.RemoteIP()
}

func requestMeta(c *gin.Context) application.RequestMeta {
	return application.RequestMeta{IP: clientIP(c), UserAgent: c.GetHeader("User-Agent")}
}

// badRequest answers a failed bind: field failures name the first field,
// anything else is a malformed payload.
func badRequest(c *gin.Context, err error) {
	if validation.IsValidation(err) {
		response.Error[any](c, http.StatusBadRequest, validation.FirstMessage(err), validation.ToDetails(err))
		return
	}
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}

var errorStatus = []struct {
	err    error
	status int
}{
	{application.ErrUserExists, http.StatusBadRequest},
	{application.ErrUsernameTaken, http.StatusBadRequest},
	{application.ErrInvalidOTP, http.StatusBadRequest},
	{application.ErrInvalidImage, http.StatusBadRequest},
	{application.ErrInvalidQuery, http.StatusBadRequest},
	{entity.ErrAgeRange, http.StatusBadRequest},
	{entity.ErrAdminTypeWithoutAdmin, http.StatusBadRequest},
	{entity.ErrServiceWithoutProvider, http.StatusBadRequest},
	{application.ErrInvalidCredentials, http.StatusUnauthorized},
	{application.ErrAccountInactive, http.StatusForbidden},
	{application.ErrForbidden, http.StatusForbidden},
	{application.ErrNotProvider, http.StatusForbidden},
	{application.ErrUserNotFound, http.StatusNotFound},
	{application.ErrServiceNotFound, http.StatusNotFound},
	{application.ErrAccountLocked, http.StatusLocked},
	{application.ErrStorageUnavailable, http.StatusServiceUnavailable},
}

// writeError maps application errors to a status; unknown errors are logged
// and answered with a generic 500.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	if validation.IsValidation(err) {
		response.Error[any](c, http.StatusBadRequest, validation.FirstMessage(err), validation.ToDetails(err))
		return
	}
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			response.Error[any](c, m.status, m.err.Error(), nil)
			return
		}
	}
	if logger != nil {
		logger.WithError(err).WithField("path", c.FullPath()).WithField("request_id", c.GetString("request_id")).Error("request failed")
	}
	response.Error[any](c, http.StatusInternalServerError, "Internal Server Error", nil)
}
