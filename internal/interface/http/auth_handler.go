package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-rental-marketplace/internal/application"
	"github.com/oksasatya/go-rental-marketplace/internal/domain/entity"
	"github.com/oksasatya/go-rental-marketplace/internal/interface/middleware"
	"github.com/oksasatya/go-rental-marketplace/pkg/helpers"
	"github.com/oksasatya/go-rental-marketplace/pkg/response"
)

type AuthHandler struct {
	Svc     *application.AuthService
	Cookies *helpers.Manager
	Logger  *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, cookies *helpers.Manager, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Cookies: cookies, Logger: logger}
}

type signupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
	UserType string `json:"user_type" binding:"omitempty,oneof=Client Provider"`
}

func (r signupRequest) input() application.SignupInput {
	return application.SignupInput{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
		UserType: entity.UserType(r.UserType),
	}
}

type otpRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type confirmSignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	OTP      string `json:"otp" binding:"required,len=6,numeric"`
	Username string `json:"username" binding:"required,min=3,max=30"`
	Password string `json:"password" binding:"required,pwd"`
	UserType string `json:"user_type" binding:"omitempty,oneof=Client Provider"`
}

func (r confirmSignupRequest) input() application.ConfirmSignupInput {
	return application.ConfirmSignupInput{
		SignupInput: signupRequest{Username: r.Username, Email: r.Email, Password: r.Password, UserType: r.UserType}.input(),
		OTP:         r.OTP,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Signup POST /api/user/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, sess, err := h.Svc.Signup(c.Request.Context(), req.input(), requestMeta(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetSession(c, sess.Token)
	response.Success(c, http.StatusCreated, u, "User created successfully", map[string]any{"expires_at": sess.ExpiresAt})
}

// RequestSignupOTP POST /api/user/signup/otp {email}
func (h *AuthHandler) RequestSignupOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	exp, err := h.Svc.RequestSignupOTP(c.Request.Context(), req.Email, requestMeta(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"expires_at": exp}, "OTP sent", nil)
}

// ConfirmSignup PUT /api/user/signup {email, otp, username, password}
func (h *AuthHandler) ConfirmSignup(c *gin.Context) {
	var req confirmSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, sess, err := h.Svc.ConfirmSignup(c.Request.Context(), req.input(), requestMeta(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetSession(c, sess.Token)
	response.Success(c, http.StatusCreated, u, "User created successfully", map[string]any{"expires_at": sess.ExpiresAt})
}

// Login POST /api/user/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, sess, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password, requestMeta(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetSession(c, sess.Token)
	response.Success(c, http.StatusOK, u, "login successful", map[string]any{"expires_at": sess.ExpiresAt})
}

// Logout POST /api/user/logout (auth required)
func (h *AuthHandler) Logout(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.Logout(c.Request.Context(), uid, c.GetString(middleware.CtxUserEmailKey), requestMeta(c)); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}
