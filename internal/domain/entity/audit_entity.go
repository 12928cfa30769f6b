package entity

import "time"

// Audit actions recorded for account events
const (
	AuditSignup           = "signup"
	AuditSignupOTPIssue   = "signup_otp_issue"
	AuditSignupOTPConfirm = "signup_otp_confirm"
	AuditSignupOTPFailed  = "signup_otp_failed"
	AuditLoginSuccess     = "login_success"
	AuditLoginFailed      = "login_failed"
	AuditLoginLocked      = "login_locked"
	AuditLogout           = "logout"
)

// AuditLog is one account event row
type AuditLog struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"userId,omitempty"`
	Email     string         `json:"email,omitempty"`
	Action    string         `json:"action"`
	IP        string         `json:"ip,omitempty"`
	UserAgent string         `json:"userAgent,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}
