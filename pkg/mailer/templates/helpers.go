package templates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oksasatya/go-rental-marketplace/config"
)

// Option pattern
type Option func(*EmailData)

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = ip } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }
func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func setLocation(d *EmailData, loc string) {
	if s := strings.TrimSpace(loc); s != "" {
		d.Location = s
	}
}

func WithLocation(loc string) Option {
	return func(d *EmailData) { setLocation(d, loc) }
}

func WithGeoFromIP(ctx context.Context, r GeoResolver, ip string) Option {
	return func(d *EmailData) {
		if r == nil || strings.TrimSpace(ip) == "" {
			return
		}
		if g, err := r.Lookup(ctx, ip); err == nil {
			setLocation(d, FormatGeo(g))
		}
	}
}

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04 MST")
		if left := time.Until(t).Round(time.Minute); left > 0 {
			d.ExpiresInText = humanMinutes(left)
		}
	}
}

func humanMinutes(d time.Duration) string {
	m := int(d.Minutes())
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}

// NewBaseEmailData fills common fields from config, then applies options
func NewBaseEmailData(cfg *config.Config, typ string, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,

		AppURL:         cfg.AppURL,
		LogoURL:        cfg.LogoURL,
		SupportURL:     cfg.SupportURL,
		PrivacyURL:     cfg.PrivacyURL,
		UnsubscribeURL: cfg.UnsubscribeURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewSignupOTPData(cfg *config.Config, email, code string, expires time.Time, opts ...Option) map[string]any {
	opts = append([]Option{WithExpiresAt(expires)}, opts...)
	d := NewBaseEmailData(cfg, SignupOTP, "", email, opts...)
	d.Code = code
	return ToMap(d)
}

func NewWelcomeData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, Welcome, name, email, opts...)
	return ToMap(d)
}

func NewLoginNotificationData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, LoginNotification, name, email, opts...)
	return ToMap(d)
}
