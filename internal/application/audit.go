package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-rental-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/go-rental-marketplace/internal/domain/repository"
)

// RequestMeta describes the caller of an account operation
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Auditor records account events; a nil repository turns it into a no-op
type Auditor struct {
	Repo   repo.AuditRepository
	Logger *logrus.Logger
}

func NewAuditor(r repo.AuditRepository, logger *logrus.Logger) *Auditor {
	return &Auditor{Repo: r, Logger: logger}
}

// Record never fails the caller; insert errors are logged
func (a *Auditor) Record(ctx context.Context, meta RequestMeta, userID, email, action string, metadata map[string]any) {
	if a == nil || a.Repo == nil {
		return
	}
	c, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	err := a.Repo.Insert(c, &entity.AuditLog{
		UserID:    userID,
		Email:     email,
		Action:    action,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Metadata:  metadata,
	})
	if err != nil && a.Logger != nil {
		a.Logger.WithError(err).WithField("action", action).Warn("audit insert failed")
	}
}
