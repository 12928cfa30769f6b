package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-rental-marketplace/internal/domain/entity"
	"github.com/oksasatya/go-rental-marketplace/internal/domain/repository"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// nullable stores empty strings as NULL
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *AuditRepository) Insert(ctx context.Context, a *entity.AuditLog) error {
	md := a.Metadata
	if md == nil {
		md = map[string]any{}
	}
	b, err := json.Marshal(md)
	if err != nil {
		return err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO audit_logs (user_id, email, action, ip, user_agent, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, nullable(a.UserID), nullable(a.Email), a.Action, nullable(a.IP), nullable(a.UserAgent), b)
	return row.Scan(&a.ID, &a.CreatedAt)
}

func (r *AuditRepository) ListByUser(ctx context.Context, userID string, limit int) ([]entity.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, COALESCE(user_id, ''), COALESCE(email, ''), action, COALESCE(ip, ''), COALESCE(user_agent, ''), metadata, created_at
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.AuditLog, error) {
		var (
			a  entity.AuditLog
			md []byte
		)
		if err := row.Scan(&a.ID, &a.UserID, &a.Email, &a.Action, &a.IP, &a.UserAgent, &md, &a.CreatedAt); err != nil {
			return a, err
		}
		if len(md) > 0 {
			_ = json.Unmarshal(md, &a.Metadata)
		}
		return a, nil
	})
}

var _ repository.AuditRepository = (*AuditRepository)(nil)
