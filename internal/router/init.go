package router

import (
	"context"

	"github.com/oksasatya/go-rental-marketplace/internal/application"
	"github.com/oksasatya/go-rental-marketplace/internal/container"
	repo "github.com/oksasatya/go-rental-marketplace/internal/domain/repository"
	mongoinfra "github.com/oksasatya/go-rental-marketplace/internal/infrastructure/mongodb"
	pginfra "github.com/oksasatya/go-rental-marketplace/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/go-rental-marketplace/internal/interface/http"
	"github.com/oksasatya/go-rental-marketplace/internal/router/modules"
	"github.com/oksasatya/go-rental-marketplace/pkg/helpers"
	"github.com/oksasatya/go-rental-marketplace/pkg/mailer"
	tpl "github.com/oksasatya/go-rental-marketplace/pkg/mailer/templates"
)

type repositories struct {
	Users    repo.UserRepository
	Services repo.ServiceRepository
	OTPs     repo.OTPRepository
	Audit    repo.AuditRepository
}

func buildRepositories() repositories {
	db := container.GetMongo()
	r := repositories{
		Users:    mongoinfra.NewUserRepository(db),
		Services: mongoinfra.NewServiceRepository(db),
		OTPs:     mongoinfra.NewOTPRepository(db),
	}
	if pool := container.GetPGPool(); pool != nil {
		r.Audit = pginfra.NewAuditRepository(pool)
	}
	return r
}

func buildAuthHandler(r repositories) *handlers.AuthHandler {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	// keep the interface nil when no broker is configured
	var pub mailer.Publisher
	if p := container.GetRabbitPub(); p != nil {
		pub = p
	}
	svc := application.NewAuthService(
		r.Users,
		r.OTPs,
		application.NewAuditor(r.Audit, logger),
		container.GetJWT(),
		container.GetRedis(),
		pub,
		cfg,
		logger,
	)
	svc.Geo = tpl.IPAPIResolver{}
	return handlers.NewAuthHandler(svc, container.GetCookies(), logger)
}

func buildUserHandler(r repositories) *handlers.UserHandler {
	cfg := container.GetConfig()
	var storage application.ObjectUploader
	if up := helpers.NewGCSUploader(container.GetGCS(), cfg.GCSBucket); up != nil {
		storage = up
	}
	svc := application.NewUserService(r.Users, storage, container.GetRedis(), container.GetLogger())
	svc.Audit = r.Audit
	return handlers.NewUserHandler(svc, container.GetLogger())
}

func buildServiceHandler(r repositories) *handlers.ServiceHandler {
	svc := application.NewListingService(
		r.Services,
		r.Users,
		container.GetRedis(),
		container.GetES(),
		container.GetConfig().ESServicesIndex,
		container.GetLogger(),
	)
	return handlers.NewServiceHandler(svc, container.GetLogger())
}

func buildHealthHandler() *handlers.HealthHandler {
	checks := map[string]handlers.Check{}
	if db := container.GetMongo(); db != nil {
		checks["mongo"] = func(ctx context.Context) error { return db.Client().Ping(ctx, nil) }
	}
	if rdb := container.GetRedis(); rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	if pool := container.GetPGPool(); pool != nil {
		checks["postgres"] = pool.Ping
	}
	return handlers.NewHealthHandler(checks)
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	repos := buildRepositories()
	jwt := container.GetJWT()

	r.Add(modules.NewHealthModule(buildHealthHandler()))
	r.Add(modules.NewAuthModule(buildAuthHandler(repos), jwt))
	r.Add(modules.NewUserModule(buildUserHandler(repos), jwt))
	r.Add(modules.NewServiceModule(buildServiceHandler(repos), jwt))
	if cfg := container.GetConfig(); cfg != nil && cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
