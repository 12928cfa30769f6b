package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-rental-marketplace/config"
	"github.com/oksasatya/go-rental-marketplace/internal/domain/entity"
	"github.com/oksasatya/go-rental-marketplace/internal/domain/repository"
	mongoinfra "github.com/oksasatya/go-rental-marketplace/internal/infrastructure/mongodb"
	"github.com/oksasatya/go-rental-marketplace/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	client, db, err := mongoinfra.Connect(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoTimeout)
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	if err := mongoinfra.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("failed to ensure indexes: %v", err)
	}

	users := mongoinfra.NewUserRepository(db)
	services := mongoinfra.NewServiceRepository(db)

	email := "provider@example.com"
	password := "password123"
	username := "demoprovider"

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		fmt.Printf("user already seeded: id=%s email=%s\n", existing.ID.Hex(), existing.Email)
		return
	case !errors.Is(err, repository.ErrNotFound):
		log.Fatalf("failed to look up seed user: %v", err)
	}

	now := time.Now().UTC()
	u := entity.NewUser(username, email, entity.UserTypeProvider, now)
	u.Name = "Demo Provider"
	u.VerificationStatus.Email = true
	u.SetLocation(&entity.Location{Type: "Point", Coordinates: []float64{77.5946, 12.9716}})
	if err := u.Validate(); err != nil {
		log.Fatalf("seed user invalid: %v", err)
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	u.Password = hash
	if err := users.Create(ctx, u); err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s username=%s password=%s\n", u.ID.Hex(), email, username, password)

	listings := []entity.Service{
		{
			ServiceName:      "Weekend city tour guide",
			Description:      "Four hour walking tour through the old town.",
			Category:         "Tours",
			Location:         "Bengaluru",
			Price:            1500,
			GenderPreference: entity.GenderBoth,
		},
		{
			ServiceName:      "Home cooking lessons",
			Description:      "Learn three regional dishes in one evening.",
			Category:         "Cooking",
			Location:         "Bengaluru",
			Price:            900,
			GenderPreference: entity.GenderNotSpecified,
		},
	}
	for i := range listings {
		s := &listings[i]
		s.ProviderID = u.ID
		s.Duration = entity.Duration{StartDuration: now, EndDuration: now.AddDate(0, 3, 0)}
		s.AgePreference = entity.AgePreference{MinimumAge: 18, MaximumAge: 120}
		s.IsActive = true
		s.CreatedAt, s.UpdatedAt = now, now
		if err := s.Validate(); err != nil {
			log.Fatalf("seed service invalid: %v", err)
		}
		if err := services.Create(ctx, s); err != nil {
			log.Fatalf("failed to seed service: %v", err)
		}
		if err := users.AddService(ctx, u.ID, s.ID); err != nil {
			log.Fatalf("failed to link service: %v", err)
		}
		fmt.Printf("seeded service: id=%s name=%q\n", s.ID.Hex(), s.ServiceName)
	}
}
