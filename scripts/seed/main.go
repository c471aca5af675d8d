// Command seed provisions a development database with an admin account and a
// handful of rooms so the API is usable immediately after first boot.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-ops/roomdesk-api/internal/models"
	"github.com/campus-ops/roomdesk-api/internal/repository"
	"github.com/campus-ops/roomdesk-api/pkg/config"
	"github.com/campus-ops/roomdesk-api/pkg/database"
)

func main() {
	var (
		adminEmail    string
		adminPassword string
		adminName     string
	)
	flag.StringVar(&adminEmail, "admin-email", "admin@campus.edu", "Admin account email")
	flag.StringVar(&adminPassword, "admin-password", "changeme", "Admin account password")
	flag.StringVar(&adminName, "admin-name", "Site Admin", "Admin display name")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := repository.NewUserRepository(db)
	if _, err := users.FindByEmail(ctx, adminEmail); err == nil {
		log.Printf("admin %s already exists, skipping user seed", adminEmail)
	} else {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}
		admin := &models.User{
			ID:           uuid.NewString(),
			Email:        adminEmail,
			PasswordHash: string(hash),
			FullName:     adminName,
			Role:         models.RoleAdmin,
			Active:       true,
		}
		if err := users.Create(ctx, admin); err != nil {
			log.Fatalf("failed to create admin: %v", err)
		}
		log.Printf("created admin %s", adminEmail)
	}

	rooms := repository.NewRoomRepository(db)
	seedRooms := []models.Room{
		{Building: "ENG", Number: "101", Status: models.RoomAvailable},
		{Building: "ENG", Number: "102", Status: models.RoomAvailable},
		{Building: "SCI", Number: "201", Status: models.RoomAvailable},
		{Building: "LIB", Number: "001", Status: models.RoomOccupied},
	}
	created := 0
	for i := range seedRooms {
		room := seedRooms[i]
		if _, err := rooms.FindByBuildingNumber(ctx, room.Building, room.Number); err == nil {
			continue
		}
		if err := rooms.Create(ctx, &room); err != nil {
			log.Fatalf("failed to create room %s %s: %v", room.Building, room.Number, err)
		}
		created++
	}
	log.Printf("seed complete, %d rooms created", created)
}
