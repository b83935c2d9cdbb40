// app/bootstrap.go
package app

import (
	"context"
	"log"

	"radio_fleet_tool/config"
	"radio_fleet_tool/db"
	"radio_fleet_tool/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// BootstrapFirstAdmin seeds the single admin credential on an empty table so
// a fresh deployment can log in. It never touches an existing admin.
func BootstrapFirstAdmin(ctx context.Context, cfg config.Config, repo *db.Repo) {
	n, err := repo.CountAdmins(ctx)
	if err != nil {
		log.Printf("bootstrap: counting admins failed: %v", err)
		return
	}
	if n > 0 {
		return
	}
	if cfg.BootstrapPassword == "" {
		log.Printf("[BOOTSTRAP] no admin exists and BOOTSTRAP_ADMIN_PASSWORD is unset, skipping")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.BootstrapPassword), cfg.BcryptCost)
	if err != nil {
		log.Printf("bootstrap: hashing failed: %v", err)
		return
	}
	admin := &models.AdminUser{
		ID:           uuid.NewString(),
		Username:     cfg.BootstrapUsername,
		PasswordHash: string(hash),
	}
	if err := repo.CreateAdmin(ctx, admin); err != nil {
		log.Printf("bootstrap: creating admin failed: %v", err)
		return
	}
	log.Printf("[BOOTSTRAP] created first admin %q", admin.Username)
}
