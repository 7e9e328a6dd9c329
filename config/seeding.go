package config

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"p9e.in/fleetparts/models"
)

// SeedDefaultOrganization creates a demo organization with an admin user
// on an empty database. Skips silently when organizations already exist.
func SeedDefaultOrganization() {
	var count int64
	DB.Model(&models.Organization{}).Count(&count)
	if count > 0 {
		return
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Warning: could not hash seed password: %v", err)
		return
	}

	org := models.Organization{
		Name: "Demo Fleet Co",
		Slug: "demo-fleet",
	}
	if err := DB.Create(&org).Error; err != nil {
		log.Printf("Warning: could not seed organization: %v", err)
		return
	}

	admin := models.User{
		Name:           "Admin",
		Email:          "admin@demo-fleet.local",
		PasswordHash:   string(hash),
		Role:           models.RoleAdmin,
		OrganizationID: org.ID,
	}
	if err := DB.Create(&admin).Error; err != nil {
		log.Printf("Warning: could not seed admin user: %v", err)
		return
	}

	log.Printf("✅ Seeded organization %s with admin user %s", org.Name, admin.Email)
}
