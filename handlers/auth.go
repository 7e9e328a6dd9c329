package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"p9e.in/fleetparts/config"
	"p9e.in/fleetparts/middleware"
	"p9e.in/fleetparts/models"
)

type registerReq struct {
	OrganizationName string `json:"organization_name"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone,omitempty"`
	Password         string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	OrganizationID uuid.UUID `json:"organization_id"`
}

type loginResp struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

// Register creates a new organization with the caller as its admin.
func Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}

	problems := map[string]string{}
	if req.OrganizationName == "" {
		problems["organization_name"] = "required"
	}
	if req.Name == "" {
		problems["name"] = "required"
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		problems["email"] = "must be a valid email address"
	}
	if len(req.Password) < 8 {
		problems["password"] = "must be at least 8 characters"
	}
	if len(problems) > 0 {
		respondError(w, http.StatusBadRequest, "validation failed", problems)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "error hashing password", nil)
		return
	}

	var user models.User
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		org := models.Organization{
			Name:     req.OrganizationName,
			Slug:     slugify(req.OrganizationName),
			Email:    req.Email,
			IsActive: true,
		}
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		user = models.User{
			Name:           req.Name,
			Email:          strings.ToLower(req.Email),
			Phone:          req.Phone,
			PasswordHash:   string(hash),
			Role:           models.RoleAdmin,
			OrganizationID: org.ID,
			IsActive:       true,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			respondError(w, http.StatusConflict, "email or organization already registered", nil)
		} else {
			log.Printf("❌ Registration failed: %v", err)
			respondError(w, http.StatusInternalServerError, "registration failed", nil)
		}
		return
	}

	token, err := middleware.GenerateToken(user.ID.String(), user.OrganizationID.String(), user.Role, user.Name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token", nil)
		return
	}

	log.Printf("✅ Registered organization %q with admin %s", req.OrganizationName, user.Email)
	respondData(w, http.StatusCreated, loginResp{
		Token: token,
		User: userPayload{
			ID:             user.ID,
			Name:           user.Name,
			Email:          user.Email,
			Role:           user.Role,
			OrganizationID: user.OrganizationID,
		},
	})
}

// Login authenticates by email and password and issues a JWT carrying
// the user's organization and role.
func Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON", nil)
		return
	}

	var user models.User
	err := config.DB.Where("email = ? AND is_active = ?", strings.ToLower(req.Email), true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusUnauthorized, "invalid credentials", nil)
		} else {
			respondError(w, http.StatusInternalServerError, "login failed", nil)
		}
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	token, err := middleware.GenerateToken(user.ID.String(), user.OrganizationID.String(), user.Role, user.Name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token", nil)
		return
	}

	respondData(w, http.StatusOK, loginResp{
		Token: token,
		User: userPayload{
			ID:             user.ID,
			Name:           user.Name,
			Email:          user.Email,
			Role:           user.Role,
			OrganizationID: user.OrganizationID,
		},
	})
}

// Me returns the authenticated user's profile.
func Me(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var user models.User
	if err := config.DB.Where("id = ?", auth.UserID).First(&user).Error; err != nil {
		respondError(w, http.StatusNotFound, "user not found", nil)
		return
	}
	respondData(w, http.StatusOK, userPayload{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
	})
}

// slugify lowercases and dashes an organization name, suffixing a short
// random fragment so two organizations with the same name never collide.
func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	return b.String() + "-" + uuid.New().String()[:8]
}
