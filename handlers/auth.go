package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jaeyoon-oh/rarebooks/middleware"
	"github.com/jaeyoon-oh/rarebooks/models"
	"github.com/jaeyoon-oh/rarebooks/store"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	DB        *store.DB // nil in memory mode; only the configured credentials work then
	JWTSecret string
	// Configured credentials; used to seed the admin record on first login.
	AdminEmail string
	AdminPass  string
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, `{"error":"email and password required"}`, http.StatusBadRequest)
		return
	}

	if h.DB == nil {
		if req.Email != h.AdminEmail || req.Password != h.AdminPass {
			http.Error(w, `{"error":"invalid email or password"}`, http.StatusUnauthorized)
			return
		}
		h.issueToken(w, req.Email)
		return
	}

	admin, err := h.DB.AdminByEmail(r.Context(), req.Email)
	if err != nil {
		http.Error(w, `{"error":"login failed"}`, http.StatusInternalServerError)
		return
	}
	if admin == nil {
		// No admin record yet: accept the configured credentials and seed one.
		if req.Email != h.AdminEmail || req.Password != h.AdminPass {
			http.Error(w, `{"error":"invalid email or password"}`, http.StatusUnauthorized)
			return
		}
		if _, err := h.ensureAdmin(r); err != nil {
			http.Error(w, `{"error":"login failed"}`, http.StatusInternalServerError)
			return
		}
	} else {
		if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
			http.Error(w, `{"error":"invalid email or password"}`, http.StatusUnauthorized)
			return
		}
	}

	h.issueToken(w, req.Email)
}

func (h *AuthHandler) issueToken(w http.ResponseWriter, email string) {
	token, err := h.createToken(email)
	if err != nil {
		http.Error(w, `{"error":"could not create token"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{Token: token, Email: email})
}

func (h *AuthHandler) ensureAdmin(r *http.Request) (*models.Admin, error) {
	// Check again in case of a concurrent first login.
	admin, err := h.DB.AdminByEmail(r.Context(), h.AdminEmail)
	if err != nil {
		return nil, err
	}
	if admin != nil {
		return admin, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(h.AdminPass), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	newAdmin := &models.Admin{
		Email:     h.AdminEmail,
		Password:  string(hash),
		CreatedAt: time.Now(),
	}
	id, err := h.DB.CreateAdmin(r.Context(), newAdmin)
	if err != nil {
		return nil, err
	}
	newAdmin.ID = id
	return newAdmin, nil
}

func (h *AuthHandler) createToken(email string) (string, error) {
	claims := &middleware.Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour * 7)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.JWTSecret))
}
