package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tidyhome/booking-api/internal/config"
	"github.com/tidyhome/booking-api/internal/model"
	"github.com/tidyhome/booking-api/internal/repository"
	"github.com/tidyhome/booking-api/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

type registerReq struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// authData is the envelope payload for register and login.
type authData struct {
	User         *userResource `json:"user"`
	Token        string        `json:"token"`
	RefreshToken string        `json:"refresh_token"`
}

// Register creates an account and issues a token pair. New accounts are
// never administrators; the flag is set out of band.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusUnprocessableEntity, "Invalid request body", nil)
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if errs := validateRegister(req); len(errs) > 0 {
		return respond(c, http.StatusUnprocessableEntity, firstError(errs), echo.Map{"errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, false, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return respond(c, http.StatusConflict, "Email already exists", nil)
		}
		return respond(c, http.StatusInternalServerError, "Could not create account", nil)
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Could not load account", nil)
	}
	return h.issueTokens(c, ctx, u, "Registration successful", http.StatusCreated)
}

// Login verifies credentials and issues a token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusUnprocessableEntity, "Invalid request body", nil)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return respond(c, http.StatusUnprocessableEntity, "Email and password are required", nil)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return respond(c, http.StatusUnauthorized, "Invalid credentials", nil)
		}
		return respond(c, http.StatusInternalServerError, "Query failed", nil)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return respond(c, http.StatusUnauthorized, "Invalid credentials", nil)
	}
	return h.issueTokens(c, ctx, u, "Login successful", http.StatusOK)
}

// Refresh exchanges a valid refresh token for a new token pair. The spent
// token is revoked first, so each refresh token is single use.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return respond(c, http.StatusUnprocessableEntity, "Refresh token is required", nil)
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		// Unknown, expired and revoked tokens are indistinguishable on purpose.
		return respond(c, http.StatusUnauthorized, "Invalid refresh token", nil)
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return respond(c, http.StatusInternalServerError, "Could not rotate token", nil)
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return respond(c, http.StatusUnauthorized, "Invalid refresh token", nil)
		}
		return respond(c, http.StatusInternalServerError, "Could not load account", nil)
	}
	return h.issueTokens(c, ctx, u, "Token refreshed successfully", http.StatusOK)
}

// Logout revokes every refresh token of the current user, terminating all
// sessions. The access token itself expires on its own.
func (h *AuthHandler) Logout(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Unauthorized", nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Tokens.RevokeAllForUser(ctx, a.ID); err != nil {
		return respond(c, http.StatusInternalServerError, "Logout failed", nil)
	}
	return respond(c, http.StatusOK, "Logged out successfully", nil)
}

// Me returns the current user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Unauthorized", nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	u, err := h.Users.GetByID(ctx, a.ID)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Could not load account", nil)
	}
	return respond(c, http.StatusOK, "", newUserResource(&u))
}

func (h *AuthHandler) issueTokens(c echo.Context, ctx context.Context, u model.User, message string, code int) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.IsAdmin, h.Cfg.AccessTTLMin)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Could not issue token", nil)
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Could not issue token", nil)
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return respond(c, http.StatusInternalServerError, "Could not save token", nil)
	}
	return respond(c, code, message, authData{
		User:         newUserResource(&u),
		Token:        access.Token,
		RefreshToken: refresh.Raw, // raw goes back to the client; only the hash is stored
	})
}

func validateRegister(req registerReq) map[string][]string {
	errs := map[string][]string{}
	if req.Name == "" {
		errs["name"] = append(errs["name"], "Name is required.")
	}
	if req.Email == "" {
		errs["email"] = append(errs["email"], "Email is required.")
	} else if !strings.Contains(req.Email, "@") {
		errs["email"] = append(errs["email"], "Email must be a valid email address.")
	}
	if req.Password == "" {
		errs["password"] = append(errs["password"], "Password is required.")
	} else if len(req.Password) < 8 {
		errs["password"] = append(errs["password"], "Password must be at least 8 characters.")
	}
	if req.PasswordConfirmation != req.Password {
		errs["password"] = append(errs["password"], "Password confirmation does not match.")
	}
	return errs
}

// firstError picks a deterministic message for the envelope out of a field
// error map.
func firstError(errs map[string][]string) string {
	for _, field := range []string{"name", "email", "password", "service_id", "customer_name", "address", "date", "time", "title", "price"} {
		if msgs, ok := errs[field]; ok && len(msgs) > 0 {
			return msgs[0]
		}
	}
	for _, msgs := range errs {
		if len(msgs) > 0 {
			return msgs[0]
		}
	}
	return "Validation failed"
}
