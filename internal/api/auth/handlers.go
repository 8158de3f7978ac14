// internal/api/auth/handlers.go
package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/api/apiutil"
	"github.com/courtsidehq/courtside/internal/api/authz"
	appdb "github.com/courtsidehq/courtside/internal/db"
	"github.com/courtsidehq/courtside/internal/ratelimit"
)

var (
	queries     *appdb.Queries
	secretKey   string
	limiter     *ratelimit.Limiter
	queriesOnce sync.Once
)

const authQueryTimeout = 5 * time.Second

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(database *appdb.DB, secret string, rateLimiter *ratelimit.Limiter) {
	if database == nil {
		return
	}
	queriesOnce.Do(func() {
		queries = database.Queries
		secretKey = secret
		limiter = rateLimiter
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type sessionResponse struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Token  string `json:"token"`
}

// POST /api/v1/auth/register
func HandleRegister(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req registerRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		apiutil.WriteError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		apiutil.WriteError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	role := authz.RolePlayer
	if req.Role != "" {
		parsed, ok := authz.ParseRole(req.Role)
		if !ok || parsed == authz.RoleAdmin {
			apiutil.WriteError(w, http.StatusBadRequest, "role must be player or facility_owner")
			return
		}
		role = parsed
	}

	phone, err := normalizePhone(req.Phone)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authQueryTimeout)
	defer cancel()

	if _, err := q.GetUserByEmail(ctx, req.Email); err == nil {
		apiutil.WriteError(w, http.StatusBadRequest, "email is already registered")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		logger.Error().Err(err).Msg("Failed to check existing user")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	user, err := q.CreateUser(ctx, appdb.CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        phone,
		PasswordHash: hash,
		Role:         string(role),
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create user")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	writeSession(w, r, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/v1/auth/login
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if limiter != nil {
		ip := ratelimit.GetClientIP(r, false)
		if result := limiter.AllowLogin(ip); !result.Allowed {
			ratelimit.LogRateLimitExceeded("login", ip, result.Reason)
			apiutil.WriteError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
			return
		}
	}

	var req loginRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authQueryTimeout)
	defer cancel()

	user, err := q.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		logger.Error().Err(err).Msg("Failed to load user")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	if !VerifyPassword(user.PasswordHash, req.Password) {
		apiutil.WriteError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	writeSession(w, r, user)
}

func writeSession(w http.ResponseWriter, r *http.Request, user appdb.User) {
	logger := log.Ctx(r.Context())

	role, ok := authz.ParseRole(user.Role)
	if !ok {
		logger.Error().Str("role", user.Role).Int64("user_id", user.ID).Msg("Stored role outside closed set")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to issue session")
		return
	}

	token, err := IssueToken(secretKey, &authz.AuthUser{ID: user.ID, Role: role})
	if err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to sign session token")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to issue session")
		return
	}

	apiutil.WriteJSON(w, http.StatusOK, sessionResponse{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		Token:  token,
	}, "authenticated")
}

// normalizePhone formats an optional phone number to E.164. An empty input
// stays empty.
func normalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	parsed, err := phonenumbers.Parse(raw, "US")
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return "", apiutil.FieldError{Field: "phone", Reason: "must be a valid phone number"}
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

func loadQueries() *appdb.Queries {
	return queries
}
