package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/smart-cafe/internal/config"
	"github.com/iliyamo/smart-cafe/internal/model"
	"github.com/iliyamo/smart-cafe/internal/repository"
	"github.com/iliyamo/smart-cafe/internal/utils"
	"github.com/iliyamo/smart-cafe/internal/validation"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Log    *zap.Logger
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, log *zap.Logger) *AuthHandler {
	if u == nil || t == nil {
		panic("nil repository passed to NewAuthHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Log: log}
}

// ----- DTOs -----

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// sessionUser is the user document the client keeps as its session.
type sessionUser struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	StudentID    string    `json:"student_id,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Signup creates a user account.  Student ID and phone are optional here;
// when present they must be well formed.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req validation.SignupForm
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	fe := validation.NewFieldErrors()
	v := validation.New(fe)
	valid := v.Name(req.Name, validation.FieldSignupName, true)
	valid = v.Email(req.Email, validation.FieldSignupEmail, true) && valid
	valid = v.Password(req.Password, validation.FieldSignupPassword, true) && valid
	valid = v.StudentID(req.StudentID, validation.FieldSignupStudentID, false) && valid
	valid = v.Phone(req.Phone, validation.FieldSignupPhone, false) && valid
	if req.ConfirmPassword != "" {
		valid = v.PasswordMatch(req.Password, req.ConfirmPassword, validation.FieldSignupConfirmPassword) && valid
	}
	if !valid {
		return invalid(c, fe)
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, model.User{
		Name:      req.Name,
		Email:     req.Email,
		StudentID: strings.TrimSpace(req.StudentID),
		Phone:     validation.NormalizePhone(req.Phone),
		Role:      model.RoleUser,
	}, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, "Email already exists")
		}
		h.Log.Error("create user", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "create user failed")
	}
	return ok(c, http.StatusCreated, echo.Map{"message": "Account created successfully", "user_id": uid})
}

// Login verifies the credentials and returns the session document with a
// fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req validation.LoginForm
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Email and password are required")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.BurnPasswordCheck(req.Password)
			return fail(c, http.StatusUnauthorized, "Invalid email or password")
		}
		h.Log.Error("load user", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "Invalid email or password")
	}
	return h.issue(c, u)
}

// Refresh consumes a refresh token and issues a new pair.  A token works
// once.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := dbContext(c)
	defer cancel()

	userID, err := h.Tokens.Consume(ctx, hash)
	if errors.Is(err, repository.ErrRefreshInvalid) {
		return fail(c, http.StatusUnauthorized, "invalid refresh")
	}
	if err != nil {
		h.Log.Error("consume refresh", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "refresh failed")
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fail(c, http.StatusUnauthorized, "invalid refresh")
		}
		return fail(c, http.StatusInternalServerError, "load user failed")
	}
	return h.issue(c, u)
}

func (h *AuthHandler) issue(c echo.Context, u model.User) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, u.Name, h.Cfg.AccessTTLMin)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "issue access failed")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "issue refresh failed")
	}
	if err := h.Tokens.Issue(c.Request().Context(), u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		h.Log.Error("store refresh", zap.Uint64("user_id", u.ID), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "save refresh failed")
	}
	return ok(c, http.StatusOK, echo.Map{"user": sessionUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		StudentID:    u.StudentID,
		Phone:        u.Phone,
		Address:      u.Address,
		Token:        access.Token,
		RefreshToken: refresh.Raw,
		ExpiresAt:    access.Exp,
	}})
}

// Logout revokes refresh tokens.  A refresh_token in the body ends that
// session only; a valid bearer token without one ends every session of the
// user.  Logging out without either still succeeds since the client drops
// its state regardless.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := dbContext(c)
	defer cancel()

	if raw != "" {
		hash := utils.HashRefreshRaw(raw)
		_, err := h.Tokens.Consume(ctx, hash)
		if errors.Is(err, repository.ErrRefreshInvalid) {
			return fail(c, http.StatusUnauthorized, "invalid refresh token")
		}
		if err != nil {
			return fail(c, http.StatusInternalServerError, "logout failed")
		}
		return ok(c, http.StatusOK, echo.Map{"message": "Logged out successfully"})
	}

	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
			uid, _ := claims.UserID()
			if err := h.Tokens.RevokeUser(ctx, uid); err != nil {
				return fail(c, http.StatusInternalServerError, "logout failed")
			}
		}
	}
	return ok(c, http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// Me echoes the identity carried by the access token.
func (h *AuthHandler) Me(c echo.Context) error {
	return ok(c, http.StatusOK, echo.Map{
		"user_id": c.Get("user_id"),
		"role":    c.Get("role"),
		"name":    c.Get("name"),
	})
}
