package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lightbnb/internal/config"
	"github.com/iliyamo/lightbnb/internal/middleware"
	"github.com/iliyamo/lightbnb/internal/model"
	"github.com/iliyamo/lightbnb/internal/repository"
	"github.com/iliyamo/lightbnb/internal/utils"
)

// UserHandler serves registration, login and the current-user lookup.  A
// successful registration or login starts a session: the token is set as
// an HttpOnly cookie and also returned in the body for API clients.
type UserHandler struct {
	Users         UserStore
	Secret        string
	SessionTTLMin int
	BcryptCost    int
	SecureCookie  bool
}

func NewUserHandler(cfg config.Config, users UserStore) *UserHandler {
	return &UserHandler{
		Users:         users,
		Secret:        cfg.JWTSecret,
		SessionTTLMin: cfg.SessionTTLMin,
		BcryptCost:    cfg.BcryptCost,
		SecureCookie:  cfg.Env == "prod",
	}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type loginReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type sessionResp struct {
	User    model.User `json:"user"`
	Token   string     `json:"token"`
	Expires time.Time  `json:"expires"`
}

// Register handles POST /users.
func (h *UserHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalid("invalid body"))
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	switch {
	case req.Name == "":
		return writeError(c, invalid("name is required"))
	case req.Email == "" || !strings.Contains(req.Email, "@"):
		return writeError(c, invalid("a valid email is required"))
	case req.Password == "":
		return writeError(c, invalid("password is required"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, h.BcryptCost)
	if err != nil {
		return writeError(c, err)
	}
	return h.startSession(c, http.StatusCreated, u)
}

// Login handles POST /users/login.  Unknown emails and wrong passwords get
// the same 401.
func (h *UserHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return writeError(c, invalid("invalid body"))
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return writeError(c, invalid("email and password are required"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, errorBody("unauthenticated", "invalid email or password"))
		}
		return writeError(c, err)
	}
	if !utils.VerifyPassword(u.Password, req.Password) {
		return c.JSON(http.StatusUnauthorized, errorBody("unauthenticated", "invalid email or password"))
	}
	return h.startSession(c, http.StatusOK, u)
}

// Logout handles POST /users/logout by expiring the session cookie.
func (h *UserHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /users/me.
func (h *UserHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

func (h *UserHandler) startSession(c echo.Context, status int, u model.User) error {
	tok, err := utils.NewSessionToken(h.Secret, u.ID, h.SessionTTLMin)
	if err != nil {
		return writeError(c, err)
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    tok.Token,
		Path:     "/",
		Expires:  tok.Exp,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(status, sessionResp{User: u, Token: tok.Token, Expires: tok.Exp})
}
