// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/activityteams/internal/app/features/errors"
	userstore "github.com/dalemusser/activityteams/internal/app/store/users"
	"github.com/dalemusser/activityteams/internal/app/system/auditlog"
	"github.com/dalemusser/activityteams/internal/app/system/auth"
	"github.com/dalemusser/activityteams/internal/app/system/ratelimit"
	"github.com/dalemusser/activityteams/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter // nil disables throttling
	Log        *zap.Logger
}

func NewHandler(users *userstore.Store, sessionMgr *auth.SessionManager, audit *auditlog.Logger, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Limiter:    limiter,
		Log:        logger,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Return   string `json:"return"`
}

type loginResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Lang     string `json:"lang,omitempty"`
	Redirect string `json:"redirect"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLoginPost accepts a JSON body or a classic form post.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(r)
	if err != nil {
		uierrors.BadRequest(w, "Invalid login request.")
		return
	}
	if creds.Email == "" {
		uierrors.BadRequest(w, "Please enter your email.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if scope := h.Limiter.Check(r, creds.Email); scope != ratelimit.ScopeNone {
			h.AuditLog.LoginRateLimited(ctx, r, creds.Email, string(scope))
			w.Header().Set("Retry-After", "60")
			uierrors.JSON(w, http.StatusTooManyRequests, map[string]string{
				"error":   "too_many_requests",
				"message": scope.Message(),
			})
			return
		}
	}

	u, err := h.Users.GetByEmail(ctx, creds.Email)
	switch err {
	case mongo.ErrNoDocuments:
		h.AuditLog.LoginFailedUserNotFound(ctx, r, creds.Email)
		uierrors.JSON(w, http.StatusUnauthorized, map[string]string{
			"error":   "unauthorized",
			"message": "No account found for that email.",
		})
		return
	case nil:
	default:
		uierrors.Render(w, r, h.Log, err)
		return
	}

	if !u.IsActive() {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, creds.Email)
		uierrors.JSON(w, http.StatusForbidden, map[string]string{
			"error":   "forbidden",
			"message": "This account has been archived.",
		})
		return
	}

	if !userstore.CheckPassword(u, creds.Password) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, creds.Email)
		uierrors.JSON(w, http.StatusUnauthorized, map[string]string{
			"error":   "unauthorized",
			"message": "Incorrect password.",
		})
		return
	}

	if _, err := h.SessionMgr.GetSession(r); err != nil {
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			h.Log.Warn("session cookie invalid, using fresh session",
				zap.Error(err),
				zap.String("user_id", u.ID.Hex()))
		} else {
			h.Log.Error("session store error during login, using fresh session",
				zap.Error(err),
				zap.String("user_id", u.ID.Hex()))
		}
	}
	if err := h.SessionMgr.Login(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("email", u.Email))
		uierrors.Render(w, r, h.Log, err)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(u.Email)
	}
	h.AuditLog.LoginSuccess(r.Context(), r, u.ID, u.AuthMethod, u.Email)

	uierrors.JSON(w, http.StatusOK, loginResponse{
		ID:       u.ID.Hex(),
		Name:     u.FullName,
		Role:     u.Role,
		Lang:     u.Lang,
		Redirect: urlutil.SafeReturn(creds.Return, "", "/activities"),
	})
}

func readCredentials(r *http.Request) (credentials, error) {
	var c credentials
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			return c, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return c, err
		}
		c.Email = r.FormValue("email")
		c.Password = r.FormValue("password")
		c.Return = query.Get(r, "return")
	}
	c.Email = strings.TrimSpace(c.Email)
	return c, nil
}
