// controllers/srv.go
package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"radio_fleet_tool/app"
	"radio_fleet_tool/apperror"
	"radio_fleet_tool/auth"
	"radio_fleet_tool/db"
	"radio_fleet_tool/inventory"
	"radio_fleet_tool/ledger"
	"radio_fleet_tool/session"

	"github.com/gin-gonic/gin"
)

type Srv struct {
	Repo      *db.Repo
	Sessions  *session.Store
	Auth      *auth.Service
	Inventory *inventory.Service
	Ledger    *ledger.Service
	OIDC      *auth.OIDCBridge // nil when no issuer is configured
	WebOrigin string
}

func GetSrv(a *app.App) *Srv {
	repo := db.NewRepo(a.DB)
	authSvc, err := auth.NewService(repo, a.Sessions, a.Config.BcryptCost)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	s := &Srv{
		Repo:      repo,
		Sessions:  a.Sessions,
		Auth:      authSvc,
		Inventory: inventory.NewService(repo),
		Ledger:    ledger.NewService(repo),
		WebOrigin: a.Config.WebOrigin,
	}

	if a.Config.OIDCIssuerURL != "" {
		bridge, err := auth.NewOIDCBridge(context.Background(), auth.OIDCConfig{
			IssuerURL:    a.Config.OIDCIssuerURL,
			ClientID:     a.Config.OIDCClientID,
			ClientSecret: a.Config.OIDCClientSecret,
			RedirectURL:  a.Config.OIDCRedirectURL,
		}, authSvc, a.Sessions)
		if err != nil {
			// 启动继续，仅本地登录可用
			log.Printf("oidc bridge disabled: %v", err)
		} else {
			s.OIDC = bridge
		}
	}
	return s
}

// --- helpers ---

// 统一设置业务会话 Cookie
func (s *Srv) setSessionCookie(w http.ResponseWriter, token string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}

func (s *Srv) clearSessionCookie(w http.ResponseWriter) {
	secure := strings.HasPrefix(s.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   secure,
	})
}

// respondErr maps a classified error onto its status and fixed message.
// Anything unclassified ends up as an opaque 500.
func respondErr(c *gin.Context, err error) {
	var ae *apperror.Error
	if !errors.As(err, &ae) {
		ae = apperror.OperationFailed(err)
	}
	c.JSON(apperror.HTTPStatus(ae), app.H{"error": ae.Message, "kind": ae.Kind})
}

func principal(c *gin.Context) *auth.Principal {
	v, ok := c.Get(app.PrincipalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*auth.Principal)
	return p
}
