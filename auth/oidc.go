// auth/oidc.go
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"radio_fleet_tool/apperror"
	"radio_fleet_tool/session"

	"golang.org/x/oauth2"
)

// OIDCConfig is the identity-provider contract this core consumes: a
// discovery document plus the standard authorization-code exchange.
type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type OIDCBridge struct {
	oauth       *oauth2.Config
	userInfoURL string
	svc         *Service
	sessions    *session.Store
	client      *http.Client
}

type discoveryDocument struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserInfoEndpoint      string `json:"userinfo_endpoint"`
}

// NewOIDCBridge resolves the provider's endpoints from its discovery
// document once, at startup.
func NewOIDCBridge(ctx context.Context, cfg OIDCConfig, svc *Service, sessions *session.Store) (*OIDCBridge, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	url := strings.TrimSuffix(cfg.IssuerURL, "/") + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch discovery document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery document: unexpected status %d", resp.StatusCode)
	}
	var doc discoveryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode discovery document: %w", err)
	}
	if doc.AuthorizationEndpoint == "" || doc.TokenEndpoint == "" || doc.UserInfoEndpoint == "" {
		return nil, fmt.Errorf("discovery document incomplete")
	}

	return &OIDCBridge{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  doc.AuthorizationEndpoint,
				TokenURL: doc.TokenEndpoint,
			},
		},
		userInfoURL: doc.UserInfoEndpoint,
		svc:         svc,
		sessions:    sessions,
		client:      client,
	}, nil
}

// sanitizeReturnTo keeps the post-login redirect on this origin: it must be
// an absolute path, not protocol-relative, else the default takes over.
func sanitizeReturnTo(p string) string {
	if strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") {
		return p
	}
	return "/"
}

// LoginStart stores a single-use state nonce and the sanitized return path
// in the session, then hands back the provider's authorization URL. The
// (possibly fresh) token must reach the client as the session cookie before
// the redirect.
func (b *OIDCBridge) LoginStart(ctx context.Context, token, returnTo string) (authURL, sessToken string, err error) {
	d, err := b.sessions.Get(ctx, token)
	if err != nil {
		return "", "", apperror.OperationFailed(err)
	}
	if d == nil {
		d = &session.Data{}
		token, err = b.sessions.New(ctx, d)
		if err != nil {
			return "", "", apperror.OperationFailed(err)
		}
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", "", apperror.OperationFailed(err)
	}
	d.State = hex.EncodeToString(buf)
	d.ReturnTo = sanitizeReturnTo(returnTo)
	if err := b.sessions.Save(ctx, token, d); err != nil {
		return "", "", apperror.OperationFailed(err)
	}

	return b.oauth.AuthCodeURL(d.State), token, nil
}

type userProfile struct {
	Subject           string `json:"sub"`
	PreferredUsername string `json:"preferred_username"`
	Name              string `json:"name"`
	Email             string `json:"email"`
}

// displayName tries the candidate fields in their fixed order.
func (p userProfile) displayName() string {
	for _, v := range []string{p.PreferredUsername, p.Name, p.Email, p.Subject} {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Callback completes the handshake. Every internal reason to reject — bad or
// replayed state, failed exchange, missing token, unusable profile — comes
// out as the same unauthorized error; callers cannot tell them apart.
func (b *OIDCBridge) Callback(ctx context.Context, token, code, state string) (sessToken, redirectTo string, err error) {
	d, err := b.sessions.Get(ctx, token)
	if err != nil {
		return "", "", apperror.OperationFailed(err)
	}
	if d == nil || code == "" || state == "" || d.State == "" ||
		subtle.ConstantTimeCompare([]byte(state), []byte(d.State)) != 1 {
		return "", "", apperror.Unauthorized()
	}
	returnTo := d.ReturnTo
	if returnTo == "" {
		returnTo = "/"
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, b.client)
	tok, err := b.oauth.Exchange(ctx, code)
	if err != nil || tok.AccessToken == "" {
		return "", "", apperror.Unauthorized()
	}

	profile, err := b.fetchProfile(ctx, tok.AccessToken)
	if err != nil {
		return "", "", apperror.Unauthorized()
	}
	name := profile.displayName()
	if name == "" {
		return "", "", apperror.Unauthorized()
	}

	admin, err := b.svc.admins.FindOrCreateFederatedAdmin(ctx, name)
	if err != nil {
		return "", "", err
	}

	newToken, _, err := b.svc.createSession(ctx, token, Principal{UserID: admin.ID, Username: admin.Username})
	if err != nil {
		return "", "", err
	}
	return newToken, returnTo, nil
}

func (b *OIDCBridge) fetchProfile(ctx context.Context, accessToken string) (*userProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo: unexpected status %d", resp.StatusCode)
	}
	var p userProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}
