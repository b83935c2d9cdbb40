// Package auth is the single gate in front of every mutating operation:
// credential verification, session issue/regenerate/destroy, credential
// changes, and the identity-provider bridge.
package auth

import (
	"context"
	"strings"

	"radio_fleet_tool/apperror"
	"radio_fleet_tool/models"
	"radio_fleet_tool/session"

	"golang.org/x/crypto/bcrypt"
)

// Principal is the authorized administrator resolved from a session.
type Principal struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// AdminStore is the credential side of the relational store.
type AdminStore interface {
	FindAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	FindAdminByID(ctx context.Context, id string) (*models.AdminUser, error)
	UpdateAdminCredentials(ctx context.Context, id string, cols map[string]any) error
	FindOrCreateFederatedAdmin(ctx context.Context, username string) (*models.AdminUser, error)
}

type Service struct {
	admins   AdminStore
	sessions *session.Store
	cost     int

	// dummyHash is compared against when the username does not resolve, so
	// unknown-user and wrong-password take the same time.
	dummyHash []byte
}

func NewService(admins AdminStore, sessions *session.Store, bcryptCost int) (*Service, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("rft-timing-equalizer"), bcryptCost)
	if err != nil {
		return nil, err
	}
	return &Service{
		admins:    admins,
		sessions:  sessions,
		cost:      bcryptCost,
		dummyHash: dummy,
	}, nil
}

// Authorize is a pure function of the resolved session value: a session
// counts only if userId is a non-blank string AND isAdmin is strictly true.
// Every other shape fails with the one uniform unauthorized error.
func Authorize(d *session.Data) (*Principal, error) {
	if d == nil || strings.TrimSpace(d.UserID) == "" || !d.IsAdmin {
		return nil, apperror.Unauthorized()
	}
	return &Principal{UserID: d.UserID, Username: d.Username}, nil
}

// AuthorizeToken resolves the token against the session store, then applies
// Authorize.
func (s *Service) AuthorizeToken(ctx context.Context, token string) (*Principal, error) {
	d, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, apperror.OperationFailed(err)
	}
	return Authorize(d)
}

// validateCredentials returns the admin only if the username resolved AND the
// hash comparison succeeded; otherwise (nil, nil). A hash comparison of equal
// cost runs either way.
func (s *Service) validateCredentials(ctx context.Context, username, password string) (*models.AdminUser, error) {
	admin, err := s.admins.FindAdminByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	hash := s.dummyHash
	if admin != nil && admin.PasswordHash != "" {
		hash = []byte(admin.PasswordHash)
	}
	cmpErr := bcrypt.CompareHashAndPassword(hash, []byte(password))

	if admin == nil || admin.PasswordHash == "" || cmpErr != nil {
		return nil, nil
	}
	return admin, nil
}

// Login verifies the credentials and issues a fresh session. The outward
// failure is identical for unknown username and wrong password.
func (s *Service) Login(ctx context.Context, oldToken, username, password string) (string, *Principal, error) {
	admin, err := s.validateCredentials(ctx, username, password)
	if err != nil {
		return "", nil, err
	}
	if admin == nil {
		return "", nil, apperror.Unauthorized()
	}
	return s.createSession(ctx, oldToken, Principal{UserID: admin.ID, Username: admin.Username})
}

// createSession regenerates the token first; a failed regenerate aborts the
// whole operation before any principal data is written (fixation defense).
// Only the new token ever carries the authenticated payload, and transient
// handshake fields do not survive the login.
func (s *Service) createSession(ctx context.Context, oldToken string, p Principal) (string, *Principal, error) {
	newToken, err := s.sessions.Regenerate(ctx, oldToken)
	if err != nil {
		return "", nil, apperror.OperationFailed(err)
	}
	d := &session.Data{UserID: p.UserID, Username: p.Username, IsAdmin: true}
	if err := s.sessions.Save(ctx, newToken, d); err != nil {
		return "", nil, apperror.OperationFailed(err)
	}
	return newToken, &p, nil
}

// Logout destroys the server-side session. Failures are reported, not
// swallowed.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Destroy(ctx, token); err != nil {
		return apperror.OperationFailed(err)
	}
	return nil
}

// SessionInfo answers the "am I logged in" probe with the same validity
// rules as Authorize.
type SessionInfo struct {
	Username string `json:"username"`
	IsValid  bool   `json:"isValid"`
}

func (s *Service) Info(ctx context.Context, token string) (*SessionInfo, error) {
	p, err := s.AuthorizeToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &SessionInfo{Username: p.Username, IsValid: true}, nil
}

// ChangeCredentials re-verifies the current password, then applies a new
// username and/or password. Username uniqueness is left to the write itself.
// On a username change the live session is updated and persisted so the
// change shows up without a re-login.
func (s *Service) ChangeCredentials(ctx context.Context, token, currentPassword string, newUsername, newPassword *string) (string, error) {
	d, err := s.sessions.Get(ctx, token)
	if err != nil {
		return "", apperror.OperationFailed(err)
	}
	p, err := Authorize(d)
	if err != nil {
		return "", err
	}
	if newUsername == nil && newPassword == nil {
		return "", apperror.Validation("nothing to change")
	}

	admin, err := s.admins.FindAdminByID(ctx, p.UserID)
	if err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			return "", apperror.Unauthorized()
		}
		return "", err
	}
	// Federated-only accounts have no local password to verify against.
	if admin.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(currentPassword)) != nil {
		return "", apperror.Unauthorized()
	}

	cols := map[string]any{}
	username := admin.Username
	if newUsername != nil {
		v := strings.TrimSpace(*newUsername)
		if v == "" {
			return "", apperror.Validation("username must not be blank")
		}
		if v != admin.Username {
			cols["username"] = v
			username = v
		}
	}
	if newPassword != nil {
		if strings.TrimSpace(*newPassword) == "" {
			return "", apperror.Validation("password must not be blank")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*newPassword), s.cost)
		if err != nil {
			return "", apperror.OperationFailed(err)
		}
		cols["password_hash"] = string(hash)
	}
	if len(cols) == 0 {
		return username, nil
	}

	if err := s.admins.UpdateAdminCredentials(ctx, admin.ID, cols); err != nil {
		return "", err
	}

	if username != admin.Username {
		d.Username = username
		if err := s.sessions.Save(ctx, token, d); err != nil {
			return "", apperror.OperationFailed(err)
		}
	}
	return username, nil
}
