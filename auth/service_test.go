package auth

import (
	"context"
	"testing"
	"time"

	"radio_fleet_tool/apperror"
	"radio_fleet_tool/models"
	"radio_fleet_tool/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockAdminStore struct {
	findByUsernameFn    func(ctx context.Context, username string) (*models.AdminUser, error)
	findByIDFn          func(ctx context.Context, id string) (*models.AdminUser, error)
	updateCredentialsFn func(ctx context.Context, id string, cols map[string]any) error
	findOrCreateFn      func(ctx context.Context, username string) (*models.AdminUser, error)
}

func (m *mockAdminStore) FindAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockAdminStore) FindAdminByID(ctx context.Context, id string) (*models.AdminUser, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NotFound("admin not found")
}

func (m *mockAdminStore) UpdateAdminCredentials(ctx context.Context, id string, cols map[string]any) error {
	if m.updateCredentialsFn != nil {
		return m.updateCredentialsFn(ctx, id, cols)
	}
	return nil
}

func (m *mockAdminStore) FindOrCreateFederatedAdmin(ctx context.Context, username string) (*models.AdminUser, error) {
	if m.findOrCreateFn != nil {
		return m.findOrCreateFn(ctx, username)
	}
	return &models.AdminUser{ID: "fed-1", Username: username}, nil
}

func newTestAuth(t *testing.T, admins AdminStore) (*Service, *session.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	sessions := session.NewStore(rdb, time.Hour)
	svc, err := NewService(admins, sessions, bcrypt.MinCost)
	require.NoError(t, err)
	return svc, sessions, mr
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func strptr(s string) *string { return &s }

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name string
		data *session.Data
		ok   bool
	}{
		{"nil session", nil, false},
		{"empty session", &session.Data{}, false},
		{"blank user id", &session.Data{UserID: "   ", IsAdmin: true}, false},
		{"admin flag not set", &session.Data{UserID: "u-1", IsAdmin: false}, false},
		{"handshake-only session", &session.Data{State: "abc"}, false},
		{"valid", &session.Data{UserID: "u-1", Username: "anna", IsAdmin: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Authorize(tt.data)
			if !tt.ok {
				require.Error(t, err)
				assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u-1", p.UserID)
			assert.Equal(t, "anna", p.Username)
		})
	}
}

func TestLoginUniformFailure(t *testing.T) {
	ctx := context.Background()
	admins := &mockAdminStore{findByUsernameFn: func(_ context.Context, username string) (*models.AdminUser, error) {
		switch username {
		case "anna":
			return &models.AdminUser{ID: "u-1", Username: "anna", PasswordHash: hashFor(t, "correct")}, nil
		case "federated":
			return &models.AdminUser{ID: "u-2", Username: "federated"}, nil
		default:
			return nil, nil
		}
	}}
	svc, _, _ := newTestAuth(t, admins)

	// Unknown user, wrong password, and a password-less federated account
	// all fail with the identical error.
	var msgs []string
	for _, in := range []struct{ user, pass string }{
		{"nobody", "whatever"},
		{"anna", "wrong"},
		{"federated", "anything"},
	} {
		_, p, err := svc.Login(ctx, "", in.user, in.pass)
		require.Error(t, err)
		assert.Nil(t, p)
		assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
		msgs = append(msgs, err.Error())
	}
	assert.Equal(t, msgs[0], msgs[1])
	assert.Equal(t, msgs[1], msgs[2])
}

func TestLoginIssuesFreshSession(t *testing.T) {
	ctx := context.Background()
	admins := &mockAdminStore{findByUsernameFn: func(_ context.Context, _ string) (*models.AdminUser, error) {
		return &models.AdminUser{ID: "u-1", Username: "anna", PasswordHash: hashFor(t, "correct")}, nil
	}}
	svc, sessions, _ := newTestAuth(t, admins)

	// A pre-login session with transient handshake state.
	oldToken, err := sessions.New(ctx, &session.Data{State: "abc", ReturnTo: "/radios"})
	require.NoError(t, err)

	newToken, p, err := svc.Login(ctx, oldToken, "anna", "correct")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "u-1", p.UserID)
	assert.NotEqual(t, oldToken, newToken)

	// The old token is dead: a fixated token never becomes authenticated.
	gone, err := sessions.Get(ctx, oldToken)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// The new session carries the principal and nothing else.
	d, err := sessions.Get(ctx, newToken)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, session.Data{UserID: "u-1", Username: "anna", IsAdmin: true}, *d)
}

func TestLoginRegenerateFailureWritesNoPrincipal(t *testing.T) {
	ctx := context.Background()
	admins := &mockAdminStore{findByUsernameFn: func(_ context.Context, _ string) (*models.AdminUser, error) {
		return &models.AdminUser{ID: "u-1", Username: "anna", PasswordHash: hashFor(t, "correct")}, nil
	}}
	svc, sessions, mr := newTestAuth(t, admins)

	oldToken, err := sessions.New(ctx, &session.Data{State: "abc"})
	require.NoError(t, err)

	// Redis starts failing between credential verification and the token
	// rotation.
	mr.SetError("redis gone")
	token, p, err := svc.Login(ctx, oldToken, "anna", "correct")
	require.Error(t, err)
	assert.Empty(t, token)
	assert.Nil(t, p)
	assert.Equal(t, apperror.KindOperationFailed, apperror.KindOf(err))

	// Once Redis is back, the old token must still be unauthenticated.
	mr.SetError("")
	d, err := sessions.Get(ctx, oldToken)
	require.NoError(t, err)
	require.NotNil(t, d)
	_, authErr := Authorize(d)
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(authErr))
}

func TestLogoutAndInfo(t *testing.T) {
	ctx := context.Background()
	svc, sessions, _ := newTestAuth(t, &mockAdminStore{})

	token, err := sessions.New(ctx, &session.Data{UserID: "u-1", Username: "anna", IsAdmin: true})
	require.NoError(t, err)

	info, err := svc.Info(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, &SessionInfo{Username: "anna", IsValid: true}, info)

	require.NoError(t, svc.Logout(ctx, token))

	_, err = svc.Info(ctx, token)
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))

	// Logging out without a session is fine.
	require.NoError(t, svc.Logout(ctx, ""))
}

func TestChangeCredentials(t *testing.T) {
	ctx := context.Background()

	login := func(t *testing.T, admins AdminStore) (*Service, *session.Store, string) {
		t.Helper()
		svc, sessions, _ := newTestAuth(t, admins)
		token, err := sessions.New(ctx, &session.Data{UserID: "u-1", Username: "anna", IsAdmin: true})
		require.NoError(t, err)
		return svc, sessions, token
	}

	localAdmin := func(t *testing.T) *mockAdminStore {
		return &mockAdminStore{findByIDFn: func(_ context.Context, _ string) (*models.AdminUser, error) {
			return &models.AdminUser{ID: "u-1", Username: "anna", PasswordHash: hashFor(t, "correct")}, nil
		}}
	}

	t.Run("requires an authenticated session", func(t *testing.T) {
		svc, _, _ := newTestAuth(t, localAdmin(t))
		_, err := svc.ChangeCredentials(ctx, "no-such-token", "correct", strptr("bob"), nil)
		assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
	})

	t.Run("nothing to change", func(t *testing.T) {
		svc, _, token := login(t, localAdmin(t))
		_, err := svc.ChangeCredentials(ctx, token, "correct", nil, nil)
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})

	t.Run("wrong current password", func(t *testing.T) {
		svc, _, token := login(t, localAdmin(t))
		_, err := svc.ChangeCredentials(ctx, token, "wrong", strptr("bob"), nil)
		assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
	})

	t.Run("federated-only account has no password to verify", func(t *testing.T) {
		admins := &mockAdminStore{findByIDFn: func(_ context.Context, _ string) (*models.AdminUser, error) {
			return &models.AdminUser{ID: "u-1", Username: "anna"}, nil
		}}
		svc, _, token := login(t, admins)
		_, err := svc.ChangeCredentials(ctx, token, "", strptr("bob"), nil)
		assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
	})

	t.Run("session points at a deleted admin", func(t *testing.T) {
		svc, _, token := login(t, &mockAdminStore{})
		_, err := svc.ChangeCredentials(ctx, token, "correct", strptr("bob"), nil)
		assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
	})

	t.Run("blank new values are rejected", func(t *testing.T) {
		svc, _, token := login(t, localAdmin(t))
		_, err := svc.ChangeCredentials(ctx, token, "correct", strptr("  "), nil)
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

		_, err = svc.ChangeCredentials(ctx, token, "correct", nil, strptr(" "))
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})

	t.Run("username change updates the live session", func(t *testing.T) {
		admins := localAdmin(t)
		var gotCols map[string]any
		admins.updateCredentialsFn = func(_ context.Context, id string, cols map[string]any) error {
			assert.Equal(t, "u-1", id)
			gotCols = cols
			return nil
		}
		svc, sessions, token := login(t, admins)

		username, err := svc.ChangeCredentials(ctx, token, "correct", strptr(" bob "), nil)
		require.NoError(t, err)
		assert.Equal(t, "bob", username)
		assert.Equal(t, map[string]any{"username": "bob"}, gotCols)

		d, err := sessions.Get(ctx, token)
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, "bob", d.Username)
	})

	t.Run("password change writes a verifiable hash", func(t *testing.T) {
		admins := localAdmin(t)
		var gotCols map[string]any
		admins.updateCredentialsFn = func(_ context.Context, _ string, cols map[string]any) error {
			gotCols = cols
			return nil
		}
		svc, _, token := login(t, admins)

		username, err := svc.ChangeCredentials(ctx, token, "correct", nil, strptr("new-secret"))
		require.NoError(t, err)
		assert.Equal(t, "anna", username)

		hash, ok := gotCols["password_hash"].(string)
		require.True(t, ok)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-secret")))
		assert.NotContains(t, gotCols, "username")
	})

	t.Run("unchanged username writes nothing", func(t *testing.T) {
		admins := localAdmin(t)
		called := false
		admins.updateCredentialsFn = func(_ context.Context, _ string, _ map[string]any) error {
			called = true
			return nil
		}
		svc, _, token := login(t, admins)

		username, err := svc.ChangeCredentials(ctx, token, "correct", strptr("anna"), nil)
		require.NoError(t, err)
		assert.Equal(t, "anna", username)
		assert.False(t, called)
	})

	t.Run("taken username surfaces as conflict", func(t *testing.T) {
		admins := localAdmin(t)
		admins.updateCredentialsFn = func(_ context.Context, _ string, _ map[string]any) error {
			return apperror.Conflict("a record with this value already exists")
		}
		svc, _, token := login(t, admins)
		_, err := svc.ChangeCredentials(ctx, token, "correct", strptr("taken"), nil)
		assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	})
}
