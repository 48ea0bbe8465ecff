package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/isp-dashboard/internal/config"
	"github.com/mamadbah2/isp-dashboard/internal/domain/models"
)

type fakeUsers struct {
	users []models.User
}

func (f *fakeUsers) FindUser(_ context.Context, match func(models.User) bool) (models.User, bool, error) {
	for _, u := range f.users {
		if match(u) {
			return u, true, nil
		}
	}
	return models.User{}, false, nil
}

func newTestService(t *testing.T) (*Service, *fakeUsers) {
	t.Helper()
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := &fakeUsers{users: []models.User{
		{ID: "5", Username: "agentA", Password: hash, Role: models.RolePartner, AgentRate: 10, IsAgent: true},
		{ID: "6", Username: "legacy", Password: "plaintext", Role: models.RoleAdmin},
	}}
	tokens, err := NewTokenManager(config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	return NewService(users, tokens, nil), users
}

func TestLoginRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Login(ctx, " agentA ", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Principal.ID != "5" || !session.Principal.Can(models.CapabilityAgent) {
		t.Fatalf("principal = %+v", session.Principal)
	}

	principal, err := svc.Resolve(ctx, session.Token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if principal.Username != "agentA" || principal.AgentRate != 10 {
		t.Fatalf("resolved = %+v", principal)
	}
}

func TestLoginRejects(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "agentA", "nope"},
		{"unknown user", "ghost", "hunter2"},
		{"plain-text stored password", "legacy", "plaintext"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Login(ctx, tc.username, tc.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestResolveSeesCurrentUser(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	session, err := svc.Login(ctx, "agentA", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	users.users[0].AgentRate = 12
	principal, err := svc.Resolve(ctx, session.Token)
	if err != nil || principal.AgentRate != 12 {
		t.Fatalf("principal = %+v, err = %v", principal, err)
	}

	users.users = users.users[1:]
	if _, err := svc.Resolve(ctx, session.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("deleted user err = %v", err)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	m, err := NewTokenManager(config.AuthConfig{JWTSecret: "a", TokenTTL: time.Minute})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	other, _ := NewTokenManager(config.AuthConfig{JWTSecret: "b", TokenTTL: time.Minute})

	token, err := other.GenerateToken("1", "root", models.RoleAdmin)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.ValidateToken(token); err == nil {
		t.Error("token signed with another secret accepted")
	}

	token, _ = m.GenerateToken("1", "root", models.RoleAdmin)
	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := m.ValidateToken(token); err == nil {
		t.Error("expired token accepted")
	}

	if _, err := m.ValidateToken(strings.Repeat("x", 20)); err == nil {
		t.Error("garbage accepted")
	}
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	if _, err := NewTokenManager(config.AuthConfig{TokenTTL: time.Hour}); err == nil {
		t.Fatal("empty secret accepted")
	}
}
