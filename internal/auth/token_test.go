package auth

import (
	"testing"
	"time"

	"github.com/teamflow/realtime/internal/domain"
	"github.com/teamflow/realtime/internal/store"
)

type fakeUsers struct {
	users map[domain.UserID]*domain.User
}

func (f *fakeUsers) GetUser(id domain.UserID) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, store.ErrUserNotFound
}

func newTestValidator() (*Validator, *fakeUsers) {
	users := &fakeUsers{users: map[domain.UserID]*domain.User{
		"u1": {ID: "u1", FullName: "Alice Nguyen", Role: domain.RoleUser},
		"u2": {ID: "u2", FullName: "Bo Tran", Role: domain.RoleAdmin},
	}}
	return NewValidator("test-secret", users), users
}

func TestValidator_Resolve(t *testing.T) {
	v, _ := newTestValidator()

	token, err := Sign("test-secret", "u1", time.Minute)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	p := v.Resolve(token)
	if p == nil {
		t.Fatal("Resolve() returned anonymous for a valid token")
	}
	if p.ID != "u1" {
		t.Errorf("principal ID = %q, want u1", p.ID)
	}
	if p.Name != "Alice Nguyen" {
		t.Errorf("principal Name = %q, want Alice Nguyen", p.Name)
	}
	if p.Admin {
		t.Error("regular user resolved with admin flag")
	}
}

func TestValidator_ResolveAdmin(t *testing.T) {
	v, _ := newTestValidator()

	token, err := Sign("test-secret", "u2", time.Minute)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	p := v.Resolve(token)
	if p == nil {
		t.Fatal("Resolve() returned anonymous for a valid token")
	}
	if !p.Admin {
		t.Error("admin user resolved without admin flag")
	}
}

func TestValidator_ResolveDegradesToAnonymous(t *testing.T) {
	v, _ := newTestValidator()

	expired, err := Sign("test-secret", "u1", -time.Minute)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	wrongKey, err := Sign("other-secret", "u1", time.Minute)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	unknownUser, err := Sign("test-secret", "ghost", time.Minute)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"expired", expired},
		{"wrong key", wrongKey},
		{"unknown user", unknownUser},
	}
	for _, tt := range tests {
		if p := v.Resolve(tt.token); p != nil {
			t.Errorf("%s: Resolve() = %+v, want anonymous", tt.name, p)
		}
	}
}
