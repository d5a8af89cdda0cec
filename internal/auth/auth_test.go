package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"dex-scalp-assistant/internal/database"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, err := m.GenerateAccessToken(UserClaims{UserID: "user-1", Email: "a@b.com"})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := m.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "a@b.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestJWTExpired(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute)
	token, err := m.GenerateAccessToken(UserClaims{UserID: "user-1"})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := m.ValidateAccessToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret-a", time.Hour).GenerateAccessToken(UserClaims{UserID: "u"})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := NewJWTManager("secret-b", time.Hour).ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestPasswordHashAndVerify(t *testing.T) {
	p := NewPasswordManager(bcrypt.MinCost, 8)

	hash, err := p.HashPassword("Correct-Horse1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !p.VerifyPassword("Correct-Horse1", hash) {
		t.Error("correct password rejected")
	}
	if p.VerifyPassword("wrong-password", hash) {
		t.Error("wrong password accepted")
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	p := NewPasswordManager(bcrypt.MinCost, 8)

	tests := []struct {
		password string
		wantErr  bool
	}{
		{"Str0ng-pass", false},
		{"short1A", true},      // too short
		{"alllowercase", true}, // one character class
		{"Upper1lower", false}, // three classes
	}
	for _, tt := range tests {
		err := p.ValidatePasswordStrength(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePasswordStrength(%q) err = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}

// fakeUserStore is an in-memory UserStore for service tests
type fakeUserStore struct {
	users map[string]*database.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*database.User)}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *database.User) error {
	f.users[user.Email] = user
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	return nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*database.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, database.ErrNotFound
	}
	return user, nil
}

func testService() *Service {
	return NewService(
		newFakeUserStore(),
		NewPasswordManager(bcrypt.MinCost, 8),
		NewJWTManager("test-secret", time.Hour),
		zerolog.Nop(),
	)
}

func TestRegisterAndLogin(t *testing.T) {
	s := testService()
	ctx := context.Background()

	reg, err := s.Register(ctx, RegisterRequest{Email: "Trader@Example.com", Password: "Str0ng-pass"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.AccessToken == "" || reg.TokenType != "Bearer" {
		t.Errorf("register response = %+v", reg)
	}
	if reg.Email != "trader@example.com" {
		t.Errorf("email not normalized: %s", reg.Email)
	}

	login, err := s.Login(ctx, LoginRequest{Email: "trader@example.com", Password: "Str0ng-pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.UserID != reg.UserID {
		t.Errorf("login user %s != registered user %s", login.UserID, reg.UserID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := testService()
	ctx := context.Background()

	if _, err := s.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "Str0ng-pass"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := s.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "Str0ng-pass"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	var authErr AuthError
	_, err := testService().Register(context.Background(), RegisterRequest{Email: "a@b.com", Password: "weak"})
	if !errors.As(err, &authErr) || authErr.Code != ErrWeakPassword.Code {
		t.Errorf("err = %v, want weak password error", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	s := testService()
	ctx := context.Background()

	s.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "Str0ng-pass"})
	if _, err := s.Login(ctx, LoginRequest{Email: "a@b.com", Password: "Wrong-pass1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := s.Login(ctx, LoginRequest{Email: "nobody@b.com", Password: "Str0ng-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v, want ErrInvalidCredentials", err)
	}
}
