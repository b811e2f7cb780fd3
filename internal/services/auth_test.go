package services

import (
	"context"
	"testing"
	"time"

	"github.com/harumcare/harumcare-backend/internal/data/repos/testutil"
	userrepo "github.com/harumcare/harumcare-backend/internal/data/repos/user"
	usertypes "github.com/harumcare/harumcare-backend/internal/domain/user"
	"github.com/harumcare/harumcare-backend/internal/platform/ctxutil"
)

func newAuthEnv(t *testing.T) AuthService {
	t.Helper()
	log := testutil.Logger(t)
	gdb := testutil.DB(t)
	ur := userrepo.NewUserRepo(gdb, log)
	return NewAuthService(gdb, log, ur, nil, "test-secret", time.Hour)
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Name:     "Budi Santoso",
		Username: "budi",
		Email:    "budi@example.com",
		Password: "rahasia123",
		Phone:    "081234567890",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	svc := newAuthEnv(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != usertypes.RoleUser {
		t.Fatalf("public registration must create a regular user, got %s", u.Role)
	}
	if u.Password == "rahasia123" {
		t.Fatal("password stored in plaintext")
	}

	result, err := svc.Login(ctx, "budi", "rahasia123")
	if err != nil {
		t.Fatalf("login by username: %v", err)
	}
	if result.Token == "" || result.UserID != u.ID {
		t.Fatalf("unexpected login result: %+v", result)
	}

	if _, err := svc.Login(ctx, "budi@example.com", "rahasia123"); err != nil {
		t.Fatalf("login by email: %v", err)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	t.Parallel()
	svc := newAuthEnv(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegisterInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "budi", "salah"); err == nil {
		t.Fatal("expected unauthorized for wrong password")
	}
	if _, err := svc.Login(ctx, "nonexistent", "rahasia123"); err == nil {
		t.Fatal("expected unauthorized for unknown user")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	t.Parallel()
	svc := newAuthEnv(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegisterInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	dup := validRegisterInput()
	dup.Email = "other@example.com"
	if _, err := svc.Register(ctx, dup); err == nil {
		t.Fatal("expected rejection of duplicate username")
	}

	dup = validRegisterInput()
	dup.Username = "other"
	if _, err := svc.Register(ctx, dup); err == nil {
		t.Fatal("expected rejection of duplicate email")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()
	svc := newAuthEnv(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	result, err := svc.Login(ctx, "budi", "rahasia123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	authedCtx, err := svc.SetContextFromToken(ctx, result.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	rd := ctxutil.GetRequestData(authedCtx)
	if rd == nil || rd.UserID != u.ID || rd.Role != usertypes.RoleUser {
		t.Fatalf("unexpected request data: %+v", rd)
	}

	if _, err := svc.SetContextFromToken(ctx, "not-a-token"); err == nil {
		t.Fatal("expected rejection of malformed token")
	}
	if _, err := svc.SetContextFromToken(ctx, result.Token+"x"); err == nil {
		t.Fatal("expected rejection of tampered token")
	}
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()
	svc := newAuthEnv(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	authedCtx := ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: u.ID, Role: u.Role, Name: u.Name})

	name := "Budi S."
	badEmail := "not-an-email"
	if _, err := svc.UpdateProfile(authedCtx, UpdateProfileInput{Email: &badEmail}); err == nil {
		t.Fatal("expected rejection of invalid email")
	}

	updated, err := svc.UpdateProfile(authedCtx, UpdateProfileInput{Name: &name})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Name != name {
		t.Fatalf("name not updated: %s", updated.Name)
	}
}
