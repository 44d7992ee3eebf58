package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/resumind-client/internal/core/domain"
)

func TestLoginRequiresUsername(t *testing.T) {
	api := &authAPIFake{}
	uc := NewAuthUseCase(api, credsFake{}, &sessionFake{}, nil, nil)

	if err := uc.Login(context.Background(), "   ", "pw"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(api.logins) != 0 {
		t.Fatalf("validation failure must not reach the api")
	}
	if err := uc.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	valid := domain.RegisterInput{Username: "alice_1", Email: "alice@example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!"}
	cases := []struct {
		name   string
		mutate func(*domain.RegisterInput)
		msg    string
	}{
		{"short username", func(in *domain.RegisterInput) { in.Username = "al" }, msgUsernameFormat},
		{"bad username char", func(in *domain.RegisterInput) { in.Username = "alice!" }, msgUsernameFormat},
		{"bad email", func(in *domain.RegisterInput) { in.Email = "alice@example" }, msgEmailFormat},
		{"no special", func(in *domain.RegisterInput) { in.Password, in.ConfirmPassword = "Passw0rd", "Passw0rd" }, msgPasswordStrength},
		{"no upper", func(in *domain.RegisterInput) { in.Password, in.ConfirmPassword = "passw0rd!", "passw0rd!" }, msgPasswordStrength},
		{"too short", func(in *domain.RegisterInput) { in.Password, in.ConfirmPassword = "Pa0!", "Pa0!" }, msgPasswordStrength},
		{"mismatch", func(in *domain.RegisterInput) { in.ConfirmPassword = "Passw0rd?" }, msgPasswordMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &authAPIFake{}
			uc := NewAuthUseCase(api, credsFake{}, &sessionFake{}, nil, nil)
			input := valid
			tc.mutate(&input)

			err := uc.Register(context.Background(), input)
			if !domain.IsKind(err, domain.ErrInvalidInput) || !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("expected %q, got %v", tc.msg, err)
			}
			if len(api.registers) != 0 {
				t.Fatalf("invalid input reached the api")
			}
		})
	}
}

func TestRegisterLogsInAfterwards(t *testing.T) {
	api := &authAPIFake{}
	uc := NewAuthUseCase(api, credsFake{}, &sessionFake{}, nil, nil)

	err := uc.Register(context.Background(), domain.RegisterInput{
		Username: "alice_1", Email: "alice@example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(api.registers) != 1 || len(api.logins) != 1 || api.logins[0] != "alice_1" {
		t.Fatalf("expected register then login, got %+v", api)
	}
}

func TestLogoutClearsSessionOnlyOnSuccess(t *testing.T) {
	api := &authAPIFake{logoutErr: errServerDown}
	session := &sessionFake{snapshot: &domain.SessionSnapshot{SelectedJobTitle: "Recruiter"}}
	uc := NewAuthUseCase(api, credsFake{}, session, nil, nil)

	if err := uc.Logout(context.Background()); !errors.Is(err, errServerDown) {
		t.Fatalf("expected logout failure, got %v", err)
	}
	if session.snapshot == nil {
		t.Fatalf("failed logout must keep the session")
	}

	api.logoutErr = nil
	if err := uc.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if session.snapshot != nil {
		t.Fatalf("logout must clear the session")
	}
}

func TestStatusReportsExpiry(t *testing.T) {
	exp := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	uc := NewAuthUseCase(&authAPIFake{}, credsFake{creds: domain.Credentials{Access: "jwt", Refresh: "r"}}, &sessionFake{},
		func(token string) (time.Time, bool) { return exp, token == "jwt" }, nil)

	status := uc.Status()
	if !status.Authenticated || !status.CanRefresh || !status.AccessExpiry.Equal(exp) {
		t.Fatalf("unexpected status: %+v", status)
	}

	anon := NewAuthUseCase(&authAPIFake{}, credsFake{}, &sessionFake{}, nil, nil).Status()
	if anon.Authenticated || anon.CanRefresh || !anon.AccessExpiry.IsZero() {
		t.Fatalf("unexpected anonymous status: %+v", anon)
	}
}
