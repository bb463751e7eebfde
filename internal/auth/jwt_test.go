package auth

import (
	"testing"

	"github.com/google/uuid"

	"github.com/campus-research/portal/internal/models"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("test-secret", 24)
	userID := uuid.New()

	token, err := svc.Generate(userID, "maya", models.RoleParticipant)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if claims.UserID != userID || claims.Username != "maya" || claims.Role != models.RoleParticipant {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateRejectsBadTokens(t *testing.T) {
	svc := NewJWTService("test-secret", 24)

	if _, err := svc.Validate("not.a.token"); err != ErrInvalidToken {
		t.Fatalf("garbage token = %v, want ErrInvalidToken", err)
	}

	other := NewJWTService("different-secret", 24)
	token, err := other.Generate(uuid.New(), "sam", models.RoleResearcher)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if _, err := svc.Validate(token); err != ErrInvalidToken {
		t.Fatalf("wrong secret = %v, want ErrInvalidToken", err)
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewJWTService("test-secret", -1)
	token, err := svc.Generate(uuid.New(), "sam", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if _, err := svc.Validate(token); err != ErrInvalidToken {
		t.Fatalf("expired token = %v, want ErrInvalidToken", err)
	}
}
