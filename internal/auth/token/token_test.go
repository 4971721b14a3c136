package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestIssueAccessCarriesPrincipalClaims(t *testing.T) {
	subject := Subject{UserID: uuid.New(), Role: "ADMIN", Name: "Daniel"}
	raw, err := IssueAccess(subject, time.Hour, "secret", time.Now())
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	parsed, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)

	want := map[string]string{"sub": subject.UserID.String(), "role": "ADMIN", "name": "Daniel", "type": AccessTokenType}
	for k, v := range want {
		if claims[k] != v {
			t.Errorf("claim %s = %v, want %s", k, claims[k], v)
		}
	}
}

func TestIssueAccessExpires(t *testing.T) {
	raw, err := IssueAccess(Subject{UserID: uuid.New(), Role: "AGENT"}, time.Minute, "secret", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}
	if _, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil }); err == nil {
		t.Fatal("expected expired token to fail validation")
	}
}
