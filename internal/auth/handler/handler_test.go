package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fieldvisits_backend/internal/auth"
	"fieldvisits_backend/internal/auth/service"
	"fieldvisits_backend/internal/auth/transport"
	authvalidator "fieldvisits_backend/internal/auth/validator"
	"fieldvisits_backend/platform/apperr"
	"fieldvisits_backend/platform/httpkit"
	"fieldvisits_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var adminID = uuid.MustParse("5c0d2f5e-8f57-4a8e-9d5b-0b0a4f1f3c11")

type stubUsers struct {
	err error

	gotEmail    string
	gotPassword string
	gotCreate   service.CreateUserInput
	gotActor    uuid.UUID
	gotDeleted  uuid.UUID
}

func (s *stubUsers) profile() auth.Profile {
	return auth.Profile{ID: adminID, Email: "admin@example.com", Name: "Admin", Role: auth.RoleAdmin, CreatedAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)}
}

func (s *stubUsers) SignIn(_ context.Context, email, password string) (string, auth.Profile, error) {
	s.gotEmail, s.gotPassword = email, password
	if s.err != nil {
		return "", auth.Profile{}, s.err
	}
	return "signed-token", s.profile(), nil
}

func (s *stubUsers) GetMe(context.Context, uuid.UUID) (auth.Profile, error) {
	return s.profile(), s.err
}

func (s *stubUsers) ListUsers(context.Context) ([]auth.Profile, error) {
	return []auth.Profile{s.profile()}, s.err
}

func (s *stubUsers) CreateUser(_ context.Context, in service.CreateUserInput) (auth.Profile, error) {
	s.gotCreate = in
	if s.err != nil {
		return auth.Profile{}, s.err
	}
	return auth.Profile{ID: uuid.New(), Email: in.Email, Name: in.Name, Role: in.Role}, nil
}

func (s *stubUsers) DeleteUser(_ context.Context, actorID, userID uuid.UUID) error {
	s.gotActor, s.gotDeleted = actorID, userID
	return s.err
}

func newRouter(t *testing.T, svc *stubUsers) *gin.Engine {
	t.Helper()
	val := validator.New()
	if err := authvalidator.Register(val); err != nil {
		t.Fatalf("register validators: %v", err)
	}
	h := New(svc, val)

	r := gin.New()
	h.RegisterRoutes(r.Group("/auth"))
	protected := r.Group("", func(c *gin.Context) {
		httpkit.SetIdentity(c, adminID, auth.RoleAdmin, "Admin")
		c.Next()
	})
	protected.GET("/users/me", h.GetMe)
	h.RegisterUserRoutes(protected.Group("/users"))
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginReturnsTokenAndUser(t *testing.T) {
	svc := &stubUsers{}
	w := do(newRouter(t, svc), http.MethodPost, "/auth/login", `{"email":"admin@example.com","password":"secreto1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp transport.AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token != "signed-token" || resp.User.Role != auth.RoleAdmin {
		t.Errorf("response = %+v", resp)
	}
	if svc.gotEmail != "admin@example.com" || svc.gotPassword != "secreto1" {
		t.Errorf("service got %q/%q", svc.gotEmail, svc.gotPassword)
	}
}

func TestLoginErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"malformed json", `{"email":`, nil, http.StatusBadRequest},
		{"invalid email", `{"email":"nope","password":"x"}`, nil, http.StatusBadRequest},
		{"bad credentials", `{"email":"a@example.com","password":"x"}`, apperr.Unauthorized("Credenciales inválidas"), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newRouter(t, &stubUsers{err: tt.err}), http.MethodPost, "/auth/login", tt.body)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestGetMe(t *testing.T) {
	w := do(newRouter(t, &stubUsers{}), http.MethodGet, "/users/me", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), adminID.String()) {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestCreateUserValidatesRole(t *testing.T) {
	svc := &stubUsers{}
	r := newRouter(t, svc)

	w := do(r, http.MethodPost, "/users", `{"email":"new@example.com","password":"secreto1","name":"Nuevo","role":"OWNER"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown role status = %d", w.Code)
	}

	w = do(r, http.MethodPost, "/users", `{"email":"new@example.com","password":"secreto1","name":"Nuevo","role":"AGENT"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if svc.gotCreate.Role != auth.RoleAgent || svc.gotCreate.Email != "new@example.com" {
		t.Errorf("service got %+v", svc.gotCreate)
	}
}

func TestDeleteUser(t *testing.T) {
	target := uuid.New()
	svc := &stubUsers{}
	w := do(newRouter(t, svc), http.MethodDelete, "/users/"+target.String(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if svc.gotActor != adminID || svc.gotDeleted != target {
		t.Errorf("actor = %s, deleted = %s", svc.gotActor, svc.gotDeleted)
	}

	w = do(newRouter(t, &stubUsers{err: apperr.BadRequest("No puedes eliminar tu propio usuario")}), http.MethodDelete, "/users/"+adminID.String(), "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("self delete status = %d", w.Code)
	}

	w = do(newRouter(t, &stubUsers{}), http.MethodDelete, "/users/not-a-uuid", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", w.Code)
	}
}
