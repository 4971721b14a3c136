package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fieldvisits_backend/internal/properties/repository"
	"fieldvisits_backend/internal/properties/service"
	"fieldvisits_backend/internal/properties/transport"
	"fieldvisits_backend/platform/apperr"
	"fieldvisits_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubService struct {
	err      error
	gotInput service.Input
	gotID    uuid.UUID
}

func (s *stubService) List(context.Context) ([]repository.Property, error) {
	return []repository.Property{{ID: uuid.New(), Address: "Calle 45 # 13-20"}}, s.err
}

func (s *stubService) Get(_ context.Context, id uuid.UUID) (repository.Property, error) {
	s.gotID = id
	return repository.Property{ID: id, Address: "Calle 45 # 13-20"}, s.err
}

func (s *stubService) Create(_ context.Context, in service.Input) (repository.Property, error) {
	s.gotInput = in
	return repository.Property{ID: uuid.New(), Address: in.Address}, s.err
}

func (s *stubService) Update(_ context.Context, id uuid.UUID, in service.Input) (repository.Property, error) {
	s.gotID, s.gotInput = id, in
	return repository.Property{ID: id, Address: in.Address}, s.err
}

func (s *stubService) Delete(_ context.Context, id uuid.UUID) error {
	s.gotID = id
	return s.err
}

func newRouter(svc *stubService) *gin.Engine {
	r := gin.New()
	New(svc, validator.New()).RegisterRoutes(r.Group("/properties"))
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

func TestCreateProperty(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCoords bool
	}{
		{"address only", `{"address":"Calle 45 # 13-20","client":"María"}`, http.StatusCreated, false},
		{"with coordinates", `{"address":"Calle 45 # 13-20","lat":4.6486,"lng":-74.0628}`, http.StatusCreated, true},
		{"latitude without longitude", `{"address":"Calle 45 # 13-20","lat":4.6486}`, http.StatusBadRequest, false},
		{"latitude out of range", `{"address":"Calle 45 # 13-20","lat":95,"lng":-74.0628}`, http.StatusBadRequest, false},
		{"missing address", `{"client":"María"}`, http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			w := do(newRouter(svc), http.MethodPost, "/properties", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusCreated && (svc.gotInput.Coords != nil) != tt.wantCoords {
				t.Errorf("coords = %+v", svc.gotInput.Coords)
			}
		})
	}
}

func TestUpdatePropertyPassesID(t *testing.T) {
	svc := &stubService{}
	id := uuid.New()
	w := do(newRouter(svc), http.MethodPut, "/properties/"+id.String(), `{"address":"Carrera 7 # 72-10"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if svc.gotID != id || svc.gotInput.Address != "Carrera 7 # 72-10" {
		t.Errorf("service got %s %+v", svc.gotID, svc.gotInput)
	}
}

func TestDeleteProperty(t *testing.T) {
	id := uuid.New()

	w := do(newRouter(&stubService{}), http.MethodDelete, "/properties/"+id.String(), "")
	var msg transport.MessageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &msg); err != nil || w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if msg.Message != "Inmueble eliminado correctamente" {
		t.Errorf("message = %q", msg.Message)
	}

	inUse := apperr.Validation("No se puede eliminar el inmueble porque tiene 2 visita(s) asociada(s).")
	w = do(newRouter(&stubService{err: inUse}), http.MethodDelete, "/properties/"+id.String(), "")
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "validation_error") {
		t.Fatalf("in use: status = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(newRouter(&stubService{}), http.MethodDelete, "/properties/123", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", w.Code)
	}
}

func TestListProperties(t *testing.T) {
	w := do(newRouter(&stubService{}), http.MethodGet, "/properties", "")
	var items []transport.PropertyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil || len(items) != 1 {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}
