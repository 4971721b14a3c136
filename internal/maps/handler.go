package maps

import (
	"context"
	"net/http"

	"fieldvisits_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const msgGeocoderUnavailable = "address lookup service unavailable"

// AddressService is what the maps endpoints need from the geocoder.
type AddressService interface {
	SearchAddress(ctx context.Context, query string) ([]AddressSuggestion, error)
	Geocode(ctx context.Context, address string) (Point, bool, error)
}

// Handler exposes address suggestions and single-address geocoding.
type Handler struct {
	svc AddressService
}

func NewHandler(svc AddressService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/address-lookup", h.LookupAddress)
	rg.GET("/geocode", h.Geocode)
}

// LookupAddress handles GET /api/v1/maps/address-lookup?q=...
func (h *Handler) LookupAddress(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.ValidationFailed(c, "query 'q' is required (min 3 chars)", nil)
		return
	}

	results, err := h.svc.SearchAddress(c.Request.Context(), req.Query)
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, msgGeocoderUnavailable, nil)
		return
	}

	httpkit.OK(c, results)
}

// Geocode handles GET /api/v1/maps/geocode?address=... so the property form
// can preview where an address lands before saving.
func (h *Handler) Geocode(c *gin.Context) {
	var req GeocodeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.ValidationFailed(c, "query 'address' is required (min 3 chars)", nil)
		return
	}

	point, found, err := h.svc.Geocode(c.Request.Context(), req.Address)
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, msgGeocoderUnavailable, nil)
		return
	}

	resp := GeocodeResponse{Found: found}
	if found {
		resp.Lat, resp.Lng = &point.Lat, &point.Lng
	}
	httpkit.OK(c, resp)
}
