package maps

// LookupRequest represents the query parameters from the frontend.
type LookupRequest struct {
	Query string `form:"q" binding:"required,min=3"`
}

// GeocodeRequest carries the free-form address to resolve.
type GeocodeRequest struct {
	Address string `form:"address" binding:"required,min=3"`
}

// GeocodeResponse reports the resolved position; Lat and Lng are omitted
// when nothing matched.
type GeocodeResponse struct {
	Found bool     `json:"found"`
	Lat   *float64 `json:"latitude,omitempty"`
	Lng   *float64 `json:"longitude,omitempty"`
}

// AddressSuggestion is the normalized data returned to the frontend form.
type AddressSuggestion struct {
	Label       string `json:"label"`
	Street      string `json:"street"`
	HouseNumber string `json:"houseNumber"`
	ZipCode     string `json:"zipCode"`
	City        string `json:"city"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Point is a geocoded position in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

type nominatimAddress struct {
	Road         string `json:"road"`
	HouseNumber  string `json:"house_number"`
	Postcode     string `json:"postcode"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	Hamlet       string `json:"hamlet"`
	Suburb       string `json:"suburb"`
}

// nominatimResponse mirrors the relevant parts of the OSM search payload.
type nominatimResponse struct {
	DisplayName string           `json:"display_name"`
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	Address     nominatimAddress `json:"address"`
}
