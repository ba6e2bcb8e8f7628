package wetlib

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// LocationRecord is a geotagged site as served by the remote API.
type LocationRecord struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Type        string  `json:"type"`
	City        string  `json:"city"`
}

// Validate checks the record fields that the remote API would reject.
func (r LocationRecord) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&r.Longitude, validation.Min(-180.0), validation.Max(180.0)),
	)
	if err != nil {
		return &ValidationError{Subject: "location record", Err: err}
	}
	return nil
}
