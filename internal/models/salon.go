package models

import "strconv"

type Salon struct {
	ID            int64   `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	StartingPrice float64 `json:"starting_price" yaml:"starting_price"`
	ImageURL      string  `json:"image_url" yaml:"image_url"`
	OpeningTime   string  `json:"opening_time" yaml:"opening_time"`
	ClosingTime   string  `json:"closing_time" yaml:"closing_time"`
	BarberCount   int     `json:"barber_count" yaml:"barber_count"`
	Latitude      float64 `json:"latitude" yaml:"latitude"`
	Longitude     float64 `json:"longitude" yaml:"longitude"`

	// DistanceMeters is filled by nearby searches only.
	DistanceMeters float64 `json:"distance_meters,omitempty" yaml:"-"`
}

// PriceLabel renders the starting price without trailing zeros.
func (s Salon) PriceLabel() string {
	return strconv.FormatFloat(s.StartingPrice, 'f', -1, 64)
}
