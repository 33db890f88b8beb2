package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// MenuItem is a single orderable dish. Price is expressed in currency minor units.
type MenuItem struct {
	Name  string
	Price int64
}

// ImageFile is an uploaded image held in memory until it is handed to the remote API.
type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Restaurant is the validated, typed restaurant record produced by the form schema.
type Restaurant struct {
	RestaurantName        string
	City                  string
	Country               string
	DeliveryPrice         int64
	EstimatedDeliveryTime int64
	Cuisines              []string
	MenuItems             []MenuItem
	ImageURL              string
	ImageFile             *ImageFile
}

// HasImage reports whether at least one image source is present.
func (r Restaurant) HasImage() bool {
	return strings.TrimSpace(r.ImageURL) != "" || r.ImageFile != nil
}

// Numeric holds the textual form of a number as typed by a user or as served
// by the remote API, which sends some numeric fields as JSON strings.
type Numeric string

// NumericFromInt formats an integer as Numeric.
func NumericFromInt(v int64) Numeric {
	return Numeric(strconv.FormatInt(v, 10))
}

// UnmarshalJSON accepts both JSON strings and JSON numbers.
func (n *Numeric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Numeric(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*n = Numeric(num.String())
	return nil
}

// IsBlank reports whether no value was supplied.
func (n Numeric) IsBlank() bool {
	return strings.TrimSpace(string(n)) == ""
}

// Int64 parses the whole value strictly.
func (n Numeric) Int64() (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(string(n)), 10, 64)
}

// LeadingInt parses the integer prefix of the value the way browsers' parseInt
// does: leading whitespace and an optional sign are accepted and parsing stops
// at the first non-digit, so "5.99" yields 5. ok is false when no digit leads.
func (n Numeric) LeadingInt() (value int64, ok bool) {
	s := strings.TrimLeft(string(n), " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// PersistedMenuItem is a menu item as stored by the remote API.
type PersistedMenuItem struct {
	ID    string  `json:"_id,omitempty"`
	Name  string  `json:"name"`
	Price Numeric `json:"price"`
}

// PersistedRestaurant is the restaurant record served by the remote API.
type PersistedRestaurant struct {
	ID                    string              `json:"_id,omitempty"`
	User                  string              `json:"user,omitempty"`
	RestaurantName        string              `json:"restaurantName"`
	City                  string              `json:"city"`
	Country               string              `json:"country"`
	DeliveryPrice         Numeric             `json:"deliveryPrice"`
	EstimatedDeliveryTime Numeric             `json:"estimatedDeliveryTime"`
	Cuisines              []string            `json:"cuisines"`
	MenuItems             []PersistedMenuItem `json:"menuItems"`
	ImageURL              string              `json:"imageUrl"`
	LastUpdated           *time.Time          `json:"lastUpdated,omitempty"`
}
