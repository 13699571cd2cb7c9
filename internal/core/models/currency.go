package models

// Currency describes a supported currency.
type Currency struct {
	Code       string `json:"code" db:"code"`               // ISO 4217, e.g. "USD"
	Name       string `json:"name" db:"name"`
	Symbol     string `json:"symbol" db:"symbol"`
	MinorUnits int64  `json:"minor_units" db:"minor_units"` // digits after the decimal point: 2 for USD, 0 for JPY
}
