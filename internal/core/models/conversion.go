package models

import "github.com/Nzyazin/currency/pkg/money"

// ConversionRequest is the body of POST /convert.
type ConversionRequest struct {
	From money.Money `json:"from"`
	To   string      `json:"to"`
}

// SupportedCurrencies is the body of GET /supported.
type SupportedCurrencies struct {
	CurrencyCodes []string `json:"currency_codes"`
}
