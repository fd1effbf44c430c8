package constants

import "strings"

// currencyAliases maps free-text currency names and symbols to ISO 4217
// codes. The LLM is told to emit codes, but drafts built from messy source
// documents still arrive with symbols and spelled-out names.
var currencyAliases = map[string]string{
	"$":               "USD",
	"usd":             "USD",
	"us$":             "USD",
	"dollar":          "USD",
	"dollars":         "USD",
	"dolares":         "USD",
	"€":               "EUR",
	"eur":             "EUR",
	"euro":            "EUR",
	"euros":           "EUR",
	"£":               "GBP",
	"gbp":             "GBP",
	"pound":           "GBP",
	"pounds":          "GBP",
	"mxn":             "MXN",
	"peso":            "MXN",
	"pesos":           "MXN",
	"pesos mexicanos": "MXN",
	"cop":             "COP",
	"pesos colombianos": "COP",
	"ars":             "ARS",
	"clp":             "CLP",
	"pen":             "PEN",
	"soles":           "PEN",
	"brl":             "BRL",
	"reais":           "BRL",
	"cad":             "CAD",
	"jpy":             "JPY",
	"yen":             "JPY",
	"chf":             "CHF",
	"inr":             "INR",
}

// isoCurrencies is the accepted ISO 4217 set. Kept to the codes that show
// up in real RFPs; anything else falls back to the configured default.
var isoCurrencies = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "MXN": {}, "COP": {}, "ARS": {},
	"CLP": {}, "PEN": {}, "BRL": {}, "CAD": {}, "AUD": {}, "JPY": {},
	"CHF": {}, "INR": {}, "CNY": {}, "SEK": {}, "NOK": {}, "DKK": {},
}

// CanonicalizeCurrency maps a free-text currency label to an ISO 4217 code.
// Returns false when the label is empty or unrecognized.
func CanonicalizeCurrency(label string) (string, bool) {
	s := strings.TrimSpace(label)
	if s == "" {
		return "", false
	}
	upper := strings.ToUpper(s)
	if _, ok := isoCurrencies[upper]; ok {
		return upper, true
	}
	if code, ok := currencyAliases[strings.ToLower(s)]; ok {
		return code, true
	}
	return "", false
}

// IsISOCurrency reports whether code is an accepted ISO 4217 code.
func IsISOCurrency(code string) bool {
	_, ok := isoCurrencies[code]
	return ok
}
