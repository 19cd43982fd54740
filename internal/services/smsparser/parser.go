package smsparser

import (
	"strconv"
	"strings"
	"time"
)

const ProviderUnknown = "Unknown"

const (
	TypePayment  = "payment"
	TypeReceived = "received"
	TypeTransfer = "transfer"
	TypeUnknown  = "unknown"
)

// ParsedTransaction is the structured result of one raw message. Immutable
// once created.
type ParsedTransaction struct {
	Provider       string    `json:"provider"`
	Type           string    `json:"type"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	ReferenceToken string    `json:"referenceToken,omitempty"`
	TransactionID  string    `json:"transactionId"`
	Msisdn         string    `json:"msisdn,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Provider is one mobile-money provider's parsing strategy. New providers are
// added by appending to the registry, the dispatch core never changes.
type Provider interface {
	Name() string
	Matches(text, hint string) bool
	Parse(text string) *ParsedTransaction
}

// Parser dispatches a raw message to the first provider that claims it.
// It never panics and never returns an error: a nil transaction means the
// message was rejected and its raw text should be kept for manual review.
type Parser struct {
	currency  string
	providers []Provider
}

func New(currency string, providers ...Provider) *Parser {
	if len(providers) == 0 {
		providers = []Provider{NewMTN(), NewAirtel()}
	}
	return &Parser{currency: currency, providers: providers}
}

// Parse returns the parsed transaction (nil on rejection) and the name of
// the provider that claimed the message, ProviderUnknown when none did.
func (p *Parser) Parse(text, hint string) (*ParsedTransaction, string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ProviderUnknown
	}

	for _, provider := range p.providers {
		if !provider.Matches(trimmed, hint) {
			continue
		}
		parsed := provider.Parse(trimmed)
		if parsed != nil {
			parsed.Provider = provider.Name()
			if parsed.Timestamp.IsZero() {
				parsed.Timestamp = time.Now().UTC()
			}
			if parsed.TransactionID == "" {
				parsed.TransactionID = parsed.ReferenceToken
			}
		}
		return parsed, provider.Name()
	}

	return nil, ProviderUnknown
}

// Valid is the usability check, separate from parsing: only positive amounts
// in the configured currency, of type payment or received, carrying a
// reference token, may enter automated processing.
func (p *Parser) Valid(t *ParsedTransaction) bool {
	if t == nil {
		return false
	}
	return t.Amount > 0 &&
		t.Currency == p.currency &&
		(t.Type == TypePayment || t.Type == TypeReceived) &&
		t.ReferenceToken != ""
}

// trimRef drops sentence punctuation around a captured reference; the
// character class admits dots because tokens are dotted.
func trimRef(raw string) string {
	return strings.Trim(raw, ".")
}

// parseAmount strips thousands separators and whitespace before parsing.
// A non-numeric result is 0; the validity check rejects it downstream.
func parseAmount(raw string) float64 {
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(raw)
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return amount
}

// normalizeMsisdn maps local Rwandan notations to E.164.
func normalizeMsisdn(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	cleaned := digits.String()

	switch {
	case cleaned == "":
		return raw
	case strings.HasPrefix(raw, "+"):
		return "+" + cleaned
	case strings.HasPrefix(cleaned, "2507"):
		return "+" + cleaned
	case strings.HasPrefix(cleaned, "07"):
		return "+250" + cleaned[1:]
	case strings.HasPrefix(cleaned, "7") && len(cleaned) == 9:
		return "+250" + cleaned
	}
	return raw
}
