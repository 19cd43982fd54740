package smsparser

import (
	"regexp"
	"strings"
)

// Airtel Money shapes:
//
//	"Transaction successful. Paid RWF 5000 to MERCHANT. Ref: AM123456"
//	"Received RWF 3,000 from 0730123456. Ref: AM98765"
var (
	airtelPaid        = regexp.MustCompile(`(?i)paid\s+(?:rwf|frw)\s*([\d,]+)\s*to\s*\S.*?ref:?\s*([A-Z0-9.]+)`)
	airtelReceived    = regexp.MustCompile(`(?i)received\s+(?:rwf|frw)\s*([\d,]+)\s*from\s*(\S+).*?ref:?\s*([A-Z0-9.]+)`)
	airtelTransaction = regexp.MustCompile(`(?i)transaction\s+(?:successful|confirmed).*?(?:rwf|frw)\s*([\d,]+).*?ref:?\s*([A-Z0-9.]+)`)
)

type Airtel struct{}

func NewAirtel() *Airtel {
	return &Airtel{}
}

func (a *Airtel) Name() string {
	return "Airtel"
}

func (a *Airtel) Matches(text, hint string) bool {
	if hint != "" && strings.Contains(strings.ToLower(hint), "airtel") {
		return true
	}
	return strings.Contains(strings.ToLower(text), "airtel")
}

func (a *Airtel) Parse(text string) *ParsedTransaction {
	if match := airtelReceived.FindStringSubmatch(text); match != nil {
		return &ParsedTransaction{
			Type:           TypeReceived,
			Amount:         parseAmount(match[1]),
			Currency:       "RWF",
			Msisdn:         normalizeMsisdn(strings.TrimRight(match[2], ".")),
			ReferenceToken: trimRef(match[3]),
			TransactionID:  trimRef(match[3]),
		}
	}

	if match := airtelPaid.FindStringSubmatch(text); match != nil {
		return &ParsedTransaction{
			Type:           TypePayment,
			Amount:         parseAmount(match[1]),
			Currency:       "RWF",
			ReferenceToken: trimRef(match[2]),
			TransactionID:  trimRef(match[2]),
		}
	}

	if match := airtelTransaction.FindStringSubmatch(text); match != nil {
		return &ParsedTransaction{
			Type:           TypePayment,
			Amount:         parseAmount(match[1]),
			Currency:       "RWF",
			ReferenceToken: trimRef(match[2]),
			TransactionID:  trimRef(match[2]),
		}
	}

	return nil
}
