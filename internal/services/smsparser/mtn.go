package smsparser

import (
	"regexp"
	"strings"
)

// Message shapes observed from MTN MoMo notifications:
//
//	"You have sent RWF 5,000 to 0788123456. Ref: MTN12345. Balance: RWF 45,000"
//	"You have received RWF 20,000 from 0788123456 Ref NYA.GAS.TWIZ.001 TXN 12345"
//	"Transaction successful. You paid RWF 10000 to MERCHANT. Ref: ABC123"
var (
	mtnSent     = regexp.MustCompile(`(?i)you have sent\s+(?:rwf|frw)\s*([\d,]+)\s*to\s*(\d+).*?ref:?\s*([A-Z0-9.]+)`)
	mtnReceived = regexp.MustCompile(`(?i)you have received\s+(?:rwf|frw)\s*([\d,]+)\s*from\s*(\d+)(?:.*?ref:?\s*([A-Z0-9.]+))?(?:.*?txn(?:\s*id)?:?\s*([A-Z0-9]+))?`)
	mtnPayment  = regexp.MustCompile(`(?i)transaction successful.*?paid\s+(?:rwf|frw)\s*([\d,]+).*?ref:?\s*([A-Z0-9.]+)`)
	mtnPayAlt   = regexp.MustCompile(`(?i)you paid\s+(?:rwf|frw)\s*([\d,]+).*?ref:?\s*([A-Z0-9.]+)`)
)

type MTN struct{}

func NewMTN() *MTN {
	return &MTN{}
}

func (m *MTN) Name() string {
	return "MTN"
}

func (m *MTN) Matches(text, hint string) bool {
	if hint != "" && strings.Contains(strings.ToLower(hint), "mtn") {
		return true
	}
	lower := strings.ToLower(text)
	return strings.Contains(lower, "mtn") || strings.Contains(lower, "momo") ||
		mtnSent.MatchString(text) || mtnReceived.MatchString(text)
}

func (m *MTN) Parse(text string) *ParsedTransaction {
	if match := mtnSent.FindStringSubmatch(text); match != nil {
		return &ParsedTransaction{
			Type:           TypePayment,
			Amount:         parseAmount(match[1]),
			Currency:       "RWF",
			Msisdn:         normalizeMsisdn(match[2]),
			ReferenceToken: trimRef(match[3]),
			TransactionID:  trimRef(match[3]),
		}
	}

	if match := mtnReceived.FindStringSubmatch(text); match != nil {
		ref := trimRef(match[3])
		txn := match[4]
		if ref == "" {
			ref = txn
		}
		return &ParsedTransaction{
			Type:           TypeReceived,
			Amount:         parseAmount(match[1]),
			Currency:       "RWF",
			Msisdn:         normalizeMsisdn(match[2]),
			ReferenceToken: ref,
			TransactionID:  txn,
		}
	}

	if match := mtnPayment.FindStringSubmatch(text); match != nil {
		return &ParsedTransaction{
			Type:           TypePayment,
			Amount:         parseAmount(match[1]),
			Currency:       "RWF",
			ReferenceToken: trimRef(match[2]),
			TransactionID:  trimRef(match[2]),
		}
	}

	if match := mtnPayAlt.FindStringSubmatch(text); match != nil {
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
