package daraja

import (
	"encoding/base64"
	"regexp"
	"strings"
	"time"
)

// msisdnPattern matches a canonical Kenyan mobile number: country code 254
// followed by a Safaricom (7xx) or Airtel-range (1xx) prefix and eight digits.
var msisdnPattern = regexp.MustCompile(`^254[17]\d{8}$`)

// NormalizePhone converts a phone number to canonical 254XXXXXXXXX form.
// A leading "0" is replaced with "254", a leading "+" is stripped; any other
// input passes through unchanged. The result is validated against the
// canonical pattern.
func NormalizePhone(phone string) (string, error) {
	switch {
	case strings.HasPrefix(phone, "0"):
		phone = "254" + phone[1:]
	case strings.HasPrefix(phone, "+"):
		phone = phone[1:]
	}
	if !msisdnPattern.MatchString(phone) {
		return "", &ValidationError{Field: "phoneNumber", Message: "must be a valid number (254XXXXXXXXX or 07XXXXXXXX)"}
	}
	return phone, nil
}

// generateTimestamp returns the current time as a 14-digit YYYYMMDDHHMMSS
// string, the format the gateway expects in STK payloads.
func generateTimestamp(now time.Time) string {
	return now.Format("20060102150405")
}

// generatePassword builds the STK push/query password:
// base64(shortcode + passKey + timestamp).
func generatePassword(shortCode, passKey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passKey + timestamp))
}

// basicAuth encodes consumer credentials for the oauth exchange.
func basicAuth(consumerKey, consumerSecret string) string {
	return base64.StdEncoding.EncodeToString([]byte(consumerKey + ":" + consumerSecret))
}
