package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader is the request header carrying the webhook signature.
const SignatureHeader = "Stripe-Signature"

var (
	// ErrInvalidSignature is returned when no v1 signature matches the payload.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrSignatureExpired is returned when the signed timestamp is outside the tolerance.
	ErrSignatureExpired = errors.New("webhook signature timestamp outside tolerance")
	// ErrInvalidPayload is returned when the event body cannot be decoded.
	ErrInvalidPayload = errors.New("invalid webhook payload")
)

// VerifySignature checks a "t=<unix>,v1=<hex>" header against payload.
// The signed content is "<t>.<payload>" under HMAC-SHA256 with secret.
// A zero tolerance disables the timestamp check.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	ts, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	expected := computeSignature(ts, payload, secret)

	matched := false

	for _, s := range signatures {
		if hmac.Equal([]byte(s), []byte(expected)) {
			matched = true
			break
		}
	}

	if !matched {
		return ErrInvalidSignature
	}

	if tolerance > 0 {
		sec, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return ErrInvalidSignature
		}

		if diff := now.Sub(time.Unix(sec, 0)); diff > tolerance || diff < -tolerance {
			return ErrSignatureExpired
		}
	}

	return nil
}

// Sign returns a signature header for payload as the provider would send it.
func Sign(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return "t=" + ts + ",v1=" + computeSignature(ts, payload, secret)
}

// ParseEvent decodes a webhook body.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ErrInvalidPayload
	}

	if strings.TrimSpace(event.ID) == "" || strings.TrimSpace(event.Type) == "" {
		return nil, ErrInvalidPayload
	}

	return &event, nil
}

func computeSignature(ts string, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(ts))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(payload)

	return hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (string, []string, error) {
	var ts string

	var signatures []string

	for part := range strings.SplitSeq(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}

		switch strings.TrimSpace(key) {
		case "t":
			ts = strings.TrimSpace(value)
		case "v1":
			signatures = append(signatures, strings.TrimSpace(value))
		}
	}

	if ts == "" || len(signatures) == 0 {
		return "", nil, ErrInvalidSignature
	}

	return ts, signatures, nil
}
