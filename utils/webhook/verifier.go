// Package webhook authenticates inbound payment-gateway callbacks.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
)

const (
	// SignatureHeader is the header Razorpay signs webhooks with.
	SignatureHeader = "X-Razorpay-Signature"
	// FallbackSignatureHeader is accepted when SignatureHeader is absent.
	FallbackSignatureHeader = "X-Signature"
)

var (
	ErrMissingSignature = errors.New("webhook signature header missing")
	ErrInvalidSignature = errors.New("webhook signature mismatch")
	ErrMissingSecret    = errors.New("webhook secret not configured")
)

// Verifier checks hex HMAC-SHA256 signatures over the raw request body.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Sign returns the hex signature for body. Used by tests and tooling.
func (v *Verifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares signature with the HMAC of body in constant time.
// body must be the exact bytes received on the wire.
func (v *Verifier) Verify(body []byte, signature string) error {
	if len(v.secret) == 0 {
		return ErrMissingSecret
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrMissingSignature
	}

	expected := v.Sign(body)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrInvalidSignature
	}
	return nil
}

// SignatureFrom picks the signature header, preferring the gateway's own name.
func SignatureFrom(h http.Header) string {
	if sig := h.Get(SignatureHeader); sig != "" {
		return sig
	}
	return h.Get(FallbackSignatureHeader)
}
