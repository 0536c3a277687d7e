// Package token inspects admin access tokens without verifying them. The
// backend owns the signing key; the client only needs the expiry to decide
// when to renew.
package token

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"okhouse/internal/domain"
	"okhouse/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Status is the derived health of a token at a given instant.
type Status struct {
	IsValid          bool
	IsExpired        bool
	IsExpiringSoon   bool
	SecondsRemaining int64
	NeedsRefresh     bool
}

var missing = Status{IsExpired: true, NeedsRefresh: true}

// Decode returns the claims segment of a three-part token. Neither the
// header nor the signature is inspected.
func Decode(raw string) (jwt.MapClaims, error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 3 {
		return nil, domain.ErrDecode
	}
	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecode, err)
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecode, err)
	}
	return claims, nil
}

// ExpiryInstant reads the exp claim. ok is false when the token cannot be
// decoded or carries no numeric exp.
func ExpiryInstant(raw string) (time.Time, bool) {
	claims, err := Decode(raw)
	if err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Analyzer classifies tokens against a refresh threshold.
type Analyzer struct {
	Threshold time.Duration
}

// NewAnalyzer returns an analyzer; a non-positive threshold uses the default.
func NewAnalyzer(threshold time.Duration) *Analyzer {
	if threshold <= 0 {
		threshold = models.DefaultRefreshThreshold * time.Second
	}
	return &Analyzer{Threshold: threshold}
}

// Analyze reports the token's status at now. A token is valid only while
// unexpired; one without a readable exp is treated like a missing one.
func (a *Analyzer) Analyze(raw string, now time.Time) Status {
	exp, ok := ExpiryInstant(raw)
	if !ok {
		return missing
	}

	remaining := exp.Sub(now)
	if remaining <= 0 {
		return Status{IsExpired: true, NeedsRefresh: true}
	}

	secs := int64(math.Ceil(remaining.Seconds()))
	soon := remaining <= a.Threshold
	return Status{
		IsValid:          true,
		IsExpiringSoon:   soon,
		SecondsRemaining: secs,
		NeedsRefresh:     soon,
	}
}
