package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CSRFTokenMaxAge is the maximum age of a CSRF token before it expires
const CSRFTokenMaxAge = 30 * time.Minute

// CSRFManager handles CSRF token generation and validation
type CSRFManager struct {
	secret []byte
	now    func() time.Time
}

// NewCSRFManager creates a new CSRF manager with the given secret
func NewCSRFManager(secret []byte) *CSRFManager {
	return &CSRFManager{secret: secret, now: time.Now}
}

// GenerateToken creates a signed token bound to a session id.
// Format: timestamp.signature
func (m *CSRFManager) GenerateToken(sessionID string) string {
	timestamp := m.now().Unix()
	return fmt.Sprintf("%d.%s", timestamp, m.computeSignature(sessionID, timestamp))
}

// ValidateToken checks if a CSRF token is valid for the given session ID
func (m *CSRFManager) ValidateToken(sessionID string, token string) bool {
	ts, sig, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}
	timestamp, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	age := m.now().Unix() - timestamp
	if age < 0 || age > int64(CSRFTokenMaxAge.Seconds()) {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(m.computeSignature(sessionID, timestamp)))
}

func (m *CSRFManager) computeSignature(sessionID string, timestamp int64) string {
	h := hmac.New(sha256.New, m.secret)
	fmt.Fprintf(h, "%s.%d", sessionID, timestamp)
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
