package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"foodcourt-backoffice/internal/domain"
)

const initDataMaxAge = 24 * time.Hour

// InitData is the parsed third-party session envelope: url-encoded name/value
// fields signed with an HMAC under the "hash" key.
type InitData struct {
	Subject  string
	IssuedAt time.Time
	Name     string
}

// deriveSessionKey computes HMAC-SHA256 over the provider secret keyed by the
// constant "SessionAuth" label.
func deriveSessionKey(providerSecret string) []byte {
	mac := hmac.New(sha256.New, []byte("SessionAuth"))
	mac.Write([]byte(providerSecret))
	return mac.Sum(nil)
}

// VerifyInitData recomputes the signature over the deterministically sorted
// key=value fields (signature excluded) and compares constant-time. It also
// enforces the 24h freshness window.
func VerifyInitData(raw string, providerSecret string, now time.Time) (*InitData, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, domain.Unauthenticated("Malformed session payload")
	}

	signature := values.Get("hash")
	if signature == "" {
		return nil, domain.Unauthenticated("Session payload is not signed")
	}
	values.Del("hash")

	pairs := make([]string, 0, len(values))
	for key := range values {
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)
	checkString := strings.Join(pairs, "\n")

	mac := hmac.New(sha256.New, deriveSessionKey(providerSecret))
	mac.Write([]byte(checkString))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return nil, domain.Unauthenticated("Session signature mismatch")
	}

	issuedRaw := strings.TrimSpace(values.Get("issuedAt"))
	if issuedRaw == "" {
		return nil, domain.Unauthenticated("Session payload has no issuedAt")
	}
	issuedUnix, err := strconv.ParseInt(issuedRaw, 10, 64)
	if err != nil {
		return nil, domain.Unauthenticated("Session payload has an invalid issuedAt")
	}
	issuedAt := time.Unix(issuedUnix, 0)
	if now.Sub(issuedAt) > initDataMaxAge || issuedAt.After(now.Add(5*time.Minute)) {
		return nil, domain.Unauthenticated("Session payload expired")
	}

	subject := strings.TrimSpace(values.Get("subject"))
	if subject == "" {
		return nil, domain.Unauthenticated("Session payload has no subject")
	}

	return &InitData{
		Subject:  subject,
		IssuedAt: issuedAt,
		Name:     strings.TrimSpace(values.Get("name")),
	}, nil
}

// SignInitData produces a signed envelope. Used by tests and local tooling.
func SignInitData(fields url.Values, providerSecret string) string {
	fields.Del("hash")
	pairs := make([]string, 0, len(fields))
	for key := range fields {
		pairs = append(pairs, key+"="+fields.Get(key))
	}
	sort.Strings(pairs)

	mac := hmac.New(sha256.New, deriveSessionKey(providerSecret))
	mac.Write([]byte(strings.Join(pairs, "\n")))
	fields.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return fields.Encode()
}
