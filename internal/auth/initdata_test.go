package auth

import (
	"fmt"
	"net/url"
	"testing"
	"time"

	"foodcourt-backoffice/internal/domain"
)

const testProviderSecret = "provider-secret"

func signedEnvelope(t *testing.T, subject string, issuedAt time.Time) string {
	t.Helper()
	fields := url.Values{}
	fields.Set("subject", subject)
	fields.Set("issuedAt", fmt.Sprintf("%d", issuedAt.Unix()))
	fields.Set("name", "Ada")
	return SignInitData(fields, testProviderSecret)
}

func TestVerifyInitDataRoundTrip(t *testing.T) {
	now := time.Now()
	raw := signedEnvelope(t, "ext-42", now.Add(-time.Minute))

	data, err := VerifyInitData(raw, testProviderSecret, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Subject != "ext-42" {
		t.Fatalf("subject = %s, expected ext-42", data.Subject)
	}
	if data.Name != "Ada" {
		t.Fatalf("name = %s, expected Ada", data.Name)
	}
}

func TestVerifyInitDataRejects(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name string
		raw  string
	}{
		{"wrong secret", SignInitData(url.Values{"subject": {"ext-1"}, "issuedAt": {fmt.Sprintf("%d", now.Unix())}}, "other-secret")},
		{"unsigned", "subject=ext-1&issuedAt=" + fmt.Sprintf("%d", now.Unix())},
		{"stale", signedEnvelope(t, "ext-1", now.Add(-25*time.Hour))},
		{"future", signedEnvelope(t, "ext-1", now.Add(time.Hour))},
		{"missing subject", SignInitData(url.Values{"issuedAt": {fmt.Sprintf("%d", now.Unix())}}, testProviderSecret)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := VerifyInitData(tc.raw, testProviderSecret, now)
			derr, ok := domain.AsError(err)
			if !ok {
				t.Fatalf("expected taxonomy error, got %v", err)
			}
			if derr.Code != domain.CodeUnauthenticated {
				t.Fatalf("code = %s, expected %s", derr.Code, domain.CodeUnauthenticated)
			}
		})
	}
}

func TestVerifyInitDataTamperedField(t *testing.T) {
	now := time.Now()
	raw := signedEnvelope(t, "ext-42", now)

	values, _ := url.ParseQuery(raw)
	values.Set("subject", "ext-43")
	_, err := VerifyInitData(values.Encode(), testProviderSecret, now)
	if err == nil {
		t.Fatal("tampered subject must fail verification")
	}
}

func TestMintAndVerifyAccessToken(t *testing.T) {
	token, err := MintAccessToken("p-1", "s-1", domain.RoleCustomer, "jwt-secret", time.Hour)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	claims, err := VerifyAccessToken(token, "jwt-secret")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.PrincipalID != "p-1" || claims.SessionID != "s-1" || claims.Role != domain.RoleCustomer {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := VerifyAccessToken(token, "wrong-secret"); err == nil {
		t.Fatal("wrong secret must fail verification")
	}
}

func TestParseBearerToken(t *testing.T) {
	cases := []struct {
		header   string
		expected string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"", ""},
		{"Bearer", ""},
	}
	for _, tc := range cases {
		if got := ParseBearerToken(tc.header); got != tc.expected {
			t.Errorf("ParseBearerToken(%q) = %q, expected %q", tc.header, got, tc.expected)
		}
	}
}
