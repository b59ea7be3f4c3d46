package workforce

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func TestParseInviteToken(t *testing.T) {
	id := uuid.NewString()

	t.Run("well formed", func(t *testing.T) {
		gotID, secret, ok := ParseInviteToken(id + ".s3cr3t-part")
		if !ok || gotID != id || secret != "s3cr3t-part" {
			t.Fatalf("ParseInviteToken = (%s, %s, %v)", gotID, secret, ok)
		}
	})

	t.Run("secret containing dots", func(t *testing.T) {
		_, secret, ok := ParseInviteToken(id + ".part.with.dots")
		if !ok || secret != "part.with.dots" {
			t.Fatalf("expected full secret after first dot, got %q ok=%v", secret, ok)
		}
	})

	bad := []string{
		"",
		"no-dot",
		"." + "secret",
		id + ".",
		"not-a-uuid.secret",
	}
	for _, token := range bad {
		if _, _, ok := ParseInviteToken(token); ok {
			t.Errorf("ParseInviteToken(%q) accepted a malformed token", token)
		}
	}
}

func TestInviteSecretHashRoundTrip(t *testing.T) {
	secret, err := newInviteSecret()
	if err != nil {
		t.Fatalf("newInviteSecret failed: %v", err)
	}
	if len(secret) < 40 {
		t.Fatalf("secret too short: %d chars", len(secret))
	}
	if strings.Contains(secret, ".") {
		t.Fatal("secret must not contain the token separator")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(secret)); err != nil {
		t.Fatalf("stored hash must verify the original secret: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(secret+"x")); err == nil {
		t.Fatal("different secret must not verify")
	}
}
