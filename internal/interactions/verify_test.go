package interactions

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"
)

func signRequest(t *testing.T, priv ed25519.PrivateKey, timestamp string, body []byte) string {
	t.Helper()
	msg := append([]byte(timestamp), body...)
	return hex.EncodeToString(ed25519.Sign(priv, msg))
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}

	body := []byte(`{"type":1}`)
	sig := signRequest(t, priv, "1700000000", body)

	if !Verify(body, sig, "1700000000", pub) {
		t.Fatalf("expected valid signature to verify")
	}
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	sig := signRequest(t, priv, "1700000000", []byte(`{"type":1}`))

	if Verify([]byte(`{"type":2}`), sig, "1700000000", pub) {
		t.Fatalf("expected tampered body to fail")
	}
}

func TestVerifyRejectsWrongTimestamp(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	body := []byte(`{"type":1}`)
	sig := signRequest(t, priv, "1700000000", body)

	if Verify(body, sig, "1700000001", pub) {
		t.Fatalf("expected wrong timestamp to fail")
	}
}

func TestVerifyFailsClosed(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	body := []byte(`{"type":1}`)
	sig := signRequest(t, priv, "1700000000", body)

	if Verify(body, "", "1700000000", pub) {
		t.Fatalf("expected empty signature to fail")
	}
	if Verify(body, sig, "", pub) {
		t.Fatalf("expected empty timestamp to fail")
	}
	if Verify(body, "not-hex!", "1700000000", pub) {
		t.Fatalf("expected non-hex signature to fail")
	}
	if Verify(body, hex.EncodeToString([]byte("short")), "1700000000", pub) {
		t.Fatalf("expected short signature to fail")
	}
	if Verify(body, sig, "1700000000", pub[:16]) {
		t.Fatalf("expected truncated key to fail")
	}
}

func TestVerifyRejectsNonCanonicalSignature(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	body := []byte(`{"type":1}`)
	raw := ed25519.Sign(priv, append([]byte("1700000000"), body...))

	// Set the scalar's high bits; a canonical signature never has them.
	raw[63] |= 224
	if Verify(body, hex.EncodeToString(raw), "1700000000", pub) {
		t.Fatalf("expected non-canonical signature to fail")
	}
}
