package interactions

import (
	"crypto/ed25519"
	"encoding/hex"
)

// Verify checks the ed25519 signature Discord attaches to every webhook
// request. The signed message is the timestamp header concatenated with the
// exact raw body bytes; a re-serialized body will not verify. Any missing or
// malformed input yields false rather than an error, since every failure mode
// is handled the same way (401, stop).
func Verify(rawBody []byte, signatureHex, timestamp string, key ed25519.PublicKey) bool {
	if len(key) != ed25519.PublicKeySize {
		return false
	}
	if signatureHex == "" || timestamp == "" {
		return false
	}

	sig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}
	if len(sig) != ed25519.SignatureSize || sig[63]&224 != 0 {
		return false
	}

	msg := make([]byte, 0, len(timestamp)+len(rawBody))
	msg = append(msg, timestamp...)
	msg = append(msg, rawBody...)
	return ed25519.Verify(key, msg, sig)
}
