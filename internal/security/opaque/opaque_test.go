package opaque

import (
	"encoding/base64"
	"strings"
	"testing"
)

func testKey(seed byte) []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = seed + byte(i)
	}
	return k
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	t.Parallel()

	codec, err := New(testKey(1))
	if err != nil {
		t.Fatalf("New err: %v", err)
	}

	id := "0d4a2f1c-7a9e-4a5c-9a34-1f2e3d4c5b6a"
	tok, err := codec.Encrypt(KindConsent, id)
	if err != nil {
		t.Fatalf("Encrypt err: %v", err)
	}
	if strings.Contains(tok, id) {
		t.Fatal("token must not expose the internal id")
	}

	got, err := codec.Decrypt(KindConsent, tok)
	if err != nil {
		t.Fatalf("Decrypt err: %v", err)
	}
	if got != id {
		t.Fatalf("round trip mismatch: got %q want %q", got, id)
	}
}

func TestDecrypt_WrongKindFails(t *testing.T) {
	t.Parallel()

	codec, _ := New(testKey(2))
	tok, err := codec.Encrypt(KindConsent, "abc")
	if err != nil {
		t.Fatalf("Encrypt err: %v", err)
	}

	if _, err := codec.Decrypt(KindAuthorisation, tok); !IsNotDecryptable(err) {
		t.Fatalf("expected ErrNotDecryptable on kind mismatch, got %v", err)
	}
}

func TestDecrypt_DetectsTamper(t *testing.T) {
	t.Parallel()

	codec, _ := New(testKey(3))
	tok, err := codec.Encrypt(KindPayment, "pay-1")
	if err != nil {
		t.Fatalf("Encrypt err: %v", err)
	}

	raw, _ := base64.RawURLEncoding.DecodeString(tok)
	raw[len(raw)-1] ^= 0x01
	tampered := base64.RawURLEncoding.EncodeToString(raw)

	if _, err := codec.Decrypt(KindPayment, tampered); !IsNotDecryptable(err) {
		t.Fatalf("expected ErrNotDecryptable on tamper, got %v", err)
	}
}

func TestDecrypt_GarbageInputs(t *testing.T) {
	t.Parallel()

	codec, _ := New(testKey(4))
	for _, tok := range []string{"", "x", "%%%", "AAAA", strings.Repeat("A", 8)} {
		if _, err := codec.Decrypt(KindConsent, tok); !IsNotDecryptable(err) {
			t.Fatalf("token %q: expected ErrNotDecryptable, got %v", tok, err)
		}
	}
}

func TestDecrypt_WrongKeyFails(t *testing.T) {
	t.Parallel()

	a, _ := New(testKey(5))
	b, _ := New(testKey(6))

	tok, err := a.Encrypt(KindConsent, "abc")
	if err != nil {
		t.Fatalf("Encrypt err: %v", err)
	}
	if _, err := b.Decrypt(KindConsent, tok); !IsNotDecryptable(err) {
		t.Fatalf("expected ErrNotDecryptable with foreign key, got %v", err)
	}
}

func TestEncrypt_EmptyID(t *testing.T) {
	t.Parallel()

	codec, _ := New(testKey(7))
	if _, err := codec.Encrypt(KindConsent, ""); err == nil {
		t.Fatal("empty id must be rejected")
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv(EnvMasterKey, base64.StdEncoding.EncodeToString(testKey(8)))
	if _, err := NewFromEnv(); err != nil {
		t.Fatalf("NewFromEnv err: %v", err)
	}

	t.Setenv(EnvMasterKey, "")
	if _, err := NewFromEnv(); err == nil {
		t.Fatal("missing env must fail")
	}
}
