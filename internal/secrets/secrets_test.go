package secrets

import (
	"testing"

	"github.com/lucidframe/conversa/pkg/models"
)

func TestSealOpenRoundTrip(t *testing.T) {
	k := New("correct horse battery staple")
	envelope, err := k.Seal("sk-test-12345")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	got, err := k.Open(envelope)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got != "sk-test-12345" {
		t.Fatalf("expected round-tripped key, got %q", got)
	}
}

func TestSealProducesDistinctEnvelopesForSamePlaintext(t *testing.T) {
	k := New("passphrase")
	a, err := k.Seal("same-secret")
	if err != nil {
		t.Fatalf("seal a: %v", err)
	}
	b, err := k.Seal("same-secret")
	if err != nil {
		t.Fatalf("seal b: %v", err)
	}
	if string(a) == string(b) {
		t.Fatal("expected distinct envelopes (fresh salt+nonce) for identical plaintext")
	}
}

func TestOpenFailsWithWrongPassphrase(t *testing.T) {
	envelope, err := New("right-passphrase").Seal("secret-key")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := New("wrong-passphrase").Open(envelope); err == nil {
		t.Fatal("expected decrypt to fail with the wrong passphrase")
	}
}

func TestOpenFailsOnTamperedCiphertext(t *testing.T) {
	k := New("passphrase")
	envelope, err := k.Seal("secret-key")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	tampered := append([]byte{}, envelope...)
	tampered[len(tampered)-1] ^= 0xFF
	if _, err := k.Open(tampered); err == nil {
		t.Fatal("expected decrypt to fail on a tampered envelope")
	}
}

func TestOpenRejectsShortEnvelope(t *testing.T) {
	k := New("passphrase")
	if _, err := k.Open([]byte("too short")); err != ErrInvalidEnvelope {
		t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
	}
}

func TestSealModelKeyAndOpenModelKeyRoundTrip(t *testing.T) {
	k := New("passphrase")
	m := &models.Model{ID: "m1", Provider: "openai"}
	if err := k.SealModelKey(m, "sk-live-abc"); err != nil {
		t.Fatalf("seal model key: %v", err)
	}
	if len(m.APIKeySecret) == 0 {
		t.Fatal("expected APIKeySecret to be populated")
	}
	got, err := k.OpenModelKey(m)
	if err != nil {
		t.Fatalf("open model key: %v", err)
	}
	if got != "sk-live-abc" {
		t.Fatalf("expected sk-live-abc, got %q", got)
	}
}
