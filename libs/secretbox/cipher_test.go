package secretbox

import "testing"

func TestCipher_Roundtrip(t *testing.T) {
	c, err := New("unit-test-key")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ct, err := c.Encrypt("sk_live_abc123")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if !IsEncrypted(ct) {
		t.Fatalf("expected ciphertext prefix, got %q", ct)
	}
	pt, err := c.Decrypt(ct)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if pt != "sk_live_abc123" {
		t.Fatalf("roundtrip mismatch: %q", pt)
	}
}

func TestCipher_DistinctNonces(t *testing.T) {
	c, _ := New("unit-test-key")
	a, _ := c.Encrypt("same")
	b, _ := c.Encrypt("same")
	if a == b {
		t.Fatal("two encryptions of the same value must differ")
	}
}

func TestCipher_DecryptRejectsGarbage(t *testing.T) {
	c, _ := New("unit-test-key")
	if _, err := c.Decrypt("plain-api-key"); err != ErrNotCiphertext {
		t.Fatalf("expected ErrNotCiphertext, got %v", err)
	}
	if _, err := c.Decrypt("enc:v1:!!!not-base64!!!"); err == nil {
		t.Fatal("expected error for malformed ciphertext")
	}
}

func TestCipher_WrongKey(t *testing.T) {
	a, _ := New("key-a")
	b, _ := New("key-b")
	ct, _ := a.Encrypt("secret")
	if _, err := b.Decrypt(ct); err == nil {
		t.Fatal("expected decrypt failure with wrong key")
	}
}

func TestNew_EmptyPassphrase(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("expected error for empty passphrase")
	}
}
