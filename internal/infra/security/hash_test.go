package security

import (
	"strings"
	"testing"
)

func TestHashCredentialRoundTrip(t *testing.T) {
	digest, err := HashCredential("User123!")
	if err != nil {
		t.Fatalf("hash credential: %v", err)
	}

	if !strings.Contains(digest, ":") {
		t.Fatalf("expected salt:hash encoding, got %q", digest)
	}

	ok, err := VerifyCredential("User123!", digest)
	if err != nil {
		t.Fatalf("verify credential: %v", err)
	}
	if !ok {
		t.Fatal("expected matching credential to verify")
	}

	ok, err = VerifyCredential("User123?", digest)
	if err != nil {
		t.Fatalf("verify wrong credential: %v", err)
	}
	if ok {
		t.Fatal("expected mismatched credential to fail verification")
	}
}

func TestHashCredentialSaltsDiffer(t *testing.T) {
	first, err := HashCredential("secret")
	if err != nil {
		t.Fatalf("hash first: %v", err)
	}
	second, err := HashCredential("secret")
	if err != nil {
		t.Fatalf("hash second: %v", err)
	}

	if first == second {
		t.Fatal("expected distinct salts to produce distinct digests")
	}
}

func TestVerifyCredentialEmptyInputs(t *testing.T) {
	if ok, err := VerifyCredential("", "abc:def"); err != nil || ok {
		t.Fatalf("empty plaintext: ok=%v err=%v", ok, err)
	}
	if ok, err := VerifyCredential("password", ""); err != nil || ok {
		t.Fatalf("empty digest: ok=%v err=%v", ok, err)
	}
}

func TestVerifyCredentialRejectsMalformedDigest(t *testing.T) {
	if _, err := VerifyCredential("password", "not-a-digest"); err == nil {
		t.Fatal("expected error for malformed digest")
	}
}

func TestConfigureArgon2Validation(t *testing.T) {
	if err := ConfigureArgon2(Argon2Config{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}); err == nil {
		t.Fatal("expected low-memory config to be rejected")
	}

	cfg := Argon2Config{Memory: 64 * 1024, Iterations: 3, Parallelism: 4, SaltLength: 16, KeyLength: 32}
	if err := ConfigureArgon2(cfg); err != nil {
		t.Fatalf("configure argon2: %v", err)
	}
}
