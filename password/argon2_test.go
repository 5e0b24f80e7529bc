package password

import (
	"strings"
	"testing"
)

func testConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
}

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return h
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h := newTestHasher(t)

	encoded, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected hash format: %q", encoded)
	}

	ok, err := h.Verify("correct horse battery staple", encoded)
	if err != nil || !ok {
		t.Fatalf("Verify of correct secret: ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify("wrong secret", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if ok {
		t.Fatal("wrong secret must not verify")
	}
}

func TestHashesAreSalted(t *testing.T) {
	h := newTestHasher(t)

	a, _ := h.Hash("same secret")
	b, _ := h.Hash("same secret")
	if a == b {
		t.Fatal("two hashes of the same secret must differ")
	}
}

func TestDummyVerifyAlwaysFalse(t *testing.T) {
	h := newTestHasher(t)

	for _, secret := range []string{"", "guess", "another guess"} {
		if h.DummyVerify(secret) {
			t.Fatalf("DummyVerify(%q) returned true", secret)
		}
	}
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	h := newTestHasher(t)

	malformed := []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=8192,t=1,p=1$short$short",
		"$bcrypt$v=19$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA==$AAAAAAAAAAAAAAAAAAAAAA==",
	}
	for _, enc := range malformed {
		if _, err := h.Verify("secret", enc); err == nil {
			t.Fatalf("expected error for malformed hash %q", enc)
		}
	}
}

func TestNewRejectsWeakConfig(t *testing.T) {
	weak := testConfig()
	weak.Memory = 1024

	if _, err := New(weak); err == nil {
		t.Fatal("expected error for sub-minimum memory")
	}
}
