package auth

import "testing"

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("senha123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "senha123" {
		t.Fatal("hash must not be the plain password")
	}

	ok, err := CheckPassword(hash, "senha123")
	if err != nil || !ok {
		t.Errorf("expected match, got %v (err=%v)", ok, err)
	}
	ok, err = CheckPassword(hash, "outra")
	if err != nil || ok {
		t.Errorf("expected mismatch without error, got %v (err=%v)", ok, err)
	}
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	if _, err := CheckPassword("not-a-bcrypt-hash", "senha123"); err == nil {
		t.Error("expected error for malformed hash")
	}
}
