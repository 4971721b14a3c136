package password

import (
	"errors"
	"testing"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := Hash("s3creto")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "s3creto" {
		t.Fatal("hash equals plaintext")
	}

	if err := Compare(hash, "s3creto"); err != nil {
		t.Errorf("Compare(correct) = %v", err)
	}
	if err := Compare(hash, "otro"); !errors.Is(err, ErrMismatch) {
		t.Errorf("Compare(wrong) = %v, want ErrMismatch", err)
	}
}

func TestCompareRejectsCorruptHash(t *testing.T) {
	err := Compare("not-a-bcrypt-hash", "whatever")
	if err == nil || errors.Is(err, ErrMismatch) {
		t.Fatalf("Compare(corrupt) = %v, want a non-mismatch error", err)
	}
}
