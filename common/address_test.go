package common

import (
	"errors"
	"testing"
)

func TestDeriveProgramAddressDeterministic(t *testing.T) {
	program := Address(Blake2Hash([]byte("program")))
	payer := Address(Blake2Hash([]byte("payer")))

	a := DeriveProgramAddress(program, []byte("merkle_tree"), payer.Bytes())
	b := DeriveProgramAddress(program, []byte("merkle_tree"), payer.Bytes())
	if a != b {
		t.Fatalf("derivation not deterministic: %s vs %s", a, b)
	}

	other := Address(Blake2Hash([]byte("other")))
	if c := DeriveProgramAddress(other, []byte("merkle_tree"), payer.Bytes()); c == a {
		t.Errorf("different program produced the same address %s", c)
	}
	if d := DeriveProgramAddress(program, []byte("merkle_tree"), other.Bytes()); d == a {
		t.Errorf("different payer produced the same address %s", d)
	}
}

func TestParseAddress(t *testing.T) {
	want := Address(Blake2Hash([]byte("x")))
	got, err := ParseAddress(want.Hex())
	if err != nil {
		t.Fatalf("ParseAddress failed: %v", err)
	}
	if got != want {
		t.Errorf("ParseAddress returned %s, want %s", got, want)
	}

	// without prefix
	got, err = ParseAddress(want.Hex()[2:])
	if err != nil || got != want {
		t.Errorf("ParseAddress without prefix: %s, %v", got, err)
	}

	for _, bad := range []string{"0x1234", "0xzz", ""} {
		if _, err := ParseAddress(bad); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("ParseAddress(%q) err = %v, want ErrInvalidAddress", bad, err)
		}
	}
}
