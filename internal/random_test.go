package internal

import "testing"

func TestNewSessionIDStringShape(t *testing.T) {
	id, err := NewSessionIDString()
	if err != nil {
		t.Fatalf("NewSessionIDString: %v", err)
	}
	if len(id) != 22 || SessionIDLength != 22 {
		t.Fatalf("expected 22 char base64url id, got %d (%q)", len(id), id)
	}
	if err := CheckSessionID(id); err != nil {
		t.Fatalf("CheckSessionID rejected a fresh id: %v", err)
	}
}

func TestCheckSessionIDRejectsGarbage(t *testing.T) {
	for _, in := range []string{
		"",
		"missing",
		"c2hvcnQ",
		"!!!!!!!!!!!!!!!!!!!!!!",
		"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		"eyJhbGciOiJIUzI1NiJ9.e30.sig",
	} {
		if err := CheckSessionID(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestNewSessionIDStringIsUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id, err := NewSessionIDString()
		if err != nil {
			t.Fatalf("NewSessionIDString: %v", err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id after %d draws", i)
		}
		seen[id] = struct{}{}
	}
}
