package session

import "testing"

// FuzzSessionDecode feeds arbitrary bytes to the decoder. It must never panic.
func FuzzSessionDecode(f *testing.F) {
	encoded, err := Encode(&Session{UserID: "user1", CreatedAt: 1700000000, ExpiresAt: 1700003600})
	if err == nil {
		f.Add(encoded)
		f.Add(encoded[:len(encoded)-3])
	}

	f.Add([]byte{})
	f.Add([]byte{0})
	f.Add([]byte{1})
	f.Add([]byte{1, 255})
	f.Add([]byte{255, 255, 255})

	f.Fuzz(func(t *testing.T, data []byte) {
		sess, err := Decode(data)
		if err != nil {
			return
		}
		if sess == nil {
			t.Fatal("Decode returned nil session without error")
		}
		if _, err := Encode(sess); err != nil {
			t.Fatalf("decoded session failed to re-encode: %v", err)
		}
	})
}
