package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

const sessionIDBytes = 16

// SessionIDLength is the encoded length of an id from NewSessionIDString.
var SessionIDLength = base64.RawURLEncoding.EncodedLen(sessionIDBytes)

var errSessionIDShape = errors.New("session id is not 128 bits of base64url")

// NewSessionIDString returns 128 bits of crypto/rand output, base64url
// encoded without padding.
func NewSessionIDString() (string, error) {
	var raw [sessionIDBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// CheckSessionID reports whether sessionID could have come from
// NewSessionIDString. Stores use it to turn away junk bearer values
// before touching the backend.
func CheckSessionID(sessionID string) error {
	if len(sessionID) != SessionIDLength {
		return errSessionIDShape
	}
	raw, err := base64.RawURLEncoding.DecodeString(sessionID)
	if err != nil || len(raw) != sessionIDBytes {
		return errSessionIDShape
	}
	return nil
}
