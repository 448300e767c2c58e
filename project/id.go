package project

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a 32-character random hex identifier.
func NewID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// nothing sensible can continue from there.
		panic("project: reading random id bytes: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}
