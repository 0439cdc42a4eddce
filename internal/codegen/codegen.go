// Package codegen produces random short codes.
// Generators should be safe for concurrent use.
package codegen

import (
	"crypto/rand"
	"errors"
)

// Alphabet is the set of characters generated codes are drawn from.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Bytes at or above this value are discarded so every character of
// Alphabet is equally likely (248 = 4 * 62).
const rejectAbove = 256 - 256%len(Alphabet)

// Generator generates short codes.
type Generator interface {
	Generate(length int) (string, error)
}

type base62Generator struct{}

// NewBase62 returns a Generator drawing uniformly from Alphabet using crypto/rand.
func NewBase62() Generator {
	return base62Generator{}
}

func (base62Generator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be positive")
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
