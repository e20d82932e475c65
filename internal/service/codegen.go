package service

import (
	"fmt"

	"github.com/jaevor/go-nanoid"
)

// Base62 character set for short code generation
const Base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// CodeGenerator produces candidate short codes.
type CodeGenerator interface {
	Generate() string
}

// RandomCodeGenerator draws fixed-length codes from Base62Alphabet using crypto/rand.
// It is safe for concurrent use.
type RandomCodeGenerator struct {
	next   func() string
	length int
}

// NewRandomCodeGenerator creates a generator of codes with the given length
func NewRandomCodeGenerator(length int) (*RandomCodeGenerator, error) {
	if length <= 0 {
		return nil, fmt.Errorf("code length must be positive, got %d", length)
	}

	next, err := nanoid.CustomASCII(Base62Alphabet, length)
	if err != nil {
		return nil, fmt.Errorf("create code generator: %w", err)
	}

	return &RandomCodeGenerator{next: next, length: length}, nil
}

func (g *RandomCodeGenerator) Generate() string {
	return g.next()
}

// Length returns the fixed length of generated codes.
func (g *RandomCodeGenerator) Length() int {
	return g.length
}
