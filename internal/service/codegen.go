package service

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"edulift.app/membership/core/config"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Bytes at or above this value are rejected so every symbol is equally likely.
const codeRejectThreshold = 256 - (256 % len(codeAlphabet))

// CodeGenerator produces upper-case alphanumeric invitation codes. A 7 symbol
// code carries about 36 bits of entropy.
type CodeGenerator struct {
	length int
	random io.Reader
}

func NewCodeGenerator(length int) *CodeGenerator {
	return NewCodeGeneratorFromReader(length, rand.Reader)
}

// NewCodeGeneratorFromReader is NewCodeGenerator with an explicit entropy source.
func NewCodeGeneratorFromReader(length int, random io.Reader) *CodeGenerator {
	if length < config.MinCodeLength {
		length = config.MinCodeLength
	}
	return &CodeGenerator{length: length, random: random}
}

func (g *CodeGenerator) Generate() (string, error) {
	code := make([]byte, 0, g.length)
	buf := make([]byte, g.length*2)
	for len(code) < g.length {
		if _, err := io.ReadFull(g.random, buf); err != nil {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= codeRejectThreshold {
				continue
			}
			code = append(code, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(code) == g.length {
				break
			}
		}
	}
	return string(code), nil
}

// NormalizeCode is the lookup form of a code typed by a user.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
