package services

import (
	"crypto/rand"
	"fmt"

	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
	"github.com/vncsmyrnk/planningpoker/internal/core/ports"
)

// sessionCodeAlphabet leaves out 0/O and 1/I. Its length divides 256, so
// mapping random bytes by modulo keeps every character equally likely.
const sessionCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type randomCodeGenerator struct {
	length int
}

func NewCodeGenerator() ports.CodeGenerator {
	return &randomCodeGenerator{length: domain.SessionCodeLength}
}

func (g *randomCodeGenerator) Generate() (string, error) {
	b := make([]byte, g.length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	code := make([]byte, g.length)
	for i := range code {
		code[i] = sessionCodeAlphabet[int(b[i])%len(sessionCodeAlphabet)]
	}
	return string(code), nil
}
