package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

const questionHashLen = 16

// QuestionHash returns a short digest of the trimmed question. It groups metrics
// for the same question without storing the text.
func QuestionHash(question string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(question)))
	return hex.EncodeToString(sum[:])[:questionHashLen]
}

// NewRequestID returns a random 32-character hex identifier.
func NewRequestID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
