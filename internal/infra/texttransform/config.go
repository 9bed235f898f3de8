package texttransform

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	minCharacterLimit     = 100
	maxCharacterLimit     = 5000
	defaultCharacterLimit = 900
)

// Config holds the shared knobs every Transformer implementation honors.
type Config struct {
	CharacterLimit int
	Model          string
	MaxTokens      int
	Timeout        time.Duration
}

// ValidateCharacterLimit rejects limits outside the sane 100-5000 range.
func ValidateCharacterLimit(limit int) error {
	if limit < minCharacterLimit {
		return fmt.Errorf("character limit %d is below minimum %d", limit, minCharacterLimit)
	}
	if limit > maxCharacterLimit {
		return fmt.Errorf("character limit %d exceeds maximum %d", limit, maxCharacterLimit)
	}
	return nil
}

// LoadCharacterLimitFromEnv reads TEXTTRANSFORM_CHAR_LIMIT, falling back to
// the default with a warning when absent or out of range.
func LoadCharacterLimitFromEnv() int {
	val := os.Getenv("TEXTTRANSFORM_CHAR_LIMIT")
	if val == "" {
		return defaultCharacterLimit
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || ValidateCharacterLimit(parsed) != nil {
		return defaultCharacterLimit
	}
	return parsed
}
