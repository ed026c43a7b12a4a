package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	maxMessageBytes = 16 * 1024
	maxItemBytes    = 512
	maxImageBytes   = 12 * 1024 * 1024
	maxProfileID    = 64
)

// ValidateMessage validates chat text. Empty text is allowed here; the chat
// service decides whether an image alone is enough.
func ValidateMessage(content string) error {
	if len(content) > maxMessageBytes {
		return errors.New("message exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("message must be valid UTF-8")
	}
	return nil
}

// ValidateImage bounds the size of an inline image payload.
func ValidateImage(dataURI string) error {
	if len(dataURI) > maxImageBytes {
		return errors.New("image exceeds maximum size")
	}
	return nil
}

// ValidateSessionID validates a session ID.
func ValidateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid session ID format")
	}
	return nil
}

// ValidateItem validates a try-on item description.
func ValidateItem(item string) error {
	if len(item) > maxItemBytes {
		return errors.New("item description exceeds maximum length")
	}
	if !utf8.ValidString(item) {
		return errors.New("item description must be valid UTF-8")
	}
	return nil
}

// ValidateProfileID validates a profile ID taken from a URL.
func ValidateProfileID(id string) error {
	if len(id) == 0 {
		return errors.New("profile ID cannot be empty")
	}
	if len(id) > maxProfileID {
		return errors.New("profile ID exceeds maximum length")
	}
	return nil
}
