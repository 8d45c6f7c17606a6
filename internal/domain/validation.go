package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	handlePattern   = regexp.MustCompile(`^@?[a-z0-9_]{3,30}$`)
	hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

func NormalizeHandle(v string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(v)), "@")
}

func ValidateHandle(v string) error {
	if !handlePattern.MatchString(strings.ToLower(strings.TrimSpace(v))) {
		return fmt.Errorf("%w: handle must match ^[a-z0-9_]{3,30}$", ErrInvalidInput)
	}
	return nil
}

func ValidateDisplayName(v string) error {
	if utf8.RuneCountInString(v) > DisplayNameMaxChars {
		return fmt.Errorf("%w: %s exceeds %d chars", ErrFieldTooLong, FieldDisplayName, DisplayNameMaxChars)
	}
	return nil
}

func ValidateBio(v string) error {
	if utf8.RuneCountInString(v) > BioMaxChars {
		return fmt.Errorf("%w: %s exceeds %d chars", ErrFieldTooLong, FieldBio, BioMaxChars)
	}
	return nil
}

// ValidateBrandColor accepts six-digit hex notation only; empty clears the color.
func ValidateBrandColor(field FieldName, v string) error {
	if v == "" {
		return nil
	}
	if !hexColorPattern.MatchString(v) {
		return fmt.Errorf("%w: %s must be a #rrggbb hex color", ErrInvalidInput, field)
	}
	return nil
}

// ValidateLinkInBio accepts an https URL or empty (absent link).
func ValidateLinkInBio(v string) error {
	if v == "" {
		return nil
	}
	parsed, err := url.Parse(v)
	if err != nil || parsed.Scheme != "https" || parsed.Host == "" {
		return fmt.Errorf("%w: %s must be an https url", ErrInvalidInput, FieldLinkInBio)
	}
	return nil
}
