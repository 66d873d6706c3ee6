package util

import (
	"net/mail"
	"regexp"
	"strings"
)

// Backend resource ids are interpolated into upstream URL paths.
var resourceIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func IsValidResourceID(s string) bool {
	return resourceIDRegex.MatchString(s)
}

func IsValidEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func IsValidEnum(value string, validValues []string) bool {
	if value == "" {
		return true
	}
	for _, v := range validValues {
		if value == v {
			return true
		}
	}
	return false
}
