// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils provides text normalization helpers for matching place names.
package textutils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold normalizes a string by removing accents, lowercasing, and trimming spaces.
func Fold(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// ContainsFold reports whether needle is a substring of haystack, ignoring case and accents.
// An empty needle never matches.
func ContainsFold(haystack, needle string) bool {
	n := Fold(needle)
	if n == "" {
		return false
	}

	return strings.Contains(Fold(haystack), n)
}

// Snake lowercases s and joins its words with underscores.
func Snake(s string) string {
	return strings.Join(strings.Fields(Fold(s)), "_")
}
