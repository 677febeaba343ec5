// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides small helpers shared by the newsroom services.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars    = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// MaxSlugLength bounds generated slugs; longer titles are cut on a hyphen.
const MaxSlugLength = 120

// Slugify turns a headline into a URL slug. Accents are stripped first and
// anything still outside ASCII is transliterated, so "Élection à Straße"
// becomes "election-a-strasse".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}

	result = strings.ToLower(unidecode.Unidecode(result))
	result = nonSlugChars.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if len(result) > MaxSlugLength {
		result = result[:MaxSlugLength]
		if i := strings.LastIndexByte(result, '-'); i > 0 {
			result = result[:i]
		}
	}
	return result
}

// IsValidSlug reports whether s is a non-empty lowercase hyphenated slug.
func IsValidSlug(s string) bool {
	if s == "" || s[0] == '-' || s[len(s)-1] == '-' || strings.Contains(s, "--") {
		return false
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}
	return true
}
