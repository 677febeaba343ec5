// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Hello World", "hello-world"},
		{"french accents", "Élection présidentielle à Lyon", "election-presidentielle-a-lyon"},
		{"punctuation", "Budget 2026 : ce qui change !", "budget-2026-ce-qui-change"},
		{"transliterated", "Straße", "strasse"},
		{"leading and trailing", "  --Breaking--  ", "breaking"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlugify_Truncates(t *testing.T) {
	long := strings.Repeat("mot ", 100)
	got := Slugify(long)
	if len(got) > MaxSlugLength {
		t.Fatalf("len = %d, want <= %d", len(got), MaxSlugLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("slug %q ends with a hyphen", got)
	}
	if !IsValidSlug(got) {
		t.Errorf("truncated slug %q is not valid", got)
	}
}

func TestIsValidSlug(t *testing.T) {
	valid := []string{"a", "news-2026", "la-une"}
	invalid := []string{"", "-a", "a-", "a--b", "Caps", "é", "a b"}

	for _, s := range valid {
		if !IsValidSlug(s) {
			t.Errorf("IsValidSlug(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsValidSlug(s) {
			t.Errorf("IsValidSlug(%q) = true, want false", s)
		}
	}
}
