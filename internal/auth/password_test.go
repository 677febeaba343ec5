// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword_Format(t *testing.T) {
	hash, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$") {
		t.Errorf("unexpected hash prefix: %s", hash)
	}

	other, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == other {
		t.Error("two hashes of the same password should use different salts")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	ok, err := CheckPassword("correct horse", hash)
	if err != nil || !ok {
		t.Fatalf("correct password rejected: ok=%v err=%v", ok, err)
	}

	ok, err = CheckPassword("wrong horse", hash)
	if err != nil || ok {
		t.Fatalf("wrong password accepted: ok=%v err=%v", ok, err)
	}
}

func TestCheckPassword_LegacyParams(t *testing.T) {
	// Stored with m=65536,t=1,p=4 before the cost profile changed.
	legacy := "$argon2id$v=19$m=65536,t=1,p=4$mucMvOaS6lZ2LWNS1OEFKw$UYEWv8cvCOO6l2zGeqv3JPVe1nyy0x9GXBfYEuDM544"

	ok, err := CheckPassword("changeme", legacy)
	if err != nil || !ok {
		t.Fatalf("legacy hash rejected: ok=%v err=%v", ok, err)
	}
	if !NeedsRehash(legacy) {
		t.Error("legacy hash should need rehash")
	}
}

func TestCheckPassword_Malformed(t *testing.T) {
	for _, h := range []string{"", "plain", "$bcrypt$x$y$z$w", "$argon2id$v=19$bad$x$y"} {
		if _, err := CheckPassword("x", h); !errors.Is(err, ErrMalformedHash) {
			t.Errorf("CheckPassword(%q) err = %v, want ErrMalformedHash", h, err)
		}
	}
}

func TestNeedsRehash_Current(t *testing.T) {
	hash, err := HashPassword("x")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if NeedsRehash(hash) {
		t.Error("fresh hash should not need rehash")
	}
}
