// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeout(t *testing.T) {
	tests := []struct {
		size int64
		want time.Duration
	}{
		{0, 30 * time.Second},
		{100 * kb, 30 * time.Second},
		{200*kb - 1, 30 * time.Second},
		{200 * kb, 35 * time.Second},
		{500 * kb, 65 * time.Second},
		{6 * mb, 120 * time.Second},
		{50 * mb, 120 * time.Second},
		{-1, 30 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Timeout(tt.size), "size %d", tt.size)
	}
}

func TestNewPlan_LargeJPEG(t *testing.T) {
	p := NewPlan(FormatJPEG, 6*mb, false)

	assert.False(t, p.Skip)
	assert.Equal(t, int64(120000), p.Timeout.Milliseconds())
	assert.Equal(t, 2000, p.MaxDim)
	assert.Equal(t, 80, p.Quality)
}

func TestNewPlan_NormalSize(t *testing.T) {
	p := NewPlan(FormatPNG, 3*mb, false)

	assert.False(t, p.Skip)
	assert.Equal(t, 2500, p.MaxDim)
	assert.Equal(t, 90, p.Quality)
}

func TestNewPlan_Skip(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		size      int64
		watermark bool
		skip      bool
	}{
		{"small jpeg", FormatJPEG, 399 * kb, false, true},
		{"jpeg at threshold", FormatJPEG, 400 * kb, false, false},
		{"small jpeg with watermark", FormatJPEG, 10 * kb, true, false},
		{"webp under 2MB", FormatWebP, 1 * mb, false, true},
		{"webp over 2MB", FormatWebP, 3 * mb, false, false},
		{"webp under 2MB with watermark", FormatWebP, 1 * mb, true, false},
		{"png 1MB", FormatPNG, 1 * mb, false, false},
		{"gif", FormatGIF, 10 * mb, false, true},
		{"gif with watermark", FormatGIF, 10 * kb, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlan(tt.format, tt.size, tt.watermark)
			assert.Equal(t, tt.skip, p.Skip)
		})
	}
	assert.False(t, NewPlan(FormatGIF, 1, true).Watermark, "gifs are never watermarked")
}

func TestMaxWorkers(t *testing.T) {
	n := MaxWorkers()
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, 4)
}
