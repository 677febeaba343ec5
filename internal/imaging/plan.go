// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import "time"

const (
	kb = 1024
	mb = 1024 * kb

	// Unwatermarked files below these sizes are stored as uploaded.
	skipBelow     = 400 * kb
	skipWebPBelow = 2 * mb

	// Files above largeAbove get the smaller box and lower quality.
	largeAbove    = 5 * mb
	largeMaxDim   = 2000
	largeQuality  = 80
	normalMaxDim  = 2500
	normalQuality = 90

	timeoutBase = 15 * time.Second
	// timeoutStep is added per timeoutUnit of input.
	timeoutStep = 10 * time.Second
	timeoutUnit = 100 * kb
	minTimeout  = 30 * time.Second
	maxTimeout  = 120 * time.Second

	watermarkOpacity = 0.15
)

// Plan is what the pipeline will do with one file.
type Plan struct {
	Skip      bool
	MaxDim    int
	Quality   int
	Timeout   time.Duration
	Watermark bool
}

// NewPlan decides how to treat a file of the given format and size. GIFs
// are never converted since animation would be lost.
func NewPlan(format string, size int64, watermark bool) Plan {
	p := Plan{
		Watermark: watermark,
		Timeout:   Timeout(size),
		MaxDim:    normalMaxDim,
		Quality:   normalQuality,
	}
	if size > largeAbove {
		p.MaxDim = largeMaxDim
		p.Quality = largeQuality
	}

	switch {
	case format == FormatGIF:
		p.Skip = true
		p.Watermark = false
	case watermark:
	case size < skipBelow:
		p.Skip = true
	case format == FormatWebP && size < skipWebPBelow:
		p.Skip = true
	}
	return p
}

// Timeout returns the processing budget for a file of size bytes: 15s plus
// 10s per 100 kB, clamped to [30s, 120s].
func Timeout(size int64) time.Duration {
	if size < 0 {
		size = 0
	}
	t := timeoutBase + time.Duration(size/timeoutUnit)*timeoutStep
	if t < minTimeout {
		return minTimeout
	}
	if t > maxTimeout {
		return maxTimeout
	}
	return t
}
