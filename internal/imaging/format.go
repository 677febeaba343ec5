// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"image"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/olegiv/newsdesk/internal/model"
)

// Source formats recognised by the pipeline.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatGIF  = "gif"
	FormatWebP = "webp"
)

// sniffFile reads the head of path and detects its format.
func sniffFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	return detectFormat(head[:n]), nil
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// TIFF decoding in disintegration/imaging is unsafe (CVE-2023-36308).
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return FormatJPEG
	case strings.Contains(contentType, "png"):
		return FormatPNG
	case strings.Contains(contentType, "gif"):
		return FormatGIF
	case strings.Contains(contentType, "webp"):
		return FormatWebP
	default:
		return ""
	}
}

func formatExt(format string) string {
	if format == FormatJPEG {
		return "jpg"
	}
	return format
}

func formatMimeType(format string) string {
	switch format {
	case FormatJPEG:
		return model.MimeTypeJPEG
	case FormatPNG:
		return model.MimeTypePNG
	case FormatGIF:
		return model.MimeTypeGIF
	case FormatWebP:
		return model.MimeTypeWebP
	default:
		return "application/octet-stream"
	}
}

// readExifOrientation returns the EXIF orientation tag, or 1 when absent.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation rotates and flips img so that EXIF orientation o
// displays upright.
func applyOrientation(img image.Image, o int) image.Image {
	switch o {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// encode writes img as lossy WebP. Transparent areas keep their alpha.
func encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, webp.Options{Quality: quality, Method: 4}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
