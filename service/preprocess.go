package service

import (
	"bytes"
	"image"
	"image/jpeg"
	"log/slog"
	"strings"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Preprocessor re-encodes scanned images to bound their size before upload
// and extraction. PDFs and anything non-image pass through unchanged.
// Preprocessing is best-effort: any decode or encode failure falls back to
// the original bytes.
type Preprocessor struct {
	maxDimension int
	jpegQuality  int
}

func NewPreprocessor(maxDimension, jpegQuality int) *Preprocessor {
	if maxDimension <= 0 {
		maxDimension = 1280
	}
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = 75
	}
	return &Preprocessor{maxDimension: maxDimension, jpegQuality: jpegQuality}
}

// Process returns the bytes and mime type to use for upload and extraction.
func (p *Preprocessor) Process(data []byte, mimeType string) ([]byte, string) {
	if !strings.HasPrefix(mimeType, "image/") {
		return data, mimeType
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Debug("image decode failed, using original", "mime_type", mimeType, "error", err)
		return data, mimeType
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	longest := width
	if height > longest {
		longest = height
	}

	if longest > p.maxDimension {
		scale := float64(p.maxDimension) / float64(longest)
		dst := image.NewRGBA(image.Rect(0, 0,
			int(float64(width)*scale),
			int(float64(height)*scale),
		))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: p.jpegQuality}); err != nil {
		slog.Debug("image encode failed, using original", "format", format, "error", err)
		return data, mimeType
	}

	return buf.Bytes(), "image/jpeg"
}
