package utils

import (
	"bytes"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"path/filepath"
	"strings"
)

// ImageDimensions reads width/height from the image header without decoding
// the full pixel data. Supports PNG, JPEG and WebP.
func ImageDimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// ExtFromFilename returns the lowercase file extension without the leading
// dot. Files without an extension default to "png".
func ExtFromFilename(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return "png"
	}
	return ext
}
