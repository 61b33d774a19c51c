package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"
)

// loadImage reads an image from a file path or a base64 data URL
// ("data:image/jpeg;base64,...."). JPEG and PNG are supported.
func loadImage(src string) (image.Image, error) {
	if strings.HasPrefix(src, "data:") {
		return decodeDataURL(src)
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", src, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", src, err)
	}
	return img, nil
}

func decodeDataURL(src string) (image.Image, error) {
	comma := strings.IndexByte(src, ',')
	if comma < 0 {
		return nil, fmt.Errorf("malformed data URL: missing payload")
	}

	header := src[:comma]
	if !strings.Contains(header, ";base64") {
		return nil, fmt.Errorf("malformed data URL: only base64 payloads are supported")
	}

	raw, err := base64.StdEncoding.DecodeString(src[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 payload: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}
	return img, nil
}
