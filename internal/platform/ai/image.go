package ai

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
)

var ErrUndecodableImage = errors.New("image cannot be decoded")

// acceptedImageTypes are the formats the vision model is sent.
var acceptedImageTypes = []string{"image/png", "image/jpeg", "application/pdf"}

// ValidateImage sniffs data and returns its MIME type. PNG and JPEG must also
// carry a decodable header with non-zero dimensions.
func ValidateImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty", ErrUndecodableImage)
	}

	mt := mimetype.Detect(data)
	var kind string
	for _, t := range acceptedImageTypes {
		if mt.Is(t) {
			kind = t
			break
		}
	}
	if kind == "" {
		return "", fmt.Errorf("%w: unsupported type %s", ErrUndecodableImage, mt.String())
	}
	if kind == "application/pdf" {
		return kind, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndecodableImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("%w: zero dimensions", ErrUndecodableImage)
	}
	return kind, nil
}
