package tryon

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/opuluxe-ai/fashion-assistant/internal/llm"
)

const defaultImageType = "image/png"

// ErrInvalidPhoto is returned for a photo that is not base64 image data.
var ErrInvalidPhoto = errors.New("photo is not a base64 image")

// EncodeDataURI returns img as a data URI so that callers need no separate
// content-type channel.
func EncodeDataURI(img *llm.Image) string {
	return "data:" + imageType(img) + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// DecodeDataURI accepts a data URI or bare base64 and returns the image.
func DecodeDataURI(s string) (*llm.Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidPhoto
	}

	var mime string
	payload := s
	if strings.HasPrefix(s, "data:") {
		header, data, ok := strings.Cut(s[len("data:"):], ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, fmt.Errorf("%w: malformed data URI", ErrInvalidPhoto)
		}
		mime = strings.TrimSuffix(header, ";base64")
		payload = data
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some clients strip padding.
		if data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPhoto, err)
		}
	}
	if len(data) == 0 {
		return nil, ErrInvalidPhoto
	}

	img := &llm.Image{Data: data, MIMEType: mime}
	img.MIMEType = imageType(img)
	return img, nil
}

func imageType(img *llm.Image) string {
	if strings.HasPrefix(img.MIMEType, "image/") {
		return img.MIMEType
	}
	if sniffed := http.DetectContentType(img.Data); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return defaultImageType
}

// validImage rejects nil or empty images.
func validImage(img *llm.Image) error {
	if img == nil || len(img.Data) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidResult, llm.ErrNoImage)
	}
	return nil
}
