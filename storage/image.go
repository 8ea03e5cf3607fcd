package storage

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
	"golang.org/x/image/webp"
)

// coverQuality is what the reader app itself uses for thumbnails.
const coverQuality = 85

// normalizeCover turns arbitrary cover bytes into jpeg. Jpeg input passes
// through untouched, webp and png are re-encoded.
func normalizeCover(data []byte) ([]byte, error) {
	if isJPEG(data) {
		return data, nil
	}

	var (
		img image.Image
		err error
	)
	if isWebP(data) {
		img, err = webp.Decode(bytes.NewReader(data))
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode cover image")
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: coverQuality}); err != nil {
		return nil, errors.Wrap(err, "failed to encode cover image")
	}
	return buf.Bytes(), nil
}

func isJPEG(data []byte) bool {
	return len(data) > 2 && data[0] == 0xff && data[1] == 0xd8
}

func isWebP(data []byte) bool {
	return len(data) > 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}
