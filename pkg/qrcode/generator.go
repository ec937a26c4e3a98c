// Package qrcode renders provisioning URIs as scannable PNG barcodes.
package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent is returned when content is empty or only whitespace.
	ErrEmptyContent = errors.New("qrcode: content cannot be empty")
	// ErrEncodingFailed is returned when the barcode cannot be rendered.
	ErrEncodingFailed = errors.New("qrcode: encoding failed")
)

// DefaultSize is the image edge in pixels used when size is not positive.
const DefaultSize = 256

// Generate renders content as a PNG image of size x size pixels.
// Medium error correction keeps otpauth URIs readable by phone cameras.
func Generate(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrEncodingFailed, err)
	}
	return png, nil
}

// GenerateBase64Image renders content and returns it as a data URI
// ready to be used as an <img> source.
func GenerateBase64Image(content string, size int) (string, error) {
	png, err := Generate(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
