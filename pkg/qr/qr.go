// Package qr renders product labels as QR codes and normalises scanned payloads.
package qr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length in pixels used when none is requested.
const DefaultSize = 256

const maxSize = 1024

// ErrNoPayload is returned when a scan produced no usable text.
var ErrNoPayload = errors.New("scan produced no payload")

// Renderer encodes a value as a PNG image.
type Renderer interface {
	Render(value string, size int) ([]byte, error)
}

// Scanner yields the text of one scanned code.
type Scanner interface {
	Scan(ctx context.Context) (string, error)
}

// PNGRenderer renders with high error correction so printed labels survive wear.
type PNGRenderer struct{}

// Render encodes value. Sizes outside (0, 1024] fall back to DefaultSize.
func (PNGRenderer) Render(value string, size int) ([]byte, error) {
	if value == "" {
		return nil, errors.New("qr value must not be empty")
	}
	if size <= 0 || size > maxSize {
		size = DefaultSize
	}
	png, err := qrcode.Encode(value, qrcode.High, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// DataURL renders value and wraps it for inline use in HTML.
func DataURL(r Renderer, value string, size int) (string, error) {
	png, err := r.Render(value, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// DecodedPayload is a Scanner over text a browser camera already decoded.
type DecodedPayload string

// Scan trims the payload and rejects empty input.
func (p DecodedPayload) Scan(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(p))
	if text == "" {
		return "", ErrNoPayload
	}
	return text, nil
}
