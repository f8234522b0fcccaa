// internal/pkg/qr/generator.go
package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// Generator renders scan URLs into PNG QR codes. Images are produced on
// demand and never persisted; only the encoded URL is stored with the item.
type Generator struct {
	baseURL   string
	imageSize int
}

// NewGenerator creates a generator rooted at the public API base URL
func NewGenerator(baseURL string, imageSize int) *Generator {
	if imageSize <= 0 {
		imageSize = 256
	}
	return &Generator{
		baseURL:   baseURL,
		imageSize: imageSize,
	}
}

// ScanURL builds the public scan URL encoded into an item's QR code
func (g *Generator) ScanURL(itemCode string) string {
	return fmt.Sprintf("%s/api/inventory/scan/%s", g.baseURL, itemCode)
}

// DataURL renders the scan URL for itemCode as a base64 PNG data URL
// suitable for direct embedding in an <img> tag
func (g *Generator) DataURL(itemCode string) (string, error) {
	png, err := qrcode.Encode(g.ScanURL(itemCode), qrcode.Medium, g.imageSize)
	if err != nil {
		return "", fmt.Errorf("failed to generate qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// PNG renders the scan URL for itemCode as raw PNG bytes
func (g *Generator) PNG(itemCode string) ([]byte, error) {
	png, err := qrcode.Encode(g.ScanURL(itemCode), qrcode.Medium, g.imageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate qr code: %w", err)
	}
	return png, nil
}
