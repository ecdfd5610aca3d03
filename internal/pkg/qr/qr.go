// Package qr builds public QR links and renders them as PNG images using the
// vehicle's stored styling (colors and size; fancy styling stays out).
package qr

import (
	"fmt"
	"image/color"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/parkping/ParkPing/app/models"
)

const (
	minSize = 64
	maxSize = 1024
)

// BuildPublicURL returns the URL the QR code points at.
func BuildPublicURL(baseURL, qrUniqueID string) string {
	return fmt.Sprintf("%s/qr/%s", strings.TrimRight(baseURL, "/"), qrUniqueID)
}

// Render produces the PNG for a vehicle's QR code.
func Render(vehicle *models.Vehicle, baseURL string) ([]byte, error) {
	content := BuildPublicURL(baseURL, vehicle.QRUniqueID)

	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to build QR code: %w", err)
	}

	code.ForegroundColor = parseHexColor(vehicle.QRColorPrimary, color.Black)
	code.BackgroundColor = parseHexColor(vehicle.QRColorSecondary, color.White)

	size := int(vehicle.QRSize)
	if size < minSize || size > maxSize {
		size = 256
	}
	return code.PNG(size)
}

// parseHexColor parses #RRGGBB, falling back to def on malformed input.
func parseHexColor(s string, def color.Color) color.Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return def
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return def
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
