// Package qr renders session payloads as scannable codes. The client scanner
// itself is outside this service; we only hand back an embeddable image.
package qr

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"acadence/internal/session"
)

const imageSize = 300

// DataURL encodes the payload as a PNG data URL suitable for direct use in
// an <img> tag.
func DataURL(p session.Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	png, err := qrcode.Encode(string(data), qrcode.Medium, imageSize)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
