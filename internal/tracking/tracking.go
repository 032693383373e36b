// Package tracking derives the QR tracking artifact of an evidence item from its id.
package tracking

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/google/uuid"
)

const (
	Prefix    = "EVIDENCE:"
	imageSize = 300
)

// Payload is the string encoded in an item's QR code.
func Payload(id uuid.UUID) string {
	return Prefix + id.String()
}

// ParsePayload extracts the evidence id from a scanned payload.
func ParsePayload(payload string) (uuid.UUID, error) {
	payload = strings.TrimSpace(payload)
	if !strings.HasPrefix(payload, Prefix) {
		return uuid.Nil, fmt.Errorf("tracking code must start with %s", Prefix)
	}
	id, err := uuid.Parse(strings.TrimPrefix(payload, Prefix))
	if err != nil {
		return uuid.Nil, fmt.Errorf("tracking code carries a malformed id: %w", err)
	}
	return id, nil
}

// QRCodePNG renders the payload for id as a square PNG.
func QRCodePNG(id uuid.UUID) ([]byte, error) {
	code, err := qr.Encode(Payload(id), qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	code, err = barcode.Scale(code, imageSize, imageSize)
	if err != nil {
		return nil, fmt.Errorf("scale qr: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return nil, fmt.Errorf("png encode qr: %w", err)
	}
	return buf.Bytes(), nil
}
