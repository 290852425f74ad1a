// Package qrcode renders scannable PNG codes for files: either the file's
// content, when it is small UTF-8 text, or its absolute path.
package qrcode

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// MaxContentBytes is the largest file whose content is embedded directly.
const MaxContentBytes = 2000

// Mode selects what the code carries.
type Mode string

const (
	ModePath    Mode = "path"
	ModeContent Mode = "content"
)

// Encoder renders square PNG codes of a fixed pixel size.
type Encoder struct {
	size int
}

// New creates an encoder producing size x size images.
func New(size int) *Encoder {
	if size <= 0 {
		size = 256
	}
	return &Encoder{size: size}
}

// PayloadFor returns the text encoded for path. Content mode falls back to
// the absolute path when the file is too large or not UTF-8, and reports
// which mode was used.
func PayloadFor(path string, mode Mode) (string, Mode, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", fmt.Errorf("qrcode: resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", "", fmt.Errorf("qrcode: stat %s: %w", path, err)
	}
	if mode != ModeContent || info.IsDir() || info.Size() > MaxContentBytes {
		return abs, ModePath, nil
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", "", fmt.Errorf("qrcode: read %s: %w", path, err)
	}
	if len(data) == 0 || len(data) > MaxContentBytes || !utf8.Valid(data) {
		return abs, ModePath, nil
	}
	return string(data), ModeContent, nil
}

// Encode renders payload as a PNG.
func (e *Encoder) Encode(payload string) ([]byte, error) {
	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qrcode: encode: %w", err)
	}
	size := max(e.size, code.Bounds().Dx())
	code, err = barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("qrcode: scale: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return nil, fmt.Errorf("qrcode: png: %w", err)
	}
	return buf.Bytes(), nil
}

// ForFile resolves the payload for path and renders it.
func (e *Encoder) ForFile(path string, mode Mode) ([]byte, Mode, error) {
	payload, used, err := PayloadFor(path, mode)
	if err != nil {
		return nil, "", err
	}
	img, err := e.Encode(payload)
	if err != nil {
		return nil, "", err
	}
	return img, used, nil
}
