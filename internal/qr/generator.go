package qr

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 256
	MaxSize     = 1024
)

var ErrInvalidURL = errors.New("qr target must be an absolute http(s) url")

// Generator renders QR codes that point people on site at the submission form.
type Generator struct {
	formURL string
}

func NewGenerator(formURL string) *Generator {
	return &Generator{formURL: formURL}
}

// FormLink returns the form url, prefilled with zone when one is given.
func (g *Generator) FormLink(zone string) (string, error) {
	u, err := parseTarget(g.formURL)
	if err != nil {
		return "", err
	}
	if zone != "" {
		q := u.Query()
		q.Set("zone", zone)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// EncodeURL renders target as a PNG of size pixels.
func (g *Generator) EncodeURL(target string, size int) ([]byte, error) {
	if _, err := parseTarget(target); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	png, err := qrcode.Encode(target, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}

func parseTarget(target string) (*url.URL, error) {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, target)
	}
	return u, nil
}
