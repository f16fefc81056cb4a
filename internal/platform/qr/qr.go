// Package qr builds pass numbers and QR payloads and renders them as PNG data URLs.
package qr

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/skip2/go-qrcode"
)

const (
	imageSize      = 300
	suffixLen      = 6
	base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	dataURLPrefix  = "data:image/png;base64,"
)

var ErrInvalidPayload = errors.New("qr: invalid payload")

// Form selects how much of the pass goes into the QR code.
type Form int

const (
	FormJSON Form = iota
	FormNumber
)

type content struct {
	PassNumber string    `json:"passNumber"`
	Visitor    string    `json:"visitor"`
	ValidFrom  time.Time `json:"validFrom"`
	ValidUntil time.Time `json:"validUntil"`
}

// NewPassNumber returns VP-<base36 unix ms>-<6 random base36 chars>.
func NewPassNumber(now time.Time) (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := 0; i < suffixLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("pass number: %w", err)
		}
		sb.WriteByte(base36Alphabet[n.Int64()])
	}
	stamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return "VP-" + stamp + "-" + sb.String(), nil
}

func Payload(form Form, p *domain.Pass) (string, error) {
	if form == FormNumber {
		return p.PassNumber, nil
	}
	b, err := json.Marshal(content{
		PassNumber: p.PassNumber,
		Visitor:    p.VisitorID,
		ValidFrom:  p.ValidFrom.UTC(),
		ValidUntil: p.ValidUntil.UTC(),
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParsePayload extracts the pass number from either payload form.
func ParsePayload(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidPayload
	}
	if strings.HasPrefix(s, "{") {
		var c content
		if err := json.Unmarshal([]byte(s), &c); err != nil {
			return "", ErrInvalidPayload
		}
		if strings.TrimSpace(c.PassNumber) == "" {
			return "", ErrInvalidPayload
		}
		return strings.TrimSpace(c.PassNumber), nil
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return "", ErrInvalidPayload
	}
	return s, nil
}

func DataURL(payload string) (string, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, imageSize)
	if err != nil {
		return "", fmt.Errorf("render qr: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
