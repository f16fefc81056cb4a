package qr

import (
	"encoding/base64"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/diagnosis/visitor-pass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var passNumberPattern = regexp.MustCompile(`^VP-[0-9A-Z]+-[0-9A-Z]{6}$`)

func TestNewPassNumber(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n, err := NewPassNumber(now)
		require.NoError(t, err)
		assert.Regexp(t, passNumberPattern, n)
		seen[n] = true
	}
	assert.Greater(t, len(seen), 95, "suffix must vary within the same millisecond")
}

func TestPayloadRoundTrip(t *testing.T) {
	p := &domain.Pass{
		PassNumber: "VP-ABC123-XYZ789",
		VisitorID:  "visitor-1",
		ValidFrom:  time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		ValidUntil: time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC),
	}

	for _, form := range []Form{FormJSON, FormNumber} {
		payload, err := Payload(form, p)
		require.NoError(t, err)
		got, err := ParsePayload(payload)
		require.NoError(t, err)
		assert.Equal(t, p.PassNumber, got)
	}

	payload, _ := Payload(FormJSON, p)
	assert.Contains(t, payload, `"visitor":"visitor-1"`)
}

func TestParsePayloadRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "{bad json", `{"visitor":"x"}`, "two words"} {
		_, err := ParsePayload(in)
		assert.ErrorIs(t, err, ErrInvalidPayload, in)
	}
}

func TestDataURL(t *testing.T) {
	url, err := DataURL("VP-ABC123-XYZ789")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(raw[:4]))
}
