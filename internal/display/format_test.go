package display

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{5 * 1024 * 1024 * 1024, "5.0 GiB"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatBytes(c.in), "%d bytes", c.in)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{850 * time.Millisecond, "850ms"},
		{12400 * time.Millisecond, "12.4s"},
		{3*time.Minute + 5*time.Second, "3m05s"},
		{2*time.Hour + 14*time.Minute, "2h14m"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatDuration(c.in))
	}
}

func TestPrintBanner(t *testing.T) {
	var plain, colored bytes.Buffer
	PrintBanner(&plain, false)
	PrintBanner(&colored, true)

	assert.NotContains(t, plain.String(), "\033[")
	assert.Contains(t, colored.String(), "\033[1;36m")
	assert.Greater(t, colored.Len(), plain.Len())
}
