package composer

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in       string
		currency string
		places   int32
		want     string
	}{
		{"0", "INR", 2, "INR 0.00"},
		{"1234.5", "INR", 2, "INR 1,234.50"},
		{"1234567.891", "INR", 2, "INR 1,234,567.89"},
		{"999", "INR", 2, "INR 999.00"},
		{"-1500", "INR", 2, "INR -1,500.00"},
		{"100000", "JPY", 0, "JPY 100,000"},
		{"12.5", "", 2, "12.50"},
	}
	for _, tc := range cases {
		got := formatAmount(tc.currency, tc.places, decimal.RequireFromString(tc.in))
		assert.Equal(t, tc.want, got, "amount %s", tc.in)
	}
}

func TestGroupThousands(t *testing.T) {
	assert.Equal(t, "1", groupThousands("1"))
	assert.Equal(t, "123", groupThousands("123"))
	assert.Equal(t, "1,234", groupThousands("1234"))
	assert.Equal(t, "123,456", groupThousands("123456"))
	assert.Equal(t, "1,234,567", groupThousands("1234567"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly10!", truncate("exactly10!", 10))
	assert.Equal(t, "abcde", truncate("abcdefgh", 5))
	assert.Equal(t, "two lines", truncate("two\n  lines", 20))
	assert.Equal(t, "₹₹₹", truncate("₹₹₹₹₹", 3))
	assert.Equal(t, "", truncate("   ", 5))
}

func TestHasPrecision(t *testing.T) {
	assert.True(t, hasPrecision(decimal.RequireFromString("1.25"), 2))
	assert.True(t, hasPrecision(decimal.RequireFromString("1.2500"), 2))
	assert.False(t, hasPrecision(decimal.RequireFromString("1.255"), 2))
	assert.True(t, hasPrecision(decimal.RequireFromString("7"), 0))
}

func TestFitInBox(t *testing.T) {
	cases := []struct {
		width, height int
		wantW, wantH  float64
	}{
		{400, 100, 90, 22.5},
		{100, 400, 17.5, 70},
		{90, 70, 90, 70},
		{900, 700, 90, 70},
		{1, 1, 70, 70},
	}
	for _, tc := range cases {
		w, h := fitInBox(tc.width, tc.height, imageBoxWidth, imageBoxHeight)
		assert.InDelta(t, tc.wantW, w, 1e-9, "%dx%d", tc.width, tc.height)
		assert.InDelta(t, tc.wantH, h, 1e-9, "%dx%d", tc.width, tc.height)
		assert.LessOrEqual(t, w, imageBoxWidth+epsilon)
		assert.LessOrEqual(t, h, imageBoxHeight+epsilon)
	}
}

func TestDecodeImage(t *testing.T) {
	budget := imageBudget{maxPixels: defaultMaxImagePixels}
	ref := pngImage(t, "p", 12, 8)
	img, err := decodeImage(ref, budget)
	require.NoError(t, err)
	assert.Equal(t, 12, img.width)
	assert.Equal(t, 8, img.height)
	// JPEG SOI marker.
	assert.Equal(t, []byte{0xFF, 0xD8}, img.data[:2])

	_, err = decodeImage(ImageRef{Name: "empty"}, budget)
	assert.Error(t, err)
	_, err = decodeImage(ImageRef{Name: "junk", Data: []byte("GIF89a?")}, budget)
	assert.Error(t, err)
}

// pngHeader returns a PNG holding only a valid IHDR chunk for a w x h
// grayscale image. DecodeConfig accepts it; a full decode does not.
func pngHeader(w, h uint32) []byte {
	var ihdr [13]byte
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(ihdr)))
	buf.Write(length[:])
	crc := crc32.NewIEEE()
	_, _ = crc.Write([]byte("IHDR"))
	_, _ = crc.Write(ihdr[:])
	buf.WriteString("IHDR")
	buf.Write(ihdr[:])
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	buf.Write(sum[:])
	return buf.Bytes()
}

func TestDecodeImage_RejectsOversizedHeader(t *testing.T) {
	data := pngHeader(10000, 10000)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "png", format)
	require.Equal(t, 10000, cfg.Width)

	_, err = decodeImage(ImageRef{Name: "huge.png", Data: data}, imageBudget{maxPixels: defaultMaxImagePixels})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image too large")
}

func TestDecodeImage_DownscalesToBox(t *testing.T) {
	c := newTestComposer(t)
	budget := c.boxBudget(imageBoxWidth, imageBoxHeight)
	img, err := decodeImage(pngImage(t, "photo", 2000, 1000), budget)
	require.NoError(t, err)
	assert.Equal(t, 2000, img.width)
	assert.Equal(t, 1000, img.height)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(img.data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, budget.maxWidth, cfg.Width)
	assert.InDelta(t, budget.maxWidth/2, cfg.Height, 1)
	assert.LessOrEqual(t, cfg.Height, budget.maxHeight)
}

func TestScaledSize(t *testing.T) {
	cases := []struct {
		width, height, maxW, maxH int
		wantW, wantH              int
	}{
		{100, 50, 709, 552, 100, 50},
		{2000, 1000, 709, 552, 709, 355},
		{1000, 4000, 709, 552, 138, 552},
		{5000, 1, 100, 100, 100, 1},
		{300, 300, 0, 0, 300, 300},
	}
	for _, tc := range cases {
		w, h := scaledSize(tc.width, tc.height, tc.maxW, tc.maxH)
		assert.Equal(t, tc.wantW, w, "%dx%d", tc.width, tc.height)
		assert.Equal(t, tc.wantH, h, "%dx%d", tc.width, tc.height)
	}
}

func TestNew_Options(t *testing.T) {
	c, err := New(WithCurrency("USD", 2), WithCompanyName("  "))
	require.NoError(t, err)
	assert.Equal(t, defaultCompany, c.company)
	assert.Equal(t, "USD 10.00", c.FormatAmount(decimal.NewFromInt(10)))

	_, err = New(WithCurrency("USD", -1))
	assert.Error(t, err)
	_, err = New(WithReasonBudget(0))
	assert.Error(t, err)
	_, err = New(WithMaxImagePixels(0))
	assert.Error(t, err)
	assert.Equal(t, int32(2), c.Places())
}
