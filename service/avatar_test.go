package service

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"strings"
	"testing"

	"young_network/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniffAvatarFormat(t *testing.T) {
	tests := []struct {
		encoded string
		ext     string
		ok      bool
	}{
		{"iVBORw0KGgoAAAANSUhEUg", "png", true},
		{"/9j/4AAQSkZJRgABAQ", "jpg", true},
		{"R0lGODlhAQABAIAAAP", "gif", true},
		{"UklGRiQAAABXRUJQ", "webp", true},
		{"Zm9vYmFy", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		ext, _, ok := SniffAvatarFormat(tt.encoded)
		assert.Equal(t, tt.ok, ok, tt.encoded)
		assert.Equal(t, tt.ext, ext, tt.encoded)
	}
}

func encode(t *testing.T, write func(*bytes.Buffer, image.Image) error) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, write(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeAvatar(t *testing.T) {
	jpg := encode(t, func(b *bytes.Buffer, img image.Image) error { return jpeg.Encode(b, img, nil) })
	gf := encode(t, func(b *bytes.Buffer, img image.Image) error { return gif.Encode(b, img, nil) })

	avatar, err := DecodeAvatar("data:image/jpeg;base64," + jpg)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", avatar.ContentType)
	assert.True(t, strings.HasPrefix(avatar.Key, "avatars/"))
	assert.True(t, strings.HasSuffix(avatar.Key, ".jpg"))

	again, err := DecodeAvatar(jpg)
	require.NoError(t, err)
	assert.Equal(t, avatar.Key, again.Key, "key is derived from content")

	avatar, err = DecodeAvatar(gf)
	require.NoError(t, err)
	assert.Equal(t, "image/gif", avatar.ContentType)
}

func TestDecodeAvatarRejects(t *testing.T) {
	oversized := "iVBORw0KGgo" + strings.Repeat("A", (MaxAvatarBytes/3+10)*4-len("iVBORw0KGgo"))

	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"data url without body", "data:image/png;base64,"},
		{"unknown format", "Zm9vYmFy"},
		{"bad base64", "iVBORw0KGgo!!!"},
		{"png header only", "iVBORw0KGgoAAAAA"},
		{"too large", oversized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAvatar(tt.payload)
			assertCode(t, err, model.CodeValidation)
		})
	}
}
