package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"young_network/model"

	_ "golang.org/x/image/webp"
)

// MaxAvatarBytes bounds a decoded avatar.
const MaxAvatarBytes = 5 << 20

// Signatures of the supported formats as they appear at the start of the
// base64 text.
var avatarSignatures = []struct {
	prefix string
	ext    string
	mime   string
	format string
}{
	{"iVBORw0KGgo", "png", "image/png", "png"},
	{"/9j/", "jpg", "image/jpeg", "jpeg"},
	{"R0lGOD", "gif", "image/gif", "gif"},
	{"UklGR", "webp", "image/webp", "webp"},
}

// Avatar is a decoded, content-addressed upload.
type Avatar struct {
	Data        []byte
	Key         string
	ContentType string
}

// SniffAvatarFormat identifies the image format from the encoded payload.
func SniffAvatarFormat(encoded string) (ext, mime string, ok bool) {
	for _, sig := range avatarSignatures {
		if strings.HasPrefix(encoded, sig.prefix) {
			return sig.ext, sig.mime, true
		}
	}
	return "", "", false
}

// stripDataURL removes a "data:<mime>;base64," prefix.
func stripDataURL(payload string) string {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		if i := strings.Index(payload, ","); i >= 0 {
			return payload[i+1:]
		}
	}
	return payload
}

// DecodeAvatar validates a base64 image and derives its storage key from a
// hash of the decoded bytes.
func DecodeAvatar(payload string) (*Avatar, error) {
	encoded := stripDataURL(payload)
	if encoded == "" {
		return nil, model.NewValidationError("image is required")
	}

	ext, mime, ok := SniffAvatarFormat(encoded)
	if !ok {
		return nil, model.NewValidationError("Unsupported image format")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, model.NewValidationError("Invalid image encoding")
	}
	if len(data) > MaxAvatarBytes {
		return nil, model.NewValidationError("Image is too large")
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, model.NewValidationError("Invalid image data")
	}
	for _, sig := range avatarSignatures {
		if sig.ext == ext && sig.format != format {
			return nil, model.NewValidationError("Invalid image data")
		}
	}

	sum := sha256.Sum256(data)
	return &Avatar{
		Data:        data,
		Key:         "avatars/" + hex.EncodeToString(sum[:]) + "." + ext,
		ContentType: mime,
	}, nil
}
