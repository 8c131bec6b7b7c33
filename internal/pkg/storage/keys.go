package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SanitizeKeyPart reduces a key segment to a safe character set. Anything
// outside [a-zA-Z0-9._-] becomes "-" so untrusted input can never change the
// key hierarchy or smuggle separators.
func SanitizeKeyPart(part string) string {
	var b strings.Builder
	b.Grow(len(part))
	for _, r := range part {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := b.String()
	if out == "" {
		return "unknown"
	}
	return out
}

// BuildObjectKey returns a collision-resistant storage key of the form
// {userID}/{recipeID}/{timestamp}-{token}{ext}. Timestamp plus random token
// keeps concurrent regenerations for the same recipe from colliding.
func BuildObjectKey(userID, recipeID, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	token := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return fmt.Sprintf("%s/%s/%d-%s%s",
		SanitizeKeyPart(userID),
		SanitizeKeyPart(recipeID),
		time.Now().Unix(),
		token,
		SanitizeKeyPart(ext),
	)
}

// ExtFromURL extracts the file extension from a result URL, defaulting to
// .png when the URL carries none.
func ExtFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".png"
	}
	ext := strings.ToLower(path.Ext(u.Path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif":
		return ext
	default:
		return ".png"
	}
}

// ContentTypeForExt returns the MIME type for a file extension
func ContentTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".avif":
		return "image/avif"
	default:
		return "application/octet-stream"
	}
}
