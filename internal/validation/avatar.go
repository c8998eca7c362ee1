package validation

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
)

const MaxAvatarSize = 5 << 20 // 5MB

// avatarTypes maps each accepted sniffed content type to its extensions.
var avatarTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/webp": {".webp"},
}

// ValidateAvatar checks an uploaded avatar: size, sniffed image type and a
// filename extension that agrees with the content.
func ValidateAvatar(header *multipart.FileHeader) error {
	if header.Size > MaxAvatarSize {
		return fmt.Errorf("avatar too large: maximum size is %d MB", MaxAvatarSize>>20)
	}

	file, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open avatar: %w", err)
	}
	defer func() { _ = file.Close() }()

	// DetectContentType looks at no more than 512 bytes
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("failed to read avatar: %w", err)
	}

	detected := http.DetectContentType(head[:n])
	exts, ok := avatarTypes[detected]
	if !ok {
		return fmt.Errorf("avatar must be a JPEG, PNG or WebP image (detected: %s)", detected)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !slices.Contains(exts, ext) {
		return fmt.Errorf("avatar extension %q does not match its %s content", ext, detected)
	}

	return nil
}
