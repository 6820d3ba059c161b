package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/edumart/edumart/pkg/validator"
)

// objectNameBytes is the amount of randomness in a minted object name.
// 16 bytes of entropy makes key collisions a non-concern, so concurrent
// uploads need no coordination.
const objectNameBytes = 16

var safeExtRegexp = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// newObjectName mints the random filename segment of a storage key:
// 16 bytes of hex plus an extension derived from the validated MIME type.
// The client filename is consulted only when the MIME type has no canonical
// extension, and even then only a sanitized extension survives.
func newObjectName(contentType, filename string) (string, error) {
	var buf [objectNameBytes]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", WrapError(ErrCodeUploadFailed, "mint object name", err)
	}
	return hex.EncodeToString(buf[:]) + extensionFor(contentType, filename), nil
}

func extensionFor(contentType, filename string) string {
	if ext, ok := validator.ExtensionForMIME(contentType); ok {
		return ext
	}
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if safeExtRegexp.MatchString(ext) {
		return ext
	}
	return ".bin"
}

// buildKey assembles "{dir}/{userID}/{objectName}".
func buildKey(dir string, userID int64, objectName string) string {
	return fmt.Sprintf("%s/%d/%s", dir, userID, objectName)
}

// LegacyKey recovers a storage key from a pre-abstraction "/uploads/..."
// URL. Records written before the storage layer existed stored such URLs
// verbatim. The translation is read-only and one-directional: new keys are
// never written in this form.
func LegacyKey(url string) string {
	return strings.TrimPrefix(url, "/uploads/")
}
