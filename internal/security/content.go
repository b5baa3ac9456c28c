package security

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// binaryRatio is the share of control bytes above which content is binary
const binaryRatio = 0.3

// sniffSize bounds how much of a file is inspected
const sniffSize = 64 * 1024

// File signatures by extension
var magicBytes = map[string][]byte{
	".png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	".jpg":  {0xFF, 0xD8, 0xFF},
	".jpeg": {0xFF, 0xD8, 0xFF},
	".gif":  {0x47, 0x49, 0x46, 0x38},
	".pdf":  {0x25, 0x50, 0x44, 0x46, 0x2D},
	".zip":  {0x50, 0x4B, 0x03, 0x04},
	".exe":  {0x4D, 0x5A},
	".dll":  {0x4D, 0x5A},
}

// IsBinary reports whether data looks like binary rather than text.
// Control characters other than tab, LF, VT, FF and CR count against it.
func IsBinary(data []byte) bool {
	if len(data) > sniffSize {
		data = data[:sniffSize]
	}
	if len(data) == 0 {
		return false
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}
	nonPrintable := 0
	for _, b := range data {
		if b < 9 || (b > 13 && b < 32) || b == 127 {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(data)) > binaryRatio
}

// ValidateContent rejects content that should not be handed to a text
// analyzer: binary payloads, and files whose signature contradicts their
// extension.
func ValidateContent(path string, content []byte) error {
	ext := strings.ToLower(filepath.Ext(path))
	if magic, ok := magicBytes[ext]; ok && len(content) > 0 && !bytes.HasPrefix(content, magic) {
		return fmt.Errorf("magic bytes don't match %s extension (file may be disguised)", ext)
	}
	if IsBinary(content) {
		return fmt.Errorf("%s appears to be binary", filepath.Base(path))
	}
	return nil
}
