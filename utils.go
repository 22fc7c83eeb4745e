package akavelink

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxNameLength = 255

// IsValidBucketName validates a bucket name before it is handed to
// the CLI. It checks that the name:
//   - is not empty and at most 255 bytes
//   - is valid UTF-8
//   - contains no path separators or ".."
//   - contains no "=" or "," (they would corrupt the CLI's key=value
//     output grammar when echoed back)
//   - contains no control characters or whitespace
//
// Returns true if the name is valid, false otherwise.
func IsValidBucketName(name string) bool {
	return isValidName(name)
}

// IsValidFileName validates a file name before it is handed to the
// CLI. Same rules as bucket names.
func IsValidFileName(name string) bool {
	return isValidName(name)
}

func isValidName(name string) bool {
	if name == "" || len(name) > maxNameLength {
		return false
	}

	if !utf8.ValidString(name) {
		return false
	}

	if strings.Contains(name, "..") {
		return false
	}

	if strings.ContainsAny(name, `/\=,`) {
		return false
	}

	for _, r := range name {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
