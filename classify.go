package akavelink

import (
	"errors"
	"io/fs"
	"os/exec"
	"regexp"
	"strings"
)

// hexCodePattern matches an embedded contract error selector: "0x"
// followed by exactly 8 hex digits. Deliberate heuristic: it matches
// anywhere in free text, so a hex-looking substring that collides with
// a registered code would be picked up. Only registered codes resolve,
// which keeps accidental collisions rare.
var hexCodePattern = regexp.MustCompile(`0x[0-9a-fA-F]{8}`)

// literalSignatures are known failure substrings the CLI prints
// without a selector. Checked after hex codes.
var literalSignatures = []struct {
	substr string
	code   string
}{
	{"BucketNonempty", CodeBucketNonempty},
	{"FileFullyUploaded", CodeFileFullyUploaded},
}

// Classifier maps raw failure signals onto the error taxonomy. It is
// stateless and total: every input resolves to exactly one classified
// Error, falling back to UNKNOWN_ERROR rather than letting anything
// unstructured reach the HTTP boundary.
type Classifier struct {
	reg *Registry
}

// NewClassifier returns a Classifier backed by the given registry.
func NewClassifier(reg *Registry) *Classifier {
	return &Classifier{reg: reg}
}

// ClassifyStderr inspects stderr text for failure signatures and
// returns the matching classified Error, or nil when no signature is
// present. Precedence: embedded registered hex code, then known
// literal substrings, then a validation marker. A match means the
// invocation failed regardless of its exit code.
func (c *Classifier) ClassifyStderr(text string) *Error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	for _, m := range hexCodePattern.FindAllString(text, -1) {
		code := strings.ToLower(m)
		if _, ok := c.reg.Lookup(code); ok {
			return c.reg.NewError(code, errors.New(strings.TrimSpace(text)))
		}
	}

	for _, sig := range literalSignatures {
		if strings.Contains(text, sig.substr) {
			return c.reg.NewError(sig.code, errors.New(strings.TrimSpace(text)))
		}
	}

	if strings.Contains(strings.ToLower(text), "validation error") {
		return c.reg.NewError(CodeValidationError, errors.New(strings.TrimSpace(text)))
	}

	return nil
}

// ClassifyErr converts any error into a classified Error. Already
// classified errors pass through unchanged; process-spawn failures
// (binary missing, permission denied) become SYSTEM_ERROR; everything
// else becomes UNKNOWN_ERROR.
func (c *Classifier) ClassifyErr(err error) *Error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return c.reg.NewError(CodeSystemError, err)
	}

	return c.reg.NewError(CodeUnknownError, err)
}
