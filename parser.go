package akavelink

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Fixed output prefixes of the wrapped CLI. Treat the wording as a
// versioned contract: if the CLI changes it, parsing degrades to the
// invalid-format error path instead of crashing.
const (
	prefixBucketCreated = "Bucket created:"
	prefixBucket        = "Bucket:"
	prefixBucketDeleted = "Bucket deleted:"
	prefixFile          = "File:"
	prefixFileDeleted   = "File deleted:"
	markerFileUploaded  = "File uploaded successfully:"
)

// errorEnvelope is the machine-readable error shape the CLI emits on
// some failure paths instead of plain text.
type errorEnvelope struct {
	Code    string `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Parser converts one blob of free-form subprocess text into a
// structured entity according to a ParserKind. Parsing is idempotent
// and total: the same input always yields the same output, and every
// malformed input produces a classified Error, never a panic.
type Parser struct {
	reg *Registry
}

// NewParser returns a Parser backed by the given registry.
func NewParser(reg *Registry) *Parser {
	return &Parser{reg: reg}
}

// Parse applies the grammar for kind to out.
//
// Result types per kind: Bucket (bucket create/view), []Bucket (bucket
// list), FileMeta (file info), []FileMeta (file list), UploadResult
// (upload), DeleteAck (deletions), string (download), any (default).
func (p *Parser) Parse(kind ParserKind, out string) (any, error) {
	if v, err, handled := p.tryJSON(kind, out); handled {
		return v, err
	}

	switch kind {
	case ParseBucketCreate:
		m, err := p.parseRecord(out, prefixBucketCreated, CodeBucketInvalid)
		if err != nil {
			return nil, err
		}
		return bucketFromPairs(m), nil
	case ParseBucketView:
		m, err := p.parseRecord(out, prefixBucket, CodeBucketInvalid)
		if err != nil {
			return nil, err
		}
		return bucketFromPairs(m), nil
	case ParseBucketList:
		buckets := []Bucket{}
		for _, m := range p.parseRecordLines(out, prefixBucket) {
			buckets = append(buckets, bucketFromPairs(m))
		}
		return buckets, nil
	case ParseBucketDelete:
		return p.parseDeletion(out, prefixBucketDeleted, CodeBucketInvalid)
	case ParseFileList:
		files := []FileMeta{}
		for _, m := range p.parseRecordLines(out, prefixFile) {
			files = append(files, fileFromPairs(m))
		}
		return files, nil
	case ParseFileInfo:
		m, err := p.parseRecord(out, prefixFile, CodeFileInvalid)
		if err != nil {
			return nil, err
		}
		return fileFromPairs(m), nil
	case ParseFileUpload:
		return p.parseUpload(out)
	case ParseFileDelete:
		return p.parseDeletion(out, prefixFileDeleted, CodeFileInvalid)
	case ParseFileDownload:
		// No structural parsing; the payload travels out of band and
		// this text is only kept for error surfacing.
		return out, nil
	case ParseDefault:
		return out, nil
	default:
		return nil, p.reg.NewError(CodeUnknownError, fmt.Errorf("unhandled parser kind %s", kind))
	}
}

// tryJSON attempts whole-text JSON decoding before any line grammar.
// A decoded error envelope classifies immediately for every kind; a
// decoded plain value is only returned for ParseDefault.
func (p *Parser) tryJSON(kind ParserKind, out string) (any, error, bool) {
	trimmed := strings.TrimSpace(out)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return nil, nil, false
	}

	var env errorEnvelope
	if err := json.Unmarshal([]byte(trimmed), &env); err == nil {
		if env.Code != "" || env.Error != "" {
			code := env.Code
			if code == "" {
				code = CodeUnknownError
			}
			msg := env.Message
			if msg == "" {
				msg = env.Error
			}
			return nil, p.reg.NewError(code, errors.New(msg)), true
		}
	}

	if kind == ParseDefault {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v, nil, true
		}
	}
	return nil, nil, false
}

// parseRecord parses a single-record output: a required literal
// prefix followed by comma-separated key=value pairs. Empty output is
// rejected explicitly before any prefix check so a blank response hits
// the same invalid-format code instead of an index panic.
func (p *Parser) parseRecord(out, prefix, failCode string) (map[string]string, error) {
	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return nil, p.reg.NewError(failCode, errors.New("empty response"))
	}
	if !strings.HasPrefix(trimmed, prefix) {
		return nil, p.reg.NewErrorWithDetails(failCode,
			fmt.Errorf("expected %q prefix", prefix),
			map[string]any{"output": trimmed})
	}
	pairs, err := parsePairs(strings.TrimPrefix(trimmed, prefix))
	if err != nil {
		return nil, p.reg.NewErrorWithDetails(failCode, err,
			map[string]any{"output": trimmed})
	}
	return pairs, nil
}

// parseRecordLines scans every line of out and parses the ones
// starting with prefix. Non-matching or malformed lines are skipped;
// an input with no matching lines yields an empty result, not an
// error.
func (p *Parser) parseRecordLines(out, prefix string) []map[string]string {
	var records []map[string]string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		pairs, err := parsePairs(strings.TrimPrefix(line, prefix))
		if err != nil {
			continue
		}
		records = append(records, pairs)
	}
	return records
}

// parseDeletion handles deletion output. A known failure substring
// anywhere in the text wins even before the prefix check.
func (p *Parser) parseDeletion(out, prefix, failCode string) (any, error) {
	if strings.Contains(out, "BucketNonempty") {
		return nil, p.reg.NewError(CodeBucketNonempty, errors.New(strings.TrimSpace(out)))
	}
	if strings.Contains(out, "FileFullyUploaded") {
		return nil, p.reg.NewError(CodeFileFullyUploaded, errors.New(strings.TrimSpace(out)))
	}

	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return nil, p.reg.NewError(failCode, errors.New("empty response"))
	}
	if !strings.HasPrefix(trimmed, prefix) {
		return nil, p.reg.NewErrorWithDetails(failCode,
			fmt.Errorf("expected %q prefix", prefix),
			map[string]any{"output": trimmed})
	}

	if pairs, err := parsePairs(strings.TrimPrefix(trimmed, prefix)); err == nil {
		if name, ok := pairs["Name"]; ok {
			return DeleteAck{Name: name}, nil
		}
	}
	return DeleteAck{Message: "deleted"}, nil
}

// parseUpload scans for the upload success marker and parses the
// key=value tail after it. The full output rides along in Details on
// failure since upload diagnostics are otherwise lost.
func (p *Parser) parseUpload(out string) (any, error) {
	if strings.Contains(out, "FileFullyUploaded") {
		return nil, p.reg.NewError(CodeFileFullyUploaded, errors.New(strings.TrimSpace(out)))
	}

	for _, line := range strings.Split(out, "\n") {
		idx := strings.Index(line, markerFileUploaded)
		if idx < 0 {
			continue
		}
		pairs, err := parsePairs(line[idx+len(markerFileUploaded):])
		if err != nil {
			return nil, p.reg.NewErrorWithDetails(CodeFileInvalid, err,
				map[string]any{"output": strings.TrimSpace(out)})
		}
		return UploadResult{FileMeta: fileFromPairs(pairs)}, nil
	}

	return nil, p.reg.NewErrorWithDetails(CodeFileInvalid,
		errors.New("upload success marker not found"),
		map[string]any{"output": strings.TrimSpace(out)})
}

// parsePairs splits a "k=v, k=v" tail into a map. Each pair must
// contain "="; splitting is on the first "=" so values may contain
// the character.
func parsePairs(s string) (map[string]string, error) {
	pairs := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, "=")
		if !found {
			return nil, fmt.Errorf("malformed pair %q: missing '='", part)
		}
		pairs[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if len(pairs) == 0 {
		return nil, errors.New("no key=value pairs found")
	}
	return pairs, nil
}

func bucketFromPairs(m map[string]string) Bucket {
	b := Bucket{
		Name:       m["Name"],
		Owner:      m["Owner"],
		Visibility: m["Visibility"],
	}
	if v, ok := m["Created"]; ok {
		b.CreatedAt = v
	} else {
		b.CreatedAt = m["CreatedAt"]
	}
	return b
}

func fileFromPairs(m map[string]string) FileMeta {
	f := FileMeta{
		Name:        m["Name"],
		Size:        m["Size"],
		ContentType: m["ContentType"],
	}
	if v, ok := m["RootHash"]; ok {
		f.Hash = v
	} else {
		f.Hash = m["Hash"]
	}
	if v, ok := m["Modified"]; ok {
		f.LastModified = v
	} else {
		f.LastModified = m["LastModified"]
	}
	return f
}
