package akavelink

import "fmt"

// Bucket is a single bucket record parsed from CLI output.
// Only Name is guaranteed; the remaining fields depend on which
// subcommand produced the output.
type Bucket struct {
	Name       string `json:"name"`
	Owner      string `json:"owner,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	Visibility string `json:"visibility,omitempty"`
}

// FileMeta is a single file record parsed from CLI output.
type FileMeta struct {
	Name         string `json:"name"`
	Size         string `json:"size,omitempty"`
	Hash         string `json:"hash,omitempty"`
	ContentType  string `json:"content_type,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

// UploadResult is a FileMeta optionally enriched with the on-chain
// transaction hash of the upload.
type UploadResult struct {
	FileMeta
	TransactionHash string `json:"transaction_hash,omitempty"`
}

// DeleteAck acknowledges a deletion. Name is set when the CLI echoes
// the deleted resource name, Message otherwise.
type DeleteAck struct {
	Name    string `json:"name,omitempty"`
	Message string `json:"message,omitempty"`
}

// ParserKind selects which textual grammar to apply to subprocess
// output. The set is closed; Parser.Parse switches exhaustively.
type ParserKind int

const (
	ParseDefault ParserKind = iota
	ParseBucketCreate
	ParseBucketView
	ParseBucketList
	ParseBucketDelete
	ParseFileList
	ParseFileInfo
	ParseFileUpload
	ParseFileDelete
	ParseFileDownload
)

func (k ParserKind) String() string {
	switch k {
	case ParseDefault:
		return "default"
	case ParseBucketCreate:
		return "bucket-create"
	case ParseBucketView:
		return "bucket-view"
	case ParseBucketList:
		return "bucket-list"
	case ParseBucketDelete:
		return "bucket-delete"
	case ParseFileList:
		return "file-list"
	case ParseFileInfo:
		return "file-info"
	case ParseFileUpload:
		return "file-upload"
	case ParseFileDelete:
		return "file-delete"
	case ParseFileDownload:
		return "file-download"
	default:
		return fmt.Sprintf("ParserKind(%d)", int(k))
	}
}
