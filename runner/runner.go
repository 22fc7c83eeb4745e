// Package runner executes storage CLI invocations and converts their
// text output into typed results.
//
// Each operation spawns exactly one short-lived subprocess, hands the
// captured output to the parser, and returns either a structured
// entity or a classified error. Invocations are independent: no state
// is shared between concurrent calls.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akavelink/akavelink"
	"github.com/akavelink/akavelink/txlookup"
)

// Config holds the static invocation parameters shared by every call.
type Config struct {
	// Binary is the storage CLI executable (name or path).
	Binary string
	// NodeAddress is passed as --node-address on every invocation.
	NodeAddress string
	// PrivateKey is passed as --private-key (hex, no 0x prefix).
	PrivateKey string
	// Enrich enables best-effort transaction-hash lookup on uploads.
	Enrich bool
}

// Runner is the service facade consumed by the HTTP layer: one method
// per bucket/file operation.
type Runner struct {
	cfg        Config
	reg        *akavelink.Registry
	exec       CommandExecutor
	parser     *akavelink.Parser
	classifier *akavelink.Classifier
	lookup     txlookup.Lookup
	retryDelay time.Duration
	log        *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor substitutes the subprocess executor (used in tests).
func WithExecutor(exec CommandExecutor) Option {
	return func(r *Runner) { r.exec = exec }
}

// WithLookup sets the transaction-hash lookup collaborator.
func WithLookup(l txlookup.Lookup) Option {
	return func(r *Runner) { r.lookup = l }
}

// WithRetryDelay overrides the fixed delay before the single
// enrichment retry.
func WithRetryDelay(d time.Duration) Option {
	return func(r *Runner) { r.retryDelay = d }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// New creates a Runner. The registry backs both the parser and the
// classifier so every code path produces the same error shape.
func New(cfg Config, reg *akavelink.Registry, opts ...Option) *Runner {
	r := &Runner{
		cfg:        cfg,
		reg:        reg,
		exec:       DefaultExecutor(),
		parser:     akavelink.NewParser(reg),
		classifier: akavelink.NewClassifier(reg),
		retryDelay: 5 * time.Second,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run performs one subprocess invocation end to end: spawn, drain,
// classify stderr, parse on success. Single attempt; retrying the
// whole operation is the caller's decision.
func (r *Runner) run(ctx context.Context, args []string, kind akavelink.ParserKind) (any, error) {
	full := make([]string, 0, len(args)+2)
	full = append(full, args...)
	full = append(full,
		"--node-address="+r.cfg.NodeAddress,
		"--private-key="+strings.TrimPrefix(r.cfg.PrivateKey, "0x"),
	)

	res, err := r.exec.Execute(ctx, r.cfg.Binary, full...)
	if err != nil {
		r.log.Error("cli spawn failed", "binary", r.cfg.Binary, "err", err)
		return nil, r.classifier.ClassifyErr(err)
	}

	// A recognized stderr signature means failure regardless of exit
	// code.
	if cerr := r.classifier.ClassifyStderr(res.Stderr); cerr != nil {
		r.log.Debug("cli reported failure", "args", strings.Join(args, " "), "code", cerr.Code, "exit", res.ExitCode)
		return nil, cerr
	}

	combined := combineOutput(res.Stdout, res.Stderr)

	if res.ExitCode == 0 {
		v, perr := r.parser.Parse(kind, combined)
		if perr != nil {
			r.log.Warn("cli output did not match expected format", "kind", kind.String(), "err", perr)
			return nil, r.classifier.ClassifyErr(perr)
		}
		return v, nil
	}

	text := strings.TrimSpace(res.Stderr)
	if text == "" {
		text = strings.TrimSpace(combined)
	}
	r.log.Debug("cli exited non-zero", "exit", res.ExitCode, "stderr", text)
	return nil, r.classifier.ClassifyErr(errors.New(text))
}

func combineOutput(stdout, stderr string) string {
	if stderr == "" {
		return stdout
	}
	if stdout == "" {
		return stderr
	}
	return stdout + "\n" + stderr
}

// validationError is raised before any subprocess spawn for
// malformed bucket or file names.
func (r *Runner) validationError(field, value string) error {
	return r.reg.NewErrorWithDetails(akavelink.CodeValidationError,
		fmt.Errorf("invalid %s", field),
		map[string]any{field: value})
}

// CreateBucket creates a bucket and returns the parsed record.
func (r *Runner) CreateBucket(ctx context.Context, name string) (*akavelink.Bucket, error) {
	if !akavelink.IsValidBucketName(name) {
		return nil, r.validationError("bucket name", name)
	}
	v, err := r.run(ctx, []string{"ipc", "bucket", "create", name}, akavelink.ParseBucketCreate)
	if err != nil {
		return nil, err
	}
	b := v.(akavelink.Bucket)
	return &b, nil
}

// ViewBucket returns a single bucket record.
func (r *Runner) ViewBucket(ctx context.Context, name string) (*akavelink.Bucket, error) {
	if !akavelink.IsValidBucketName(name) {
		return nil, r.validationError("bucket name", name)
	}
	v, err := r.run(ctx, []string{"ipc", "bucket", "view", name}, akavelink.ParseBucketView)
	if err != nil {
		return nil, err
	}
	b := v.(akavelink.Bucket)
	return &b, nil
}

// ListBuckets returns all buckets owned by the configured key.
func (r *Runner) ListBuckets(ctx context.Context) ([]akavelink.Bucket, error) {
	v, err := r.run(ctx, []string{"ipc", "bucket", "list"}, akavelink.ParseBucketList)
	if err != nil {
		return nil, err
	}
	return v.([]akavelink.Bucket), nil
}

// DeleteBucket deletes a bucket.
func (r *Runner) DeleteBucket(ctx context.Context, name string) (*akavelink.DeleteAck, error) {
	if !akavelink.IsValidBucketName(name) {
		return nil, r.validationError("bucket name", name)
	}
	v, err := r.run(ctx, []string{"ipc", "bucket", "delete", name}, akavelink.ParseBucketDelete)
	if err != nil {
		return nil, err
	}
	ack := v.(akavelink.DeleteAck)
	return &ack, nil
}

// ListFiles lists the files in a bucket.
func (r *Runner) ListFiles(ctx context.Context, bucket string) ([]akavelink.FileMeta, error) {
	if !akavelink.IsValidBucketName(bucket) {
		return nil, r.validationError("bucket name", bucket)
	}
	v, err := r.run(ctx, []string{"ipc", "file", "list", bucket}, akavelink.ParseFileList)
	if err != nil {
		return nil, err
	}
	return v.([]akavelink.FileMeta), nil
}

// FileInfo returns the metadata record for one file.
func (r *Runner) FileInfo(ctx context.Context, bucket, file string) (*akavelink.FileMeta, error) {
	if !akavelink.IsValidBucketName(bucket) {
		return nil, r.validationError("bucket name", bucket)
	}
	if !akavelink.IsValidFileName(file) {
		return nil, r.validationError("file name", file)
	}
	v, err := r.run(ctx, []string{"ipc", "file", "info", bucket, file}, akavelink.ParseFileInfo)
	if err != nil {
		return nil, err
	}
	f := v.(akavelink.FileMeta)
	return &f, nil
}

// DeleteFile deletes a file from a bucket.
func (r *Runner) DeleteFile(ctx context.Context, bucket, file string) (*akavelink.DeleteAck, error) {
	if !akavelink.IsValidBucketName(bucket) {
		return nil, r.validationError("bucket name", bucket)
	}
	if !akavelink.IsValidFileName(file) {
		return nil, r.validationError("file name", file)
	}
	v, err := r.run(ctx, []string{"ipc", "file", "delete", bucket, file}, akavelink.ParseFileDelete)
	if err != nil {
		return nil, err
	}
	ack := v.(akavelink.DeleteAck)
	return &ack, nil
}

// Upload stages content into a per-request temp directory, hands the
// staged path to the CLI, and optionally enriches the parsed result
// with the upload's transaction hash. The temp directory is removed on
// every exit path.
func (r *Runner) Upload(ctx context.Context, bucket, fileName string, content io.Reader) (*akavelink.UploadResult, error) {
	if !akavelink.IsValidBucketName(bucket) {
		return nil, r.validationError("bucket name", bucket)
	}
	if !akavelink.IsValidFileName(fileName) {
		return nil, r.validationError("file name", fileName)
	}

	dir, err := os.MkdirTemp("", "akavelink-"+uuid.NewString())
	if err != nil {
		return nil, r.classifier.ClassifyErr(err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			r.log.Warn("failed to remove upload temp dir", "dir", dir, "err", rmErr)
		}
	}()

	staged := filepath.Join(dir, fileName)
	if err := stageFile(staged, content); err != nil {
		return nil, r.classifier.ClassifyErr(err)
	}

	v, err := r.run(ctx, []string{"ipc", "file", "upload", bucket, staged}, akavelink.ParseFileUpload)
	if err != nil {
		return nil, err
	}
	result := v.(akavelink.UploadResult)
	r.enrich(ctx, &result)
	return &result, nil
}

// Download runs the CLI with a per-request temp destination and
// returns the local path of the fetched file together with a cleanup
// function the caller must invoke once the payload has been streamed.
func (r *Runner) Download(ctx context.Context, bucket, file string) (string, func(), error) {
	if !akavelink.IsValidBucketName(bucket) {
		return "", nil, r.validationError("bucket name", bucket)
	}
	if !akavelink.IsValidFileName(file) {
		return "", nil, r.validationError("file name", file)
	}

	dir, err := os.MkdirTemp("", "akavelink-"+uuid.NewString())
	if err != nil {
		return "", nil, r.classifier.ClassifyErr(err)
	}
	cleanup := func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			r.log.Warn("failed to remove download temp dir", "dir", dir, "err", rmErr)
		}
	}

	if _, err := r.run(ctx, []string{"ipc", "file", "download", bucket, file, dir}, akavelink.ParseFileDownload); err != nil {
		cleanup()
		return "", nil, err
	}

	path := filepath.Join(dir, file)
	if _, err := os.Stat(path); err != nil {
		cleanup()
		return "", nil, r.classifier.ClassifyErr(err)
	}
	return path, cleanup, nil
}

// enrich attaches the upload's transaction hash: one immediate lookup
// and, on a miss, one retry after a fixed delay. Enrichment never
// fails the operation; every error degrades to the unenriched result.
func (r *Runner) enrich(ctx context.Context, result *akavelink.UploadResult) {
	if !r.cfg.Enrich || r.lookup == nil {
		return
	}

	addr, err := txlookup.DeriveAddress(r.cfg.PrivateKey)
	if err != nil {
		r.log.Warn("could not derive address for tx lookup", "err", err)
		return
	}

	hash, err := r.lookup.LatestTxHash(ctx, addr)
	if err == nil && hash != "" {
		result.TransactionHash = hash
		return
	}
	if err != nil {
		r.log.Debug("tx lookup failed, will retry once", "err", err)
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(r.retryDelay):
	}

	hash, err = r.lookup.LatestTxHash(ctx, addr)
	if err != nil {
		r.log.Warn("tx lookup retry failed", "err", err)
		return
	}
	result.TransactionHash = hash
}

func stageFile(path string, content io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
