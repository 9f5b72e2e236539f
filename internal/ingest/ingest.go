// Package ingest loads document files into the permanent partition.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/hybridvdb/internal/extract"
	"github.com/hyperjump/hybridvdb/internal/fileid"
	"github.com/hyperjump/hybridvdb/internal/models"
)

// Sink receives chunk documents and forgets everything a source produced.
// router.Router implements it.
type Sink interface {
	AddPermanent(ctx context.Context, docs []*models.Document) (int, error)
	ForgetSource(ctx context.Context, source string) (int, error)
}

// Options configures an Ingester.
type Options struct {
	// Extensions limits which files are ingested; empty allows every
	// extension the extractor supports.
	Extensions   []string
	Recursive    bool
	ChunkSize    int
	ChunkOverlap int
}

// fileState is what a file looked like when it was last ingested.
type fileState struct {
	modTime time.Time
	size    int64
}

// Ingester extracts, chunks and hands files to a Sink. Files whose size and
// modification time are unchanged since their last ingest are skipped.
type Ingester struct {
	sink       Sink
	extractor  *extract.Extractor
	chunker    *Chunker
	extensions []string
	recursive  bool
	logger     *zap.Logger

	mu   sync.Mutex
	seen map[string]fileState
}

// Option configures optional Ingester dependencies.
type Option func(*Ingester)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingester) {
		in.logger = l
	}
}

// New creates an Ingester. extractor may be nil for the default extractor.
func New(sink Sink, extractor *extract.Extractor, opts Options, options ...Option) *Ingester {
	if extractor == nil {
		extractor = extract.NewExtractor(0)
	}
	in := &Ingester{
		sink:       sink,
		extractor:  extractor,
		chunker:    NewChunker(opts.ChunkSize, opts.ChunkOverlap),
		extensions: opts.Extensions,
		recursive:  opts.Recursive,
		logger:     zap.NewNop(),
		seen:       make(map[string]fileState),
	}
	for _, o := range options {
		o(in)
	}
	return in
}

// Allowed reports whether path has an extension this ingester accepts.
func (in *Ingester) Allowed(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if !extract.Supports(ext) {
		return false
	}
	if len(in.extensions) == 0 {
		return true
	}
	return extensionAllowed(ext, in.extensions)
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

// IngestPath ingests a file or, for a directory, every allowed file in it.
func (in *Ingester) IngestPath(ctx context.Context, path string) (models.IngestResponse, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.IngestResponse{Path: path}, fmt.Errorf("stat path: %w", err)
	}
	if info.IsDir() {
		return in.IngestDirectory(ctx, path)
	}
	source, err := fileid.Source(path)
	if err != nil {
		return models.IngestResponse{Path: path}, err
	}
	n, err := in.IngestFile(ctx, source)
	if err != nil {
		return models.IngestResponse{Path: source}, err
	}
	return models.IngestResponse{Path: source, Files: 1, Chunks: n}, nil
}

// IngestFile replaces whatever path contributed before with its current
// chunks and returns how many were added. An unchanged file adds nothing.
func (in *Ingester) IngestFile(ctx context.Context, path string) (int, error) {
	source, err := fileid.Source(path)
	if err != nil {
		return 0, err
	}
	if !in.Allowed(source) {
		return 0, fmt.Errorf("extension %q not in allowed list", filepath.Ext(source))
	}
	info, err := os.Stat(source)
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("not a regular file: %s", source)
	}
	state := fileState{modTime: info.ModTime(), size: info.Size()}
	if in.unchanged(source, state) {
		in.logger.Debug("ingest skipping unchanged file", zap.String("path", source))
		return 0, nil
	}

	text, err := in.extractor.Extract(source)
	if err != nil {
		return 0, fmt.Errorf("extract content: %w", err)
	}
	if _, err := in.sink.ForgetSource(ctx, source); err != nil {
		return 0, fmt.Errorf("forget previous chunks: %w", err)
	}
	docs := in.chunker.Chunk(source, text)
	n := 0
	if len(docs) > 0 {
		if n, err = in.sink.AddPermanent(ctx, docs); err != nil {
			return 0, fmt.Errorf("add chunks: %w", err)
		}
	}

	in.mu.Lock()
	in.seen[source] = state
	in.mu.Unlock()
	in.logger.Debug("ingested file", zap.String("path", source), zap.Int("chunks", n))
	return n, nil
}

func (in *Ingester) unchanged(source string, state fileState) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	prev, ok := in.seen[source]
	return ok && prev.size == state.size && prev.modTime.Equal(state.modTime)
}

// IngestDirectory walks dir and ingests each allowed regular file. It stops
// at the first failure and reports what was ingested until then.
func (in *Ingester) IngestDirectory(ctx context.Context, dir string) (models.IngestResponse, error) {
	absDir, err := fileid.Source(dir)
	if err != nil {
		return models.IngestResponse{Path: dir}, err
	}
	resp := models.IngestResponse{Path: absDir}
	info, err := os.Stat(absDir)
	if err != nil {
		return resp, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return resp, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != absDir && !in.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !in.Allowed(path) {
			return nil
		}
		// Resolve symlinks so only regular files are ingested
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		n, err := in.IngestFile(ctx, path)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		resp.Files++
		resp.Chunks += n
		return nil
	})
	in.logger.Info("ingested directory",
		zap.String("path", absDir),
		zap.Int("files", resp.Files),
		zap.Int("chunks", resp.Chunks))
	return resp, err
}

// Forget removes everything path contributed.
func (in *Ingester) Forget(ctx context.Context, path string) (int, error) {
	source, err := fileid.Source(path)
	if err != nil {
		return 0, err
	}
	in.mu.Lock()
	delete(in.seen, source)
	in.mu.Unlock()
	n, err := in.sink.ForgetSource(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("forget %s: %w", source, err)
	}
	in.logger.Debug("forgot file", zap.String("path", source), zap.Int("chunks", n))
	return n, nil
}
