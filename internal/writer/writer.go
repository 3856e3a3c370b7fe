// Package writer concatenates collected files into a single text artifact.
package writer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/taigrr/codecat/internal/logging"
	"github.com/taigrr/codecat/internal/types"
)

// SeparatorWidth is the number of '=' characters between entries.
const SeparatorWidth = 80

// Separator is the line written after every entry.
var Separator = strings.Repeat("=", SeparatorWidth)

// ErrNotText is reported for files that are not valid UTF-8.
var ErrNotText = errors.New("not valid UTF-8 text")

// Writer serializes path and content pairs. A file that cannot be read is
// reported and skipped; it never aborts the export.
type Writer struct {
	logger      zerolog.Logger
	maxFileSize int64
	onSkip      func(types.SkippedEntry)
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the logger used to report unreadable files.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Writer) {
		w.logger = logger
	}
}

// WithMaxFileSize skips files larger than n bytes. Zero means no limit.
func WithMaxFileSize(n int64) Option {
	return func(w *Writer) {
		w.maxFileSize = n
	}
}

// WithSkipHandler registers fn to receive every skipped file.
func WithSkipHandler(fn func(types.SkippedEntry)) Option {
	return func(w *Writer) {
		w.onSkip = fn
	}
}

// New creates a Writer.
func New(opts ...Option) *Writer {
	w := &Writer{logger: logging.Get("writer")}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write emits every readable file in order. Only a failure to write to out is
// returned as an error; unreadable inputs end up in the result's Skipped list.
func (w *Writer) Write(out io.Writer, files types.CollectedFiles) (types.ExportResult, error) {
	return w.write(out, files, "")
}

// WriteFile creates or truncates outputPath and writes the artifact to it.
// If outputPath itself shows up in files it is left out.
func (w *Writer) WriteFile(outputPath string, files types.CollectedFiles) (types.ExportResult, error) {
	f, err := os.Create(outputPath)
	if err != nil {
		return types.ExportResult{}, fmt.Errorf("failed to create output file: %s - %w", outputPath, err)
	}

	buf := bufio.NewWriter(f)
	result, err := w.write(buf, files, outputPath)
	if err == nil {
		err = buf.Flush()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	result.Output = outputPath
	if err != nil {
		return result, fmt.Errorf("failed to write output file: %s - %w", outputPath, err)
	}
	return result, nil
}

// Render returns the artifact as a string.
func (w *Writer) Render(files types.CollectedFiles) (string, types.ExportResult) {
	var sb strings.Builder
	// strings.Builder never fails a write.
	result, _ := w.write(&sb, files, "")
	return sb.String(), result
}

func (w *Writer) write(out io.Writer, files types.CollectedFiles, outputPath string) (types.ExportResult, error) {
	result := types.ExportResult{}

	var outputAbs string
	if outputPath != "" {
		outputAbs, _ = filepath.Abs(outputPath)
	}

	for _, path := range files {
		if outputAbs != "" {
			if abs, err := filepath.Abs(path); err == nil && abs == outputAbs {
				w.skip(&result, path, types.ReasonOutput, nil)
				continue
			}
		}

		content, reason, err := w.readText(path)
		if err != nil {
			w.skip(&result, path, reason, err)
			continue
		}

		n, err := writeEntry(out, path, content)
		result.Bytes += int64(n)
		if err != nil {
			return result, err
		}
		result.Written++
	}

	return result, nil
}

// readText loads a file as text. Line endings are normalized to "\n".
func (w *Writer) readText(path string) (string, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", types.ReasonRead, describe(path, err)
	}
	if !info.Mode().IsRegular() {
		return "", types.ReasonNotFile, fmt.Errorf("not a regular file: %s", path)
	}
	if w.maxFileSize > 0 && info.Size() > w.maxFileSize {
		return "", types.ReasonTooLarge, fmt.Errorf("file too large: %s (%d bytes, limit %d)", path, info.Size(), w.maxFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", types.ReasonRead, describe(path, err)
	}
	if !utf8.Valid(content) {
		return "", types.ReasonNotText, fmt.Errorf("%s: %w", path, ErrNotText)
	}

	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text, "", nil
}

func describe(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("file not found: %s: %w", path, err)
	}
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("permission denied: %s: %w", path, err)
	}
	return fmt.Errorf("failed to read file: %s - %w", path, err)
}

func writeEntry(out io.Writer, path, content string) (int, error) {
	return fmt.Fprintf(out, "Path: %s\nContent:\n%s\n%s\n", path, content, Separator)
}

func (w *Writer) skip(result *types.ExportResult, path, reason string, err error) {
	entry := types.SkippedEntry{Path: path, Reason: reason}
	if err != nil {
		entry.Err = err.Error()
		w.logger.Warn().Err(err).Str("path", path).Str("reason", reason).Msg("Error reading file")
	} else {
		w.logger.Debug().Str("path", path).Str("reason", reason).Msg("Skipping file")
	}

	result.Skipped = append(result.Skipped, entry)
	if w.onSkip != nil {
		w.onSkip(entry)
	}
}
