package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ccollicutt/trackstat/pkg/splitter"
)

// MaxLineSize bounds a single dataset line.
const MaxLineSize = 1024 * 1024

// utf8BOM may prefix the first line of a file.
const utf8BOM = "\ufeff"

// FileSource implements RowSource for reading from dataset files.
type FileSource struct {
	files  []string
	header bool
	trace  *slog.Logger

	currentFile    *os.File
	currentScanner *bufio.Scanner
	currentSource  string
	currentLine    int
	fileIndex      int
}

// Option configures a FileSource.
type Option func(*FileSource)

// WithHeader controls whether the first line of every file is a header and
// skipped. Defaults to true.
func WithHeader(header bool) Option {
	return func(s *FileSource) {
		s.header = header
	}
}

// WithTrace logs every raw line at debug level before it is split.
func WithTrace(logger *slog.Logger) Option {
	return func(s *FileSource) {
		s.trace = logger
	}
}

// NewFileSource creates a RowSource that reads the given files in order.
func NewFileSource(files []string, opts ...Option) *FileSource {
	s := &FileSource{
		files:     files,
		header:    true,
		fileIndex: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next returns the next row.
// Skips header and blank lines.
// Returns io.EOF when all files have been exhausted.
func (s *FileSource) Next(ctx context.Context) (*Row, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if s.currentScanner == nil {
			if err := s.openNextFile(); err != nil {
				return nil, err
			}
		}

		if s.currentScanner.Scan() {
			s.currentLine++
			line := strings.TrimSuffix(s.currentScanner.Text(), "\r")
			if s.currentLine == 1 {
				line = strings.TrimPrefix(line, utf8BOM)
				if s.header {
					continue
				}
			}
			if line == "" {
				continue
			}

			if s.trace != nil {
				s.trace.Debug("row", "source", s.currentSource, "line", s.currentLine, "raw", line)
			}

			fields, err := splitter.Split(line)
			if err != nil {
				return nil, &RowError{Source: s.currentSource, LineNum: s.currentLine, Err: err}
			}

			return &Row{
				Fields:  fields,
				Raw:     line,
				Source:  s.currentSource,
				LineNum: s.currentLine,
			}, nil
		}

		if err := s.currentScanner.Err(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", s.currentSource, err)
		}

		if err := s.closeCurrentFile(); err != nil {
			return nil, err
		}
	}
}

// Close releases resources.
func (s *FileSource) Close() error {
	return s.closeCurrentFile()
}

func (s *FileSource) openNextFile() error {
	s.fileIndex++
	if s.fileIndex >= len(s.files) {
		return io.EOF
	}

	path := s.files[s.fileIndex]
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return fmt.Errorf("opening dataset %s: %w", path, err)
	}

	s.currentFile = f
	s.currentScanner = NewLineScanner(f)
	s.currentSource = path
	s.currentLine = 0

	return nil
}

func (s *FileSource) closeCurrentFile() error {
	if s.currentFile != nil {
		err := s.currentFile.Close()
		s.currentFile = nil
		s.currentScanner = nil
		return err
	}
	return nil
}

// NewLineScanner returns a line scanner that accepts lines up to MaxLineSize.
func NewLineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return sc
}

// ReadHeader returns the split first line of a dataset file.
func ReadHeader(path string) ([]string, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", path, err)
	}
	defer f.Close()

	sc := NewLineScanner(f)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return nil, fmt.Errorf("reading %s: %w", path, io.ErrUnexpectedEOF)
	}

	line := strings.TrimPrefix(strings.TrimSuffix(sc.Text(), "\r"), utf8BOM)
	fields, err := splitter.Split(line)
	if err != nil {
		return nil, &RowError{Source: path, LineNum: 1, Err: err}
	}
	return fields, nil
}
