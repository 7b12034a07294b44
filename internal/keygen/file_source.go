package keygen

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	apperrors "github.com/streamsim/dataflow-sim/pkg/errors"
)

func init() {
	Register(TypeFile, func(cfg *SourceConfig) (BatchSource, error) {
		path := cfg.GetString("path", "")
		if path == "" {
			return nil, fmt.Errorf("file source %q: path option is required", cfg.Name)
		}
		return newFileSource(cfg.Name, path)
	})
}

// fileSource reads one step's batch per line from a stream file: keys
// separated by a single space, an empty line meaning no real keys.
type fileSource struct {
	name    string
	file    *os.File
	scanner *bufio.Scanner
}

func newFileSource(name, path string) (*fileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInputError, fmt.Sprintf("opening stream file %s", path), err)
	}
	return &fileSource{
		name:    name,
		file:    f,
		scanner: bufio.NewScanner(f),
	}, nil
}

func (s *fileSource) Name() string { return s.name }

func (s *fileSource) Next(ctx context.Context) ([]string, bool, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return nil, false, apperrors.Wrap(apperrors.CodeInputError, "reading stream file", err)
		}
		return nil, false, nil
	}
	line := strings.TrimSpace(s.scanner.Text())
	if line == "" {
		return nil, true, nil
	}
	return strings.Fields(line), true, nil
}

func (s *fileSource) Close() error {
	return s.file.Close()
}
