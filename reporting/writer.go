package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// StdoutPath is the report path that selects StdoutWriter
const StdoutPath = "-"

// ReportWriter persists formatted report content
type ReportWriter interface {
	Write(content, dir, filename string) (string, error)
}

// FileWriter writes reports to the filesystem
type FileWriter struct {
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// NewFileWriter creates a new file writer
func NewFileWriter() *FileWriter {
	return &FileWriter{
		dirPerm:  0755,
		filePerm: 0644,
	}
}

// Write creates dir if needed and writes content to dir/filename, replacing
// any existing file. It returns the path written.
func (fw *FileWriter) Write(content, dir, filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("report filename is empty")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, fw.dirPerm); err != nil {
		return "", fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), fw.filePerm); err != nil {
		return "", fmt.Errorf("failed to write report file %s: %w", path, err)
	}
	return path, nil
}

// StdoutWriter writes reports to an io.Writer, typically os.Stdout.
// The returned path is always StdoutPath.
type StdoutWriter struct {
	out io.Writer
}

// NewStdoutWriter creates a writer that prints reports to out
func NewStdoutWriter(out io.Writer) *StdoutWriter {
	if out == nil {
		out = os.Stdout
	}
	return &StdoutWriter{out: out}
}

func (sw *StdoutWriter) Write(content, _, _ string) (string, error) {
	if _, err := io.WriteString(sw.out, content); err != nil {
		return "", err
	}
	return StdoutPath, nil
}
