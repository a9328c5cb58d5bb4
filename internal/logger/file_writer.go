package logger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// defaultBufferSize batches file writes without holding much memory
const defaultBufferSize = 32 * 1024

// fileWriter is a thread-safe buffered log file. Reopen supports external
// rotation tools that move the file and send SIGHUP.
type fileWriter struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *bufio.Writer
	closed bool
}

func newFileWriter(path string) (*fileWriter, error) {
	if err := ensureFileDirectory(path); err != nil {
		return nil, err
	}
	fw := &fileWriter{path: path}
	if err := fw.open(); err != nil {
		return nil, err
	}
	return fw, nil
}

func (fw *fileWriter) open() error {
	const filePermissions = 0o600
	f, err := os.OpenFile(fw.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", fw.path, err)
	}
	fw.file = f
	fw.writer = bufio.NewWriterSize(f, defaultBufferSize)
	return nil
}

// Write implements io.Writer
func (fw *fileWriter) Write(p []byte) (int, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.closed {
		return 0, os.ErrClosed
	}
	return fw.writer.Write(p)
}

// Flush pushes buffered data to the OS
func (fw *fileWriter) Flush() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.closed {
		return nil
	}
	return fw.writer.Flush()
}

// Reopen flushes and reopens the file at the same path
func (fw *fileWriter) Reopen() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.closed {
		return os.ErrClosed
	}
	err := errors.Join(fw.writer.Flush(), fw.file.Close())
	if openErr := fw.open(); openErr != nil {
		return errors.Join(err, openErr)
	}
	return err
}

// Close flushes, syncs and closes the file
func (fw *fileWriter) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.closed {
		return nil
	}
	fw.closed = true
	return errors.Join(fw.writer.Flush(), fw.file.Sync(), fw.file.Close())
}

// ensureFileDirectory creates the directory for a file path if it doesn't exist
func ensureFileDirectory(filePath string) error {
	if filePath == "" {
		return nil
	}
	dir := filepath.Dir(filePath)
	if dir == "." || dir == filePath {
		return nil
	}
	const dirPermissions = 0o700
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
