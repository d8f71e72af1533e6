package sink

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// DefaultFileBufferSize for buffered file writes
const DefaultFileBufferSize = 32 * 1024

// File appends records to a file. Writes are buffered; every transfer to the
// file, whether a buffer spill in Write or a Flush, happens under an advisory
// lock on a sibling .lock file so several processes can share a log.
type File struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	lock   *flock.Flock
	path   string
	size   int64
	closed bool
}

// NewFile opens (creating if needed) path for appending
func NewFile(path string) (*File, error) {
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return nil, errors.Wrap(err, "create directory")
	}

	file, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "open file")
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, "stat file")
	}

	return &File{
		file:   file,
		writer: bufio.NewWriterSize(file, DefaultFileBufferSize),
		lock:   flock.New(cleanPath + ".lock"),
		path:   cleanPath,
		size:   info.Size(),
	}, nil
}

// Write implements Sink
func (f *File) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrClosed
	}

	if err := f.lock.Lock(); err != nil {
		return 0, errors.Wrap(err, "acquire lock")
	}
	defer func() {
		_ = f.lock.Unlock()
	}()

	n, err := f.writer.Write(p)
	f.size += int64(n)
	if err != nil {
		return n, errors.Wrapf(err, "write %s", f.path)
	}
	return n, nil
}

// Flush implements Sink, pushing buffered bytes to the file
func (f *File) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	return f.flushLocked()
}

// flushLocked pushes buffered bytes to the file under the advisory lock
func (f *File) flushLocked() error {
	if f.writer.Buffered() == 0 {
		return nil
	}

	if err := f.lock.Lock(); err != nil {
		return errors.Wrap(err, "acquire lock")
	}
	defer func() {
		_ = f.lock.Unlock()
	}()

	if err := f.writer.Flush(); err != nil {
		return errors.Wrapf(err, "flush %s", f.path)
	}
	return nil
}

// Sync flushes and fsyncs the file
func (f *File) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	if err := f.flushLocked(); err != nil {
		return err
	}
	return errors.Wrapf(f.file.Sync(), "sync %s", f.path)
}

// Close flushes and closes the file. Safe to call more than once.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	var errs []error
	if err := f.flushLocked(); err != nil {
		errs = append(errs, err)
	}
	if err := f.file.Close(); err != nil {
		errs = append(errs, errors.Wrap(err, "close file"))
	}
	if err := f.lock.Close(); err != nil {
		errs = append(errs, errors.Wrap(err, "close lock"))
	}

	if len(errs) > 0 {
		return errors.Errorf("close errors: %v", errs)
	}
	return nil
}

// Path returns the file path
func (f *File) Path() string {
	return f.path
}

// Size returns the file size including buffered bytes
func (f *File) Size() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.size
}
