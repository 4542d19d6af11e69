package memstream

import (
	"bytes"
	"io"
	"os"
)

// Reader presents an in-memory buffer through the sequential, seekable
// interface a codec expects from a real file.
type Reader struct {
	br     *bytes.Reader // memory mode
	f      *os.File      // file mode
	size   int64
	closed bool
}

// OpenReader opens a read stream over buf.
//
// In memory mode the stream reads directly from buf without copying; the
// buffer must not be modified while the reader is open. In file mode the
// buffer is copied into a temporary backing file, trading a copy and
// filesystem use for a real file descriptor.
func (r *Registry) OpenReader(buf []byte) (*Reader, error) {
	if r.mode == ModeMemory {
		return &Reader{
			br:   bytes.NewReader(buf),
			size: int64(len(buf)),
		}, nil
	}

	f, err := r.tempFile("open")
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(buf); err != nil {
		discard(f)
		return nil, &StreamError{Op: "open", Err: ErrBackingResource}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		discard(f)
		return nil, &StreamError{Op: "open", Err: ErrBackingResource}
	}
	return &Reader{f: f, size: int64(len(buf))}, nil
}

// Read implements io.Reader
func (rd *Reader) Read(p []byte) (int, error) {
	if rd.closed {
		return 0, &StreamError{Op: "read", Err: ErrClosed}
	}
	if rd.f != nil {
		return rd.f.Read(p)
	}
	return rd.br.Read(p)
}

// ReadAt implements io.ReaderAt
func (rd *Reader) ReadAt(p []byte, off int64) (int, error) {
	if rd.closed {
		return 0, &StreamError{Op: "read", Err: ErrClosed}
	}
	if rd.f != nil {
		return rd.f.ReadAt(p, off)
	}
	return rd.br.ReadAt(p, off)
}

// Seek implements io.Seeker
func (rd *Reader) Seek(offset int64, whence int) (int64, error) {
	if rd.closed {
		return 0, &StreamError{Op: "seek", Err: ErrClosed}
	}
	switch whence {
	case io.SeekStart, io.SeekCurrent, io.SeekEnd:
	default:
		return 0, &StreamError{Op: "seek", Err: ErrInvalidWhence}
	}
	if rd.f != nil {
		return rd.f.Seek(offset, whence)
	}
	pos, err := rd.br.Seek(offset, whence)
	if err != nil {
		return pos, &StreamError{Op: "seek", Err: ErrInvalidOffset}
	}
	return pos, nil
}

// Tell returns the current read position.
func (rd *Reader) Tell() (int64, error) {
	return rd.Seek(0, io.SeekCurrent)
}

// Size returns the total length of the stream.
func (rd *Reader) Size() int64 {
	return rd.size
}

// File returns the temporary backing file in file mode, or nil in memory
// mode. The file is owned by the reader and released by Close.
func (rd *Reader) File() *os.File {
	return rd.f
}

// Close releases the stream's resources. Close always succeeds: releasing a
// temporary backing file is a teardown path and secondary I/O errors are not
// reported. Closing an already-closed reader is a no-op.
func (rd *Reader) Close() error {
	if rd.closed {
		return nil
	}
	rd.closed = true
	if rd.f != nil {
		discard(rd.f)
		rd.f = nil
	}
	rd.br = nil
	return nil
}
