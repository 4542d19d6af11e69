package memstream

import (
	"io"
	"os"
)

// memFile is a growable, position-addressable byte buffer with file
// semantics: writes past the end extend the buffer, seeking beyond the end
// and writing leaves a zero-filled gap.
type memFile struct {
	buf []byte
	pos int64
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		if end > int64(cap(m.buf)) {
			grown := make([]byte, end, grow(cap(m.buf), int(end)))
			copy(grown, m.buf)
			m.buf = grown
		} else {
			m.buf = m.buf[:end]
		}
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = m.pos + offset
	case io.SeekEnd:
		pos = int64(len(m.buf)) + offset
	default:
		return 0, ErrInvalidWhence
	}
	if pos < 0 {
		return 0, ErrInvalidOffset
	}
	m.pos = pos
	return pos, nil
}

// grow doubles capacity until it covers need, from a small floor.
func grow(have, need int) int {
	if have < 512 {
		have = 512
	}
	for have < need {
		have *= 2
	}
	return have
}

// Writer collects sequential writes and publishes them to a Destination at
// close time, once the total size is known.
type Writer struct {
	reg    *Registry
	dst    *Destination // memory mode
	mem    *memFile     // memory mode
	f      *os.File     // file mode
	closed bool
}

// OpenWriter opens a write stream against dst.
//
// In memory mode the stream accumulates writes in a growable buffer and no
// registry entry is created; dst is populated directly at close. In file
// mode writes go to a temporary backing file and the registry records the
// stream so Close (or Registry.Finalize, for handles passed to foreign code)
// can recover dst once the final size is known. If the backing file cannot
// be created no handle is returned and nothing is leaked.
func (r *Registry) OpenWriter(dst *Destination) (*Writer, error) {
	if r.mode == ModeMemory {
		return &Writer{reg: r, dst: dst, mem: &memFile{}}, nil
	}

	f, err := r.tempFile("open")
	if err != nil {
		return nil, err
	}
	r.register(f, dst)
	return &Writer{reg: r, f: f}, nil
}

// Write implements io.Writer
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, &StreamError{Op: "write", Err: ErrClosed}
	}
	if w.f != nil {
		return w.f.Write(p)
	}
	return w.mem.Write(p)
}

// Seek implements io.Seeker
func (w *Writer) Seek(offset int64, whence int) (int64, error) {
	if w.closed {
		return 0, &StreamError{Op: "seek", Err: ErrClosed}
	}
	if w.f != nil {
		return w.f.Seek(offset, whence)
	}
	pos, err := w.mem.Seek(offset, whence)
	if err != nil {
		return 0, &StreamError{Op: "seek", Err: err}
	}
	return pos, nil
}

// Tell returns the current write position.
func (w *Writer) Tell() (int64, error) {
	return w.Seek(0, io.SeekCurrent)
}

// File returns the temporary backing file in file mode, or nil in memory
// mode. The file stays registered; hand it to Registry.Finalize (or call
// Close here) exactly once when writing is done.
func (w *Writer) File() *os.File {
	return w.f
}

// Close finalizes the stream and publishes the written bytes to the
// destination. On success the destination holds a buffer sized exactly to
// the content; on failure its Size is zero and Data untouched. Closing an
// already-closed writer is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if w.f != nil {
		f := w.f
		w.f = nil
		return w.reg.Finalize(f)
	}

	w.dst.Size = 0
	n := int64(len(w.mem.buf))
	if w.reg.maxOutput > 0 && n > w.reg.maxOutput {
		w.mem = nil
		return &StreamError{Op: "close", Err: ErrAllocation}
	}
	if n > 0 {
		w.dst.Data = w.mem.buf
		w.dst.Size = int(n)
	}
	w.mem = nil
	return nil
}
