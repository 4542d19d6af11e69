package memstream

import (
	"io"
	"os"
	"sync"
)

// Mode selects the backing used for streams opened through a Registry.
type Mode int

const (
	// ModeMemory backs streams directly with memory. Readers wrap the
	// caller's buffer without copying; writers grow an internal buffer.
	ModeMemory Mode = iota

	// ModeFile backs streams with unnamed temporary files, so every stream
	// exposes a real *os.File. Write streams are tracked in the registry
	// and finalized at close.
	ModeFile
)

// Destination receives the finalized output of a write stream.
//
// Both fields are populated exactly once, when the stream is closed. A Size
// of zero means either nothing was written or finalization failed; in both
// cases Data is left untouched. Callers must check Size before using Data.
// Ownership of Data transfers to the caller at close.
type Destination struct {
	Data []byte
	Size int
}

// Option configures a Registry
type Option func(*Registry)

// WithMode selects the backing mode for streams opened through the registry
func WithMode(m Mode) Option {
	return func(r *Registry) {
		r.mode = m
	}
}

// WithTempDir sets the directory for temporary backing files.
// An empty string means the platform default.
func WithTempDir(dir string) Option {
	return func(r *Registry) {
		r.tempDir = dir
	}
}

// WithMaxOutputBytes limits the size of finalized write outputs. Closing a
// write stream whose content exceeds the limit fails with ErrAllocation and
// publishes a zero Size. Zero means unlimited.
func WithMaxOutputBytes(n int64) Option {
	return func(r *Registry) {
		r.maxOutput = n
	}
}

// Registry correlates open file-mode write streams with their destinations.
//
// The correlation is needed because a write stream's output buffer can only
// be sized once the stream is closed, and the backing file alone does not
// know where the result should go. Memory-mode streams carry their
// destination directly and never touch the table.
//
// The zero value is not usable; create registries with NewRegistry.
type Registry struct {
	mode      Mode
	tempDir   string
	maxOutput int64

	mu      sync.Mutex
	entries map[*os.File]*Destination
}

// NewRegistry creates a registry with the given options.
// The default mode is ModeMemory.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[*os.File]*Destination),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Shared default registry
var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the shared package-level registry (memory mode).
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// OpenReader opens a read stream over buf using the default registry.
func OpenReader(buf []byte) (*Reader, error) {
	return Default().OpenReader(buf)
}

// OpenWriter opens a write stream against dst using the default registry.
func OpenWriter(dst *Destination) (*Writer, error) {
	return Default().OpenWriter(dst)
}

// Mode returns the registry's backing mode.
func (r *Registry) Mode() Mode {
	return r.mode
}

// Len returns the number of open file-mode write streams tracked by the
// registry.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// register records a pending destination for a file-mode write stream.
func (r *Registry) register(f *os.File, dst *Destination) {
	r.mu.Lock()
	r.entries[f] = dst
	r.mu.Unlock()
}

// take removes and returns the destination registered for f, if any.
func (r *Registry) take(f *os.File) (*Destination, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dst, ok := r.entries[f]
	if ok {
		delete(r.entries, f)
	}
	return dst, ok
}

// Finalize closes a file-mode write stream and publishes its content to the
// destination registered at open time.
//
// If f is not known to the registry the file is closed and nil is returned;
// foreign handles and already-finalized streams are tolerated so mixed
// memory/file code paths can share a teardown path.
//
// On success the destination holds a buffer of exactly the bytes written, in
// write order. On failure the destination's Size is zero, Data is untouched,
// and the entry is still removed, leaving the registry consistent for the
// remaining open streams. The temporary file is released in every case.
func (r *Registry) Finalize(f *os.File) error {
	if f == nil {
		return nil
	}
	dst, ok := r.take(f)
	if !ok {
		discard(f)
		return nil
	}
	defer discard(f)

	dst.Size = 0
	n, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return &StreamError{Op: "close", Err: err}
	}
	if r.maxOutput > 0 && n > r.maxOutput {
		return &StreamError{Op: "close", Err: ErrAllocation}
	}
	if n == 0 {
		return nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return &StreamError{Op: "close", Err: err}
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(f, buf); err != nil {
		return &StreamError{Op: "close", Err: err}
	}
	dst.Data = buf
	dst.Size = int(n)
	return nil
}

// tempFile creates an unnamed temporary backing file.
func (r *Registry) tempFile(op string) (*os.File, error) {
	f, err := os.CreateTemp(r.tempDir, "memstream-*")
	if err != nil {
		return nil, &StreamError{Op: op, Err: ErrBackingResource}
	}
	return f, nil
}

// discard releases a temporary backing file. Teardown path: secondary I/O
// errors are deliberately dropped.
func discard(f *os.File) {
	name := f.Name()
	_ = f.Close()
	if name != "" {
		_ = os.Remove(name)
	}
}
