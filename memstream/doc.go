// Package memstream emulates file streams on top of in-memory byte buffers,
// so codec pipelines can decode from and encode to memory through the same
// sequential, seekable interface they use for real files.
//
// Two backing modes are supported:
//
//   - [ModeMemory] (the default): streams are backed directly by memory.
//     Readers wrap the caller's buffer zero-copy; writers grow an internal
//     buffer and hand it to the caller's [Destination] at close.
//   - [ModeFile]: streams are backed by unnamed temporary files. This mode
//     exists for consumers that must pass a real *os.File to foreign code
//     (cgo codecs, child processes). Write streams in this mode are tracked
//     in a [Registry] so the final output can be recovered at close time,
//     when the total size is first known.
//
// # Write Finalization
//
// A write stream is opened against a caller-owned [Destination]. Nothing is
// published until the stream is closed; close measures the bytes written,
// allocates a buffer of exactly that size, and populates Destination.Data
// and Destination.Size. On failure Size is left at zero and Data untouched,
// so callers must check Size before using Data:
//
//	var dst memstream.Destination
//	w, err := memstream.OpenWriter(&dst)
//	if err != nil {
//	    return err
//	}
//	jpeg.Encode(w, img, nil)
//	if err := w.Close(); err != nil {
//	    return err
//	}
//	// dst.Data holds exactly dst.Size bytes.
//
// # Registries
//
// A [Registry] owns the mode, temp-file directory, allocation limit, and the
// table correlating open file-mode write streams to their destinations. The
// package-level [OpenReader] and [OpenWriter] use a shared default registry;
// callers needing different settings (or isolation in tests) create their own
// with [NewRegistry]. All Registry methods are safe for concurrent use.
package memstream
