// Package thumbkit provides a handle-based API over a JPEG codec for fast
// thumbnail generation: open an image from a file or an in-memory buffer,
// pick a decode size and quality, optionally inspect or rewrite the embedded
// comment and thumbnail metadata, then encode a resized output to a file or
// an in-memory buffer.
//
// The DCT codec itself (decode, Lanczos resampling, encode) is delegated to
// github.com/disintegration/imaging; thumbkit supplies the handle lifecycle,
// the segment-level metadata handling, and the in-memory stream emulation in
// [github.com/gobeaver/thumbkit/memstream] that lets both ends of the
// pipeline run against memory instead of files.
//
// # Basic Usage
//
//	im, err := thumbkit.Open("photo.jpg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer im.Close()
//
//	im.SetDecodeSize(256, 256)
//	im.SetQuality(85)
//	im.SetComment("generated by thumbkit")
//	im.SetOutputFile("photo.thumb.jpg")
//
//	if err := im.Encode(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Memory-to-Memory
//
// Both ends of the pipeline can be buffers. The output destination is
// populated when Encode finishes, sized exactly to the encoded bytes:
//
//	im, err := thumbkit.OpenBytes(src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer im.Close()
//
//	var dst memstream.Destination
//	im.SetDecodeSize(128, 128)
//	im.SetOutputBuffer(&dst)
//	if err := im.Encode(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	// dst.Data holds the encoded thumbnail, dst.Size its exact length.
//
// # Service Layer
//
// For batch work, [Thumbnailer] wraps the handle API behind a configured
// service with a worker pool; the package-level [Init] and [Default] follow
// the usual beaver-kit global-instance pattern, with configuration loaded
// from THUMBKIT_* environment variables.
package thumbkit
