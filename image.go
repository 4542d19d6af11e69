package thumbkit

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/gobeaver/thumbkit/memstream"
)

// Image is a handle on one open JPEG image. A handle is opened from a file
// or a buffer, configured, encoded zero or more times, and closed. Handles
// are not safe for concurrent use.
type Image struct {
	src  []byte
	path string
	meta Metadata

	width  int
	height int

	quality    int
	decodeW    int
	decodeH    int
	comment    string
	commentSet bool
	strip      bool

	outPath string
	outDst  *memstream.Destination

	reg    *memstream.Registry
	closed bool
}

// Open opens the JPEG file at path and returns a handle on it. Only the
// header and metadata segments are parsed; pixel data is not decoded until
// Encode.
func Open(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &PathError{Op: "open", Path: path, Err: err}
	}
	im, err := openBytes(memstream.Default(), data)
	if err != nil {
		return nil, &PathError{Op: "open", Path: path, Err: err}
	}
	im.path = path
	return im, nil
}

// OpenBytes opens a JPEG held in memory and returns a handle on it. The
// buffer must not be modified while the handle is open.
func OpenBytes(data []byte) (*Image, error) {
	return openBytes(memstream.Default(), data)
}

func openBytes(reg *memstream.Registry, data []byte) (*Image, error) {
	rd, err := reg.OpenReader(data)
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	cfg, err := jpeg.DecodeConfig(rd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJPEG, err)
	}
	meta, err := scanMetadata(data)
	if err != nil {
		return nil, err
	}

	return &Image{
		src:    data,
		meta:   *meta,
		width:  cfg.Width,
		height: cfg.Height,
		reg:    reg,
	}, nil
}

// Size returns the pixel dimensions of the source image.
func (im *Image) Size() (width, height int) {
	return im.width, im.height
}

// Metadata returns the segment-level metadata of the source image.
func (im *Image) Metadata() Metadata {
	return im.meta
}

// Comment returns the COM segment text of the source image, if any.
func (im *Image) Comment() string {
	return im.meta.Comment
}

// SetComment sets the COM segment text for encoded outputs. An empty string
// removes the segment.
func (im *Image) SetComment(comment string) {
	im.comment = comment
	im.commentSet = true
}

// SetDecodeSize bounds encoded outputs to fit within width x height,
// preserving aspect ratio. Zero for either dimension derives it from the
// other; zero for both leaves the source size.
func (im *Image) SetDecodeSize(width, height int) {
	im.decodeW = width
	im.decodeH = height
}

// SetQuality sets the JPEG quality (1-100) for encoded outputs.
func (im *Image) SetQuality(quality int) {
	im.quality = quality
}

// SetStripMetadata controls whether encoded outputs drop comment and
// application segments.
func (im *Image) SetStripMetadata(strip bool) {
	im.strip = strip
}

// SetOutputFile directs Encode to write to the file at path, replacing any
// previously selected output target.
func (im *Image) SetOutputFile(path string) {
	im.outPath = path
	im.outDst = nil
}

// SetOutputBuffer directs Encode to publish into dst, replacing any
// previously selected output target. dst is populated when Encode returns,
// sized exactly to the encoded bytes; a Size of zero means the encode
// failed.
func (im *Image) SetOutputBuffer(dst *memstream.Destination) {
	im.outDst = dst
	im.outPath = ""
}

// Encode decodes the source, resizes it to the configured bounds, and
// writes the result to the selected output target. Options override the
// handle-level settings for this call only. Encode may be called more than
// once, e.g. to produce several sizes from one open handle.
func (im *Image) Encode(ctx context.Context, options ...Option) error {
	if im.closed {
		return ErrImageClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if im.outDst == nil && im.outPath == "" {
		return ErrNoOutput
	}

	opts := processOptions(options...)
	quality := opts.Quality
	if quality == 0 {
		quality = im.quality
	}
	if quality == 0 {
		quality = 85
	}
	if quality < 1 || quality > 100 {
		return ErrInvalidQuality
	}
	boxW, boxH := opts.MaxWidth, opts.MaxHeight
	if boxW == 0 && boxH == 0 {
		boxW, boxH = im.decodeW, im.decodeH
	}
	if boxW < 0 || boxH < 0 {
		return ErrInvalidSize
	}
	comment, commentSet := im.comment, im.commentSet
	if opts.commentSet {
		comment, commentSet = opts.Comment, true
	}
	strip := im.strip || opts.StripMetadata

	img, err := im.decode()
	if err != nil {
		return err
	}
	img = resizeToFit(img, boxW, boxH, opts.Upscale)
	if opts.Sharpen > 0 {
		img = effect.UnsharpMask(img, 1.0, opts.Sharpen)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	encoded := buf.Bytes()
	if commentSet || strip {
		var rewritten bytes.Buffer
		rewritten.Grow(len(encoded) + len(comment) + 4)
		if err := rewriteSegments(&rewritten, encoded, comment, commentSet, strip); err != nil {
			return fmt.Errorf("%w: %v", ErrEncode, err)
		}
		encoded = rewritten.Bytes()
	}

	bounds := img.Bounds()
	Logger().Debug("encoded thumbnail",
		zap.Int("width", bounds.Dx()),
		zap.Int("height", bounds.Dy()),
		zap.Int("quality", quality),
		zap.Int("bytes", len(encoded)))

	return im.deliver(encoded)
}

// decode runs the source buffer through the codec via a memory read stream.
func (im *Image) decode() (image.Image, error) {
	rd, err := im.reg.OpenReader(im.src)
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	img, err := imaging.Decode(rd, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// resizeToFit scales img to fit within the box, preserving aspect ratio.
func resizeToFit(img image.Image, boxW, boxH int, upscale bool) image.Image {
	if boxW == 0 && boxH == 0 {
		return img
	}
	b := img.Bounds()
	if !upscale {
		if (boxW == 0 || b.Dx() <= boxW) && (boxH == 0 || b.Dy() <= boxH) {
			return img
		}
	}
	if boxW > 0 && boxH > 0 {
		if upscale {
			// Fit never enlarges, so compute the fitted size explicitly.
			if boxW*b.Dy() <= boxH*b.Dx() {
				return imaging.Resize(img, boxW, 0, imaging.Lanczos)
			}
			return imaging.Resize(img, 0, boxH, imaging.Lanczos)
		}
		return imaging.Fit(img, boxW, boxH, imaging.Lanczos)
	}
	// One-sided bound: derive the other dimension from the aspect ratio.
	return imaging.Resize(img, boxW, boxH, imaging.Lanczos)
}

// deliver writes the encoded bytes to the selected output target.
func (im *Image) deliver(encoded []byte) error {
	switch {
	case im.outDst != nil:
		w, err := im.reg.OpenWriter(im.outDst)
		if err != nil {
			return err
		}
		if _, err := w.Write(encoded); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	case im.outPath != "":
		if err := os.WriteFile(im.outPath, encoded, 0o644); err != nil {
			return &PathError{Op: "encode", Path: im.outPath, Err: err}
		}
		return nil
	default:
		return ErrNoOutput
	}
}

// Close releases the handle. Using the handle afterwards fails with
// ErrImageClosed; closing twice is a no-op.
func (im *Image) Close() error {
	if im.closed {
		return nil
	}
	im.closed = true
	im.src = nil
	return nil
}
