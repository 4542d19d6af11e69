package thumbkit

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	jseg "github.com/garyhouston/jpegsegs"
)

// Metadata describes the segment-level metadata of a JPEG stream. Field
// semantics inside EXIF are out of scope; only segment presence and the
// embedded thumbnail IFD are reported.
type Metadata struct {
	// Comment is the text of the first COM segment, if any.
	Comment string

	// HasComment reports whether a COM segment is present.
	HasComment bool

	// HasEXIF reports whether an Exif APP1 segment is present.
	HasEXIF bool

	// HasThumbnail reports whether the Exif block carries an embedded
	// thumbnail (a non-zero IFD1 offset).
	HasThumbnail bool

	// ThumbnailSize is the byte count from the start of IFD1 to the end of
	// the Exif block, an upper bound on the embedded thumbnail size.
	ThumbnailSize int
}

var exifHeader = []byte("Exif\x00\x00")

// scanMetadata reads the segments preceding the entropy-coded data and
// collects comment and thumbnail information.
func scanMetadata(data []byte) (*Metadata, error) {
	scanner, err := jseg.NewScanner(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJPEG, err)
	}
	segments, err := jseg.ReadSegments(scanner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJPEG, err)
	}

	m := &Metadata{}
	for _, s := range segments {
		switch {
		case s.Marker == jseg.COM:
			if !m.HasComment {
				m.Comment = string(s.Data)
				m.HasComment = true
			}
		case s.Marker == jseg.APP0+1 && bytes.HasPrefix(s.Data, exifHeader):
			m.HasEXIF = true
			if has, size := exifThumbnail(s.Data); has {
				m.HasThumbnail = true
				m.ThumbnailSize = size
			}
		}
	}
	return m, nil
}

// exifThumbnail walks the TIFF structure of an Exif APP1 payload far enough
// to see whether IFD1, the thumbnail IFD, is linked from IFD0. Returns the
// byte count from IFD1 to the end of the block.
func exifThumbnail(seg []byte) (bool, int) {
	tiff := seg[len(exifHeader):]
	if len(tiff) < 8 {
		return false, 0
	}

	var order binary.ByteOrder
	switch {
	case tiff[0] == 'I' && tiff[1] == 'I':
		order = binary.LittleEndian
	case tiff[0] == 'M' && tiff[1] == 'M':
		order = binary.BigEndian
	default:
		return false, 0
	}

	ifd0 := int(order.Uint32(tiff[4:8]))
	if ifd0 < 0 || len(tiff) < ifd0+2 {
		return false, 0
	}
	entries := int(order.Uint16(tiff[ifd0 : ifd0+2]))
	next := ifd0 + 2 + entries*12
	if len(tiff) < next+4 {
		return false, 0
	}
	ifd1 := int(order.Uint32(tiff[next : next+4]))
	if ifd1 == 0 || ifd1 >= len(tiff) {
		return false, 0
	}
	return true, len(tiff) - ifd1
}

// rewriteSegments copies a JPEG stream from src to dst, adjusting its
// metadata segments on the way through. The entropy-coded data following
// the SOS header is copied verbatim.
//
// When setComment is true the first COM segment is replaced with comment
// (or inserted before SOS if none exists); an empty comment removes the
// segment. When strip is true, COM and all application segments except the
// JFIF APP0 are dropped, taking any embedded EXIF thumbnail with them.
func rewriteSegments(dst io.Writer, src []byte, comment string, setComment, strip bool) error {
	r := bytes.NewReader(src)
	scanner, err := jseg.NewScanner(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotJPEG, err)
	}
	segments, err := jseg.ReadSegments(scanner)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotJPEG, err)
	}

	out := make([]jseg.Segment, 0, len(segments)+1)
	commentDone := false
	for _, s := range segments {
		switch {
		case s.Marker == jseg.COM:
			if setComment {
				if commentDone || comment == "" {
					continue
				}
				out = append(out, jseg.Segment{Marker: jseg.COM, Data: []byte(comment)})
				commentDone = true
				continue
			}
			if strip {
				continue
			}
			out = append(out, s)
		case s.Marker > jseg.APP0 && s.Marker <= jseg.APP0+15:
			// APP0 itself (JFIF) survives a strip; everything above it goes.
			if strip {
				continue
			}
			out = append(out, s)
		case s.Marker == jseg.SOS:
			if setComment && !commentDone && comment != "" {
				out = append(out, jseg.Segment{Marker: jseg.COM, Data: []byte(comment)})
				commentDone = true
			}
			out = append(out, s)
		default:
			out = append(out, s)
		}
	}

	dumper, err := jseg.NewDumper(dst)
	if err != nil {
		return err
	}
	if err := jseg.WriteSegments(dumper, out); err != nil {
		return err
	}
	_, err = io.Copy(dst, r)
	return err
}
