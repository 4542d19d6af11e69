package thumbkit

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	jseg "github.com/garyhouston/jpegsegs"
)

// withSegment returns a copy of a JPEG stream with one extra metadata
// segment inserted before SOS.
func withSegment(t *testing.T, src []byte, marker jseg.Marker, payload []byte) []byte {
	t.Helper()
	r := bytes.NewReader(src)
	scanner, err := jseg.NewScanner(r)
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}
	segments, err := jseg.ReadSegments(scanner)
	if err != nil {
		t.Fatalf("read segments: %v", err)
	}
	out := make([]jseg.Segment, 0, len(segments)+1)
	for _, s := range segments {
		if s.Marker == jseg.SOS {
			out = append(out, jseg.Segment{Marker: marker, Data: payload})
		}
		out = append(out, s)
	}
	var buf bytes.Buffer
	dumper, err := jseg.NewDumper(&buf)
	if err != nil {
		t.Fatalf("new dumper: %v", err)
	}
	if err := jseg.WriteSegments(dumper, out); err != nil {
		t.Fatalf("write segments: %v", err)
	}
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("copy image data: %v", err)
	}
	return buf.Bytes()
}

// fakeExif builds a minimal Exif APP1 payload whose IFD0 links (or not) to
// a thumbnail IFD1.
func fakeExif(withThumbnail bool) []byte {
	var buf bytes.Buffer
	buf.WriteString("Exif\x00\x00")

	tiff := make([]byte, 0, 32)
	tiff = append(tiff, 'I', 'I', 0x2A, 0x00) // little-endian TIFF header
	tiff = binary.LittleEndian.AppendUint32(tiff, 8)
	// IFD0 at offset 8: zero entries.
	tiff = binary.LittleEndian.AppendUint16(tiff, 0)
	if withThumbnail {
		// IFD1 immediately follows the link field, at offset 14.
		tiff = binary.LittleEndian.AppendUint32(tiff, 14)
		tiff = binary.LittleEndian.AppendUint16(tiff, 0)
		tiff = binary.LittleEndian.AppendUint32(tiff, 0)
		// Thumbnail payload stand-in.
		tiff = append(tiff, 0xDE, 0xAD, 0xBE, 0xEF)
	} else {
		tiff = binary.LittleEndian.AppendUint32(tiff, 0)
	}
	buf.Write(tiff)
	return buf.Bytes()
}

func TestScanMetadata(t *testing.T) {
	base := testJPEG(t, 32, 32)

	t.Run("plain image has none", func(t *testing.T) {
		m, err := scanMetadata(base)
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		if m.HasComment || m.HasEXIF || m.HasThumbnail {
			t.Errorf("expected empty metadata, got %+v", m)
		}
	})

	t.Run("reads comment", func(t *testing.T) {
		data := withSegment(t, base, jseg.COM, []byte("hello"))
		m, err := scanMetadata(data)
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		if !m.HasComment || m.Comment != "hello" {
			t.Errorf("expected comment %q, got %+v", "hello", m)
		}
	})

	t.Run("detects exif thumbnail", func(t *testing.T) {
		data := withSegment(t, base, jseg.APP0+1, fakeExif(true))
		m, err := scanMetadata(data)
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		if !m.HasEXIF {
			t.Error("expected HasEXIF")
		}
		if !m.HasThumbnail {
			t.Error("expected HasThumbnail")
		}
		if m.ThumbnailSize != 10 {
			t.Errorf("expected thumbnail size 10, got %d", m.ThumbnailSize)
		}
	})

	t.Run("exif without thumbnail", func(t *testing.T) {
		data := withSegment(t, base, jseg.APP0+1, fakeExif(false))
		m, err := scanMetadata(data)
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		if !m.HasEXIF || m.HasThumbnail {
			t.Errorf("expected EXIF without thumbnail, got %+v", m)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		if _, err := scanMetadata([]byte("not a jpeg")); !IsNotJPEG(err) {
			t.Errorf("expected ErrNotJPEG, got: %v", err)
		}
	})
}

func TestExifThumbnailBigEndian(t *testing.T) {
	var tiff []byte
	tiff = append(tiff, 'M', 'M', 0x00, 0x2A)
	tiff = binary.BigEndian.AppendUint32(tiff, 8)
	tiff = binary.BigEndian.AppendUint16(tiff, 0)
	tiff = binary.BigEndian.AppendUint32(tiff, 14)
	tiff = append(tiff, 0x01, 0x02)

	seg := append([]byte("Exif\x00\x00"), tiff...)
	has, size := exifThumbnail(seg)
	if !has {
		t.Fatal("expected thumbnail")
	}
	if size != 2 {
		t.Errorf("expected size 2, got %d", size)
	}
}

func TestExifThumbnailMalformed(t *testing.T) {
	cases := map[string][]byte{
		"empty":            []byte("Exif\x00\x00"),
		"bad order":        append([]byte("Exif\x00\x00"), []byte("XX\x2a\x00\x00\x00\x00\x08")...),
		"truncated ifd":    append([]byte("Exif\x00\x00"), 'I', 'I', 0x2A, 0x00, 0xFF, 0x00, 0x00, 0x00),
		"offset past data": append([]byte("Exif\x00\x00"), 'I', 'I', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0x7F),
	}
	for name, seg := range cases {
		t.Run(name, func(t *testing.T) {
			if has, _ := exifThumbnail(seg); has {
				t.Error("expected no thumbnail")
			}
		})
	}
}

func TestRewriteSegments(t *testing.T) {
	base := testJPEG(t, 32, 32)

	t.Run("insert comment", func(t *testing.T) {
		var out bytes.Buffer
		if err := rewriteSegments(&out, base, "inserted", true, false); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
		m, err := scanMetadata(out.Bytes())
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		if m.Comment != "inserted" {
			t.Errorf("expected %q, got %q", "inserted", m.Comment)
		}
		// The rewritten stream must still decode.
		if w, h := decodeDims(t, out.Bytes()); w != 32 || h != 32 {
			t.Errorf("expected 32x32, got %dx%d", w, h)
		}
	})

	t.Run("replace comment", func(t *testing.T) {
		src := withSegment(t, base, jseg.COM, []byte("old"))
		var out bytes.Buffer
		if err := rewriteSegments(&out, src, "new", true, false); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
		m, _ := scanMetadata(out.Bytes())
		if m.Comment != "new" {
			t.Errorf("expected %q, got %q", "new", m.Comment)
		}
	})

	t.Run("remove comment with empty string", func(t *testing.T) {
		src := withSegment(t, base, jseg.COM, []byte("old"))
		var out bytes.Buffer
		if err := rewriteSegments(&out, src, "", true, false); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
		m, _ := scanMetadata(out.Bytes())
		if m.HasComment {
			t.Errorf("expected comment removed, got %q", m.Comment)
		}
	})

	t.Run("strip drops comment and exif", func(t *testing.T) {
		src := withSegment(t, base, jseg.COM, []byte("remove me"))
		src = withSegment(t, src, jseg.APP0+1, fakeExif(true))
		var out bytes.Buffer
		if err := rewriteSegments(&out, src, "", false, true); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
		m, _ := scanMetadata(out.Bytes())
		if m.HasComment || m.HasEXIF || m.HasThumbnail {
			t.Errorf("expected stripped metadata, got %+v", m)
		}
		if w, h := decodeDims(t, out.Bytes()); w != 32 || h != 32 {
			t.Errorf("expected 32x32, got %dx%d", w, h)
		}
	})

	t.Run("strip keeps comment explicitly set", func(t *testing.T) {
		src := withSegment(t, base, jseg.APP0+1, fakeExif(true))
		var out bytes.Buffer
		if err := rewriteSegments(&out, src, "kept", true, true); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
		m, _ := scanMetadata(out.Bytes())
		if m.Comment != "kept" {
			t.Errorf("expected %q, got %q", "kept", m.Comment)
		}
		if m.HasEXIF {
			t.Error("expected EXIF stripped")
		}
	})
}
