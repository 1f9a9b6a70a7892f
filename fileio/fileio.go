// Package fileio binds documents to files: opening maps the file read-only
// and detects its encoding, saving writes a temp file and atomically
// renames it over the target.
package fileio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/sys/unix"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding is the detected on-disk encoding of an opened file. Documents
// are always edited as UTF-8; non-UTF-8 files are converted on open and
// written back as UTF-8.
type Encoding uint8

const (
	EncUTF8 Encoding = iota
	EncUTF8BOM
	EncUTF16LE
	EncUTF16BE
	EncANSI
)

func (e Encoding) String() string {
	switch e {
	case EncUTF8BOM:
		return "UTF-8 BOM"
	case EncUTF16LE:
		return "UTF-16 LE"
	case EncUTF16BE:
		return "UTF-16 BE"
	case EncANSI:
		return "ANSI"
	default:
		return "UTF-8"
	}
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// ErrOpenFailed wraps any failure to open or map a file.
var ErrOpenFailed = errors.New("open failed")

// Document is an opened file: the UTF-8 bytes to seed a piece table with,
// the detected encoding, and the mapping backing them. Bytes may alias the
// mapping directly (UTF-8 files), so the Document must outlive any piece
// table built on it; Close releases the mapping.
type Document struct {
	Path     string
	Bytes    []byte
	Encoding Encoding

	mapped []byte
	f      *os.File
}

// Open maps path read-only and detects its encoding by BOM. UTF-16 and
// ANSI content is decoded into a fresh owned buffer and the mapping
// released immediately; UTF-8 content stays on the mapping so gigabyte
// files open without copying.
//
// No-BOM files that are not valid UTF-8 decode as Windows-1252. A BOM-less
// multibyte encoding such as Shift-JIS is therefore reinterpreted and will
// be rewritten as UTF-8 on save.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenFailed, path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenFailed, path, err)
	}

	doc := &Document{Path: path, f: f}
	if info.Size() == 0 {
		return doc, nil
	}

	mapped, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenFailed, path, err)
	}
	doc.mapped = mapped

	switch {
	case bytes.HasPrefix(mapped, bomUTF8):
		doc.Encoding = EncUTF8BOM
		doc.Bytes = mapped[len(bomUTF8):]
	case bytes.HasPrefix(mapped, bomUTF16LE):
		err = doc.decodeAndRelease(EncUTF16LE,
			unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	case bytes.HasPrefix(mapped, bomUTF16BE):
		err = doc.decodeAndRelease(EncUTF16BE,
			unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
	case utf8.Valid(mapped):
		doc.Encoding = EncUTF8
		doc.Bytes = mapped
	default:
		err = doc.decodeAndRelease(EncANSI, charmap.Windows1252.NewDecoder())
	}
	if err != nil {
		doc.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenFailed, path, err)
	}

	return doc, nil
}

// decodeAndRelease converts the mapping into a fresh owned UTF-8 buffer
// and drops the mapping, which is no longer needed.
func (d *Document) decodeAndRelease(enc Encoding, dec *encoding.Decoder) error {
	out, err := dec.Bytes(d.mapped)
	if err != nil {
		return err
	}
	d.Encoding = enc
	d.Bytes = out

	unix.Munmap(d.mapped)
	d.mapped = nil
	d.f.Close()
	d.f = nil
	return nil
}

// Close releases the mapping and the file handle. The Document's Bytes
// must not be used afterwards if they aliased the mapping.
func (d *Document) Close() error {
	var err error
	if d.mapped != nil {
		err = unix.Munmap(d.mapped)
		d.mapped = nil
	}
	if d.f != nil {
		if cerr := d.f.Close(); err == nil {
			err = cerr
		}
		d.f = nil
	}
	d.Bytes = nil
	return err
}

// SaveErrorKind tags which stage of the save contract failed.
type SaveErrorKind uint8

const (
	TempCreateFailed SaveErrorKind = iota
	WriteFailed
	RenameFailed
)

func (k SaveErrorKind) String() string {
	switch k {
	case WriteFailed:
		return "write failed"
	case RenameFailed:
		return "rename failed"
	default:
		return "temp create failed"
	}
}

// SaveError reports a failed save. The target file is untouched: the temp
// file has been removed and any prior mapping is still valid.
type SaveError struct {
	Kind SaveErrorKind
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// Save writes the full document to <path>.tmp and renames it over path.
// The rename is atomic on the same filesystem, so a reader of path sees
// either the old bytes or the new bytes, never a torn file.
func Save(path string, doc io.Reader) error {
	tmpPath := path + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return &SaveError{Kind: TempCreateFailed, Path: path, Err: err}
	}

	if _, err := io.Copy(tmp, doc); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &SaveError{Kind: WriteFailed, Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &SaveError{Kind: WriteFailed, Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &SaveError{Kind: WriteFailed, Path: path, Err: err}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &SaveError{Kind: RenameFailed, Path: path, Err: err}
	}
	return nil
}

