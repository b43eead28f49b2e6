package output

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/CeoatNorthstar/openCern/internal/domain/model"
	"github.com/cockroachdb/errors"
)

// Encode writes doc as compact JSON without HTML escaping.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return errors.Mark(err, ErrWrite)
	}
	return nil
}

// Decode reads a document previously written by Encode.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode document"), ErrDecode)
	}
	return &doc, nil
}

// ReadFile decodes the document stored at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "open %s", path), ErrDecode)
	}
	defer f.Close()
	return Decode(bufio.NewReader(f))
}

// FileSink writes one document per source file into a directory.
type FileSink struct {
	dir string
}

// NewFileSink creates a sink rooted at dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Dir returns the output directory.
func (s *FileSink) Dir() string { return s.dir }

// Path is the document path for a source file: <dir>/<stem>.json.
func (s *FileSink) Path(source string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(s.dir, stem+".json")
}

// Write serializes res next to the other processed datasets and returns
// the file path and its size in bytes.
func (s *FileSink) Write(res *model.Result) (string, int64, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", 0, errors.Mark(errors.Wrapf(err, "create %s", s.dir), ErrWrite)
	}

	path := s.Path(res.Metadata.SourceFile)
	f, err := os.Create(path)
	if err != nil {
		return "", 0, errors.Mark(errors.Wrapf(err, "create %s", path), ErrWrite)
	}

	w := bufio.NewWriter(f)
	if err := Encode(w, FromResult(res)); err != nil {
		discard(f, path)
		return "", 0, errors.Wrapf(err, "encode %s", path)
	}
	if err := w.Flush(); err != nil {
		discard(f, path)
		return "", 0, errors.Mark(errors.Wrapf(err, "flush %s", path), ErrWrite)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", 0, errors.Mark(errors.Wrapf(err, "close %s", path), ErrWrite)
	}

	info, err := os.Stat(path)
	if err != nil {
		return path, 0, errors.Mark(err, ErrWrite)
	}
	return path, info.Size(), nil
}

// discard closes and removes a partially written document.
func discard(f *os.File, path string) {
	_ = f.Close()
	_ = os.Remove(path)
}
