package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen matches how much of a file mimetype needs for the formats we send.
const sniffLen = 3072

type part struct {
	field       string
	path        string
	file        *os.File
	size        int64
	contentType string
}

// openParts opens every file before anything is sent. On error all handles
// opened so far are closed.
func openParts(files []File) ([]*part, error) {
	parts := make([]*part, 0, len(files))
	for _, f := range files {
		p, err := openPart(f)
		if err != nil {
			closeParts(parts)
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, nil
}

func openPart(f File) (*part, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		_ = file.Close()
		return nil, fmt.Errorf("%s is not a regular file", f.Path)
	}

	contentType, err := sniff(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &part{
		field:       f.Field,
		path:        f.Path,
		file:        file,
		size:        info.Size(),
		contentType: contentType,
	}, nil
}

// sniff detects the content type from the head of the file and rewinds it.
// The read also proves the file is readable.
func sniff(file *os.File) (string, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	if n == 0 {
		return "application/octet-stream", nil
	}
	return mimetype.Detect(buf[:n]).String(), nil
}

func closeParts(parts []*part) {
	for _, p := range parts {
		_ = p.file.Close()
	}
}

// body is a multipart/form-data stream assembled from pre-rendered part
// headers interleaved with the open files. Only the headers live in memory.
type body struct {
	reader      io.Reader
	length      int64
	contentType string
}

func newBody(parts []*part) (*body, error) {
	var (
		framing bytes.Buffer
		readers = make([]io.Reader, 0, 2*len(parts)+1)
		length  int64
	)
	mw := multipart.NewWriter(&framing)

	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(p.field), escapeQuotes(filepath.Base(p.path))))
		h.Set("Content-Type", p.contentType)
		if _, err := mw.CreatePart(h); err != nil {
			return nil, err
		}
		head := bytes.Clone(framing.Bytes())
		framing.Reset()

		readers = append(readers, bytes.NewReader(head), io.LimitReader(p.file, p.size))
		length += int64(len(head)) + p.size
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	tail := bytes.Clone(framing.Bytes())
	readers = append(readers, bytes.NewReader(tail))
	length += int64(len(tail))

	return &body{
		reader:      io.MultiReader(readers...),
		length:      length,
		contentType: mw.FormDataContentType(),
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
