package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/exp/mmap"
)

// openReader opens plain files through mmap and .zst files through a
// streaming zstd decoder.
func openReader(name string) (io.ReadCloser, error) {
	if strings.HasSuffix(name, ".zst") {
		file, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("can`t open file: %w", err)
		}
		dec, err := zstd.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("can`t create zstd reader: %w", err)
		}
		return &zstdReadCloser{dec: dec, file: file}, nil
	}

	r, err := mmap.Open(name)
	if err != nil {
		return nil, fmt.Errorf("can`t open file: %w", err)
	}
	return &mmapReadCloser{SectionReader: io.NewSectionReader(r, 0, int64(r.Len())), r: r}, nil
}

type zstdReadCloser struct {
	dec  *zstd.Decoder
	file *os.File
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	return z.dec.Read(p)
}

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.file.Close()
}

type mmapReadCloser struct {
	*io.SectionReader
	r *mmap.ReaderAt
}

func (m *mmapReadCloser) Close() error {
	return m.r.Close()
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM drops a leading UTF-8 byte order mark, common in spreadsheet exports.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(utf8BOM))
	if err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	return br
}

func fileSize(name string) uint64 {
	info, err := os.Stat(name)
	if err != nil {
		return 0
	}
	return uint64(info.Size())
}
