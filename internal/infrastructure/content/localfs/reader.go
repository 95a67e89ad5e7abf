package localfs

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// Reader loads source files from the local filesystem. Files are expected to
// be UTF-8; byte content that fails UTF-8 validation is decoded as GB18030
// before giving up.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

func (r *Reader) ReadText(_ context.Context, path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file content: %w", err)
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}

	decoded, err := simplifiedchinese.GB18030.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode file content %s: %w", path, err)
	}
	return string(decoded), nil
}
