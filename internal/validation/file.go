package validation

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
)

// FileConstraints maps each accepted extension to the content types that
// http.DetectContentType may report for it.
type FileConstraints struct {
	Types   map[string][]string
	MaxSize int64
}

var (
	ImageConstraints = FileConstraints{
		Types: map[string][]string{
			".jpg":  {"image/jpeg"},
			".jpeg": {"image/jpeg"},
			".png":  {"image/png"},
			".webp": {"image/webp"},
		},
		MaxSize: 5 << 20,
	}

	// DocumentConstraints covers analysis uploads. CSV and TXT both sniff as
	// text/plain, so the extension decides how they are read.
	DocumentConstraints = FileConstraints{
		Types: map[string][]string{
			".pdf": {"application/pdf"},
			".csv": plainText,
			".txt": plainText,
		},
		MaxSize: 10 << 20,
	}

	plainText = []string{
		"text/plain; charset=utf-8",
		"text/plain; charset=utf-16be",
		"text/plain; charset=utf-16le",
	}
)

// ValidateFile accepts the upload when it satisfies any of the constraint
// sets, returning the last failure otherwise.
func ValidateFile(header *multipart.FileHeader, constraints ...FileConstraints) error {
	err := errors.New("no file constraints provided")
	for _, c := range constraints {
		if err = c.check(header); err == nil {
			return nil
		}
	}
	return err
}

// DetectContentType sniffs the first 512 bytes of an upload.
func DetectContentType(header *multipart.FileHeader) (string, error) {
	f, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return http.DetectContentType(head[:n]), nil
}

func (c FileConstraints) check(header *multipart.FileHeader) error {
	if header.Size > c.MaxSize {
		return fmt.Errorf("file too large: maximum size is %d MB", c.MaxSize>>20)
	}

	sniffed, err := DetectContentType(header)
	if err != nil {
		return err
	}
	if !c.allowsType(sniffed) {
		return fmt.Errorf("invalid file type (detected: %s)", sniffed)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	types, ok := c.Types[ext]
	if !ok {
		return fmt.Errorf("invalid file extension: %s", ext)
	}
	if !slices.Contains(types, sniffed) {
		return fmt.Errorf("invalid file type: %s content in a %s file", sniffed, ext)
	}
	return nil
}

func (c FileConstraints) allowsType(sniffed string) bool {
	for _, types := range c.Types {
		if slices.Contains(types, sniffed) {
			return true
		}
	}
	return false
}
