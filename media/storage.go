package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrNotImage rejects uploads whose content is not a raster image
var ErrNotImage = errors.New("media: not an image")

// sniffLen matches the mimetype package's default read limit
const sniffLen = 3072

// Storage keeps uploaded files under a root directory and serves them
// below a URL prefix
type Storage struct {
	root      string
	urlPrefix string
}

func NewStorage(root, urlPrefix string) *Storage {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &Storage{root: root, urlPrefix: urlPrefix}
}

func (s *Storage) Root() string { return s.root }

// SniffImage detects the content type of r from its leading bytes. It
// returns the extension of the detected type and a reader that replays the
// whole content. SVG is refused since browsers run its scripts.
func SniffImage(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	mt := mimetype.Detect(head)
	if !strings.HasPrefix(mt.String(), "image/") || mt.Is("image/svg+xml") || mt.Extension() == "" {
		return "", nil, ErrNotImage
	}
	return mt.Extension(), io.MultiReader(bytes.NewReader(head), r), nil
}

// Save writes r to <root>/<dir>/<uuid><ext> and returns the relative path
func (s *Storage) Save(dir, ext string, r io.Reader) (string, error) {
	ext = strings.ToLower(ext)
	rel := path.Join(dir, uuid.NewString()+ext)
	full := filepath.Join(s.root, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("close media file: %w", err)
	}
	return rel, nil
}

// Remove deletes a stored file; missing files are ignored
func (s *Storage) Remove(rel string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// URL returns the server-relative URL of a stored file
func (s *Storage) URL(rel string) string {
	return s.urlPrefix + strings.TrimPrefix(rel, "/")
}
