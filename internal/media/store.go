package media

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ProductImagesDir is directory of product images relative to media base directory.
const ProductImagesDir = "/images/products"

// ErrImageWriteFailed is returned when image can't be written to media directory.
var ErrImageWriteFailed = errors.New("image write failed")

var slugReplacer = strings.NewReplacer(" ", "_", "/", "_", `\`, "_")

// Slug returns product name with ASCII letters lowercased and spaces replaced by underscores.
// Non-ASCII letters keep their case. Path separators are replaced as well, so slug never leaves images directory.
func Slug(name string) string {
	return slugReplacer.Replace(strings.Map(asciiLower, name))
}

func asciiLower(r rune) rune {
	if 'A' <= r && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// PublicPath returns public image path for product name, e.g. /images/products/test_product.jpg.
func PublicPath(name string) string {
	return path.Join(ProductImagesDir, Slug(name)+".jpg")
}

// Store writes product images into media directory.
type Store struct {
	fs      afero.Fs
	baseDir string
}

// NewStore returns new Store writing into baseDir of provided filesystem.
func NewStore(fs afero.Fs, baseDir string) *Store {
	return &Store{
		fs:      fs,
		baseDir: baseDir,
	}
}

// WriteProductImage writes image bytes for product name and returns its public path.
// Image is written to temporary file first and renamed, so partially written image is never visible.
// Bytes are written as received, file is always named <slug>.jpg.
func (s *Store) WriteProductImage(name string, image []byte) (string, error) {
	publicPath := PublicPath(name)
	dir := filepath.Join(s.baseDir, filepath.FromSlash(ProductImagesDir))
	target := filepath.Join(s.baseDir, filepath.FromSlash(publicPath))

	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: can't create images directory: %w", ErrImageWriteFailed, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+Slug(name)+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: can't create temporary file: %w", ErrImageWriteFailed, err)
	}

	if err := writeAndClose(tmp, image); err != nil {
		_ = s.fs.Remove(tmp.Name())
		return "", fmt.Errorf("%w: can't write temporary file: %w", ErrImageWriteFailed, err)
	}

	if err := s.fs.Rename(tmp.Name(), target); err != nil {
		_ = s.fs.Remove(tmp.Name())
		return "", fmt.Errorf("%w: can't move image into place: %w", ErrImageWriteFailed, err)
	}

	return publicPath, nil
}

// RemoveProductImage removes image file of product name. Missing file is not an error.
func (s *Store) RemoveProductImage(name string) error {
	err := s.fs.Remove(s.FilePath(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("can't remove product image: %w", err)
	}

	return nil
}

// FilePath returns path of product image file inside media directory.
func (s *Store) FilePath(name string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(PublicPath(name)))
}

func writeAndClose(file afero.File, data []byte) error {
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return err
	}

	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}

	return file.Close()
}
