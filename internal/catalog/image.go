package catalog

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

const maxImageWidth = 800

var ErrUnsupportedImage = errors.New("image must be png or jpeg")

// ImageStore saves uploaded item images as JPEG files under Dir. Stored
// names are served below URLPrefix.
type ImageStore struct {
	Dir       string
	URLPrefix string
}

func NewImageStore(dir, urlPrefix string) *ImageStore {
	return &ImageStore{Dir: dir, URLPrefix: strings.TrimRight(urlPrefix, "/")}
}

// Save decodes r according to the extension of filename, shrinks it to at most
// 800px wide and returns the public path of the stored file.
func (s *ImageStore) Save(filename string, r io.Reader) (string, error) {
	var (
		img image.Image
		err error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		img, err = png.Decode(r)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(r)
	default:
		return "", ErrUnsupportedImage
	}
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	if img.Bounds().Dx() > maxImageWidth {
		img = resize.Resize(maxImageWidth, 0, img, resize.Lanczos3)
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + ".jpg"
	out, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", err
	}
	defer out.Close()
	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: 80}); err != nil {
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("encode image: %w", err)
	}
	return s.URLPrefix + "/" + name, nil
}

// Remove deletes the file behind a path returned by Save. Paths outside
// URLPrefix are ignored.
func (s *ImageStore) Remove(public string) error {
	name, ok := strings.CutPrefix(public, s.URLPrefix+"/")
	if !ok || name == "" || name != filepath.Base(name) {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
