package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"chatrelay/pkg/logger"
)

// MaxSize is the upload limit for a single image.
const MaxSize = 5 << 20 // 5 MiB

var allowedExt = map[string]struct{}{
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// ErrUnsupportedType is returned when the uploaded file is not an allowed
// image format.
var ErrUnsupportedType = fmt.Errorf("only images are allowed (jpeg, jpg, png, gif, webp)")

// SavedFile describes a stored upload.
type SavedFile struct {
	// Name is the generated on-disk filename.
	Name string
	// OriginalName is the client-supplied filename.
	OriginalName string
	Size         int64
	// URL is the public path the file is served from.
	URL string
}

// Saver writes uploaded images into a dedicated directory under generated
// unique names preserving the original extension.
type Saver struct {
	dir string
}

func New(dir string) (*Saver, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty uploads dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Saver{dir: dir}, nil
}

// Dir returns the directory uploads are stored in.
func (s *Saver) Dir() string { return s.dir }

// Save validates and stores one multipart file. Validation failures return
// ErrUnsupportedType or a size error; I/O failures are returned verbatim.
func (s *Saver) Save(fh *multipart.FileHeader) (SavedFile, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if _, ok := allowedExt[ext]; !ok {
		return SavedFile{}, ErrUnsupportedType
	}
	// Clients that set a concrete content type must declare an image;
	// octet-stream is treated as unspecified.
	if ct := fh.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" && !strings.HasPrefix(ct, "image/") {
		return SavedFile{}, ErrUnsupportedType
	}
	if fh.Size > MaxSize {
		return SavedFile{}, fmt.Errorf("file exceeds %d bytes", MaxSize)
	}

	src, err := fh.Open()
	if err != nil {
		return SavedFile{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := "image-" + uuid.NewString() + ext
	path := filepath.Join(s.dir, name)
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return SavedFile{}, fmt.Errorf("create upload file: %w", err)
	}
	n, err := io.Copy(dst, io.LimitReader(src, MaxSize))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return SavedFile{}, fmt.Errorf("write upload: %w", err)
	}

	logger.Info("upload_stored", "file", name, "size", n)
	return SavedFile{
		Name:         name,
		OriginalName: fh.Filename,
		Size:         n,
		URL:          "/uploads/" + name,
	}, nil
}
