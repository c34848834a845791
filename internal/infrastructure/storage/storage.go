// Package storage stores uploaded images in an S3 compatible object store.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ObjectStorage is the object store used for images
type ObjectStorage interface {
	// Put uploads an object and returns its public URL
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// MaxImageSize is the largest accepted upload
const MaxImageSize = 10 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageExtension returns the file extension of an accepted image type
func ImageExtension(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := imageExtensions[ct]
	return ext, ok
}

// sniffLen is how many leading bytes content detection looks at
const sniffLen = 512

// SniffImage detects the real type of r from its leading bytes. It returns
// a reader that still yields the whole stream and the detected type, which
// is empty when the bytes are not an accepted image.
func SniffImage(r io.Reader) (io.Reader, string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", err
	}
	head = head[:n]
	ct := http.DetectContentType(head)
	if _, ok := ImageExtension(ct); !ok {
		ct = ""
	}
	return io.MultiReader(bytes.NewReader(head), r), ct, nil
}

// ObjectKey builds <scope>/<id>/<uuid><ext>, e.g. locations/12/3f..c1.jpg
func ObjectKey(scope string, ownerID uint, ext string) string {
	return path.Join(scope, fmt.Sprint(ownerID), uuid.NewString()+ext)
}
