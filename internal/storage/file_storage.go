package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

// FileImageFetcher reads images from the local filesystem. It accepts plain
// paths and file:// URLs.
type FileImageFetcher struct {
	maxSize int64
}

func NewFileImageFetcher() *FileImageFetcher {
	return &FileImageFetcher{maxSize: DefaultMaxImageSize}
}

func (f *FileImageFetcher) FetchImage(ctx context.Context, location string) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := location
	if strings.HasPrefix(location, "file://") {
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("invalid file URL: %w", err)
		}
		path = u.Path
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > f.maxSize {
		return nil, fmt.Errorf("image exceeds %d bytes", f.maxSize)
	}

	contentType := DetectContentType("", data)
	if !IsImage(contentType) {
		return nil, fmt.Errorf("%s is not an image: %s", path, contentType)
	}
	return &Image{Data: data, ContentType: contentType, Source: location}, nil
}
