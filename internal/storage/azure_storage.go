package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// BlobHostSuffix identifies Azure Blob Storage URLs
const BlobHostSuffix = ".blob.core.windows.net"

// BlobImageFetcher reads images from Azure Blob Storage with a shared key.
type BlobImageFetcher struct {
	client  *azblob.Client
	account string
	maxSize int64
}

// NewBlobImageFetcher creates a fetcher for the given storage account.
func NewBlobImageFetcher(accountName, accountKey string) (*BlobImageFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s%s", accountName, BlobHostSuffix),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure blob client: %w", err)
	}

	return &BlobImageFetcher{client: client, account: accountName, maxSize: DefaultMaxImageSize}, nil
}

// IsBlobURL reports whether rawURL points at Azure Blob Storage
func IsBlobURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Hostname()), BlobHostSuffix)
}

// ParseBlobURL splits https://<account>.blob.core.windows.net/<container>/<blob>.
func ParseBlobURL(blobURL string) (account, container, blob string, err error) {
	u, err := url.Parse(blobURL)
	if err != nil {
		return "", "", "", fmt.Errorf("invalid blob URL: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	if !strings.HasSuffix(host, BlobHostSuffix) {
		return "", "", "", fmt.Errorf("not a blob storage host: %s", host)
	}
	account = strings.TrimSuffix(host, BlobHostSuffix)

	container, blob, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if !ok || container == "" || blob == "" {
		return "", "", "", fmt.Errorf("blob URL must name a container and a blob: %s", u.Path)
	}
	return account, container, blob, nil
}

// FetchImage downloads the blob named by blobURL.
func (s *BlobImageFetcher) FetchImage(ctx context.Context, blobURL string) (*Image, error) {
	account, container, blob, err := ParseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}
	if account != strings.ToLower(s.account) {
		return nil, fmt.Errorf("blob account %q does not match configured account", account)
	}

	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	body := resp.Body
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("image exceeds %d bytes", s.maxSize)
	}

	var header string
	if resp.ContentType != nil {
		header = *resp.ContentType
	}
	contentType := DetectContentType(header, data)
	if !IsImage(contentType) {
		return nil, fmt.Errorf("blob is not an image: %s", contentType)
	}
	return &Image{Data: data, ContentType: contentType, Source: blobURL}, nil
}
