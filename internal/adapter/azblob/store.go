// Package azblob implements storage.ObjectStore on Azure Blob Storage.
package azblob

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// Store uploads objects into one container.
type Store struct {
	client    *azblob.Client
	container string
}

// New connects using a storage account connection string and ensures the
// container exists.
func New(ctx context.Context, connStr, container string) (*Store, error) {
	client, err := azblob.NewClientFromConnectionString(connStr, nil)
	if err != nil {
		return nil, fmt.Errorf("azblob: client: %w", err)
	}
	if _, err := client.CreateContainer(ctx, container, nil); err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("azblob: create container %s: %w", container, err)
	}
	return &Store{client: client, container: container}, nil
}

// Upload streams r into the blob at path. size is not needed by the block
// blob stream uploader.
func (s *Store) Upload(ctx context.Context, path, contentType string, r io.Reader, _ int64) error {
	opts := &azblob.UploadStreamOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}
	if _, err := s.client.UploadStream(ctx, s.container, path, r, opts); err != nil {
		return fmt.Errorf("azblob: upload %s: %w", path, err)
	}
	return nil
}

// PublicURL returns the blob URL. The container must allow anonymous blob
// reads for the URL to be fetchable without a SAS token.
func (s *Store) PublicURL(path string) string {
	return s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(path).URL()
}
