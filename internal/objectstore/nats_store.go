// Package objectstore provides a NATS JetStream implementation of the
// ObjectStore interface used for transcript input and dubbed-track output.
package objectstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsObjectStore implements the core.ObjectStore interface on one JetStream
// object store bucket.
type NatsObjectStore struct {
	bucket string
	store  nats.ObjectStore
}

// New creates the named bucket if it does not exist yet and binds to it.
func New(jetstreamContext nats.JetStreamContext, bucketName string) (*NatsObjectStore, error) {
	store, err := openBucket(jetstreamContext, bucketName)
	if err != nil {
		return nil, err
	}

	return &NatsObjectStore{
		bucket: bucketName,
		store:  store,
	}, nil
}

// openBucket takes a create-first approach so the first service instance to
// start provisions the bucket and later ones bind to it.
func openBucket(jetstreamContext nats.JetStreamContext, bucketName string) (nats.ObjectStore, error) {
	store, createErr := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Storage for the %s bucket.", bucketName),
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if createErr == nil {
		return store, nil
	}

	if !errors.Is(createErr, jetstream.ErrBucketExists) {
		return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, createErr)
	}

	store, bindErr := jetstreamContext.ObjectStore(bucketName)
	if bindErr != nil {
		return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, bindErr)
	}

	return store, nil
}

// Bucket reports the bucket this store is bound to.
func (n *NatsObjectStore) Bucket() string {
	return n.bucket
}

// Download retrieves an object from the bucket.
func (n *NatsObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	data, err := n.store.GetBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, n.bucket, err)
	}

	return data, nil
}

// Upload saves an object to the bucket.
func (n *NatsObjectStore) Upload(_ context.Context, key string, data []byte) error {
	_, err := n.store.PutBytes(key, data)
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, n.bucket, err)
	}

	return nil
}
