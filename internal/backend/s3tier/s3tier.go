// Package s3tier implements tier2.Backend against an S3-compatible object
// store: each cache object is one PUT/GET/DELETE, with the codec algorithm
// tag and IV carried as object metadata alongside the ciphertext body.
package s3tier

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ionlayer/tiercache/internal/tier2"
)

const (
	metaAlg = "tiercache-alg"
	metaIV  = "tiercache-iv"
)

// s3Client is the slice of *s3.Client Backend needs, narrowed so tests can
// substitute a fake instead of talking to a real bucket.
type s3Client interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Backend is a tier2.Backend backed by a single S3 bucket.
type Backend struct {
	client s3Client
	bucket string
}

// New returns a Backend against bucket using client.
func New(client *s3.Client, bucket string) *Backend {
	return &Backend{client: client, bucket: bucket}
}

var _ tier2.Backend = (*Backend)(nil)

func (b *Backend) Get(ctx context.Context, key string) (tier2.Object, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return tier2.Object{}, tier2.ErrNotFound
		}
		return tier2.Object{}, fmt.Errorf("s3tier: get object %q: %w", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return tier2.Object{}, fmt.Errorf("s3tier: reading object %q: %w", key, err)
	}

	iv, err := base64.StdEncoding.DecodeString(out.Metadata[metaIV])
	if err != nil {
		return tier2.Object{}, fmt.Errorf("s3tier: decoding iv metadata for %q: %w", key, err)
	}

	return tier2.Object{
		Key:        key,
		Body:       body,
		Alg:        out.Metadata[metaAlg],
		IV:         iv,
		ContentLen: int64(len(body)),
	}, nil
}

func (b *Backend) Put(ctx context.Context, obj tier2.Object) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(obj.Key),
		Body:   bytes.NewReader(obj.Body),
		Metadata: map[string]string{
			metaAlg: obj.Alg,
			metaIV:  base64.StdEncoding.EncodeToString(obj.IV),
		},
	})
	if err != nil {
		return fmt.Errorf("s3tier: put object %q: %w", obj.Key, err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3tier: delete object %q: %w", key, err)
	}
	return nil
}
