package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// ObjectAPI is the part of *s3.Client the store needs.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps the history as a JSON array in a single S3 object.
type S3Store struct {
	bucket string
	key    string
	s3     ObjectAPI
	mu     sync.Mutex
}

func NewS3Store(client ObjectAPI, bucket, key string) *S3Store {
	return &S3Store{
		bucket: bucket,
		key:    key,
		s3:     client,
	}
}

func (s *S3Store) Append(ctx context.Context, record any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read(ctx)
	if err != nil {
		return err
	}

	out, err := encodeEntries(entries, record)
	if err != nil {
		return err
	}

	_, err = s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(out),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put history object to S3: %w", err)
	}
	return nil
}

func (s *S3Store) List(ctx context.Context) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []json.RawMessage{}
	}
	return entries, nil
}

func (s *S3Store) read(ctx context.Context) ([]json.RawMessage, error) {
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get history object from S3: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read history object: %w", err)
	}

	entries, ok := decodeEntries(data)
	if !ok {
		zerolog.Ctx(ctx).Warn().Str("bucket", s.bucket).Str("key", s.key).Msg("History object is corrupt, starting a new history")
	}
	return entries, nil
}
