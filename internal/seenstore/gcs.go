// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package seenstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/pdiddy/paperbot/internal/dedup"
)

// DefaultGCSPrefix is the object prefix used when none is configured.
const DefaultGCSPrefix = "seen/"

// GCSStore keeps one JSON object per seen identifier in a Cloud Storage
// bucket. Object names hash the identifier so URLs never leak into paths.
type GCSStore struct {
	client     *storage.Client
	bucket     string
	prefix     string
	ownsClient bool
}

// OpenGCS creates a Cloud Storage client with opts and returns a store
// writing under bucket/prefix.
func OpenGCS(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs store: bucket is required")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	s := NewGCS(client, bucket, prefix)
	s.ownsClient = true
	return s, nil
}

// NewGCS wraps an existing client. The caller keeps ownership of client.
func NewGCS(client *storage.Client, bucket, prefix string) *GCSStore {
	if prefix == "" {
		prefix = DefaultGCSPrefix
	}
	return &GCSStore{client: client, bucket: bucket, prefix: prefix}
}

func (s *GCSStore) objectName(id string) string {
	sum := sha256.Sum256([]byte(id))
	return s.prefix + hex.EncodeToString(sum[:]) + ".json"
}

// Contains reports whether an object exists for id.
func (s *GCSStore) Contains(ctx context.Context, id string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(s.objectName(id)).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("getting object attributes: %w", err)
	}
	return true, nil
}

// Add writes the entry unless an object for its id already exists.
func (s *GCSStore) Add(ctx context.Context, e dedup.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling seen entry: %w", err)
	}

	obj := s.client.Bucket(s.bucket).Object(s.objectName(e.ID)).If(storage.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing object data: %w", err)
	}
	if err := w.Close(); err != nil {
		if isPreconditionFailed(err) {
			return nil
		}
		return fmt.Errorf("closing object writer: %w", err)
	}
	return nil
}

// isPreconditionFailed reports whether err is the 412 returned when the
// object already exists.
func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

// Remove deletes the object for id and reports whether it existed.
func (s *GCSStore) Remove(ctx context.Context, id string) (bool, error) {
	err := s.client.Bucket(s.bucket).Object(s.objectName(id)).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("deleting object: %w", err)
	}
	return true, nil
}

// Count returns the number of objects under the prefix.
func (s *GCSStore) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.each(ctx, func(*storage.ObjectAttrs) error {
		n++
		return nil
	})
	return n, err
}

// List reads every entry under the prefix, newest first.
func (s *GCSStore) List(ctx context.Context, limit int) ([]dedup.Entry, error) {
	var out []dedup.Entry
	err := s.each(ctx, func(attrs *storage.ObjectAttrs) error {
		e, err := s.read(ctx, attrs.Name)
		if err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PostedAt.After(out[j].PostedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Prune deletes objects created before cutoff.
func (s *GCSStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	bucket := s.client.Bucket(s.bucket)
	n := 0
	err := s.each(ctx, func(attrs *storage.ObjectAttrs) error {
		if !attrs.Created.Before(cutoff) {
			return nil
		}
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("deleting object %s: %w", attrs.Name, err)
		}
		n++
		return nil
	})
	return n, err
}

// Close releases the client if the store created it.
func (s *GCSStore) Close() error {
	if s.ownsClient {
		return s.client.Close()
	}
	return nil
}

func (s *GCSStore) each(ctx context.Context, fn func(*storage.ObjectAttrs) error) error {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: s.prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("listing objects: %w", err)
		}
		if err := fn(attrs); err != nil {
			return err
		}
	}
}

func (s *GCSStore) read(ctx context.Context, name string) (dedup.Entry, error) {
	r, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err != nil {
		return dedup.Entry{}, fmt.Errorf("opening object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return dedup.Entry{}, fmt.Errorf("reading object data: %w", err)
	}
	var e dedup.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return dedup.Entry{}, fmt.Errorf("unmarshaling seen entry %s: %w", name, err)
	}
	return e, nil
}
