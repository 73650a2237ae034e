// Package storage persists recorded pitches to a local directory or an
// S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store is the minimal object store a recording export needs.
type Store interface {
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Read(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// URL returns a location the object can be fetched from: a file path
	// for local storage, a presigned URL for S3.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Exporter names and writes session recordings.
type Exporter struct {
	store  Store
	prefix string
	now    func() time.Time
	newID  func() string
}

func NewExporter(store Store, prefix string) *Exporter {
	return &Exporter{
		store:  store,
		prefix: prefix,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// Key builds recordings/<room>/<utc timestamp>-<uuid>.wav under the prefix.
func (e *Exporter) Key(roomID string) string {
	if roomID == "" {
		roomID = "offline"
	}
	name := e.now().UTC().Format("20060102T150405Z") + "-" + e.newID() + ".wav"
	return path.Join(e.prefix, "recordings", roomID, name)
}

// ExportWAV writes one recording and returns its key and URL.
func (e *Exporter) ExportWAV(ctx context.Context, roomID string, wav []byte) (key, url string, err error) {
	key = e.Key(roomID)
	if err := e.store.Write(ctx, key, bytes.NewReader(wav), int64(len(wav)), "audio/wav"); err != nil {
		return "", "", fmt.Errorf("export %s: %w", key, err)
	}
	url, err = e.store.URL(ctx, key, 24*time.Hour)
	if err != nil {
		return key, "", err
	}
	return key, url, nil
}

// Recordings lists the stored recordings of a room, oldest first.
func (e *Exporter) Recordings(ctx context.Context, roomID string) ([]ObjectInfo, error) {
	return e.store.List(ctx, path.Join(e.prefix, "recordings", roomID)+"/")
}
