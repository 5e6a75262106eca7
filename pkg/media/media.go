// Package media stores uploaded ad media and report archives.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/sirupsen/logrus"
)

var ErrInvalidName = errors.New("invalid object name")

// Store writes objects and reports where they can be fetched.
type Store interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Close() error
}

// cleanName rejects names that would escape the store root.
func cleanName(name string) (string, error) {
	cleaned := path.Clean("/" + name)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return cleaned, nil
}

// GCSStore keeps objects in a Cloud Storage bucket under a folder.
type GCSStore struct {
	client     *storage.Client
	bucketName string
	folderName string
	logger     *logrus.Logger
}

func NewGCSStore(ctx context.Context, bucketName, folderName string, logger *logrus.Logger) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{
		client:     client,
		bucketName: bucketName,
		folderName: strings.Trim(folderName, "/"),
		logger:     logger,
	}, nil
}

func (g *GCSStore) objectName(name string) string {
	if g.folderName == "" {
		return name
	}
	return g.folderName + "/" + name
}

func (g *GCSStore) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	objectName := g.objectName(name)

	writer := g.client.Bucket(g.bucketName).Object(objectName).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := io.Copy(writer, r); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to upload %s: %w", objectName, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize %s: %w", objectName, err)
	}

	g.logger.WithField("object", objectName).Info("Uploaded to bucket")
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucketName, objectName), nil
}

func (g *GCSStore) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// LocalStore keeps objects on disk and serves them under a URL prefix.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir is the root directory objects are written to.
func (l *LocalStore) Dir() string { return l.dir }

func (l *LocalStore) Put(_ context.Context, name, _ string, r io.Reader) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	full := filepath.Join(l.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return l.baseURL + "/" + name, nil
}

func (l *LocalStore) Close() error { return nil }
