// Package storage persists uploaded documents on the local public disk.
// Laboratory result files are the only consumer today: PDF only, capped in
// size, addressed by a path relative to the upload root.
package storage

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrFileNotFound = errors.New("stored file not found")
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	ErrNotPDF       = errors.New("only PDF files are accepted")
)

// Store saves, replaces and removes uploaded files.
type Store interface {
	// Save validates and writes the upload, returning the stored path
	// relative to the public root.
	Save(filename string, content io.Reader) (string, error)

	// Replace stores the new file and removes the previous one. The old
	// blob is only deleted after the new write succeeded.
	Replace(oldPath, filename string, content io.Reader) (string, error)

	Delete(path string) error

	// AbsolutePath resolves a stored relative path for serving.
	AbsolutePath(path string) string
}

type DiskStore struct {
	root     string
	maxBytes int64
}

func NewDiskStore(root string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(filepath.Join(root, "laboratory_results"), 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &DiskStore{root: root, maxBytes: maxBytes}, nil
}

func (s *DiskStore) Save(filename string, content io.Reader) (string, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return "", ErrNotPDF
	}

	data, err := io.ReadAll(io.LimitReader(content, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrFileTooLarge
	}
	if http.DetectContentType(data) != "application/pdf" {
		return "", ErrNotPDF
	}

	rel := filepath.Join("laboratory_results", uuid.NewString()+".pdf")
	if err := os.WriteFile(filepath.Join(s.root, rel), data, 0o644); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

func (s *DiskStore) Replace(oldPath, filename string, content io.Reader) (string, error) {
	rel, err := s.Save(filename, content)
	if err != nil {
		return "", err
	}
	if oldPath != "" {
		if err := s.Delete(oldPath); err != nil && !errors.Is(err, ErrFileNotFound) {
			// The new file is already live; a stale blob is the lesser evil.
			return rel, nil
		}
	}
	return rel, nil
}

func (s *DiskStore) Delete(path string) error {
	if path == "" {
		return ErrFileNotFound
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(path)))
	if os.IsNotExist(err) {
		return ErrFileNotFound
	}
	return err
}

func (s *DiskStore) AbsolutePath(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}
