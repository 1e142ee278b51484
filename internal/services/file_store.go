package services

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"darkweb/internal/utils"
)

var (
	ErrEmptyFilename = errors.New("file name is empty after sanitizing")
	ErrFileTooLarge  = errors.New("file exceeds the upload limit")
	ErrFileNotFound  = errors.New("file not found")
	ErrBadOwnerDir   = errors.New("invalid owner directory")
)

// FileStore keeps uploads on local disk as <root>/<owner email>/<secure name>.
type FileStore struct {
	root     string
	maxBytes int64
}

func NewFileStore(root string, maxMB int) *FileStore {
	return &FileStore{root: root, maxBytes: int64(maxMB) << 20}
}

func (s *FileStore) MaxBytes() int64 {
	return s.maxBytes
}

// Save writes an uploaded file into the owner's directory and returns the
// sanitized name it was stored under. An existing file with that name is
// replaced.
func (s *FileStore) Save(ownerEmail string, header *multipart.FileHeader) (string, error) {
	if !validOwner(ownerEmail) {
		return "", ErrBadOwnerDir
	}
	name := utils.SecureFilename(header.Filename)
	if name == "" {
		return "", ErrEmptyFilename
	}
	if s.maxBytes > 0 && header.Size > s.maxBytes {
		return "", ErrFileTooLarge
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dir := filepath.Join(s.root, ownerEmail)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return name, nil
}

// Remove deletes a file stored by Save. A file that is already gone is not
// an error.
func (s *FileStore) Remove(ownerEmail, name string) error {
	if !validOwner(ownerEmail) {
		return ErrBadOwnerDir
	}
	if name == "" || utils.SecureFilename(name) != name {
		return ErrFileNotFound
	}
	err := os.Remove(filepath.Join(s.root, ownerEmail, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

func validOwner(ownerEmail string) bool {
	return ownerEmail != "" && ownerEmail == filepath.Base(ownerEmail) && !strings.HasPrefix(ownerEmail, ".")
}

// List returns every regular file below the root as a sorted, slash
// separated relative path. A missing root yields an empty list.
func (s *FileStore) List() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == s.root {
				return filepath.SkipDir
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// Resolve maps a name from List back to a path on disk. Names that are not
// in the listing return ErrFileNotFound.
func (s *FileStore) Resolve(name string) (string, error) {
	if name == "" || path.Clean(name) != name {
		return "", ErrFileNotFound
	}
	files, err := s.List()
	if err != nil {
		return "", err
	}
	i := sort.SearchStrings(files, name)
	if i >= len(files) || files[i] != name {
		return "", ErrFileNotFound
	}
	return filepath.Join(s.root, filepath.FromSlash(name)), nil
}
