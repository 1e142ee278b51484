package services

import (
	"bytes"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func makeFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("upload", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	w.Close()

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["upload"][0]
}

func TestFileStoreSave(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root, 1)

	name, err := store.Save("u1@example.com", makeFileHeader(t, "../../My Notes.txt", []byte("hello")))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if name != "My_Notes.txt" {
		t.Errorf("Expected sanitized name, got %q", name)
	}
	data, err := os.ReadFile(filepath.Join(root, "u1@example.com", "My_Notes.txt"))
	if err != nil || string(data) != "hello" {
		t.Errorf("stored file = %q, %v", data, err)
	}

	// same name overwrites
	if _, err := store.Save("u1@example.com", makeFileHeader(t, "My Notes.txt", []byte("again"))); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(filepath.Join(root, "u1@example.com", "My_Notes.txt"))
	if string(data) != "again" {
		t.Errorf("Expected last write to win, got %q", data)
	}
}

func TestFileStoreSaveRejects(t *testing.T) {
	store := NewFileStore(t.TempDir(), 1)

	if _, err := store.Save("u1@example.com", makeFileHeader(t, "...", []byte("x"))); !errors.Is(err, ErrEmptyFilename) {
		t.Errorf("Expected ErrEmptyFilename, got %v", err)
	}
	if _, err := store.Save("../evil", makeFileHeader(t, "a.txt", []byte("x"))); !errors.Is(err, ErrBadOwnerDir) {
		t.Errorf("Expected ErrBadOwnerDir, got %v", err)
	}
	big := bytes.Repeat([]byte("x"), (1<<20)+1)
	if _, err := store.Save("u1@example.com", makeFileHeader(t, "big.bin", big)); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Expected ErrFileTooLarge, got %v", err)
	}
}

func TestFileStoreListAndResolve(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root, 1)
	os.MkdirAll(filepath.Join(root, "b@example.com"), 0o755)
	os.MkdirAll(filepath.Join(root, "a@example.com", "empty"), 0o755)
	os.WriteFile(filepath.Join(root, "b@example.com", "z.txt"), []byte("z"), 0o644)
	os.WriteFile(filepath.Join(root, "a@example.com", "y.txt"), []byte("y"), 0o644)
	os.WriteFile(filepath.Join(root, "top.txt"), []byte("t"), 0o644)

	files, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a@example.com/y.txt", "b@example.com/z.txt", "top.txt"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("List() = %v, want %v", files, want)
	}

	p, err := store.Resolve("a@example.com/y.txt")
	if err != nil || p != filepath.Join(root, "a@example.com", "y.txt") {
		t.Errorf("Resolve = %q, %v", p, err)
	}
	for _, name := range []string{"", "missing.txt", "../secret", "a@example.com/../top.txt", "a@example.com"} {
		if _, err := store.Resolve(name); !errors.Is(err, ErrFileNotFound) {
			t.Errorf("Resolve(%q) = %v, want ErrFileNotFound", name, err)
		}
	}
}

func TestFileStoreListMissingRoot(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope"), 1)
	files, err := store.List()
	if err != nil || len(files) != 0 {
		t.Errorf("Expected empty listing, got %v, %v", files, err)
	}
}

func TestFileStoreRemove(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root, 1)
	name, err := store.Save("u1@example.com", makeFileHeader(t, "draft.txt", []byte("x")))
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Remove("u1@example.com", name); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "u1@example.com", name)); !os.IsNotExist(err) {
		t.Errorf("Expected file gone, got %v", err)
	}
	if err := store.Remove("u1@example.com", name); err != nil {
		t.Errorf("removing a missing file should succeed, got %v", err)
	}

	if err := store.Remove("../etc", "passwd"); !errors.Is(err, ErrBadOwnerDir) {
		t.Errorf("Expected ErrBadOwnerDir, got %v", err)
	}
	if err := store.Remove("u1@example.com", "../secret"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Expected ErrFileNotFound, got %v", err)
	}
}
