package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// %PDF-1.4 is enough for http.DetectContentType to sniff application/pdf.
var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

func newTestStore(t *testing.T, maxBytes int64) *DiskStore {
	t.Helper()
	s, err := NewDiskStore(t.TempDir(), maxBytes)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	return s
}

func TestSaveWritesUnderLaboratoryResults(t *testing.T) {
	s := newTestStore(t, 1<<20)

	rel, err := s.Save("cbc_results.pdf", bytes.NewReader(pdfBytes))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(rel, "laboratory_results/") || !strings.HasSuffix(rel, ".pdf") {
		t.Fatalf("stored path %q has wrong shape", rel)
	}
	got, err := os.ReadFile(s.AbsolutePath(rel))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if !bytes.Equal(got, pdfBytes) {
		t.Fatal("stored content differs from upload")
	}
}

func TestSaveRejectsNonPDFExtension(t *testing.T) {
	s := newTestStore(t, 1<<20)
	if _, err := s.Save("results.docx", bytes.NewReader(pdfBytes)); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("err = %v, want ErrNotPDF", err)
	}
}

func TestSaveRejectsDisguisedContent(t *testing.T) {
	s := newTestStore(t, 1<<20)
	if _, err := s.Save("results.pdf", strings.NewReader("<html><body>hi</body></html>")); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("err = %v, want ErrNotPDF", err)
	}
}

func TestSaveRejectsOversizedUpload(t *testing.T) {
	s := newTestStore(t, int64(len(pdfBytes))-1)
	if _, err := s.Save("results.pdf", bytes.NewReader(pdfBytes)); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}
}

func TestReplaceRemovesOldBlob(t *testing.T) {
	s := newTestStore(t, 1<<20)
	old, err := s.Save("first.pdf", bytes.NewReader(pdfBytes))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	rel, err := s.Replace(old, "second.pdf", bytes.NewReader(pdfBytes))
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if rel == old {
		t.Fatal("Replace reused the old path")
	}
	if _, err := os.Stat(s.AbsolutePath(old)); !os.IsNotExist(err) {
		t.Fatalf("old blob still present: %v", err)
	}
	if _, err := os.Stat(s.AbsolutePath(rel)); err != nil {
		t.Fatalf("new blob missing: %v", err)
	}
}

func TestReplaceKeepsOldBlobOnBadUpload(t *testing.T) {
	s := newTestStore(t, 1<<20)
	old, err := s.Save("first.pdf", bytes.NewReader(pdfBytes))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := s.Replace(old, "second.txt", bytes.NewReader(pdfBytes)); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("err = %v, want ErrNotPDF", err)
	}
	if _, err := os.Stat(s.AbsolutePath(old)); err != nil {
		t.Fatalf("old blob should survive a failed replace: %v", err)
	}
}

func TestDeleteMissingFile(t *testing.T) {
	s := newTestStore(t, 1<<20)
	if err := s.Delete("laboratory_results/nope.pdf"); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("err = %v, want ErrFileNotFound", err)
	}
	if err := s.Delete(""); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("err = %v, want ErrFileNotFound", err)
	}
}

func TestAbsolutePathStaysUnderRoot(t *testing.T) {
	s := newTestStore(t, 1<<20)
	abs := s.AbsolutePath("laboratory_results/x.pdf")
	if !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		t.Fatalf("AbsolutePath %q escapes root %q", abs, s.root)
	}
}
