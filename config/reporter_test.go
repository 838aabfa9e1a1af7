package config

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestReportClose_RemovesStoredDirs(t *testing.T) {
	// Create a temp file for the report archive
	reportFile, err := os.CreateTemp("", "test-report-*.zip")
	if err != nil {
		t.Fatalf("failed to create temp report file: %v", err)
	}
	defer os.Remove(reportFile.Name())

	r := &Report{
		entries: make(map[string]entry),
		file:    reportFile,
	}

	// Create temp directories to simulate stored WorkDirs
	dir1, err := os.MkdirTemp("", "test-workdir1-")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	dir2, err := os.MkdirTemp("", "test-workdir2-")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	// Put a file inside one of them to verify recursive removal
	if err := os.WriteFile(filepath.Join(dir1, "debug.txt"), []byte("test"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	// Also store a regular file entry — it should NOT be removed
	tmpFile, err := os.CreateTemp("", "test-stored-file-")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	r.Store("workdir-1", dir1)
	r.Store("workdir-2", dir2)
	r.Store("result-file", tmpFile.Name())

	// Close should finalize the archive and then remove stored directories
	if err := r.Close(); err != nil {
		t.Fatalf("Report.Close() error: %v", err)
	}

	// Directories should be removed
	if _, err := os.Stat(dir1); !os.IsNotExist(err) {
		os.RemoveAll(dir1)
		t.Errorf("expected dir1 to be removed, but it still exists")
	}
	if _, err := os.Stat(dir2); !os.IsNotExist(err) {
		os.RemoveAll(dir2)
		t.Errorf("expected dir2 to be removed, but it still exists")
	}

	// Regular file should still exist
	if _, err := os.Stat(tmpFile.Name()); err != nil {
		t.Errorf("stored file should not be removed, but got error: %v", err)
	}
}

func TestReportStoreData_Archived(t *testing.T) {
	reportFile, err := os.CreateTemp("", "test-report-*.zip")
	if err != nil {
		t.Fatalf("failed to create temp report file: %v", err)
	}
	defer os.Remove(reportFile.Name())

	r := &Report{
		entries: make(map[string]entry),
		file:    reportFile,
	}

	findings := []byte("error: spine is empty\nwarning: mimetype entry is not first\n")
	r.StoreData("doctor/book.epub.txt", findings)

	if err := r.Close(); err != nil {
		t.Fatalf("Report.Close() error: %v", err)
	}

	zr, err := zip.OpenReader(reportFile.Name())
	if err != nil {
		t.Fatalf("failed to open report archive: %v", err)
	}
	defer zr.Close()

	var names []string
	var haveManifest bool
	for _, f := range zr.File {
		names = append(names, f.Name)
		switch f.Name {
		case "MANIFEST":
			haveManifest = true
		case "doctor/book.epub.txt":
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("failed to open archived findings: %v", err)
			}
			got, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				t.Fatalf("failed to read archived findings: %v", err)
			}
			if !bytes.Equal(got, findings) {
				t.Errorf("archived findings do not match stored data:\ngot:  %q\nwant: %q", got, findings)
			}
		}
	}
	if !haveManifest {
		t.Errorf("report archive has no MANIFEST, entries: %v", names)
	}
	if len(names) != 2 {
		t.Errorf("unexpected report archive content: %v", names)
	}
}

func TestReportStoreCopy_BookArchivedSourceKept(t *testing.T) {
	reportFile, err := os.CreateTemp("", "test-report-*.zip")
	if err != nil {
		t.Fatalf("failed to create temp report file: %v", err)
	}
	defer os.Remove(reportFile.Name())

	r := &Report{
		entries: make(map[string]entry),
		file:    reportFile,
	}

	book := filepath.Join(t.TempDir(), "book.epub")
	content := []byte("PK\x03\x04 not really a book")
	if err := os.WriteFile(book, content, 0644); err != nil {
		t.Fatalf("failed to write test book: %v", err)
	}

	if err := r.StoreCopy("book/book.epub", book); err != nil {
		t.Fatalf("StoreCopy() error: %v", err)
	}
	staged := r.entries["book/book.epub"].actual
	if staged == "" || staged == book {
		t.Fatalf("StoreCopy did not stage a copy, actual: %q", staged)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Report.Close() error: %v", err)
	}

	// The source must survive, the staging directory must not
	if _, err := os.Stat(book); err != nil {
		t.Errorf("source book should not be touched, got error: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(staged)); !os.IsNotExist(err) {
		os.RemoveAll(filepath.Dir(staged))
		t.Errorf("expected staging directory to be removed, but it still exists")
	}

	zr, err := zip.OpenReader(reportFile.Name())
	if err != nil {
		t.Fatalf("failed to open report archive: %v", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "book/book.epub" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open archived book: %v", err)
		}
		got, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read archived book: %v", err)
		}
		if !bytes.Equal(got, content) {
			t.Errorf("archived book does not match source")
		}
		return
	}
	t.Errorf("book copy missing from report archive")
}

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
