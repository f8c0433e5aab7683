package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()

	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("failed to open report archive: %v", err)
	}
	defer zr.Close()

	files := make(map[string]string)
	for _, f := range zr.File {
		r, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			t.Fatalf("failed to read %s: %v", f.Name, err)
		}
		files[f.Name] = string(data)
	}
	return files
}

func TestReport_Archive(t *testing.T) {
	tmpDir := t.TempDir()
	conf := ReporterConfig{Destination: filepath.Join(tmpDir, "report.zip")}

	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if r.Name() != conf.Destination {
		t.Errorf("Name() = %q, want %q", r.Name(), conf.Destination)
	}

	stored := filepath.Join(tmpDir, "input.css")
	if err := os.WriteFile(stored, []byte(".a{b:c}"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	r.Store("source/input.css", stored)
	r.Store("missing.log", filepath.Join(tmpDir, "absent.log"))
	r.StoreData("trace.txt", []byte("merge\n"))

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files := readArchive(t, conf.Destination)
	if files["source/input.css"] != ".a{b:c}" {
		t.Errorf("stored file content = %q", files["source/input.css"])
	}
	if files["trace.txt"] != "merge\n" {
		t.Errorf("stored data = %q", files["trace.txt"])
	}
	if _, ok := files["missing.log"]; ok {
		t.Error("absent files must be skipped")
	}
	want := "file\t7\tsource/input.css\t" + stored + "\n" +
		"missing\t-\tmissing.log\t" + filepath.Join(tmpDir, "absent.log") + "\n" +
		"data\t6\ttrace.txt\n"
	if files["MANIFEST"] != want {
		t.Errorf("MANIFEST =\n%s\nwant\n%s", files["MANIFEST"], want)
	}
}

func TestReport_ManifestKeepsStoreOrder(t *testing.T) {
	name := filepath.Join(t.TempDir(), "report.zip")
	r, err := (&ReporterConfig{Destination: name}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	for _, n := range []string{"trace/0002-b.css.txt", "trace/0001-a.css.txt", "config.yaml"} {
		r.StoreData(n, []byte("x"))
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(readArchive(t, name)["MANIFEST"]), "\n")
	want := []string{"data\t1\ttrace/0002-b.css.txt", "data\t1\ttrace/0001-a.css.txt", "data\t1\tconfig.yaml"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("MANIFEST lines = %q, want %q", lines, want)
	}
}

func TestReport_StoreDataTwicePanics(t *testing.T) {
	r := newReport(nil)
	r.StoreData("a", []byte("1"))

	defer func() {
		if recover() == nil {
			t.Error("expected panic on overwrite")
		}
	}()
	r.StoreData("a", []byte("2"))
}

func TestReport_StoreSamePathTwice(t *testing.T) {
	r := newReport(nil)
	r.Store("log", "/tmp/a.log")
	// same path is fine
	r.Store("log", "/tmp/a.log")
	if r.items.Len() != 1 {
		t.Errorf("expected single entry, got %d", r.items.Len())
	}
}

func TestReport_StoreOtherPathPanics(t *testing.T) {
	r := newReport(nil)
	r.Store("log", "/tmp/a.log")

	defer func() {
		if recover() == nil {
			t.Error("expected panic on different path under the same name")
		}
	}()
	r.Store("log", "/tmp/b.log")
}

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	r.Store("a", "b")
	r.StoreData("c", nil)
	if r.Name() != "" {
		t.Error("nil report must have empty name")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := newReport(nil)
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
