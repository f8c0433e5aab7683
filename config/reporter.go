package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/elliotchance/orderedmap/v3"

	"cssfmt/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates empty report. When destination could not be created report
// goes to temporary directory.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	return newReport(f), nil
}

// item is either in-memory data (trace, configuration dump) or path of the
// file (log, processed stylesheet) read when report is closed.
type item struct {
	origin string
	path   string
	data   []byte
	stamp  time.Time
}

// Report collects everything needed to reproduce a run into a single zip
// archive. Items are kept in the order they were stored, which is the order
// stylesheets were processed. Nil Report is valid and ignores everything.
// Not safe for concurrent use.
type Report struct {
	items *orderedmap.OrderedMap[string, item]
	file  *os.File
}

func newReport(f *os.File) *Report {
	return &Report{items: orderedmap.NewOrderedMap[string, item](), file: f}
}

// Close writes archive.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	defer r.file.Close()
	return r.write()
}

// Name returns absolute name of the archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store adds file to the archive under name. Storing the same file twice is
// allowed, storing different file under the same name panics.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	if old, exists := r.items.Get(name); exists {
		if old.origin != path {
			panic(fmt.Sprintf("report already has [%s] from %q, refusing %q", name, old.origin, path))
		}
		return
	}
	it := item{origin: path, path: path}
	if p, err := filepath.Abs(path); err == nil {
		it.path = p
	}
	r.items.Set(name, it)
}

// StoreData adds data to the archive as file with requested name. Names are
// never reused.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	if r.items.Has(name) {
		panic(fmt.Sprintf("report already has data for [%s]", name))
	}
	r.items.Set(name, item{data: data, stamp: time.Now()})
}

func (r *Report) write() error {
	arc := zip.NewWriter(r.file)

	manifest := new(bytes.Buffer)
	for name, it := range r.items.AllFromFront() {
		if it.data != nil || len(it.origin) == 0 {
			fmt.Fprintf(manifest, "data\t%d\t%s\n", len(it.data), name)
			if err := addToArchive(arc, name, it.stamp, bytes.NewReader(it.data)); err != nil {
				return err
			}
			continue
		}
		size, err := addFileToArchive(arc, name, it.path)
		switch {
		case err != nil:
			return err
		case size < 0:
			fmt.Fprintf(manifest, "missing\t-\t%s\t%s\n", name, it.origin)
		default:
			fmt.Fprintf(manifest, "file\t%d\t%s\t%s\n", size, name, it.origin)
		}
	}
	if err := addToArchive(arc, "MANIFEST", time.Now(), manifest); err != nil {
		return err
	}
	return arc.Close()
}

// addFileToArchive returns -1 when path does not name regular file.
func addFileToArchive(arc *zip.Writer, name, path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return -1, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	if err := addToArchive(arc, name, info.ModTime(), f); err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func addToArchive(arc *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := arc.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return fmt.Errorf("unable to add [%s] to report: %w", name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("unable to add [%s] to report: %w", name, err)
	}
	return nil
}
