package format

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"cssfmt/config"
)

// buildOutputPath keeps directory structure of src under dst, file name is
// cleaned (and transliterated if requested) and gets suffix before ".css"
// extension.
func buildOutputPath(src, dst, suffix string, transliterate bool) string {
	baseName := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	if transliterate {
		baseName = slug.Make(baseName)
	}
	return filepath.Join(dst, filepath.Dir(src), config.CleanFileName(baseName)+suffix+".css")
}

// prepareOutput makes sure result could be written under name.
func prepareOutput(name string, overwrite bool, log *zap.Logger) error {
	if _, err := os.Stat(name); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", name)
		}
		log.Warn("Overwriting existing file", zap.String("file", name))
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	return nil
}

// traceName flattens source path so it could be used as a single report
// entry name.
func traceName(src string) string {
	return config.CleanFileName(strings.ReplaceAll(filepath.ToSlash(src), "/", "_"))
}
