// Package format implements "format" command: it locates stylesheets, runs
// them through configured rewriting steps and writes results.
package format

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cssfmt/archive"
	"cssfmt/css"
	"cssfmt/state"
	"cssfmt/utils/debug"
)

// stdinName is used as SOURCE to read stylesheet from STDIN.
const stdinName = "-"

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("format")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src != stdinName {
		if src, err = filepath.Abs(src); err != nil {
			return err
		}
	}

	// STDIN without destination goes to STDOUT
	env.ToStdout = cmd.Bool("stdout") || (src == stdinName && cmd.Args().Len() < 2)

	dst := cmd.Args().Get(1)
	if env.ToStdout && len(dst) > 0 {
		log.Warn("Writing to STDOUT, ignoring destination", zap.String("destination", dst))
	}
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	if err := configure(cmd, env, log); err != nil {
		return err
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst),
		zap.Stringers("steps", env.Steps), zap.Bool("stdout", env.ToStdout))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	j := &job{env: env, log: log, dst: dst, in: os.Stdin, out: os.Stdout}
	return j.process(ctx, src)
}

// configure superimposes command line flags over loaded configuration.
func configure(cmd *cli.Command, env *state.LocalEnv, log *zap.Logger) error {
	names := env.Cfg.Pipeline.Steps
	if cmd.IsSet("steps") {
		names = strings.Split(cmd.String("steps"), ",")
	}
	if err := env.SetSteps(names); err != nil {
		return fmt.Errorf("unable to prepare pipeline: %w", err)
	}

	suffix := env.Cfg.Output.Suffix
	if cmd.IsSet("suffix") {
		suffix = cmd.String("suffix")
	}
	if err := env.SetSuffix(suffix); err != nil {
		return err
	}
	env.Overwrite = env.Cfg.Output.Overwrite || cmd.Bool("overwrite")

	// files without BOM are read using this code page
	cp := env.Cfg.Input.CodePage
	if cmd.IsSet("input-cp") {
		cp = cmd.String("input-cp")
	}
	if err := env.SetCodePage(cp); err != nil {
		log.Warn("Unknown character set name, ignoring", zap.String("charset", cp), zap.Error(err))
	} else if env.CodePage != nil {
		log.Debug("Converting input without BOM", zap.String("charset", env.CodePageName()))
	}
	return nil
}

// job carries everything needed to process single SOURCE.
type job struct {
	env *state.LocalEnv
	log *zap.Logger
	dst string
	in  io.Reader
	out io.Writer
	// number of processed stylesheets
	count int
}

// process determines the input type (STDIN, directory, archive or single
// file) and processes it accordingly. Path may continue inside archive.
func (j *job) process(ctx context.Context, src string) error {
	if src == stdinName {
		return j.processSheet(ctx, j.in, "stdin.css")
	}

	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := j.processDir(ctx, head); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			return nil
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArc, err := archive.IsArchive(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArc {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := j.processArchive(ctx, head, filepath.ToSlash(tail), ""); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			return nil
		}
		if len(tail) != 0 {
			return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}
		return j.processFile(ctx, head, filepath.Base(head))
	}
	return fmt.Errorf("input source was not found (%s)", src)
}

// processDir walks directory tree in natural order of names and processes
// stylesheets and archives it finds. Failures do not stop the walk, they are
// returned together.
func (j *job) processDir(ctx context.Context, dir string) (err error) {
	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			j.log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slices.SortStableFunc(paths, func(a, b string) int {
		switch {
		case a == b:
			return 0
		case natural.Less(a, b):
			return -1
		default:
			return 1
		}
	})

	start := j.count
	for _, path := range paths {
		if er := ctx.Err(); er != nil {
			return multierr.Append(err, er)
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		isArc, er := archive.IsArchive(path)
		if er != nil {
			j.log.Warn("Skipping file", zap.String("file", path), zap.Error(er))
			continue
		}
		if isArc {
			if er := j.processArchive(ctx, path, "", filepath.Dir(rel)); er != nil {
				j.log.Error("Unable to process archive", zap.String("file", path), zap.Error(er))
				err = multierr.Append(err, fmt.Errorf("archive %s: %w", rel, er))
			}
			continue
		}
		if !hasExt(path, j.env.Cfg.Input.Extensions) {
			j.log.Debug("Skipping file, not recognized as stylesheet or archive", zap.String("file", path))
			continue
		}
		if er := j.processFile(ctx, path, rel); er != nil {
			err = multierr.Append(err, fmt.Errorf("file %s: %w", rel, er))
		}
	}
	if err == nil && j.count == start {
		j.log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return err
}

// processArchive processes all stylesheets inside archive under "pathIn".
// Results are placed under "pathOut" relative to destination.
func (j *job) processArchive(ctx context.Context, path, pathIn, pathOut string) (err error) {
	start := j.count
	walkErr := archive.Walk(path, pathIn, j.env.Cfg.Input.Extensions, func(name string, r io.Reader) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if er := j.processSheet(ctx, r, filepath.Join(pathOut, filepath.FromSlash(name))); er != nil {
			j.log.Error("Unable to process file in archive",
				zap.String("archive", path), zap.String("file", name), zap.Error(er))
			err = multierr.Append(err, fmt.Errorf("%s: %w", name, er))
		}
		return nil
	})
	if walkErr != nil {
		return multierr.Append(walkErr, err)
	}
	if err == nil && j.count == start {
		j.log.Debug("Nothing to process", zap.String("archive", path))
	}
	return err
}

func (j *job) processFile(ctx context.Context, path, src string) error {
	file, err := os.Open(path)
	if err != nil {
		j.log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		return err
	}
	defer file.Close()

	if err := j.processSheet(ctx, file, src); err != nil {
		j.log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		return err
	}
	return nil
}

// processSheet runs single stylesheet through the pipeline. "src" is the
// source path relative to original SOURCE (always including file name), it
// defines output location.
func (j *job) processSheet(ctx context.Context, r io.Reader, src string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.count++

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read stylesheet (%s): %w", src, err)
	}
	text, err := decode(data, j.env.CodePage)
	if err != nil {
		return fmt.Errorf("unable to decode stylesheet (%s): %w", src, err)
	}

	before := css.Summarize(text)

	var (
		trace css.TraceFunc
		tw    *debug.TraceWriter
	)
	if j.env.Rpt != nil {
		tw = debug.NewTraceWriter(src, text)
		tw.Line(1, "stats: %s", before)
		trace = func(step css.Step, text string) {
			tw.Step(string(step), text)
			tw.Line(1, "stats: %s", css.Summarize(text))
		}
	}

	result := css.NewRewriter(j.log, text).Apply(j.env.Steps, trace).Get()
	after := css.Summarize(result)

	if tw != nil {
		j.env.Rpt.StoreData(fmt.Sprintf("trace/%04d-%s.txt", j.count, traceName(src)), tw.Bytes())
	}
	if !before.Empty() && after.Empty() {
		j.log.Warn("Stylesheet has no rules left after processing", zap.String("from", src),
			zap.Stringers("steps", j.env.Steps))
	}

	if j.env.ToStdout {
		if err := writeResult(j.out, result); err != nil {
			return fmt.Errorf("unable to write result: %w", err)
		}
		j.log.Info("Stylesheet processed", zap.String("from", src), zap.String("to", "STDOUT"),
			zap.Object("before", before), zap.Object("after", after))
		return nil
	}

	outputName := buildOutputPath(src, j.dst, j.env.Suffix, j.env.Cfg.Output.Transliterate)
	if err := prepareOutput(outputName, j.env.Overwrite, j.log); err != nil {
		return err
	}
	if err := os.WriteFile(outputName, []byte(result), 0644); err != nil {
		return fmt.Errorf("unable to write result: %w", err)
	}
	j.log.Info("Stylesheet processed", zap.String("from", src), zap.String("to", outputName),
		zap.Object("before", before), zap.Object("after", after))
	return nil
}

func writeResult(w io.Writer, result string) error {
	if _, err := io.WriteString(w, result); err != nil {
		return err
	}
	// keep documents apart when several go to the same stream
	if !strings.HasSuffix(result, "\n") {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
