// Package state holds settings resolved for the running command, shared
// through context.
package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"cssfmt/config"
	"cssfmt/css"
)

type envKey struct{}

// LocalEnv is the program environment. Cfg, Rpt and Log are set once
// configuration is loaded, the rest is resolved by the format command from
// configuration and flags.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	Steps     []css.Step
	Suffix    string
	Overwrite bool
	ToStdout  bool
	CodePage  encoding.Encoding

	start time.Time
	// undone in reverse order by Close
	cleanups []func()
}

// ContextWithEnv attaches fresh environment with no-op logger to ctx.
func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &LocalEnv{start: time.Now(), Log: zap.NewNop()})
}

// EnvFromContext panics when ctx was not prepared by ContextWithEnv.
func EnvFromContext(ctx context.Context) *LocalEnv {
	env, ok := ctx.Value(envKey{}).(*LocalEnv)
	if !ok {
		panic("program environment is missing from context")
	}
	return env
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// SetSteps resolves pipeline from step names, at least one step is required.
func (e *LocalEnv) SetSteps(names []string) error {
	steps, err := css.ParseSteps(names)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return errors.New("no processing steps have been specified")
	}
	e.Steps = steps
	return nil
}

// SetSuffix sets output name suffix, it must stay within file name.
func (e *LocalEnv) SetSuffix(suffix string) error {
	if strings.ContainsAny(suffix, `/\`) {
		return fmt.Errorf("output suffix must not contain path separators: %q", suffix)
	}
	e.Suffix = suffix
	return nil
}

// SetCodePage selects encoding for input without BOM by its IANA name. Empty
// name means UTF-8. On error code page is reset.
func (e *LocalEnv) SetCodePage(name string) error {
	e.CodePage = nil
	if len(name) == 0 {
		return nil
	}
	cp, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return err
	}
	if cp == nil {
		return fmt.Errorf("character set %q is not supported", name)
	}
	e.CodePage = cp
	return nil
}

// CodePageName returns IANA name of selected code page or empty string.
func (e *LocalEnv) CodePageName() string {
	if e.CodePage == nil {
		return ""
	}
	n, _ := ianaindex.IANA.Name(e.CodePage)
	return n
}

// RedirectStdLog sends output of standard "log" package to our logger until
// Close.
func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.cleanups = append(e.cleanups, zap.RedirectStdLog(e.Log))
}

// Close flushes log, undoes redirections and finalizes debug report. Log
// could not be used for reporting errors after that.
func (e *LocalEnv) Close() (err error) {
	if e.Log != nil {
		// syncing console could fail, nothing to do about it
		_ = e.Log.Sync()
	}
	for i := len(e.cleanups) - 1; i >= 0; i-- {
		e.cleanups[i]()
	}
	e.cleanups = nil

	if e.Rpt != nil {
		if er := e.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
		e.Rpt = nil
	}
	return err
}
