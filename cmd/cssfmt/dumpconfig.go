package main

import (
	"context"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"cssfmt/config"
	"cssfmt/state"
)

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var out io.Writer = os.Stdout
	if len(fname) > 0 {
		f, err := os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer f.Close()
		out = f
	}
	return writeConfiguration(out, fname, cmd.Bool("default"), env)
}

func writeConfiguration(out io.Writer, fname string, dflt bool, env *state.LocalEnv) error {
	var (
		err   error
		data  []byte
		which string
	)
	if dflt {
		which = "default"
		data, err = config.Prepare()
	} else {
		which = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Info("Outputting configuration", zap.String("state", which), zap.String("file", fname))

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
