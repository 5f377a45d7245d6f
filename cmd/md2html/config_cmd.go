package main

import (
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2html/internal/yamlutil"
)

// runConfig prints the effective configuration as YAML, after the config
// file, environment, and flags are merged.
func runConfig(args []string, env *Environment) error {
	f := &siteFlags{}
	fs := newSiteFlagSet("config", f)
	fs.SetOutput(env.Stderr)
	fs.Usage = func() { printConfigUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("%w: expected at most one site directory, got %v", ErrInvalidArgs, fs.Args())
	}
	f.root = fs.Arg(0)

	cfg, err := loadSettings(f)
	if err != nil {
		return err
	}
	out, err := yamlutil.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	_, err = env.Stdout.Write(out)
	return err
}
