package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"epr/epub"
	"epr/state"
)

func doctorCmd() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "Checks book container for structural problems",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "fix-zip",
				Usage: "rewrite archive into `DESTINATION` dropping data descriptors that confuse strict readers"},
		},
		OnUsageError: usageErrorHandler,
		Action:       runDoctor,
		ArgsUsage:    "FILE",
		CustomHelpTemplate: fmt.Sprintf(`%s
Prints every finding, one per line. Command fails when error severity findings
are present, warnings alone do not affect the exit code. When debug reporting
is on findings and the archive entry listing go into the report.
`, cli.CommandHelpTemplate),
	}
}

func runDoctor(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	log := env.Log

	if cmd.Args().Len() == 0 {
		return errors.New("no book file specified")
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}
	fname := cmd.Args().Get(0)

	d := epub.Examine(fname)
	for _, f := range d.Findings {
		fmt.Println(f)
	}
	if len(d.Findings) == 0 {
		fmt.Println("no problems found")
	}

	if env.Rpt != nil {
		if len(d.Findings) > 0 {
			var buf bytes.Buffer
			for _, f := range d.Findings {
				fmt.Fprintln(&buf, f)
			}
			env.Rpt.StoreData("doctor/"+filepath.Base(fname)+".txt", buf.Bytes())
		}
		if len(d.Files) > 0 {
			env.Rpt.StoreData("doctor/"+filepath.Base(fname)+".files.txt", []byte(strings.Join(d.Files, "\n")+"\n"))
		}
	}

	if dst := cmd.String("fix-zip"); len(dst) > 0 {
		if filepath.Clean(dst) == filepath.Clean(fname) {
			return errors.New("rewrite destination must differ from source")
		}
		if err := epub.FixZip(fname, dst); err != nil {
			return fmt.Errorf("unable to rewrite archive: %w", err)
		}
		log.Info("Archive rewritten", zap.String("from", fname), zap.String("to", dst))
		return nil
	}

	if !d.Healthy() {
		return fmt.Errorf("book '%s' has problems", fname)
	}
	return nil
}
