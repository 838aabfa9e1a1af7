package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"epr/epub"
	"epr/media"
	"epr/state"
)

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:         "info",
		Usage:        "Prints book metadata and structure summary",
		OnUsageError: usageErrorHandler,
		Action:       runInfo,
		ArgsUsage:    "FILE",
	}
}

func runInfo(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)

	if cmd.Args().Len() == 0 {
		return errors.New("no book file specified")
	}
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}
	fname := cmd.Args().Get(0)

	book, err := epub.Open(fname)
	if err != nil {
		return fmt.Errorf("unable to open book '%s': %w", fname, err)
	}
	defer book.Close()

	meta := book.Metadata()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	row := func(label, value string) {
		if len(value) > 0 {
			fmt.Fprintf(w, "%s:\t%s\n", label, value)
		}
	}

	row("Title", meta.Title)
	row("Authors", strings.Join(meta.Authors, ", "))
	row("Language", meta.Language)
	row("Identifier", meta.Identifier)
	row("Publisher", meta.Publisher)
	row("Date", meta.Date)
	if !meta.Modified.IsZero() {
		row("Modified", meta.Modified.Format(time.RFC3339))
	}
	row("Subjects", strings.Join(meta.Subjects, ", "))
	row("Description", strings.Join(strings.Fields(meta.Description), " "))
	row("Version", "EPUB "+book.Version())
	row("Package", book.OPFPath())
	row("Spine", fmt.Sprintf("%d documents", len(book.Spine())))
	row("Manifest", fmt.Sprintf("%d items", len(book.Manifest())))
	row("TOC", fmt.Sprintf("%d entries", countNav(book.NavTree())))

	if item, ok := book.Cover(); ok {
		desc := item.Href + " (" + item.MediaType + ")"
		if data, err := book.ReadItem(item); err == nil {
			if dim, _, err := media.ProbeSize(data); err == nil {
				desc = fmt.Sprintf("%s %dx%d", desc, dim.Width, dim.Height)
			}
		}
		row("Cover", desc)
	}

	return w.Flush()
}

func countNav(points []epub.NavPoint) int {
	n := len(points)
	for _, p := range points {
		n += countNav(p.Children)
	}
	return n
}
