package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"epr/epub"
	"epr/render"
	"epr/session"
	"epr/state"
)

func tocCmd() *cli.Command {
	return &cli.Command{
		Name:  "toc",
		Usage: "Prints book navigation, flattened or as a tree",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "tree", Usage: "print nested tree instead of the flat listing"},
		},
		OnUsageError: usageErrorHandler,
		Action:       runTOC,
		ArgsUsage:    "FILE",
		CustomHelpTemplate: fmt.Sprintf(`%s
Flat listing prints one line per entry: index, label, target reference and the
normalized key relocations are matched against. With --tree entries are printed
nested the way the book declares them.
`, cli.CommandHelpTemplate),
	}
}

func runTOC(ctx context.Context, cmd *cli.Command) error {

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

	points := book.NavTree()
	if len(points) == 0 {
		fmt.Println("book has no navigation")
		return nil
	}

	if cmd.Bool("tree") {
		printNavTree(os.Stdout, points, 0)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, it := range session.FlattenNav(navItems(points)) {
		fmt.Fprintf(w, "%d\t%s%s\t%s\t%s\n", i, strings.Repeat("  ", it.Depth), it.Label, it.TargetRef, it.NormalizedKey)
	}
	return w.Flush()
}

// navItems converts container navigation into the shape the session layer
// flattens, keeping nesting intact.
func navItems(points []epub.NavPoint) []render.NavItem {
	out := make([]render.NavItem, 0, len(points))
	for _, p := range points {
		out = append(out, render.NavItem{
			Label:    p.Label,
			Ref:      p.Ref,
			Children: navItems(p.Children),
		})
	}
	return out
}

func printNavTree(w io.Writer, points []epub.NavPoint, depth int) {
	for _, p := range points {
		fmt.Fprintf(w, "%s%s -> %s\n", strings.Repeat("  ", depth), p.Label, p.Ref)
		printNavTree(w, p.Children, depth+1)
	}
}
