package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"epr/epub"
	"epr/media"
	"epr/state"
)

func coverCmd() *cli.Command {
	return &cli.Command{
		Name:  "cover",
		Usage: "Extracts book cover as a bounded JPEG thumbnail",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "width", Value: media.DefaultThumbWidth, Usage: "maximum thumbnail `WIDTH` in pixels"},
			&cli.IntFlag{Name: "height", Value: media.DefaultThumbHeight, Usage: "maximum thumbnail `HEIGHT` in pixels"},
		},
		OnUsageError: usageErrorHandler,
		Action:       runCover,
		ArgsUsage:    "FILE [DESTINATION]",
		CustomHelpTemplate: fmt.Sprintf(`%s
DESTINATION:
    file name to write thumbnail to, if absent - derived from FILE name
`, cli.CommandHelpTemplate),
	}
}

func runCover(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	log := env.Log

	if cmd.Args().Len() == 0 {
		return errors.New("no book file specified")
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	fname := cmd.Args().Get(0)

	book, err := epub.Open(fname)
	if err != nil {
		return fmt.Errorf("unable to open book '%s': %w", fname, err)
	}
	defer book.Close()

	item, ok := book.Cover()
	if !ok {
		return errors.New("book declares no cover image")
	}
	data, err := book.ReadItem(item)
	if err != nil {
		return fmt.Errorf("unable to read cover '%s': %w", item.Href, err)
	}

	thumb, err := media.MakeThumbnail(data, item.MediaType, int(cmd.Int("width")), int(cmd.Int("height")), log)
	if err != nil {
		return fmt.Errorf("unable to prepare cover thumbnail: %w", err)
	}

	dest := cmd.Args().Get(1)
	if len(dest) == 0 {
		dest = strings.TrimSuffix(fname, filepath.Ext(fname)) + "-cover.jpg"
	}
	if err := os.WriteFile(dest, thumb.Data, 0644); err != nil {
		return fmt.Errorf("unable to write thumbnail '%s': %w", dest, err)
	}

	log.Info("Cover extracted",
		zap.String("from", item.Href),
		zap.String("to", dest),
		zap.Int("width", thumb.Dim.Width),
		zap.Int("height", thumb.Dim.Height))
	return nil
}
