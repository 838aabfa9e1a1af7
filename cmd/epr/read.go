package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"epr/common"
	"epr/epub"
	"epr/footnote"
	"epr/render/spineview"
	"epr/session"
	"epr/state"
	"epr/store"
	"epr/styles"
	"epr/tap"
)

func readCmd() *cli.Command {
	return &cli.Command{
		Name:  "read",
		Usage: "Opens a reading session and drives it from standard input",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode",
				Usage: "initial display `MODE` (supported modes: " + strings.Join(common.DisplayModeNames(), ", ") + ")"},
			&cli.StringFlag{Name: "theme",
				Usage: "initial appearance `THEME` (supported themes: " + strings.Join(common.ThemeNames(), ", ") + ")"},
		},
		OnUsageError: usageErrorHandler,
		Action:       runRead,
		ArgsUsage:    "FILE",
		CustomHelpTemplate: fmt.Sprintf(`%s
FILE:
    path to EPUB book to read

Once the session is open following commands are read from STDIN, one per line:

    n          turn to the next page
    p          turn to the previous page
    t          print table of contents, current chapter is marked with *
    g N        jump to table of contents item N
    m MODE     switch display mode
    T THEME    switch appearance theme
    i          print current session state
    q          close the session and exit
`, cli.CommandHelpTemplate),
	}
}

// viewportHost reports the configured viewport to the render surface. In a
// real reader this would be backed by an actual window.
type viewportHost struct {
	width int
}

func (h viewportHost) ViewportWidth() int {
	return h.width
}

func runRead(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	log := env.Log

	if cmd.Args().Len() == 0 {
		return errors.New("no book file specified")
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)
	if abs, err := filepath.Abs(fname); err == nil {
		fname = abs
	}

	data, err := os.ReadFile(fname)
	if err != nil {
		return fmt.Errorf("unable to read book '%s': %w", fname, err)
	}
	if err := env.Rpt.StoreCopy("book/"+filepath.Base(fname), fname); err != nil {
		log.Warn("unable to store book in debug report", zap.Error(err))
	}

	// open the container once up front for identity, the engine keeps its
	// own handle for the session
	book, err := epub.OpenReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("unable to open book '%s': %w", fname, err)
	}
	bm := book.Metadata()
	book.Close()

	cfg := env.Cfg

	var (
		st        *store.Store
		locations session.LocationStore
	)
	if st, err = store.Open(cfg.Storage.Path, log); err != nil {
		log.Warn("unable to open state store, nothing will be persisted", zap.String("path", cfg.Storage.Path), zap.Error(err))
		st, locations = nil, store.Nop{}
	} else {
		defer st.Close()
		locations = st
	}

	// configuration provides defaults, stored preferences override them,
	// command line flags override everything
	mode := cfg.Reader.DefaultDisplayMode
	theme := cfg.Reader.DefaultTheme
	reopen := cfg.Reader.ReopenLastPosition
	if st != nil {
		if mode, err = st.DisplayMode(mode); err != nil {
			log.Warn("unable to read stored display mode", zap.Error(err))
		}
		if theme, err = st.Theme(theme); err != nil {
			log.Warn("unable to read stored theme", zap.Error(err))
		}
		if reopen, err = st.Reopen(reopen); err != nil {
			log.Warn("unable to read stored reopen preference", zap.Error(err))
		}
	}
	if s := cmd.String("mode"); len(s) > 0 {
		if mode, err = common.ParseDisplayMode(s); err != nil {
			return fmt.Errorf("unable to process mode flag: %w", err)
		}
	}
	if s := cmd.String("theme"); len(s) > 0 {
		if theme, err = common.ParseTheme(s); err != nil {
			return fmt.Errorf("unable to process theme flag: %w", err)
		}
	}

	injector := styles.NewInjector(log)
	if len(cfg.Reader.StylesheetPath) > 0 {
		if err := injector.LoadUserStylesheet(cfg.Reader.StylesheetPath); err != nil {
			log.Warn("unable to load user stylesheet", zap.String("path", cfg.Reader.StylesheetPath), zap.Error(err))
		}
	}

	eng, err := session.New(log, session.Deps{
		Renderer: spineview.New(log),
		Host:     viewportHost{width: cfg.Engine.ViewportWidth},
		Store:    locations,
		Injector: injector,
	}, session.Options{
		OpenTimeout:    cfg.Engine.OpenTimeout(),
		DisplayTimeout: cfg.Engine.DisplayTimeout(),
		TOCTimeout:     cfg.Engine.TOCTimeout(),
		ReopenLast:     reopen,
		TitleTemplate:  cfg.Reader.TitleTemplate,
		Tap: tap.Config{
			MaxDuration: cfg.Engine.Tap.MaxDuration(),
			MaxMovement: float64(cfg.Engine.Tap.MaxMovementPX),
		},
		Footnotes: footnote.Config{
			LongPress: cfg.Reader.Footnotes.LongPress(),
			AutoHide:  cfg.Reader.Footnotes.AutoHide(),
			MaxChars:  cfg.Reader.Footnotes.PopoverMaxChars,
		},
	})
	if err != nil {
		return fmt.Errorf("unable to create session engine: %w", err)
	}
	defer eng.Close()

	// the command loop polls on demand, the observer catches relocations
	// that land asynchronously
	cancelObs := eng.OnToolbarStateChange(func(tb session.ToolbarState) {
		log.Debug("Toolbar state", zap.String("chapter", tb.ChapterTitle), zap.Bool("navigable", tb.CanNavigate))
	})
	defer cancelObs()

	if err := eng.SetAppearanceTheme(ctx, theme); err != nil {
		log.Warn("unable to set theme", zap.Stringer("theme", theme), zap.Error(err))
	}

	src := session.Source{
		Data: data,
		Path: fname,
		Meta: session.Metadata{
			Title:     bm.Title,
			Authors:   bm.Authors,
			Language:  bm.Language,
			Publisher: bm.Publisher,
			Date:      bm.Date,
		},
	}
	if err := eng.Open(ctx, src, mode, ""); err != nil {
		return fmt.Errorf("unable to open reading session: %w", err)
	}

	printSession(os.Stdout, eng)
	loopErr := commandLoop(ctx, os.Stdin, os.Stdout, eng)

	// whatever mode and theme the session ends with become the preferred
	// ones for the next run
	if st != nil {
		if mode, ok := eng.Mode(); ok {
			if err := st.SetDisplayMode(mode); err != nil {
				log.Warn("unable to store display mode preference", zap.Error(err))
			}
		}
		if err := st.SetTheme(eng.Theme()); err != nil {
			log.Warn("unable to store theme preference", zap.Error(err))
		}
	}
	return loopErr
}

func commandLoop(ctx context.Context, in io.Reader, out io.Writer, eng *session.Engine) error {

	sc := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		verb, rest, _ := strings.Cut(strings.TrimSpace(sc.Text()), " ")
		rest = strings.TrimSpace(rest)

		switch verb {
		case "":
		case "q":
			return nil
		case "n":
			if err := eng.GoToNext(ctx); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "at %s\n", eng.CurrentLocation())
		case "p":
			if err := eng.GoToPrevious(ctx); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "at %s\n", eng.CurrentLocation())
		case "t":
			printTOC(out, eng.ToolbarState())
		case "g":
			items := eng.ToolbarState().TOC
			i, err := strconv.Atoi(rest)
			if err != nil || i < 0 || i >= len(items) {
				fmt.Fprintf(out, "error: no such TOC item '%s'\n", rest)
				continue
			}
			if err := eng.JumpTo(ctx, items[i].TargetRef); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "at %s\n", eng.CurrentLocation())
		case "m":
			mode, err := common.ParseDisplayMode(rest)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			if err := eng.SetDisplayMode(ctx, mode); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			printSession(out, eng)
		case "T":
			theme, err := common.ParseTheme(rest)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			if err := eng.SetAppearanceTheme(ctx, theme); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "theme %s\n", eng.Theme())
		case "i":
			printSession(out, eng)
		default:
			fmt.Fprintf(out, "unknown command '%s'\n", verb)
		}
	}
}

func printSession(w io.Writer, eng *session.Engine) {
	tb := eng.ToolbarState()
	if !tb.CanNavigate {
		fmt.Fprintln(w, "no open session")
		return
	}
	mode, _ := eng.Mode()
	fmt.Fprintf(w, "%s | %s | %s\n", tb.ChapterTitle, mode, eng.Theme())
	if loc := eng.CurrentLocation(); len(loc) > 0 {
		fmt.Fprintf(w, "at %s\n", loc)
	}
}

func printTOC(w io.Writer, tb session.ToolbarState) {
	if len(tb.TOC) == 0 {
		fmt.Fprintln(w, "book has no navigation")
		return
	}
	for i, it := range tb.TOC {
		mark := " "
		if len(it.NormalizedKey) > 0 && it.NormalizedKey == tb.SelectedKey {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %3d %s%s\n", mark, i, strings.Repeat("  ", it.Depth), it.Label)
	}
}
