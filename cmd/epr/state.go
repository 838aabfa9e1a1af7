package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"epr/common"
	"epr/state"
	"epr/store"
)

func stateCmd() *cli.Command {
	settingFlag := &cli.BoolFlag{Name: "setting",
		Usage: "operate on reader settings (" + store.SettingReopen + ", " + store.SettingDisplayMode + ", " + store.SettingTheme + ") instead of reading positions"}

	return &cli.Command{
		Name:            "state",
		Usage:           "Manages persisted reading positions and settings",
		HideHelpCommand: true,
		Commands: []*cli.Command{
			{
				Name:         "list",
				Usage:        "Lists stored reading positions",
				OnUsageError: usageErrorHandler,
				Action:       runStateList,
			},
			{
				Name:         "get",
				Usage:        "Prints stored value for a key",
				Flags:        []cli.Flag{settingFlag},
				OnUsageError: usageErrorHandler,
				Action:       runStateGet,
				ArgsUsage:    "KEY",
			},
			{
				Name:         "set",
				Usage:        "Stores a value for a key",
				Flags:        []cli.Flag{settingFlag},
				OnUsageError: usageErrorHandler,
				Action:       runStateSet,
				ArgsUsage:    "KEY VALUE",
			},
			{
				Name:         "rm",
				Usage:        "Removes stored reading position",
				OnUsageError: usageErrorHandler,
				Action:       runStateRemove,
				ArgsUsage:    "KEY",
			},
			{
				Name:         "mv",
				Usage:        "Moves reading position to a new key, for example after a book file was renamed",
				OnUsageError: usageErrorHandler,
				Action:       runStateMove,
				ArgsUsage:    "OLD NEW",
			},
		},
	}
}

func openStateStore(ctx context.Context) (*store.Store, *zap.Logger, error) {
	env := state.EnvFromContext(ctx)
	st, err := store.Open(env.Cfg.Storage.Path, env.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open state store '%s': %w", env.Cfg.Storage.Path, err)
	}
	return st, env.Log, nil
}

func runStateList(ctx context.Context, cmd *cli.Command) error {

	st, _, err := openStateStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.List()
	if err != nil {
		return fmt.Errorf("unable to list reading positions: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("no reading positions stored")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		updated := ""
		if !e.Updated.IsZero() {
			updated = e.Updated.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Path, e.Location, updated)
	}
	return w.Flush()
}

func runStateGet(ctx context.Context, cmd *cli.Command) error {

	if cmd.Args().Len() != 1 {
		return errors.New("expecting exactly one KEY argument")
	}
	key := cmd.Args().Get(0)

	st, _, err := openStateStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if cmd.Bool("setting") {
		v, err := st.Setting(key)
		if err != nil {
			return fmt.Errorf("unable to read setting '%s': %w", key, err)
		}
		if len(v) == 0 {
			return fmt.Errorf("no setting '%s'", key)
		}
		fmt.Println(v)
		return nil
	}

	loc, err := st.Location(key)
	if err != nil {
		return fmt.Errorf("unable to read position for '%s': %w", key, err)
	}
	if len(loc) == 0 {
		return fmt.Errorf("no position for '%s'", key)
	}
	fmt.Println(loc)
	return nil
}

func runStateSet(ctx context.Context, cmd *cli.Command) error {

	if cmd.Args().Len() != 2 {
		return errors.New("expecting KEY and VALUE arguments")
	}
	key, value := cmd.Args().Get(0), cmd.Args().Get(1)

	st, log, err := openStateStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if cmd.Bool("setting") {
		// known settings go through typed setters so a bad value is rejected
		// here instead of being silently ignored on the next read
		switch key {
		case store.SettingReopen:
			v, perr := strconv.ParseBool(value)
			if perr != nil {
				return fmt.Errorf("setting '%s' wants a boolean, got '%s'", key, value)
			}
			err = st.SetReopen(v)
		case store.SettingDisplayMode:
			m, perr := common.ParseDisplayMode(value)
			if perr != nil {
				return fmt.Errorf("setting '%s' wants one of %s, got '%s'", key, strings.Join(common.DisplayModeNames(), ", "), value)
			}
			err = st.SetDisplayMode(m)
		case store.SettingTheme:
			t, perr := common.ParseTheme(value)
			if perr != nil {
				return fmt.Errorf("setting '%s' wants one of %s, got '%s'", key, strings.Join(common.ThemeNames(), ", "), value)
			}
			err = st.SetTheme(t)
		default:
			err = st.SetSetting(key, value)
		}
		if err != nil {
			return fmt.Errorf("unable to store setting '%s': %w", key, err)
		}
		log.Info("Setting stored", zap.String("key", key), zap.String("value", value))
		return nil
	}

	if err := st.SetLocation(key, value); err != nil {
		return fmt.Errorf("unable to store position for '%s': %w", key, err)
	}
	log.Info("Reading position stored", zap.String("key", key), zap.String("location", value))
	return nil
}

func runStateRemove(ctx context.Context, cmd *cli.Command) error {

	if cmd.Args().Len() != 1 {
		return errors.New("expecting exactly one KEY argument")
	}
	key := cmd.Args().Get(0)

	st, log, err := openStateStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	removed, err := st.Forget(key)
	if err != nil {
		return fmt.Errorf("unable to remove position for '%s': %w", key, err)
	}
	if !removed {
		return fmt.Errorf("no position for '%s'", key)
	}
	log.Info("Reading position removed", zap.String("key", key))
	return nil
}

func runStateMove(ctx context.Context, cmd *cli.Command) error {

	if cmd.Args().Len() != 2 {
		return errors.New("expecting OLD and NEW key arguments")
	}
	oldKey, newKey := cmd.Args().Get(0), cmd.Args().Get(1)

	st, log, err := openStateStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	moved, err := st.Rename(oldKey, newKey)
	if err != nil {
		return fmt.Errorf("unable to move position from '%s' to '%s': %w", oldKey, newKey, err)
	}
	if !moved {
		return fmt.Errorf("no position for '%s'", oldKey)
	}
	log.Info("Reading position moved", zap.String("from", oldKey), zap.String("to", newKey))
	return nil
}
