package app

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"fraglog/internal/config"
	"fraglog/internal/loader"
	"fraglog/internal/replay"
	"fraglog/internal/validator"

	"github.com/spf13/cobra"
)

// registerCommands adds the replay engine commands to the PocketBase root command
func (app *App) registerCommands() {
	app.RootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fraglog version %s\n", app.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", app.Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "Date: %s\n", app.Date)
		},
	})

	app.RootCmd.AddCommand(initConfigCommand())
	app.RootCmd.AddCommand(app.replayCommand())
	app.RootCmd.AddCommand(app.importCommand())
	app.RootCmd.AddCommand(app.rankingCommand())
}

func initConfigCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write an example " + config.ConfigName + ".yml to the working directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeExampleConfig(cmd.OutOrStdout(), force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

// writeExampleConfig creates the example config unless one is already present
func writeExampleConfig(out io.Writer, force bool) error {
	if config.Exists() && !force {
		return fmt.Errorf("a %s config file already exists, use --force to overwrite", config.ConfigName)
	}

	path := config.ConfigName + ".yml"
	if err := config.GenerateExample(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}

func (app *App) replayCommand() *cobra.Command {
	var delayMs int
	var noSave bool

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Replay a kill log, printing rankings as events happen (press Enter to skip to results)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			var store replay.Store
			if !noSave {
				if err := app.RunAllMigrations(); err != nil {
					return fmt.Errorf("failed to run migrations: %w", err)
				}
				store = app.Matches
			}

			delay := app.Config.Replay.DefaultDelay()
			if cmd.Flags().Changed("delay") {
				delay = app.Config.Replay.ClampDelay(delayMs)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			session := replay.NewSession("cli", store, &printer{out: cmd.OutOrStdout()}, app.Logger())
			go skipOnEnter(ctx, cmd.InOrStdin(), session)

			_, err = session.ProcessLog(ctx, string(content), delay)
			var ve *validator.ValidationError
			if errors.As(err, &ve) {
				// already printed
				return fmt.Errorf("log rejected: %s", ve.Kind)
			}
			return err
		},
	}

	cmd.Flags().IntVar(&delayMs, "delay", 0, "milliseconds between events (default from config)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store finished matches")
	return cmd
}

// skipOnEnter skips the replay once a line is read from in
func skipOnEnter(ctx context.Context, in io.Reader, session *replay.Session) {
	entered := make(chan struct{})
	go func() {
		// EOF means there is no terminal to skip from
		if _, err := bufio.NewReader(in).ReadString('\n'); err == nil {
			close(entered)
		}
	}()

	select {
	case <-ctx.Done():
	case <-entered:
		session.Skip()
	}
}

func (app *App) importCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Validate a kill log and store all of its matches without replaying",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.RunAllMigrations(); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			l := loader.New(app.Matches, app.Logger())
			result, err := l.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			fmt.Fprintf(out, "Imported %d matches (%d events, %d lines)\n", len(result.Matches), result.Events, result.Lines)
			for _, m := range result.Matches {
				fmt.Fprintf(out, "\nMatch %s\n", m.Ranking.MatchID)
				writeRanking(out, m.Ranking)
				for _, h := range m.Highlights {
					fmt.Fprintf(out, "  %s: %s\n", h.Title, h.Description)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func (app *App) rankingCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "ranking",
		Short: "Show the global player ranking over all stored matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.RunAllMigrations(); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			entries, err := app.Matches.GlobalRanking(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			writeGlobalRanking(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of players to show (0 for all)")
	return cmd
}
