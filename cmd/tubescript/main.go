package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/laytan/tubescript/internal/browser"
	"github.com/laytan/tubescript/internal/config"
	"github.com/laytan/tubescript/internal/index"
	"github.com/laytan/tubescript/internal/store"
	"github.com/laytan/tubescript/internal/tube"
	"github.com/laytan/tubescript/internal/tubescript"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("[ERROR]: reading config: %v", err)
	}

	root := newRootCmd(cfg, serve)
	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("[ERROR]: %v", err)
	}
}

// newRootCmd builds the command tree, serve runs the HTTP server.
func newRootCmd(cfg config.Config, serve func(config.Config) error) *cobra.Command {
	root := &cobra.Command{
		Use:          "tubescript",
		Short:        "Extract video transcripts through a headless browser",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfg)
		},
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and front-end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := cmd.Flags().GetInt("port")
			if err != nil {
				return err
			}
			cfg.Port = port
			return serve(cfg)
		},
	}
	serveCmd.Flags().Int("port", cfg.Port, "Port to listen on, overrides PORT")

	root.AddCommand(
		serveCmd,
		&cobra.Command{
			Use:   "transcript <video-url>",
			Short: "Print the transcript of one video as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				yt, _ := pipeline(cfg)
				res, err := yt.Transcript(cmd.Context(), args[0], nil)
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			},
		},
		&cobra.Command{
			Use:   "playlist <playlist-url>",
			Short: "Print the transcripts of every video in a playlist as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, crawler := pipeline(cfg)
				res, err := crawler.Playlist(cmd.Context(), args[0], nil)
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			},
		},
		&cobra.Command{
			Use:   "failures",
			Short: "List the playlist videos that failed extraction",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return listFailures(cmd, cfg)
			},
		},
	)

	return root
}

func pipeline(cfg config.Config) (*tube.Client, *index.Crawler) {
	sessions := browser.NewLauncher(browser.Config{
		Bin:      cfg.ChromeBin,
		Headless: cfg.Headless,
		Locale:   cfg.Locale,
		TraceDir: cfg.TraceDir,
	})

	yt := tube.New(sessions, cfg.Trace)
	return yt, index.New(sessions, yt)
}

func serve(cfg config.Config) error {
	yt, crawler := pipeline(cfg)
	server := &tubescript.Server{
		Transcripts: yt,
		Playlists:   crawler,
		StaticDir:   cfg.StaticDir,
		Port:        cfg.Port,
	}

	if cfg.DatabaseURL != "" {
		db, err := store.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		server.Ledger = store.NewLedger(store.New(db))
		log.Println("[INFO]: recording runs in the database")
	}

	if cfg.Trace {
		log.Printf("[INFO]: traces enabled, writing to %q", cfg.TraceDir)
	}

	return server.Start()
}

func listFailures(cmd *cobra.Command, cfg config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable must be set")
	}

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	failures, err := store.New(db).Failures(cmd.Context(), string(store.FailureTypeExtraction))
	if err != nil {
		return fmt.Errorf("retrieving failures: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tRUN\tVIDEO\tERROR")
	for _, f := range failures {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.CreatedAt.Format("2006-01-02 15:04:05"), f.RunID, f.Data, f.Error)
	}
	return w.Flush()
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
