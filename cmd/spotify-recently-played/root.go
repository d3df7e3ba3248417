package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/justestif/go-spotify-recently-played/internal/config"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func newRootCmd(a *app) *cobra.Command {
	v := viper.New()

	var configFile, envFile string

	cmd := &cobra.Command{
		Use:   "spotify-recently-played",
		Short: "Archive recently played Spotify tracks and render them into README.md",
		Long: `spotify-recently-played does one pass over your Spotify listening history:

- exchanges REFRESH_TOKEN for an access token
- fetches up to 50 plays made after the cursor stored in info-schema.json
- appends them to one JSON archive per calendar date
- renders the latest plays as an HTML table into README.md
- stores the new cursor for the next run

CLIENT_ID, CLIENT_SECRET and REFRESH_TOKEN must be set, either in the
environment or in a .env file. Other settings may also be given as
RECENTLY_PLAYED_* environment variables or in a config file.

Archives are append-only by default. Pass --trim-archive to rewrite each
rendered date's archive down to the plays shown in the table (the legacy
destructive behavior).`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}

			if configFile != "" {
				v.SetConfigFile(configFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("reading config file: %w", err)
				}
			}

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			return a.run(cmd.Context(), *cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "Config file (yaml, json or toml)")
	flags.StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before reading the environment")

	flags.String("cursor-file", "./info-schema.json", "File holding the pagination cursor")
	flags.String("archive-dir", "", "Directory for per-date archives (default: a new temporary directory)")
	flags.String("output", "./README.md", "File the HTML table is written to")
	flags.Int("limit", config.MaxLimit, "Plays to request per run (1-50)")
	flags.Int("recent", 10, "Plays shown in the table")
	flags.String("render-mode", string(config.RenderPerDate), "per-date: each archived date overwrites the table; combined: one table across all dates of the run")
	flags.Bool("trim-archive", false, "Rewrite each rendered date's archive to only the plays shown (legacy destructive behavior; off keeps archives append-only)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Duration("http-timeout", 0, "Timeout for each Spotify request (0 disables)")

	for key, flag := range map[string]string{
		config.KeyCursorFile:  "cursor-file",
		config.KeyArchiveDir:  "archive-dir",
		config.KeyOutputFile:  "output",
		config.KeyLimit:       "limit",
		config.KeyRecentCount: "recent",
		config.KeyRenderMode:  "render-mode",
		config.KeyTrimArchive: "trim-archive",
		config.KeyLogLevel:    "log-level",
		config.KeyHTTPTimeout: "http-timeout",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", flag, err))
		}
	}

	return cmd
}
