package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/flightsync/pkg/config"
	"github.com/ajitpratap0/flightsync/pkg/connector/registry"

	// Import all available connectors to register them
	_ "github.com/ajitpratap0/flightsync/pkg/checkpoint"
	_ "github.com/ajitpratap0/flightsync/pkg/connector/destinations"
	_ "github.com/ajitpratap0/flightsync/pkg/connector/sources"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}

// globalFlags are the persistent flags shared by every command
type globalFlags struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "flightsync",
		Short: "flightsync - periodic OpenSky live flight ingestion",
		Long: `flightsync fetches the current OpenSky state vectors, normalizes them into
the live_flights table and upserts them into the configured destination,
checkpointing after every cycle.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "Path to YAML configuration file")
	pf.String("api-url", config.DefaultAPIURL, "OpenSky states endpoint")
	pf.Int("flight-limit", config.DefaultFlightLimit, "Maximum records per cycle (0 disables the cap)")
	pf.String("destination", "", "Destination type (overrides destination.type)")
	pf.String("checkpoint", "", "Checkpoint store type (overrides checkpoint.type)")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newVersionCmd(),
		newListCmd(),
		newSchemaCmd(flags),
		newSyncCmd(flags),
		newServeCmd(flags),
		newConfigCmd(),
	)
	return root
}

// loadConfig loads the configuration file with flag overrides applied
func loadConfig(cmd *cobra.Command, flags *globalFlags) (*config.Config, error) {
	loader := config.NewLoader()
	pf := cmd.Root().PersistentFlags()

	bindings := map[string]string{
		"api_url":          "api-url",
		"flight_limit":     "flight-limit",
		"destination.type": "destination",
		"checkpoint.type":  "checkpoint",
		"logging.level":    "log-level",
	}
	for key, name := range bindings {
		f := pf.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := loader.BindFlag(key, f); err != nil {
			return nil, err
		}
	}

	return loader.Load(flags.configFile)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "flightsync v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available connectors",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			section := func(title string, names []string) {
				fmt.Fprintln(out, title)
				for _, n := range names {
					fmt.Fprintf(out, "  - %s\n", n)
				}
			}
			section("Available Sources:", registry.ListSources())
			section("\nAvailable Destinations:", registry.ListDestinations())
			section("\nAvailable Checkpoint Stores:", registry.ListCheckpoints())
		},
	}
}

func newSchemaCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the tables the connector populates as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}

			source, err := registry.CreateSource(cfg.Connector, cfg, registry.Options{})
			if err != nil {
				return err
			}
			defer source.Close()

			data, err := json.MarshalIndent(map[string]interface{}{
				"connector": source.Name(),
				"tables":    []interface{}{source.Schema()},
			}, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

func newSyncCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run a single sync cycle",
		Long: `Run one cycle: read the checkpoint, fetch the current state vectors,
upsert up to flight_limit records and write the checkpoint back.

Example:
  flightsync sync --config flightsync.yaml --flight-limit 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}

			app, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			state, err := app.engine.RunCycle(cmd.Context())
			if err != nil {
				return fmt.Errorf("sync cycle failed: %w", err)
			}

			data, err := json.Marshal(state)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "checkpoint: %s\n", data)
			return err
		},
	}
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run sync cycles on the configured schedule",
		Long: `Run sync cycles on sync.schedule until interrupted. When metrics are
enabled, /metrics and /healthz are served on metrics.listen.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}

			app, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.Serve(cmd.Context())
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a configuration file with the default settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "flightsync.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := config.Save(path, config.NewConfig()); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}
