package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"galpones/barnapi"
	"galpones/config"
	"galpones/metrics"
	"galpones/models"
	"galpones/web"
	"galpones/web/api"

	"github.com/rohanthewiz/logger"
	"github.com/spf13/cobra"
)

func serveCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			logger.SetLogLevel(cfg.LogLevel)

			m := metrics.New()
			client := newBarnClient(cfg, m)

			directory := models.NewDirectory(client)
			// The page refreshes on every load, so a barn API that is down at
			// startup is not fatal
			if err := directory.Refresh(context.Background()); err != nil {
				logger.LogErr(err, "initial barn list refresh failed", "barn_api", cfg.BarnAPIURL)
			}

			panels := api.NewPanelStore(client, directory, api.DefaultPanelIdleTimeout)
			m.RegisterGauge("session_panels", "Form panels held for browser sessions",
				func() float64 { return float64(panels.Len()) })

			srv := web.NewServer(web.Options{
				Address: cfg.Address,
				Verbose: cfg.LogLevel == "debug",
				Metrics: m,
			}, api.NewBarnHandlers(directory, panels, m))
			return web.Run(srv, cfg.Address)
		},
	}
}

func barnsCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "barns",
		Short: "List barns known to the barn API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			logger.SetLogLevel(cfg.LogLevel)

			directory := models.NewDirectory(newBarnClient(cfg, nil))
			if err := directory.Refresh(cmd.Context()); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "GALPÓN\tGALLINAS\tCAPACIDAD\tOCUPACIÓN")
			for _, b := range directory.Barns() {
				fmt.Fprintf(w, "%d\t%d\t%d\t%.0f%%\n", b.BarnNumber, b.ChickensInIt, b.MaxCapacity, b.Occupancy()*100)
			}
			fmt.Fprintf(w, "\nPróximo número disponible: %d\n", directory.NextAvailableBarnNumber())
			return w.Flush()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("galpones %s (%s)\n", version, commit)
		},
	}
}

func newBarnClient(cfg *config.Config, m *metrics.Metrics) *barnapi.Client {
	return barnapi.NewClient(barnapi.Options{
		BaseURL: cfg.BarnAPIURL,
		Timeout: cfg.BarnAPITimeout,
		Secret:  cfg.BarnAPISecret,
		Observe: m.ObserveBarnAPI,
	})
}
