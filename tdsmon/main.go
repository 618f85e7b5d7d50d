package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagPort   string
	flagMock   bool
	flagMode   string
	flagModel  string
	flagJSON   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tdsmon",
		Short: "tdsmon - TDS probe monitor",
		Long: `tdsmon reads a TDS probe over a serial line, filters and temperature
compensates the probe voltage and logs calibrated TDS (ppm) and EC (uS/cm).

Engine tuning in the config file is applied live when the file changes.
Use --mock to run against a simulated probe without hardware.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Log as JSON instead of text")
	rootCmd.Flags().StringVarP(&flagPort, "port", "p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
	rootCmd.Flags().BoolVar(&flagMock, "mock", false, "Use a simulated probe instead of the serial port")
	rootCmd.Flags().StringVar(&flagMode, "mode", "", "Probe mode override (static or inline)")
	rootCmd.Flags().StringVar(&flagModel, "model", "", "Calibration model override (table, quadratic, composed, direct)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "ports",
		Short: "List available serial ports",
		Args:  cobra.NoArgs,
		RunE:  listPorts,
	})

	cobra.OnInitialize(setupLogging)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging() {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if flagJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
