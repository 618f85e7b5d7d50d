package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/gotds/pkg/config"
	"github.com/itohio/gotds/pkg/monitor"
	"github.com/itohio/gotds/pkg/probe"
	"github.com/itohio/gotds/pkg/sample"
	"github.com/spf13/cobra"
)

// overrides holds command line values that win over the config file,
// including after a hot reload.
type overrides struct {
	port  string
	mode  string
	model string
}

func (o overrides) apply(cfg *config.Config) error {
	if o.port != "" {
		cfg.Serial.Port = o.port
	}
	if o.mode != "" {
		cfg.Engine.Mode = o.mode
	}
	if o.model != "" {
		cfg.Calibration.Model = o.model
	}
	return cfg.Validate()
}

func run(cmd *cobra.Command, args []string) error {
	ov := overrides{port: flagPort, mode: flagMode, model: flagModel}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := ov.apply(cfg); err != nil {
		return err
	}

	mon, err := monitor.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	device := newDevice(cfg, flagMock)
	if err := device.Connect(); err != nil {
		if flagMock {
			return fmt.Errorf("failed to connect to mocked device: %w", err)
		}
		return fmt.Errorf("failed to connect to %s: %w", cfg.Serial.Port, err)
	}
	if flagMock {
		slog.Info("connected to mocked device", "tds", cfg.Mock.TDS, "temp_c", cfg.Mock.TempC)
	} else {
		slog.Info("connected to serial port", "port", cfg.Serial.Port, "baud", cfg.Serial.BaudRate)
	}

	if _, err := os.Stat(flagConfig); err == nil {
		go watchConfig(ctx, flagConfig, ov, mon)
	} else {
		slog.Warn("config file not found, hot reload disabled", "path", flagConfig)
	}

	mon.OnUpdate(logReading)

	err = runChain(ctx, cfg, device, mon)
	slog.Info("tdsmon stopped", "last_tds", mon.Latest().TDS)
	return err
}

func newDevice(cfg *config.Config, mock bool) probe.Device {
	if mock {
		return probe.NewMock(&cfg.Mock, cfg.ADC)
	}
	return probe.New(cfg.Serial.Port, cfg.Serial.BaudRate, probe.DefaultBufferSize, cfg.ADC.MaxCount())
}

// runChain wires device -> converter -> monitor and blocks until ctx is
// cancelled or the device stream ends. The device is closed on return and the
// monitor goroutine is drained.
func runChain(ctx context.Context, cfg *config.Config, device probe.Device, mon *monitor.Monitor) error {
	mon.ResetShutdown()
	samples := sample.NewConverter(cfg, 500)(device.Samples())

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		mon.ProcessSamples(samples)
	}()

	var err error
	select {
	case <-ctx.Done():
	case <-monitorDone:
		err = fmt.Errorf("probe stream ended")
	}

	if closeErr := device.Close(); closeErr != nil {
		slog.Warn("failed to close device", "err", closeErr)
	}
	<-monitorDone
	return err
}

func watchConfig(ctx context.Context, path string, ov overrides, mon *monitor.Monitor) {
	err := config.Watch(ctx, path, func(updated *config.Config) {
		if err := ov.apply(updated); err != nil {
			slog.Error("config reload rejected", "err", err)
			return
		}
		if err := mon.Apply(updated); err != nil {
			slog.Error("config reload rejected", "err", err)
		}
	})
	if err != nil {
		slog.Error("config watcher stopped", "err", err)
	}
}

func logReading(r monitor.Reading) {
	slog.Info("reading",
		"state", r.State.String(),
		"raw_v", r.RawVoltage,
		"temp_c", r.TempC,
		"v", r.Voltage,
		"tds_ppm", r.TDS,
		"ec_us_cm", r.EC,
	)
}

func listPorts(cmd *cobra.Command, args []string) error {
	ports, err := probe.Ports()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.Name, p.Description)
	}
	return nil
}
