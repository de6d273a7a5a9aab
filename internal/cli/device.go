package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/veriloc/internal/dependencies/clock"
	"github.com/mcoot/veriloc/internal/device"
	"github.com/mcoot/veriloc/internal/services/reporter"
)

type deviceFlags struct {
	configPath string
	finger     string
	room       string
	noProbe    bool
}

func newDeviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Run a simulated device",
		Long: `Run an enrollment station or room unit against a simulated sensor.

Operator input is read line by line from stdin and the display is printed
to stdout. The simulated finger on the sensor is chosen with --finger.`,
	}

	cmd.AddCommand(newDeviceEnrollCmd())
	cmd.AddCommand(newDeviceRoomCmd())

	return cmd
}

func (f *deviceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Device config file (TOML)")
	cmd.Flags().StringVar(&f.finger, "finger", "", "Name of the finger presented to the simulated sensor")
}

func newDeviceEnrollCmd() *cobra.Command {
	var flags deviceFlags

	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Run an enrollment station",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevice(cmd, flags, func(ctx context.Context, rt *device.Runtime, display device.Display) error {
				input := device.NewLineInput(os.Stdin)
				defer func() { _ = input.Close() }()

				station := rt.EnrollStation(input, display)
				return station.Run(ctx)
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newDeviceRoomCmd() *cobra.Command {
	var flags deviceFlags

	cmd := &cobra.Command{
		Use:   "room",
		Short: "Run a room unit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevice(cmd, flags, func(ctx context.Context, rt *device.Runtime, display device.Display) error {
				var connectivity reporter.Connectivity = device.NewProbeConnectivity(rt.Config.ServerURL, rt.Config.ProbeTimeout)
				if flags.noProbe {
					connectivity = device.AlwaysOnline{}
				}

				input := device.NewLineInput(os.Stdin)
				defer func() { _ = input.Close() }()

				unit, err := rt.RoomUnit(input, display, connectivity)
				if err != nil {
					return err
				}
				return unit.Run(ctx)
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&flags.room, "room", "", "Room number (overrides the config file)")
	cmd.Flags().BoolVar(&flags.noProbe, "no-probe", false, "Skip the connectivity probe before reporting")
	return cmd
}

func runDevice(cmd *cobra.Command, flags deviceFlags, run func(context.Context, *device.Runtime, device.Display) error) error {
	devCfg, err := loadDeviceConfig(cmd, flags)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger, closer, err := device.NewLogger(devCfg, level)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	sensor, err := devCfg.NewSimSensor()
	if err != nil {
		return err
	}
	if flags.finger != "" {
		sensor.Present(flags.finger)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := device.NewRuntime(devCfg, sensor, clock.New(), logger)
	go func() {
		if err := rt.ServeMetrics(ctx); err != nil {
			logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()

	display := device.MultiDisplay(device.NewConsoleDisplay(cmd.OutOrStdout()), device.NewLogDisplay(logger))
	return run(ctx, rt, display)
}

func loadDeviceConfig(cmd *cobra.Command, flags deviceFlags) (device.Config, error) {
	devCfg := device.DefaultConfig()
	if flags.configPath != "" {
		loaded, err := device.LoadConfig(flags.configPath)
		if err != nil {
			return device.Config{}, err
		}
		devCfg = loaded
	}

	if cmd.Flags().Changed("server") {
		devCfg.ServerURL = cfg.ServerURL
	}
	if flags.room != "" {
		devCfg.Room = flags.room
	}
	if err := devCfg.Validate(); err != nil {
		return device.Config{}, fmt.Errorf("invalid device config: %w", err)
	}
	return devCfg, nil
}
