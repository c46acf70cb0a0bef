// Command bookctl drives the marketplace booking flow from a terminal.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/slotwise/marketplace/internal/booking"
	"github.com/slotwise/marketplace/internal/marketplace"
	"github.com/slotwise/marketplace/pkg/logging"
)

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// cliConfig is resolved from flags, BOOKCTL_* variables and defaults, in that
// order.
type cliConfig struct {
	APIURL     string
	Token      string
	Timeout    time.Duration
	Timezone   string
	WindowDays int
	JSON       bool
	LogLevel   string
}

func loadCLIConfig(v *viper.Viper) cliConfig {
	return cliConfig{
		APIURL:     v.GetString("api-url"),
		Token:      v.GetString("token"),
		Timeout:    v.GetDuration("timeout"),
		Timezone:   v.GetString("timezone"),
		WindowDays: v.GetInt("window-days"),
		JSON:       v.GetBool("json"),
		LogLevel:   v.GetString("log-level"),
	}
}

func (c cliConfig) location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

// app is the per-invocation wiring shared by every subcommand.
type app struct {
	cfg     cliConfig
	adapter *marketplace.Adapter
	service *booking.Service
}

// newApp is replaced in tests to pin the clock.
var newApp = func(cfg cliConfig) *app { return buildApp(cfg) }

func buildApp(cfg cliConfig, opts ...booking.Option) *app {
	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: "text", Output: os.Stderr})
	client := marketplace.NewClient(cfg.APIURL, logger, marketplace.WithTimeout(cfg.Timeout))
	adapter := marketplace.NewAdapter(client, nil, logger, nil)

	opts = append([]booking.Option{
		booking.WithLocation(cfg.location()),
		booking.WithWindowDays(cfg.WindowDays),
	}, opts...)
	return &app{
		cfg:     cfg,
		adapter: adapter,
		service: booking.NewService(adapter, logger, opts...),
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bookctl",
		Short:         "Browse marketplace services and book appointments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetErr(os.Stderr)

	flags := rootCmd.PersistentFlags()
	flags.String("api-url", "http://localhost:8000", "marketplace API base URL")
	flags.String("token", "", "bearer token forwarded to the marketplace API")
	flags.Duration("timeout", 15*time.Second, "per-request timeout")
	flags.String("timezone", "UTC", "IANA zone used to compute today")
	flags.Int("window-days", booking.DefaultWindowDays, "days ahead that can be booked")
	flags.Bool("json", false, "print JSON instead of text")
	flags.String("log-level", "error", "log level for diagnostics on stderr")

	v.SetEnvPrefix("BOOKCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)

	rootCmd.AddCommand(providersCmd(v))
	rootCmd.AddCommand(scheduleCmd(v))
	rootCmd.AddCommand(calendarCmd(v))
	rootCmd.AddCommand(slotsCmd(v))
	rootCmd.AddCommand(bookCmd(v))

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	}
	return rootCmd
}

// reportError turns flow errors into the message a user would see.
func reportError(err error) error {
	if err == nil {
		return nil
	}
	if ve, ok := booking.IsValidation(err); ok {
		return errors.New(ve.Message)
	}
	var se *booking.SubmissionError
	if errors.As(err, &se) {
		return errors.New(se.Message)
	}
	return err
}
