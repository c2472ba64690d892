package config

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mirrorsync/mirrorsync/cmd/util"
	"github.com/mirrorsync/mirrorsync/pkg/config"
	"github.com/mirrorsync/mirrorsync/pkg/errors"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	parseUserConfig           = config.ParseUser
	writeUserConfig           = config.WriteUser
)

// New creates a new `config` command.
func New() *cobra.Command {
	var cliOpts config.User
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Setup the mirrorsync user configuration",
		Run: func(_ *cobra.Command, _ []string) {
			if err := SetupConfig(cliOpts); err != nil {
				err = errors.NewFriendlyError("Failed to setup configuration:\n%s", err)
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&cliOpts.Source, "source", "",
		"Set the source root in the config.")
	cmd.Flags().StringVar(&cliOpts.Destination, "destination", "",
		"Set the destination root in the config.")
	cmd.Flags().StringVar(&cliOpts.LogDir, "log-dir", "",
		"Set the log directory in the config.")
	cmd.Flags().BoolVar(&cliOpts.Console, "console", false,
		"Echo per-item outcomes to the console during runs.")

	// Setup the commands for querying the contents of the user config.
	type getterSpec struct {
		use, short string
		fn         func(config.User) string
	}

	getters := []getterSpec{
		{
			use:   "get-source",
			short: "Get the currently configured source root",
			fn:    func(cfg config.User) string { return cfg.Source },
		},
		{
			use:   "get-destination",
			short: "Get the currently configured destination root",
			fn:    func(cfg config.User) string { return cfg.Destination },
		},
		{
			use:   "get-log-dir",
			short: "Get the currently configured log directory",
			fn:    func(cfg config.User) string { return cfg.LogDir },
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseUserConfig()
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
				}

				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

// SetupConfig validates the given options and writes them to the user config
// file.
func SetupConfig(cliOpts config.User) error {
	if cliOpts.Source == "" {
		return errors.MissingFieldError{Field: "source"}
	}
	if cliOpts.Destination == "" {
		return errors.MissingFieldError{Field: "destination"}
	}
	if cliOpts.LogDir == "" {
		return errors.MissingFieldError{Field: "logDir"}
	}

	if err := writeUserConfig(cliOpts); err != nil {
		return errors.WithContext(err, "write config")
	}

	path, err := config.GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "get user config path")
	}

	fmt.Fprintf(stdout, "Wrote config to %s\n", path)
	return nil
}
