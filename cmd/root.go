package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gesturehook/internal/config"
	"gesturehook/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "gesturehook",
		Short: "System-wide circle gesture recognizer",
		Long: `gesturehook watches the primary pointer button system-wide and emits a
gesture-circle event to attached consumers whenever a circle is drawn.`,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(cmd, opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to the configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newAnalyzeCmd(opts))
	root.AddCommand(newListenCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig opens the config file named by --config or the default
// location and applies its logging settings
func loadConfig(opts *rootOptions) (*config.Manager, error) {
	var mgr *config.Manager
	if opts.configPath != "" {
		mgr = config.NewManagerAt(opts.configPath)
	} else {
		var err error
		if mgr, err = config.NewManager(); err != nil {
			return nil, err
		}
	}

	loadErr := mgr.Load()

	cfg := mgr.Get()
	level := cfg.General.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	if err := logging.Setup(level, cfg.General.LogFormat, nil); err != nil {
		return nil, err
	}

	if loadErr != nil {
		logrus.WithError(loadErr).Warn("Failed to load config, using defaults")
	}
	return mgr, nil
}
