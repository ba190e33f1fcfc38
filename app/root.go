// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/PrepDesk/PrepDesk/internal/config"
	"github.com/PrepDesk/PrepDesk/internal/logger"
)

var (
	configPath string // directory holding main.toml
	devMode    bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "prepdesk",
	Short: "PrepDesk back office: access control and subscription entitlements",
	Long: `PrepDesk serves the back office api of the exam preparation platform:
role and permission management, the plan catalog and the subscription
entitlements kept in sync with the payment provider.`,
	Args: cobra.OnlyValidArgs,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error

		if cfg, err = config.ReadConfig(configPath); err != nil {
			return err
		}

		if devMode {
			cfg.DevMode = true
		}

		return logger.Init(cfg.Log)
	},
	SilenceUsage: true,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath,
		"directory containing main.toml")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "Enable dev mode")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
