package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PrepDesk/PrepDesk/internal/config"
)

var dumpJSON bool

func init() { //nolint: gochecknoinits
	configCmd.Flags().BoolVar(&dumpJSON, "json", false, "print as JSON (the format of "+config.EnvConfigJSON+")")
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var (
			out string
			err error
		)

		if dumpJSON {
			out, err = config.DumpConfigJSON(&cfg)
		} else {
			out, err = config.DumpConfig(&cfg)
		}

		if err != nil {
			return err
		}

		_, err = fmt.Fprint(cmd.OutOrStdout(), out)

		return err
	},
}
