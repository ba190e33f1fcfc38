package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/PrepDesk/PrepDesk/internal/daemon"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:     "seed",
	Aliases: []string{"migrate"},
	Short:   "Migrate the database and seed the permission catalog, default roles and first administrator",
	RunE: func(_ *cobra.Command, _ []string) error {
		conn, err := daemon.Prepare(&cfg)
		if err != nil {
			return err
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		log.Info().Msg("database migrated and seeded")

		return sqlDB.Close()
	},
}
