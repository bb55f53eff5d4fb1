package main

import (
	"github.com/spf13/cobra"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the ballot tables if they do not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			logger := newLogger(cfg)

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.close()

			if err := st.migrate(cmd.Context()); err != nil {
				return err
			}
			logger.Info("schema ready", "driver", cfg.DBDriver)
			return nil
		},
	}
}
