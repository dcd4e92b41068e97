package commands

import (
	"context"

	"github.com/spf13/cobra"

	"go-zhipin-automation/internal/logger"
)

// GetMigrateCmd returns the migrate command.
func GetMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the relational and document store schemas",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := context.Background()

			a, err := newApp()
			if err != nil {
				return err
			}
			docs, err := a.openDocstore(ctx)
			if err != nil {
				return err
			}
			defer docs.Close()

			logger.Infof("Migrations applied")
			return nil
		},
	}
}
