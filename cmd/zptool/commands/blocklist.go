package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go-zhipin-automation/internal/blocklist"
)

var maskGroupID int

// GetMaskCompanyCmd returns the maskcompany sync command.
func GetMaskCompanyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maskcompany",
		Short: "Sync a masked-company group into the local blocklist",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}
			syncer, err := blocklist.NewSyncer(a.cfg.CookiesPath, a.masks, a.jobs)
			if err != nil {
				return err
			}
			return syncer.SyncMaskCompanies(ctx, maskGroupID)
		},
	}
	cmd.Flags().IntVar(&maskGroupID, "group", 3, "Masked-company group id (1-3)")
	return cmd
}

var relationGroup string

// GetRelationsCmd returns the relations sync command.
func GetRelationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relations",
		Short: "Record historical contacts from the relation lists",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}
			syncer, err := blocklist.NewSyncer(a.cfg.CookiesPath, a.masks, a.jobs)
			if err != nil {
				return err
			}
			return syncer.SyncRelations(ctx, relationGroup)
		},
	}
	cmd.Flags().StringVar(&relationGroup, "group", blocklist.GroupInteraction, "Relation list to sync: interaction or deliver")
	return cmd
}
