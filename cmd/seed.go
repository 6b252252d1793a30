package cmd

import (
	"fmt"
	"praxis_backend/internal/repository"
	"praxis_backend/internal/service"
	"praxis_backend/pkg/database"

	"github.com/spf13/cobra"
)

var seedDevCmd = &cobra.Command{
	Use:   "seed-dev",
	Short: "Create the development user with mock profile and skills",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := database.InitDB(&cfg.Database, true, log)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		svc := service.NewProfileService(repository.NewProfileRepository(db), repository.NewAttributesRepository(db), log)
		result, err := svc.SetupDevData(cmd.Context(), cfg.Auth.DevUserID, cfg.Auth.DevEmail)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s\nprofile_id: %s\nprofile_created: %t\nattributes_created: %t\n",
			result.Message, result.ProfileID, result.ProfileCreated, result.AttributesCreated)
		return nil
	},
}
