package cmd

import (
	"praxis_backend/internal/app"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		cfg.ForceMigrate, _ = cmd.Flags().GetBool("migrate")

		application, err := app.NewApp(cfg, log)
		if err != nil {
			return err
		}
		return application.Run()
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "Run database migrations before serving (sqlite always migrates)")
}
