package cmd

import (
	"context"
	"fmt"
	"praxis_backend/internal/config"
	"praxis_backend/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "praxis",
	Short:         "Praxis skill progression backend",
	Long:          "Praxis: avalia submissões de desafios com IA e atualiza as skills do usuário.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().String("config", "configs", "Directory containing config.yaml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedDevCmd)
	rootCmd.AddCommand(auditSkillsCmd)
	rootCmd.AddCommand(versionCmd)
}

// bootstrap 加载配置并初始化全局 logger
func bootstrap(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	dir, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.InitLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
