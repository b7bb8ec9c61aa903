package commands

import (
	"os"

	"ct-scan-inspector/internal/config"
	"ct-scan-inspector/internal/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel string

	cfg *config.Config
	log *logrus.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:          "ctscan",
		Short:        "Assess, correct and describe chest CT scan images",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadFromEnv()
			if err != nil {
				return err
			}
			cfg = loaded
			if logLevel == "" {
				logLevel = cfg.LogLevel
			}
			log = logger.New(os.Stderr, logLevel)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to LOG_LEVEL")

	root.AddCommand(analyzeCmd())
	return root.Execute()
}
