package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:               "echoguard",
	Short:             "EchoGuard records app permission access and flags suspicious use.",
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: loadDotEnv,
}

func init() {
	rootCmd.AddCommand(serveCmd, watchCmd, logsCmd, submitCmd)
}

// loadDotEnv applies a .env file from the working directory if there is one.
// Variables already set in the environment win.
func loadDotEnv(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return err
		}
	}
	setupLogger(os.Stderr)
	return nil
}
