package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := newRootCommand()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "annotator",
		Short:         "Annotate video collections with time-coded segments for training data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				os.Setenv("CONFIG_FILE", path)
			}
		},
	}
	root.PersistentFlags().String("config", "", "Config file (default $CONFIG_FILE or config.yaml)")

	root.AddCommand(
		newRunCommand(),
		newOnceCommand(),
		newListCommand(),
		newShowCommand(),
		newLanesCommand(),
		newEditCommand(),
		newHistoryCommand(),
		newLabelsCommand(),
		newSuggestCommand(),
		newExportCommand(),
		newROICommand(),
	)
	return root
}
