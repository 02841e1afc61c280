package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/anya-manifestgen/internal/config"
	"github.com/oshokin/anya-manifestgen/internal/service/verifier"
)

var (
	// verifyOut is the output directory to check.
	verifyOut string

	// verifyCmd re-checks archives against an existing manifest.
	verifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Check archives in an output directory against manifest.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			_, err := verifier.Run(ctx, &verifier.Options{
				Out:    verifyOut,
				Report: cmd.OutOrStdout(),
			})

			return err
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	verifyCmd.Flags().StringVarP(&verifyOut, "out", "o", config.DefaultOut, "output directory containing manifest.json")

	rootCmd.AddCommand(verifyCmd)
}
