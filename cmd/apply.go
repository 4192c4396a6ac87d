package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Reconcile the schema once and exit",
	Long: `Fetch the live schema, compute the plan and send it to the Schema API in plan
order. With --dry-run the plan is computed and recorded in the state file but not sent.`,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().Bool("dry-run", false, "Compute and record the plan without applying it")
	applyCmd.Flags().Int("batch-size", 0, "Operations per Schema API request, 0 sends the whole plan; a failed later batch leaves earlier removals committed")

	viper.BindPFlag("reconcile.dry_run", applyCmd.Flags().Lookup("dry-run"))
	viper.BindPFlag("solr.batch_size", applyCmd.Flags().Lookup("batch-size"))
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.reconciler.Reconcile(ctx)
	if err != nil {
		if result != nil {
			return fmt.Errorf("reconciliation failed after %d batches: %w", result.BatchesSent, err)
		}
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if result.DryRun {
		fmt.Fprintf(out, "Dry run: %d operations planned (%d removals, %d field types, %d fields), digest %s\n",
			result.Summary.Total(), result.Summary.Removals, result.Summary.FieldTypes, result.Summary.Fields, result.Digest)
		return nil
	}
	fmt.Fprintf(out, "Applied %d operations in %d batches in %s, digest %s\n",
		result.Summary.Total(), result.BatchesSent, result.Duration.Round(time.Millisecond), result.Digest)
	return nil
}
