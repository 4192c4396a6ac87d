package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/davidschrooten/solr-schema-sync/internal/schema"
)

var planOutput string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the schema mutations without applying them",
	Long: `Fetch the live schema and configured languages and print the ordered Schema API
commands that would be sent. json prints the exact request body; yaml prints one
command per list item followed by a summary.`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVarP(&planOutput, "output", "o", "json", "Output format: json or yaml")
}

func runPlan(cmd *cobra.Command, args []string) error {
	if planOutput != "json" && planOutput != "yaml" {
		return fmt.Errorf("unsupported output format %q", planOutput)
	}

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	preview, err := a.reconciler.Preview(ctx)
	if err != nil {
		return err
	}

	if err := writePlan(cmd.OutOrStdout(), planOutput, preview.Plan, preview.Summary, preview.Digest); err != nil {
		return err
	}
	if planOutput == "json" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d operations, digest %s\n", preview.Summary.Total(), preview.Digest)
	}
	return nil
}

func writePlan(w io.Writer, format string, plan *schema.Plan, summary schema.Summary, digest string) error {
	switch format {
	case "yaml":
		doc := struct {
			Digest     string         `yaml:"digest"`
			Summary    schema.Summary `yaml:"summary"`
			Operations *schema.Plan   `yaml:"operations"`
		}{digest, summary, plan}

		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode plan: %w", err)
		}
		return enc.Close()
	default:
		body, err := json.Marshal(plan)
		if err != nil {
			return fmt.Errorf("failed to encode plan: %w", err)
		}
		_, err = fmt.Fprintln(w, string(body))
		return err
	}
}
