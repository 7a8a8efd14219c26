package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gsuite-cli/internal/connectors/google/sheets"
)

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "Read and write spreadsheet values",
	Long: `Work with Google Sheets values.

The spreadsheet argument accepts a key or a full Sheets URL.

Examples:
  gsuite sheets get 1aBcD --range "Sheet1!A1:C10"
  gsuite sheets update 1aBcD --range "Sheet1!A1" --values '[["Name","Age"],["Ana",30]]'`,
}

var sheetsGetCmd = &cobra.Command{
	Use:   "get [spreadsheet]",
	Short: "Print values from a range",
	Args:  cobra.ExactArgs(1),
	RunE:  runSheetsGet,
}

var sheetsUpdateCmd = &cobra.Command{
	Use:   "update [spreadsheet]",
	Short: "Write values into a range",
	Args:  cobra.ExactArgs(1),
	RunE:  runSheetsUpdate,
}

var (
	sheetsRange  string
	sheetsValues string
)

func init() {
	sheetsGetCmd.Flags().StringVar(&sheetsRange, "range", "", "A1 range, e.g. Sheet1!A1:C10")
	_ = sheetsGetCmd.MarkFlagRequired("range")

	sheetsUpdateCmd.Flags().StringVar(&sheetsRange, "range", "", "A1 range, e.g. Sheet1!A1")
	sheetsUpdateCmd.Flags().StringVar(&sheetsValues, "values", "", "Rows as a JSON array of arrays")
	_ = sheetsUpdateCmd.MarkFlagRequired("range")
	_ = sheetsUpdateCmd.MarkFlagRequired("values")

	sheetsCmd.AddCommand(sheetsGetCmd)
	sheetsCmd.AddCommand(sheetsUpdateCmd)
	rootCmd.AddCommand(sheetsCmd)
}

func sheetsClient(ctx context.Context) (*sheets.Client, error) {
	if err := requireDeps(); err != nil {
		return nil, err
	}
	return sheets.NewClient(ctx, deps.Manager,
		sheets.WithRetryPolicy(deps.Settings.RetryPolicy()),
		sheets.WithRequestTimeout(deps.Settings.RequestTimeoutDuration()))
}

// spreadsheetKey accepts a bare key or a full Sheets URL.
func spreadsheetKey(arg string) (string, error) {
	if strings.Contains(arg, "/spreadsheets/") {
		return sheets.ExtractKey(arg)
	}
	return arg, nil
}

func runSheetsGet(cmd *cobra.Command, args []string) error {
	client, err := sheetsClient(cmd.Context())
	if err != nil {
		return err
	}
	key, err := spreadsheetKey(args[0])
	if err != nil {
		return err
	}

	values, err := client.GetValues(cmd.Context(), key, sheetsRange)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		cmd.Println("No values.")
		return nil
	}

	for _, row := range values {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, fmt.Sprint(cell))
		}
		cmd.Println(strings.Join(cells, "\t"))
	}
	return nil
}

func runSheetsUpdate(cmd *cobra.Command, args []string) error {
	client, err := sheetsClient(cmd.Context())
	if err != nil {
		return err
	}
	key, err := spreadsheetKey(args[0])
	if err != nil {
		return err
	}

	var values [][]any
	if err := json.Unmarshal([]byte(sheetsValues), &values); err != nil {
		return fmt.Errorf("--values must be a JSON array of arrays: %w", err)
	}

	if err := client.UpdateValues(cmd.Context(), key, sheetsRange, values); err != nil {
		return err
	}

	cmd.Printf("Updated %s\n", sheetsRange)
	return nil
}
