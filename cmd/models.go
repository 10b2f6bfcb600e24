package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List configured models and their reliability records",
	RunE:  runModelsCommand,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModelsCommand(cmd *cobra.Command, args []string) error {
	orch, closeStore, err := buildOrchestrator()
	if err != nil {
		return err
	}
	defer closeStore()

	records, err := orch.Records(cmd.Context())
	if err != nil {
		return err
	}

	byID := make(map[string]int, len(records))
	for i, rec := range records {
		byID[rec.ModelID] = i
	}

	fmt.Printf("%-24s %-40s %8s %8s %8s %8s\n",
		"ID", "ENDPOINT", "QUALITY", "SUCCESS", "LATENCY", "SAMPLES")
	for _, mc := range orch.Registry().Models() {
		if i, ok := byID[mc.ID]; ok {
			rec := records[i]
			fmt.Printf("%-24s %-40s %8.3f %8.3f %6.0fms %8d\n",
				mc.ID, mc.Endpoint, rec.QualityEMA, rec.SuccessEMA, rec.LatencyEMAMs, rec.Samples)
		} else {
			fmt.Printf("%-24s %-40s %8s %8s %8s %8s\n",
				mc.ID, mc.Endpoint, "-", "-", "-", "0")
		}
	}

	return nil
}
