package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quorumlabs/quorum/pkg/quorum"
	"github.com/quorumlabs/quorum/pkg/quorum/merge"
)

var (
	mergeModels   []string
	mergeDeadline time.Duration
	mergeBlend    int
	mergeShowDiag bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge <prompt>",
	Short: "Send a prompt to all configured models and print the merged answer",
	Args:  cobra.ExactArgs(1),
	RunE:  runMergeCommand,
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringSliceVarP(&mergeModels, "models", "m", nil, "restrict to these model ids")
	mergeCmd.Flags().DurationVar(&mergeDeadline, "deadline", 2*time.Minute, "overall deadline for the request")
	mergeCmd.Flags().IntVar(&mergeBlend, "blend", 0, "blend the top-k answers instead of picking one")
	mergeCmd.Flags().BoolVar(&mergeShowDiag, "diagnostics", false, "print per-model outcomes")
}

func runMergeCommand(cmd *cobra.Command, args []string) error {
	var extra []quorum.Option
	if mergeBlend > 0 {
		extra = append(extra, quorum.WithSelector(merge.NewBlend(mergeBlend)))
	}

	orch, closeStore, err := buildOrchestrator(extra...)
	if err != nil {
		return err
	}
	defer closeStore()

	result, err := orch.Merge(cmd.Context(), quorum.Request{
		Prompt:   args[0],
		ModelIDs: mergeModels,
		Deadline: mergeDeadline,
	})
	if err != nil {
		return err
	}

	fmt.Println(result.FinalContent)

	if mergeShowDiag {
		fmt.Println()
		fmt.Printf("request:   %s\n", result.RequestID)
		fmt.Printf("consensus: %.3f\n", result.ConsensusScore)
		fmt.Printf("sources:   %v\n", result.SourceModels)
		for _, cand := range result.Candidates {
			status := "ok"
			if !cand.Succeeded {
				status = string(cand.ErrorKind)
			}
			fmt.Printf("  %-24s %-18s weight=%.3f quality=%.3f latency=%dms\n",
				cand.ModelID, status, result.Weights[cand.ModelID], cand.Quality, cand.LatencyMs)
		}
	}

	return nil
}
