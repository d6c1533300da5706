package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"assessrag/config"
	"assessrag/internal/adapter/evaluation"
	"assessrag/internal/usecase"
)

var (
	evalDataset string
	evalK       int
	evalMatcher string
	evalRanker  string
	evalJSON    bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Measure retrieval quality on a labeled query set",
	Long: `Run every query of the evaluation dataset through the recommender and report
Precision@K, HitRate@K and MRR. The dataset is a JSON array of
{"query": "...", "relevant_assessments": ["..."]} records.

Examples:
  assessrag evaluate
  assessrag evaluate --dataset data/eval/queries.json -k 3 --matcher exact`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evalDataset, "dataset", "", "evaluation dataset (default from config)")
	evaluateCmd.Flags().IntVarP(&evalK, "top-k", "k", 0, "cutoff K (default from config)")
	evaluateCmd.Flags().StringVar(&evalMatcher, "matcher", "", "matcher: substring, exact, token (default from config)")
	evaluateCmd.Flags().StringVar(&evalRanker, "ranker", "", "ranker: identity, dedup, mmr (default from config)")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false, "output as JSON")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	root := GetRootDir()

	dataset := cfg.Evaluation.Dataset
	if evalDataset != "" {
		dataset = evalDataset
	}
	k := cfg.Evaluation.K
	if evalK > 0 {
		k = evalK
	}
	matcherName := cfg.Evaluation.Matcher
	if evalMatcher != "" {
		matcherName = evalMatcher
	}
	rankerName := cfg.Retrieve.Ranker
	if evalRanker != "" {
		rankerName = evalRanker
	}

	matcher, err := evaluation.NewMatcher(matcherName, cfg.Evaluation.TokenThreshold)
	if err != nil {
		return err
	}

	recommendUC, closeStore, err := openRecommender(cfg, root, rankerName)
	if err != nil {
		return err
	}
	defer closeStore()

	evalUC := usecase.NewEvaluateUseCase(recommendUC, matcher)
	report, err := evalUC.Evaluate(cmd.Context(), config.ResolvePath(root, dataset), k)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if evalJSON {
		output, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(output))
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "QUERY\tP@%d\tHIT\tRR\n", k)
	for _, s := range report.Scores {
		fmt.Fprintf(tw, "%s\t%.3f\t%d\t%.3f\n", truncate(s.Query, 60), s.Precision, s.HitRate, s.ReciprocalRank)
	}
	tw.Flush()

	fmt.Fprintf(out, "\nQueries:          %d (matcher: %s)\n", report.Queries, report.Matcher)
	fmt.Fprintf(out, "Mean Precision@%d: %.3f\n", k, report.MeanPrecision)
	fmt.Fprintf(out, "HitRate@%d:        %.3f\n", k, report.HitRate)
	fmt.Fprintf(out, "MRR:              %.3f\n", report.MRR)
	return nil
}
