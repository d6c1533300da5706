package cli

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	queryText   string
	queryTopK   int
	queryJSON   bool
	queryRanker string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Recommend assessments for a query",
	Long: `Recommend assessments for a job description or skill list using nearest
neighbour search over the chunk embeddings.

Examples:
  assessrag query -q "Java developer who can also work with SQL"
  assessrag query -q "graduate analyst" -k 10 --ranker mmr --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "query text (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().StringVar(&queryRanker, "ranker", "", "ranker: identity, dedup, mmr (default from config)")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	rankerName := cfg.Retrieve.Ranker
	if queryRanker != "" {
		rankerName = queryRanker
	}
	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	recommendUC, closeStore, err := openRecommender(cfg, GetRootDir(), rankerName)
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := recommendUC.Search(cmd.Context(), queryText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if res.Skipped > 0 {
		log.Debug().Int("skipped", res.Skipped).Msg("chunks without an assessment name were skipped")
	}

	out := cmd.OutOrStdout()
	if queryJSON {
		output, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(output))
		return nil
	}

	if len(res.Recommendations) == 0 {
		fmt.Fprintln(out, "No recommendations found.")
		return nil
	}
	fmt.Fprintf(out, "Found %d recommendations for: %s\n\n", len(res.Recommendations), queryText)
	for i, r := range res.Recommendations {
		fmt.Fprintf(out, "--- [%d] %s (distance: %.4f) ---\n", i+1, r.Name, r.Distance)
		fmt.Fprintf(out, "Type:        %s\n", r.Type)
		fmt.Fprintf(out, "Skills:      %s\n", r.Skills)
		fmt.Fprintf(out, "Job roles:   %s\n", r.Roles)
		fmt.Fprintf(out, "Duration:    %s\n", r.Duration)
		fmt.Fprintf(out, "Description: %s\n\n", truncate(r.Description, 300))
	}
	return nil
}

// truncate shortens s to at most limit runes, marking the cut with "...".
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
