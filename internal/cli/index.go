package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"assessrag/config"
	"assessrag/internal/adapter/catalog"
	"assessrag/internal/adapter/chunker"
	"assessrag/internal/adapter/index"
	"assessrag/internal/adapter/store"
	"assessrag/internal/usecase"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the assessment index",
	Long: `Build the vector index from the catalog CSV files listed under catalog.sources.
The generation is stored in .assessrag/index.db within the root directory and
replaces any previous one atomically.

Examples:
  assessrag index
  assessrag index -d /path/to/project`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	root := GetRootDir()

	if err := config.EnsureDataDir(root); err != nil {
		return fmt.Errorf("failed to create .assessrag directory: %w", err)
	}

	dbPath := config.IndexDBPath(root)
	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}
	defer st.Close()

	if compat, err := st.CheckCompat(cfg); err == nil && compat.NeedsRebuild && compat.OldVersion != 0 {
		log.Info().Str("reason", compat.Reason).Msg("replacing stored generation")
	}

	chk, err := chunker.NewRecursiveChunker(cfg.Chunk.WindowSize, cfg.Chunk.Overlap)
	if err != nil {
		return err
	}
	embedder, err := newEmbedder(cfg, false)
	if err != nil {
		return err
	}

	indexUC := usecase.NewIndexUseCase(
		catalog.NewSource(root, cfg.Catalog.Sources),
		chk,
		embedder,
		st,
		index.NewHandle(),
		cfg.Embedding.BatchSize,
		store.ComputeConfigHash(cfg),
	)

	log.Info().
		Str("provider", cfg.Embedding.Provider).
		Str("model", embedder.ModelName()).
		Int("window", cfg.Chunk.WindowSize).
		Int("overlap", cfg.Chunk.Overlap).
		Msg("building index")

	var (
		bar       *progressbar.ProgressBar
		barMu     sync.Mutex
		startTime time.Time
	)
	progress := func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(cmd.ErrOrStderr())
				}),
			)
		}

		bar.Set(done)

		if done > 0 && done < total {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	result, err := indexUC.Build(cmd.Context(), progress)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nIndexing complete:\n")
	fmt.Fprintf(out, "  Documents:  %d\n", result.Documents)
	fmt.Fprintf(out, "  Chunks:     %d\n", result.Chunks)
	fmt.Fprintf(out, "  Model:      %s (%d dims)\n", result.Model, result.Dimension)
	fmt.Fprintf(out, "  Generation: %s\n", result.GenerationID)
	fmt.Fprintf(out, "  Took:       %s\n", formatDuration(result.Duration))
	fmt.Fprintf(out, "\nIndex stored at: %s\n", dbPath)
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
