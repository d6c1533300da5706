package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"assessrag/config"
	"assessrag/internal/adapter/index"
	"assessrag/internal/adapter/parser"
	"assessrag/internal/adapter/ranker"
	"assessrag/internal/adapter/retriever"
	"assessrag/internal/adapter/store"
	"assessrag/internal/usecase"
)

// openRecommender loads the stored generation and wires the query path
// around it. The returned close func releases the index database.
func openRecommender(cfg *config.Config, root, rankerName string) (*usecase.RecommendUseCase, func() error, error) {
	dbPath := config.IndexDBPath(root)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("no index found. Run 'assessrag index' first")
	}

	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open index: %w", err)
	}

	compat, err := st.CheckCompat(cfg)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	if compat.NeedsRebuild {
		log.Warn().Str("reason", compat.Reason).Msg("stored index does not match configuration, run 'assessrag index'")
	}

	handle := index.NewHandle()
	gen, err := usecase.LoadStored(st, handle)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to load index: %w", err)
	}
	log.Debug().
		Str("generation", gen.ID).
		Str("model", gen.Model).
		Int("chunks", len(gen.Chunks)).
		Time("built_at", gen.BuiltAt).
		Msg("index loaded")

	embedder, err := newEmbedder(cfg, true)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	if gen.Model != embedder.ModelName() {
		log.Warn().Str("index_model", gen.Model).Str("embedder_model", embedder.ModelName()).Msg("query embedder differs from the one that built the index")
	}

	rk, err := ranker.New(rankerName, ranker.Options{
		MMRLambda:    cfg.Retrieve.MMRLambda,
		DedupJaccard: cfg.Retrieve.DedupJaccard,
	})
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	uc := usecase.NewRecommendUseCase(
		retriever.NewVectorRetriever(embedder, handle),
		rk,
		parser.NewAssessmentParser(),
	)
	return uc, st.Close, nil
}
