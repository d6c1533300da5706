package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"assessrag/config"
	"assessrag/internal/adapter/embedding"
	"assessrag/internal/adapter/index"
	"assessrag/internal/adapter/retriever"
	"assessrag/internal/adapter/store"
	"assessrag/internal/domain"
	"assessrag/internal/port"
	"assessrag/internal/usecase"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup happens first.
func run() int {
	indexPath := flag.String("index", ".", "Path to indexed directory")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	workers := flag.Int("workers", 8, "Concurrent searchers")
	repeat := flag.Int("n", 200, "Searches per worker")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -index ./project -q \"query\"")
		fmt.Println("\nTests:")
		fmt.Println("  1. Stored generation loads and lines up with its chunks")
		fmt.Println("  2. Top-k neighbours and their distances")
		fmt.Println("  3. Concurrent searches return identical results; latency percentiles")
		return 1
	}

	_ = godotenv.Load()

	cfg, err := config.LoadFromDir(*indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		return 1
	}

	st, err := store.NewBoltStore(config.IndexDBPath(*indexPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		return 1
	}
	defer st.Close()

	handle := index.NewHandle()
	gen, err := usecase.LoadStored(st, handle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading generation: %v\n", err)
		return 1
	}

	embedder, err := setupEmbedder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder not available: %v\n", err)
		return 1
	}

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Generation: %s (built %s)\n", gen.ID, gen.BuiltAt.Format(time.RFC3339))
	fmt.Printf("Chunks indexed: %d from %d documents\n", len(gen.Chunks), gen.Documents)
	fmt.Printf("Model: %s (%s), dimension %d\n", gen.Model, cfg.Embedding.Provider, gen.Index.Dimension())
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	ctx := context.Background()
	vr := retriever.NewVectorRetriever(embedder, handle)

	baseline, err := vr.Retrieve(ctx, *query, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		return 1
	}

	fmt.Printf("Top %d neighbours:\n\n", len(baseline))
	for i, r := range baseline {
		preview := strings.ReplaceAll(r.Chunk.Text, "\n", " ")
		if runes := []rune(preview); len(runes) > 150 {
			preview = string(runes[:150]) + "..."
		}
		fmt.Printf("%d. [%.4f] doc %d chunk %d\n", i+1, r.Distance, r.Chunk.DocIndex, r.Chunk.Seq)
		fmt.Printf("   %s\n\n", preview)
	}

	latencies, mismatches := hammer(ctx, vr, *query, *topK, *workers, *repeat, baseline)

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("CONCURRENCY (%d workers x %d searches):\n", *workers, *repeat)
	fmt.Printf("  p50: %s\n", percentile(latencies, 0.50))
	fmt.Printf("  p95: %s\n", percentile(latencies, 0.95))
	fmt.Printf("  max: %s\n", percentile(latencies, 1.00))
	if mismatches > 0 {
		fmt.Printf("  Status: FAIL - %d searches disagreed with the baseline\n", mismatches)
		return 1
	}
	fmt.Println("  Status: OK - every search matched the baseline")
	return 0
}

func hammer(ctx context.Context, r port.Retriever, query string, topK, workers, repeat int, baseline []domain.ScoredChunk) ([]time.Duration, int) {
	var (
		mu         sync.Mutex
		latencies  = make([]time.Duration, 0, workers*repeat)
		mismatches int
		wg         sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < repeat; i++ {
				start := time.Now()
				got, err := r.Retrieve(ctx, query, topK)
				elapsed := time.Since(start)

				mu.Lock()
				latencies = append(latencies, elapsed)
				if err != nil || !reflect.DeepEqual(got, baseline) {
					mismatches++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return latencies, mismatches
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), d...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	i := int(p*float64(len(sorted))) - 1
	if i < 0 {
		i = 0
	}
	return sorted[i]
}

func setupEmbedder(cfg *config.Config) (port.Embedder, error) {
	inner, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	// repeated queries hit the cache, so latencies measure the search itself
	return embedding.NewCachedEmbedder(inner, 16)
}
