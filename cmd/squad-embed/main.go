package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/dig"

	"github.com/perbu/squadsent/pkg/config"
	"github.com/perbu/squadsent/pkg/embedder"
	"github.com/perbu/squadsent/pkg/loader"
	"github.com/perbu/squadsent/pkg/resolver"
	"github.com/perbu/squadsent/pkg/squadsent"
	"github.com/perbu/squadsent/pkg/tokenizer"
)

const saveEvery = 50

type cliFlags struct {
	configPath string
	dataset    string
	output     string
	limit      int
	dryRun     bool
	fresh      bool
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	f := &cliFlags{}
	flag.StringVar(&f.configPath, "config", "", "path to YAML config (defaults are used when empty)")
	flag.StringVar(&f.dataset, "dataset", "", "SQuAD JSON file or directory, overrides config")
	flag.StringVar(&f.output, "output", "", "output gob file, overrides config")
	flag.IntVar(&f.limit, "limit", -1, "encode only the first N passages (0 for all), overrides config")
	flag.BoolVar(&f.dryRun, "dry-run", false, "extract and resolve targets, skip encoding")
	flag.BoolVar(&f.fresh, "fresh", false, "ignore an existing checkpoint")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	c, err := newContainer(f)
	if err != nil {
		log.Fatal().Err(err).Msg("wiring")
	}

	if f.dryRun {
		err = c.Invoke(dryRun)
	} else {
		err = c.Invoke(run)
	}
	if err != nil {
		log.Fatal().Err(dig.RootCause(err)).Msg("squad-embed failed")
	}
}

// newContainer registers the constructors. The embedder is only built
// when an invoked function asks for it, so dry runs never touch it.
func newContainer(f *cliFlags) (*dig.Container, error) {
	c := dig.New()
	for _, constructor := range []interface{}{
		func() *cliFlags { return f },
		newConfig,
		newTokenizer,
		newEmbedder,
	} {
		if err := c.Provide(constructor); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func newConfig(f *cliFlags) (*config.Config, error) {
	var cfg *config.Config
	if f.configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(f.configPath); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Default()
		cfg.ApplyEnv()
	}

	if f.dataset != "" {
		cfg.Dataset = f.dataset
	}
	if f.output != "" {
		cfg.Output = f.output
	}
	if f.limit >= 0 {
		cfg.Limit = f.limit
	}
	if err := cfg.ValidateInputs(); err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(level)
	log.Debug().Interface("config", redacted(cfg)).Msg("Loaded config")
	return cfg, nil
}

// redacted returns a copy of cfg safe to log
func redacted(cfg *config.Config) config.Config {
	out := *cfg
	if out.Embedder.APIKey != "" {
		out.Embedder.APIKey = "***"
	}
	return out
}

func newTokenizer(cfg *config.Config) (tokenizer.SentenceTokenizer, error) {
	return tokenizer.New(cfg.Tokenizer)
}

func newEmbedder(cfg *config.Config) (embedder.Embedder, error) {
	if err := cfg.Embedder.Validate(); err != nil {
		return nil, err
	}
	return embedder.New(cfg.Embedder)
}

func loadDataset(path string) (*loader.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return loader.LoadAll(os.DirFS(path), ".")
	}
	return loader.Load(path)
}

func extract(cfg *config.Config, tok tokenizer.SentenceTokenizer) ([]squadsent.Passage, error) {
	policy, err := resolver.ParseZeroOffsetPolicy(cfg.ZeroOffset)
	if err != nil {
		return nil, err
	}

	log.Info().Str("path", cfg.Dataset).Msg("Loading dataset")
	ds, err := loadDataset(cfg.Dataset)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	dsStats := ds.Stats()
	log.Info().
		Str("version", ds.Version).
		Int("topics", dsStats.Topics).
		Int("paragraphs", dsStats.Paragraphs).
		Int("questions", dsStats.Questions).
		Msg("Loaded dataset")

	log.Info().Str("zero_offset", policy.String()).Msg("Parsing dataset")
	passages, stats := squadsent.Extract(ds, tok, squadsent.ExtractOptions{ZeroOffset: policy})
	log.Info().
		Int("passages", stats.Passages).
		Int("questions", stats.Questions).
		Int("impossible", stats.Impossible).
		Int("no_answer", stats.NoAnswer).
		Int("unresolved", stats.Unresolved).
		Msg("Extracted passages")
	return passages, nil
}

func dryRun(cfg *config.Config, tok tokenizer.SentenceTokenizer) error {
	passages, err := extract(cfg, tok)
	if err != nil {
		return err
	}

	sentences := len(squadsent.Flatten(passages))
	_, questions, _, targets := squadsent.Columns(passages)
	resolved, total := 0, 0
	for i := range targets {
		total += len(questions[i])
		for _, t := range targets[i] {
			if t != resolver.NoTarget {
				resolved++
			}
		}
	}

	fmt.Printf("Passages:   %d\n", len(passages))
	fmt.Printf("Sentences:  %d\n", sentences)
	fmt.Printf("Questions:  %d\n", total)
	if total > 0 {
		fmt.Printf("Resolved:   %d (%.1f%%)\n", resolved, float64(resolved)/float64(total)*100)
	}
	return nil
}

func run(f *cliFlags, cfg *config.Config, tok tokenizer.SentenceTokenizer, emb embedder.Embedder) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	passages, err := extract(cfg, tok)
	if err != nil {
		return err
	}

	todo := passages
	if cfg.Limit > 0 && cfg.Limit < len(passages) {
		todo = passages[:cfg.Limit]
	}

	// Step 1: resume from checkpoint if it matches
	cp := resumeCheckpoint(cfg, todo, emb.ModelInfo(), f.fresh)

	// Step 2: build the vocabulary and encode the missing passages
	data, err := encodeRemaining(ctx, cfg, emb, passages, cp)
	if err != nil {
		return err
	}

	// Step 3: write the final artifact
	size, err := writeOutput(cfg.Output, data)
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	log.Info().Str("path", cfg.Output).Float64("size_mb", float64(size)/(1024*1024)).Msg("Saved embeddings")

	if cached, ok := emb.(*embedder.CachedEmbedder); ok {
		hits, misses := cached.Stats()
		log.Info().Int64("hits", hits).Int64("misses", misses).Msg("Embedding cache")
	}

	// Clean up checkpoint file
	if err := os.Remove(cfg.Checkpoint); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Could not remove checkpoint file")
	}
	return nil
}

func resumeCheckpoint(cfg *config.Config, todo []squadsent.Passage, modelInfo string, ignore bool) *checkpoint {
	fresh := newCheckpoint(todo, modelInfo, cfg.SkipAnswers)
	if ignore {
		return fresh
	}

	existing, err := loadCheckpoint(cfg.Checkpoint)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("Error loading checkpoint, starting from scratch")
		return fresh
	case existing == nil:
		return fresh
	case !existing.matches(todo, modelInfo, cfg.SkipAnswers):
		log.Warn().Msg("Checkpoint doesn't match current passages/model, starting fresh")
		return fresh
	}
	log.Info().Int("done", existing.done()).Int("total", len(todo)).Msg("Resuming from checkpoint")
	return existing
}

var errInterrupted = errors.New("interrupted")

// encodeRemaining encodes the passages cp has not completed, saving cp every
// saveEvery passages and whenever encoding stops early.
func encodeRemaining(ctx context.Context, cfg *config.Config, emb embedder.Embedder, passages []squadsent.Passage, cp *checkpoint) (*squadsent.EmbeddingData, error) {
	total := len(cp.Passages)
	if done := cp.done(); done == total {
		log.Info().Msg("All embeddings already generated")
	} else {
		log.Info().Str("model", emb.ModelInfo()).Int("remaining", total-done).Msg("Getting sentence embeddings")
	}

	sinceSave := 0
	data, err := squadsent.Encode(ctx, emb, passages, squadsent.EncodeOptions{
		Limit:       cfg.Limit,
		SkipAnswers: cfg.SkipAnswers,
		Prior:       cp.Embeddings,
		Done:        func(i int) bool { return cp.Completed[i] },
		OnPassage: func(i int, pe squadsent.PassageEmbedding) error {
			cp.Embeddings[i] = pe
			cp.Completed[i] = true
			if sinceSave++; sinceSave >= saveEvery {
				sinceSave = 0
				if err := saveCheckpoint(cfg.Checkpoint, cp); err != nil {
					log.Warn().Err(err).Msg("Failed to save checkpoint")
				}
			}
			return nil
		},
		Progress: func(completed, total int) {
			if completed%10 == 0 || completed == total {
				fmt.Fprintf(os.Stderr, "\r  Progress: %d/%d (%.1f%%)", completed, total, float64(completed)/float64(total)*100)
				if completed == total {
					fmt.Fprintln(os.Stderr)
				}
			}
		},
	})
	if err != nil {
		if saveErr := saveCheckpoint(cfg.Checkpoint, cp); saveErr != nil {
			log.Error().Err(saveErr).Msg("Error saving checkpoint")
		} else {
			log.Info().Str("path", cfg.Checkpoint).Int("done", cp.done()).Msg("Progress saved to checkpoint. Run again to resume.")
		}
		if errors.Is(err, context.Canceled) {
			return nil, errInterrupted
		}
		return nil, err
	}
	return data, nil
}
