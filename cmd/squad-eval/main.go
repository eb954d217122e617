package main

import (
	"context"
	"encoding/gob"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/perbu/squadsent/pkg/config"
	"github.com/perbu/squadsent/pkg/embedder"
	"github.com/perbu/squadsent/pkg/squadsent"
)

func main() {
	// Load .env file if it exists (for API key)
	_ = godotenv.Load()

	input := flag.String("input", "embeddings/squad.gob", "embeddings file written by squad-embed")
	configPath := flag.String("config", "", "config used to embed a query (defaults when empty)")
	show := flag.Int("show", 0, "print the first N questions with their ranked sentences")
	top := flag.Int("top", 3, "number of sentences to print per question or query")
	verbose := flag.Bool("verbose", false, "enable verbose output for debugging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	data, err := loadEmbeddings(*input)
	if err != nil {
		log.Fatal().Err(err).Str("path", *input).Msg("Error loading embeddings")
	}
	log.Debug().
		Int("passages", len(data.Passages)).
		Int("dimension", data.Dimension).
		Str("model", data.ModelInfo).
		Msg("Loaded embeddings")

	if args := flag.Args(); len(args) > 0 {
		if err := query(data, *configPath, strings.Join(args, " "), *top); err != nil {
			log.Fatal().Err(err).Msg("Query failed")
		}
		return
	}

	ev := squadsent.Evaluate(data)
	fmt.Printf("Model:      %s (dim=%d)\n", data.ModelInfo, data.Dimension)
	fmt.Printf("Questions:  %d\n", ev.Questions)
	fmt.Printf("Scored:     %d\n", ev.Scored)
	fmt.Printf("Correct:    %d\n", ev.Correct)
	fmt.Printf("Accuracy:   %.2f%%\n", ev.Accuracy*100)

	if *show > 0 {
		fmt.Println()
		showQuestions(data, *show, *top)
	}
}

func loadEmbeddings(path string) (*squadsent.EmbeddingData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var data squadsent.EmbeddingData
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

func showQuestions(data *squadsent.EmbeddingData, n, top int) {
	printed := 0
	for i, pe := range data.Embeddings {
		if i >= len(data.Passages) {
			return
		}
		p := data.Passages[i]
		for j, s := range p.Samples {
			if printed == n {
				return
			}
			if j >= len(pe.Questions) {
				break
			}
			printed++

			fmt.Printf("[%s] %s\n", p.Title, s.Question)
			fmt.Printf("  answer: %q", s.Answer)
			if s.HasTarget() {
				fmt.Printf(" (target sentence %d)", s.Target)
			}
			fmt.Println()
			for _, r := range squadsent.RankSentences(pe.Sentences, pe.Questions[j], top) {
				marker := " "
				if r.Index == s.Target {
					marker = "*"
				}
				fmt.Printf("  %s %.3f  %s\n", marker, r.Score, p.Sentences[r.Index])
			}
			fmt.Println(strings.Repeat("-", 80))
		}
	}
}

type hit struct {
	passage int
	squadsent.SentenceScore
}

// query embeds text with the configured embedder and ranks every stored sentence
func query(data *squadsent.EmbeddingData, configPath, text string, top int) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(configPath); err != nil {
			return err
		}
	} else {
		cfg.ApplyEnv()
	}

	if err := cfg.Embedder.Validate(); err != nil {
		return err
	}
	emb, err := embedder.New(cfg.Embedder)
	if err != nil {
		return fmt.Errorf("initializing embedder: %w", err)
	}
	if emb.ModelInfo() != data.ModelInfo {
		log.Warn().Str("stored", data.ModelInfo).Str("query", emb.ModelInfo()).Msg("Query model differs from stored embeddings")
	}

	ctx := context.Background()
	corpus := append(squadsent.Corpus(data.Passages), text)
	if err := emb.BuildVocab(ctx, corpus); err != nil {
		return err
	}

	log.Debug().Str("query", text).Msg("Embedding query")
	q, err := emb.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embedding query: %w", err)
	}

	var hits []hit
	for i, pe := range data.Embeddings {
		for _, s := range squadsent.RankSentences(pe.Sentences, q, top) {
			hits = append(hits, hit{passage: i, SentenceScore: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if top > 0 && top < len(hits) {
		hits = hits[:top]
	}

	if len(hits) == 0 {
		fmt.Println("No results found")
		return nil
	}
	for _, h := range hits {
		p := data.Passages[h.passage]
		fmt.Printf("Score: %.3f | %s\n  %s\n", h.Score, p.Title, p.Sentences[h.Index])
	}
	return nil
}
