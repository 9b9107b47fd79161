package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/emberdate/matchkit/internal/ai"
	"github.com/emberdate/matchkit/internal/ai/gemini"
	"github.com/emberdate/matchkit/internal/cache"
	internallogger "github.com/emberdate/matchkit/internal/logger"
	"github.com/emberdate/matchkit/internal/matching"
	"github.com/emberdate/matchkit/internal/profile"
	"github.com/emberdate/matchkit/internal/secrets"

	_ "github.com/lib/pq"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const PromptBack = "back"

var rankCmd = &cobra.Command{
	Use:   "rank <user-id>",
	Short: "Rank match candidates for a user by compatibility score",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rank(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().IntP("limit", "n", 0, "maximum number of matches to return")
	rankCmd.Flags().BoolP("interactive", "i", false, "browse match breakdowns interactively")

	viper.BindPFlag("matching.limit", rankCmd.Flags().Lookup("limit"))
}

// rank is the main command for the cli.
func rank(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logger, err := internallogger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the matchkit", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	seekerID, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil {
		logger.Fatal("user id must be an integer", zap.String("argument", args[0]))
	}

	db, err := openDatabase(config)
	if err != nil {
		logger.Fatal(
			"connecting to the profile database",
			zap.Error(err),
			zap.String("hint", "set DATABASE_URL environment variable or the 'database.url' key in the configuration file"),
		)
	}
	defer db.Close()

	kv, err := newCacheBackend(ctx, config.Cache)
	if err != nil {
		logger.Fatal("connecting to the cache backend", zap.Error(err))
	}
	defer kv.Close()

	scorer, err := newSemanticScorer(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building semantic scorer", zap.Error(err))
	}

	ranker := buildRanker(db, kv, scorer, config, logger)

	limit := 0
	if config.Matching != nil {
		limit = config.Matching.Limit
	}

	matches, err := ranker.RankMatches(ctx, seekerID, limit)
	if err != nil {
		logger.Fatal("ranking matches", zap.Error(err))
	}

	if len(matches) == 0 {
		logger.Info("exiting", zap.String("reason", "no matches found"))
		return
	}

	logger.Info("ranked matches", zap.Int64("user_id", seekerID), zap.Int("count", len(matches)))

	out, _ := json.MarshalIndent(matches, "", "  ")
	fmt.Println(string(out))

	if cmd.Flag("interactive").Value.String() == "true" {
		if err := browseMatches(matches); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

// browseMatches lets the operator inspect per-dimension breakdowns one match
// at a time.
func browseMatches(matches []matching.RankedMatch) error {
	for {
		items := make([]string, 0, len(matches)+1)
		for _, m := range matches {
			items = append(items, fmt.Sprintf("%d score=%.3f", m.Candidate.ID, m.Result.Score))
		}

		matchPrompt := promptui.Select{
			Label: "Choose a match and press ENTER",
			Items: append(items, PromptBack),
		}

		_, selected, err := matchPrompt.Run()
		if err != nil {
			return err
		}

		if selected == PromptBack {
			return nil
		}

		candidateID, err := strconv.ParseInt(strings.Split(selected, " ")[0], 10, 64)
		if err != nil {
			return fmt.Errorf("parsing selection %q: %w", selected, err)
		}

		match := findMatch(matches, candidateID)
		if match == nil {
			return fmt.Errorf("there is no such candidate id %d", candidateID)
		}

		printBreakdown(match)
	}
}

func findMatch(matches []matching.RankedMatch, candidateID int64) *matching.RankedMatch {
	for i := range matches {
		if matches[i].Candidate.ID == candidateID {
			return &matches[i]
		}
	}
	return nil
}

func printBreakdown(match *matching.RankedMatch) {
	fmt.Printf("candidate %d: score %.3f\n", match.Candidate.ID, match.Result.Score)

	dimensions := make([]string, 0, len(match.Result.Breakdown))
	for dimension := range match.Result.Breakdown {
		dimensions = append(dimensions, dimension)
	}
	sort.Strings(dimensions)

	for _, dimension := range dimensions {
		fmt.Printf("  %-20s %.3f\n", dimension, match.Result.Breakdown[dimension])
	}
}

func openDatabase(config *Config) (*sql.DB, error) {
	if config.Database == nil {
		return nil, errors.New("database configuration is required")
	}

	url, err := secrets.Load(secrets.Source{
		Name:  "database url",
		Value: config.Database.URL,
		File:  config.Database.URLFile,
	})
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func newCacheBackend(ctx context.Context, config *CacheConfig) (cache.KV, error) {
	backend := "memory"
	if config != nil && config.Backend != "" {
		backend = strings.TrimSpace(strings.ToLower(config.Backend))
	}

	switch backend {
	case "memory":
		return cache.NewMemory(), nil
	case "redis":
		if config.RedisAddr == "" {
			return nil, errors.New("cache.redis-addr is required for the redis backend")
		}
		return cache.NewRedis(ctx, config.RedisAddr, config.RedisDB)
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", backend)
	}
}

func newSemanticScorer(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Scorer, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, errors.New("ai.gemini configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := internallogger.WithCommonFields(logger, "gemini", cfg.Gemini.Model).
		With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewScorer(generator, genLogger, cfg.Gemini.MaxLogLength), nil
}

func buildRanker(db *sql.DB, kv cache.KV, scorer ai.Scorer, config *Config, logger *zap.Logger) *matching.Ranker {
	var (
		profileTTL   time.Duration
		pairTTL      time.Duration
		engineConfig matching.EngineConfig
		concurrent   int
	)
	if config.Cache != nil {
		profileTTL = config.Cache.ProfileTTL
		pairTTL = config.Cache.PairTTL
	}
	if config.Matching != nil {
		engineConfig = matching.EngineConfig{
			Weights:       config.Matching.Weights,
			ScorerTimeout: config.Matching.ScorerTimeout,
		}
		concurrent = config.Matching.MaxConcurrent
	}

	store := profile.NewCachedStore(profile.NewPostgresStore(db, logger), kv, profileTTL, logger)
	pairs := matching.NewPairCache(kv, pairTTL, logger)
	engine := matching.NewEngine(pairs, scorer, engineConfig, logger)
	finder := matching.NewFinder(store, logger)

	return matching.NewRanker(store, finder, engine, concurrent, logger)
}
