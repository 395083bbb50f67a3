package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zatekoja/restaurantfinder/backend/internal/adapters/cache"
	"github.com/zatekoja/restaurantfinder/backend/internal/adapters/providers/places"
	"github.com/zatekoja/restaurantfinder/backend/internal/application/services"
	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantfinder/backend/internal/infrastructure/clients/gemini"
	"github.com/zatekoja/restaurantfinder/backend/internal/infrastructure/observability"
	"github.com/zatekoja/restaurantfinder/backend/pkg/config"
)

var (
	showUsage bool
	stream    bool
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "analyze <place-id>",
	Short: "Analyze the reviews of one restaurant",
	Long: `Fetches the reviews of a place and prints the AI review analysis as JSON.

Configuration is read from the environment and an optional .env file
(MAPS_API_KEY, GEMINI_API_KEY, APP_ENV, API_TIMEOUT_MS).

Example:
  analyze ChIJN1t_tDeuEmsRUsoyG83frY4 --usage`,
	Args: cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		env := "production"
		if verbose {
			env = "development"
		}
		observability.InitLogger("restaurant-finder-cli", env)
		return nil
	},
	RunE: runAnalyze,
}

func init() {
	rootCmd.Flags().BoolVar(&showUsage, "usage", false, "print API usage counters after the analysis")
	rootCmd.Flags().BoolVar(&stream, "stream", false, "stream the raw model output instead of the validated result")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// analysisOutput is the JSON document printed by the command
type analysisOutput struct {
	PlaceID         string                   `json:"place_id"`
	Name            string                   `json:"name"`
	ReviewCount     int                      `json:"review_count"`
	Analysis        *entities.AnalysisResult `json:"analysis"`
	ConfidenceLevel string                   `json:"confidence_level,omitempty"`
	Usage           *entities.UsageCounters  `json:"usage,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.App.APITimeout())
	defer cancel()

	deps, err := buildAnalysisService(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()
	analysisService, usage := deps.analysis, deps.usage

	placeID := strings.TrimSpace(args[0])
	out := cmd.OutOrStdout()

	if stream {
		if err := streamAnalysis(ctx, analysisService, placeID, out); err != nil {
			return err
		}
		if showUsage {
			return writeJSON(out, usage.Snapshot())
		}
		return nil
	}

	place, analysis, err := analysisService.AnalyzePlace(ctx, placeID)
	if err != nil {
		return err
	}

	result := analysisOutput{
		PlaceID:     placeID,
		Name:        place.Name,
		ReviewCount: len(place.Reviews),
		Analysis:    analysis,
	}
	if analysis != nil {
		result.ConfidenceLevel = analysis.ConfidenceLevel()
	}
	if showUsage {
		counters := usage.Snapshot()
		result.Usage = &counters
	}
	return writeJSON(out, result)
}

// analysisDeps is the service graph of one command run
type analysisDeps struct {
	analysis  *services.AnalysisService
	usage     *services.UsageTracker
	generator *gemini.Client
}

// Close stops the Gemini rate limiter
func (d *analysisDeps) Close() {
	d.generator.Close()
}

func buildAnalysisService(ctx context.Context, cfg *config.Config) (*analysisDeps, error) {
	usage := services.NewUsageTracker(time.Now)

	details, err := cache.NewLRUStore[*entities.Place](cfg.Cache.Capacity)
	if err != nil {
		return nil, err
	}
	analyses, err := cache.NewLRUStore[*entities.AnalysisResult](cfg.Cache.Capacity)
	if err != nil {
		return nil, err
	}

	generator, err := gemini.NewClient(ctx, &cfg.Gemini, cfg.App.APITimeout(), usage)
	if err != nil {
		generator.Close()
		return nil, err
	}

	search := services.NewSearchService(places.NewProvider(&cfg.Maps, cfg.App.IsDevelopment()), usage, details, cfg.App.DefaultRadius)
	return &analysisDeps{
		analysis:  services.NewAnalysisService(generator, search, analyses),
		usage:     usage,
		generator: generator,
	}, nil
}

func streamAnalysis(ctx context.Context, analysisService *services.AnalysisService, placeID string, out io.Writer) error {
	chunks, err := analysisService.StreamAnalysis(ctx, placeID)
	if err != nil {
		return err
	}
	for chunk, err := range chunks {
		if err != nil {
			return err
		}
		if _, err := io.WriteString(out, chunk); err != nil {
			return err
		}
	}
	_, err = io.WriteString(out, "\n")
	return err
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
