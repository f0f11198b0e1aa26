package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wedmatch_server/app"
	"wedmatch_server/config"
	"wedmatch_server/logger"
	"wedmatch_server/services"
)

var (
	configPath string
	cohortID   string
	minScore   float64

	rootCmd = &cobra.Command{
		Use:   "matchgen",
		Short: "Batch match generation for event cohorts",
		Long:  `Scores every pair of users who attended the same event and creates matches for the pairs at or above a threshold.`,
	}
	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Create matches for every qualifying pair in a cohort",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}
	previewCmd = &cobra.Command{
		Use:   "preview",
		Short: "Print the qualifying pairs of a cohort without writing anything",
		Args:  cobra.NoArgs,
		RunE:  runPreview,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&cohortID, "cohort", "", "cohort (event) id")
	rootCmd.PersistentFlags().Float64Var(&minScore, "min-score", 60, "minimum compatibility score (0-100)")
	_ = rootCmd.MarkPersistentFlagRequired("cohort")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(previewCmd)
}

func build(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg, log, false)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	a, err := build(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := a.Generator.GenerateForCohort(cmd.Context(), cohortID, minScore)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

type previewPair struct {
	UserA int64   `json:"userA"`
	UserB int64   `json:"userB"`
	Score float64 `json:"score"`
}

func runPreview(cmd *cobra.Command, _ []string) error {
	a, err := build(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	members, err := services.StoreCohortSource{Profiles: a.Store.Profiles()}.Members(cmd.Context(), cohortID)
	if err != nil {
		return err
	}
	pairs := []previewPair{}
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			if score := services.CompatibilityScore(members[i], members[j]); score >= minScore {
				pairs = append(pairs, previewPair{UserA: members[i].UserID, UserB: members[j].UserID, Score: score})
			}
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d members, %d qualifying pairs\n", len(members), len(pairs))
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(pairs)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
