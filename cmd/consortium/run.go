package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/warp/consortium-engine/engine"
	"github.com/warp/consortium-engine/ingest"
	"github.com/warp/consortium-engine/logger"
	"github.com/warp/consortium-engine/report"
	"github.com/warp/consortium-engine/store"
	"github.com/warp/consortium-engine/store/sqlite"
)

var (
	attributionsPath  string
	burnsPath         string
	relationshipsPath string
	outDir            string
	noPersist         bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline over one period's CSV tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dataset, err := ingest.LoadDataset(attributionsPath, burnsPath, relationshipsPath)
		if err != nil {
			return fmt.Errorf("failed to load input: %w", err)
		}
		log.Info(ctx, "dataset loaded",
			logger.Int("attributions", len(dataset.Attributions)),
			logger.Int("burns", len(dataset.Burns)),
			logger.Int("links", len(dataset.Relationships)))

		eng, err := engine.New(cfg.EngineParams(), log)
		if err != nil {
			return err
		}
		res, err := eng.Run(ctx, dataset)
		if err != nil {
			return err
		}

		run := &store.Run{ID: uuid.NewString(), CreatedAt: time.Now().UTC(), Result: res}

		if !noPersist {
			st, err := sqlite.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open result store: %w", err)
			}
			defer st.Close()
			if err := st.SaveRun(ctx, run); err != nil {
				return fmt.Errorf("failed to persist run: %w", err)
			}
			log.Info(ctx, "run persisted", logger.String("run_id", run.ID))
		}

		if err := writeReports(run); err != nil {
			return err
		}
		log.Info(ctx, "reports written", logger.String("dir", outDir))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&attributionsPath, "attributions", "attributions.csv", "attribution table CSV")
	runCmd.Flags().StringVar(&burnsPath, "burns", "burns.csv", "burn table CSV")
	runCmd.Flags().StringVar(&relationshipsPath, "relationships", "", "optional relationship graph CSV")
	runCmd.Flags().StringVar(&outDir, "out", "reports", "output directory for rendered reports")
	runCmd.Flags().BoolVar(&noPersist, "no-persist", false, "skip writing the run to the result store")
}

func writeReports(run *store.Run) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	writeFile := func(name string, write func(f *os.File) error) error {
		f, err := os.Create(filepath.Join(outDir, name))
		if err != nil {
			return err
		}
		defer f.Close()
		return write(f)
	}

	res := run.Result
	if err := writeFile("report.md", func(f *os.File) error {
		_, err := f.WriteString(report.Markdown(res))
		return err
	}); err != nil {
		return err
	}
	if err := writeFile("result.json", func(f *os.File) error {
		return report.JSON(f, res)
	}); err != nil {
		return err
	}
	if err := writeFile("baselines.csv", func(f *os.File) error {
		return report.BaselinesCSV(f, res.Baselines)
	}); err != nil {
		return err
	}
	if err := writeFile("synergy_pairs.csv", func(f *os.File) error {
		return report.SynergyCSV(f, res.Synergy.Pairs)
	}); err != nil {
		return err
	}
	if err := writeFile("synergy_groups.csv", func(f *os.File) error {
		return report.SynergyCSV(f, res.Synergy.Groups)
	}); err != nil {
		return err
	}
	if err := writeFile("role_scores.csv", func(f *os.File) error {
		return report.RoleScoresCSV(f, res.RoleScores)
	}); err != nil {
		return err
	}
	return writeFile("audit.jsonl", func(f *os.File) error {
		return report.Audit(f, run.ID, res)
	})
}
