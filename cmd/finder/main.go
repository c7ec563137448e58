// Command finder searches the school dataset from the terminal and
// imports new datasets from the niche/NCES CSV export.
package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/stwalsh4118/schoolfinder/internal/config"
	"github.com/stwalsh4118/schoolfinder/internal/database"
	"github.com/stwalsh4118/schoolfinder/internal/logger"
	"github.com/stwalsh4118/schoolfinder/internal/repository"
	"github.com/stwalsh4118/schoolfinder/internal/services"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	verbose bool

	db *database.Database
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "finder",
		Short: "Search ECCA-eligible schools",
		Long: `finder loads the school dataset once and filters it by name or city,
state and postal code prefix.

The dataset source is configured the same way as the API server
(DATASET_SOURCE, DATASET_PATH, DATASET_URL, DB_*).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg

			level := cfg.Log.Level
			if level == "" && !a.verbose {
				level = "warn"
			}
			a.log = logger.NewWithOptions(logger.Options{
				Env:    cfg.Server.Env,
				Level:  level,
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log dataset loading details")

	root.AddCommand(
		newSearchCmd(a),
		newStatesCmd(a),
		newShowCmd(a),
		newImportCmd(a),
		newLiveCmd(a),
	)
	return root
}

// database opens the PostgreSQL pool on first use.
func (a *app) database(ctx context.Context) (*database.Database, error) {
	if a.db != nil {
		return a.db, nil
	}
	if err := a.cfg.Database.Validate(); err != nil {
		return nil, err
	}
	db, err := database.NewPostgresPool(ctx, a.cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}

// loadService builds the school service and loads the dataset.
func (a *app) loadService(ctx context.Context) (services.SchoolService, error) {
	var db *database.Database
	if a.cfg.Dataset.Source == config.SourcePostgres {
		var err error
		if db, err = a.database(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	source, err := repository.NewSource(a.cfg.Dataset, db)
	if err != nil {
		return nil, err
	}

	svc := services.NewSchoolService(source, a.log.WithComponent("school_service"))

	loadCtx, cancel := context.WithTimeout(ctx, a.cfg.Dataset.Timeout)
	defer cancel()
	if err := svc.Load(loadCtx); err != nil {
		return nil, err
	}
	return svc, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}
