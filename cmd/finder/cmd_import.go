package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/schoolfinder/internal/importer"
	"github.com/stwalsh4118/schoolfinder/internal/repository"
)

func newImportCmd(a *app) *cobra.Command {
	var toPostgres bool

	cmd := &cobra.Command{
		Use:   "import <csv> <out.json>",
		Short: "Convert the niche/NCES CSV export into the JSON dataset",
		Long: `Reads the niche/NCES match CSV, generates unique URL slugs and
readable grade ranges, and writes the JSON dataset served by the API.

With --to-postgres the schools are also copied into the schools table
(replacing its contents) using the DB_* settings.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath, outPath := args[0], args[1]

			schools, report, err := importer.ImportFile(csvPath)
			if err != nil {
				return err
			}
			if err := repository.WriteDataset(outPath, schools); err != nil {
				return err
			}

			a.log.Info("Imported schools", map[string]interface{}{
				"csv":      csvPath,
				"output":   outPath,
				"rows":     report.Rows,
				"imported": report.Imported,
				"unnamed":  report.Unnamed,
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processed %d schools\n", report.Imported)
			fmt.Fprintf(out, "Written to %s\n", outPath)
			fmt.Fprintf(out, "Schools across %d states\n", len(report.States))
			for _, s := range report.TopStates(5) {
				fmt.Fprintf(out, "  %s: %d\n", s.Code, s.Count)
			}

			if !toPostgres {
				return nil
			}

			db, err := a.database(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			copied, err := repository.SeedSchools(cmd.Context(), db, schools)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Copied %d schools into %s\n", copied, repository.SchoolsTable)
			return nil
		},
	}
	cmd.Flags().BoolVar(&toPostgres, "to-postgres", false, "also load the schools into PostgreSQL")
	return cmd
}
