package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/schoolfinder/internal/models"
	"github.com/stwalsh4118/schoolfinder/internal/search"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		criteria models.Criteria
		limit    int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Filter schools by name or city, state and postal code",
		Long: `Filter schools. All given filters must match.

  --q            case-insensitive substring of the school name or city
  --state        state code, "any" for all states
  --postal-code  postal code prefix

Without filters every school is listed. At most --limit schools are
printed; the total number of matches is always reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.loadService(cmd.Context())
			if err != nil {
				return err
			}

			results, err := svc.Search(cmd.Context(), criteria.Normalize())
			if err != nil {
				return err
			}

			if limit <= 0 {
				limit = a.cfg.Search.DisplayCap
			}
			page := search.Cap(results, limit)

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), page.Schools)
			}
			return printPage(cmd.OutOrStdout(), page)
		},
	}

	cmd.Flags().StringVar(&criteria.NameQuery, "q", "", "name or city contains")
	cmd.Flags().StringVarP(&criteria.State, "state", "s", "", "state code")
	cmd.Flags().StringVarP(&criteria.PostalCodePrefix, "postal-code", "p", "", "postal code prefix")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum schools to print (default DISPLAY_CAP)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the displayed schools as JSON")

	return cmd
}

// printPage renders a result page as a table followed by the match count.
func printPage(w io.Writer, page search.Page) error {
	if page.Total == 0 {
		_, err := fmt.Fprintln(w, "No schools found. Try adjusting your search criteria.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLOCATION\tPOSTAL CODE\tGRADES")
	for _, s := range page.Schools {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Name, s.Address.Location(), s.Address.PostalCode, s.GradeRange)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	var err error
	if page.Truncated() {
		_, err = fmt.Fprintf(w, "\nShowing first %d of %d schools\n", page.Displayed, page.Total)
	} else {
		_, err = fmt.Fprintf(w, "\n%d schools found\n", page.Total)
	}
	return err
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
