package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/schoolfinder/internal/live"
	"github.com/stwalsh4118/schoolfinder/internal/search"
)

func newLiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "live",
		Short: "Search as you type, one line per keystroke batch",
		Long: `Reads lines from stdin and treats each one as the current contents of
the search box. Name input shorter than MIN_QUERY_LENGTH is ignored and
searches run once input has been quiet for DEBOUNCE_WINDOW.

Lines starting with "state:" or "zip:" change the state filter or the
postal code prefix and search immediately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.loadService(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			session := live.NewSession(cmd.Context(), svc, func(r live.Result) {
				mu.Lock()
				defer mu.Unlock()
				printLiveResult(out, r)
			}, live.Options{
				Window:         a.cfg.Search.DebounceWindow,
				MinQueryLength: a.cfg.Search.MinQueryLength,
				DisplayCap:     a.cfg.Search.DisplayCap,
			})
			defer session.Close()

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := scanner.Text()
				switch {
				case strings.HasPrefix(line, "state:"):
					session.SetState(strings.TrimPrefix(line, "state:"))
				case strings.HasPrefix(line, "zip:"):
					session.SetPostalCode(strings.TrimPrefix(line, "zip:"))
				default:
					session.SetNameQuery(line)
				}
			}
			if err := scanner.Err(); err != nil {
				return err
			}

			// input ended; run what the user typed last
			session.Flush()
			return nil
		},
	}
}

func printLiveResult(w io.Writer, r live.Result) {
	if r.Err != nil {
		fmt.Fprintf(w, "search failed: %v\n", r.Err)
		return
	}

	label := r.Criteria.NameQuery
	if label == "" {
		label = "*"
	}
	fmt.Fprintf(w, "> %s", label)
	if r.Criteria.State != "" {
		fmt.Fprintf(w, " state=%s", r.Criteria.State)
	}
	if r.Criteria.PostalCodePrefix != "" {
		fmt.Fprintf(w, " zip=%s", r.Criteria.PostalCodePrefix)
	}
	fmt.Fprintln(w)

	_ = printPage(w, search.Page{
		Schools:   r.Schools,
		Total:     r.Total,
		Displayed: len(r.Schools),
	})
}
