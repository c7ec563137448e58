package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/schoolfinder/internal/models"
	"github.com/stwalsh4118/schoolfinder/internal/services"
)

func newShowCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id|slug>",
		Short: "Show the details of one school",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.loadService(cmd.Context())
			if err != nil {
				return err
			}

			school, err := svc.GetSchool(cmd.Context(), models.SchoolID(args[0]))
			if errors.Is(err, services.ErrSchoolNotFound) {
				school, err = svc.GetSchoolBySlug(cmd.Context(), args[0])
			}
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), school)
			}
			printSchool(cmd.OutOrStdout(), school)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func printSchool(w io.Writer, s *models.School) {
	fmt.Fprintln(w, s.Name)
	if s.AlternateName != nil {
		fmt.Fprintf(w, "  Also known as: %s\n", *s.AlternateName)
	}
	if s.Address.Street != "" {
		fmt.Fprintf(w, "  Address:  %s\n", s.Address.Street)
	}
	if loc := s.Address.Location(); loc != "" {
		fmt.Fprintf(w, "            %s %s\n", loc, s.Address.PostalCode)
	}
	if s.Address.County != "" {
		fmt.Fprintf(w, "  County:   %s\n", s.Address.County)
	}
	if s.GradeRange != "" {
		fmt.Fprintf(w, "  Grades:   %s\n", s.GradeRange)
	}
	if s.TotalEnrollment != nil {
		fmt.Fprintf(w, "  Students: %d\n", *s.TotalEnrollment)
	}
	if s.Rating != nil {
		if s.Rating.Count != nil {
			fmt.Fprintf(w, "  Rating:   %.1f (%d reviews)\n", s.Rating.Value, *s.Rating.Count)
		} else {
			fmt.Fprintf(w, "  Rating:   %.1f\n", s.Rating.Value)
		}
	}
	if s.Telephone != nil {
		fmt.Fprintf(w, "  Phone:    %s\n", *s.Telephone)
	}
	if s.Website != nil {
		fmt.Fprintf(w, "  Website:  %s\n", *s.Website)
	}
	if s.Description != nil {
		fmt.Fprintf(w, "\n%s\n", *s.Description)
	}
}
