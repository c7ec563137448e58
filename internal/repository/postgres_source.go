package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/schoolfinder/internal/database"
	"github.com/stwalsh4118/schoolfinder/internal/models"
)

// SchoolsTable is the table read by the postgres source.
const SchoolsTable = "schools"

// schoolColumns lists the table columns in scan order.
var schoolColumns = []string{
	"id", "name", "slug", "alternate_name", "description",
	"street", "city", "state", "postal_code", "county",
	"telephone", "website", "grade_range", "total_enrollment",
	"rating_value", "rating_count", "image",
}

// CreateSchoolsTableSQL creates the schools table when it does not exist.
const CreateSchoolsTableSQL = `
	CREATE TABLE IF NOT EXISTS schools (
		position          BIGSERIAL PRIMARY KEY,
		id                TEXT NOT NULL,
		name              TEXT NOT NULL,
		slug              TEXT NOT NULL DEFAULT '',
		alternate_name    TEXT,
		description       TEXT,
		street            TEXT NOT NULL DEFAULT '',
		city              TEXT NOT NULL DEFAULT '',
		state             TEXT NOT NULL DEFAULT '',
		postal_code       TEXT NOT NULL DEFAULT '',
		county            TEXT NOT NULL DEFAULT '',
		telephone         TEXT,
		website           TEXT,
		grade_range       TEXT NOT NULL DEFAULT '',
		total_enrollment  INTEGER,
		rating_value      DOUBLE PRECISION,
		rating_count      INTEGER,
		image             TEXT
	)
`

// postgresSource reads the dataset from the schools table.
type postgresSource struct {
	db *database.Database
}

// NewPostgresSource creates a SchoolSource backed by PostgreSQL.
func NewPostgresSource(db *database.Database) SchoolSource {
	return &postgresSource{db: db}
}

// Fetch reads every row of the schools table in insertion order.
func (s *postgresSource) Fetch(ctx context.Context) (*Dataset, error) {
	query := `
		SELECT
			id, name, slug, alternate_name, description,
			street, city, state, postal_code, county,
			telephone, website, grade_range, total_enrollment,
			rating_value, rating_count, image
		FROM schools
		ORDER BY position
	`

	rows, err := s.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query schools: %w", err)
	}
	defer rows.Close()

	schools := make([]models.School, 0)
	for rows.Next() {
		var school models.School
		var ratingValue *float64
		var ratingCount *int

		err := rows.Scan(
			&school.ID,
			&school.Name,
			&school.Slug,
			&school.AlternateName,
			&school.Description,
			&school.Address.Street,
			&school.Address.City,
			&school.Address.State,
			&school.Address.PostalCode,
			&school.Address.County,
			&school.Telephone,
			&school.Website,
			&school.GradeRange,
			&school.TotalEnrollment,
			&ratingValue,
			&ratingCount,
			&school.Image,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan school row: %w", err)
		}

		if ratingValue != nil {
			school.Rating = &models.Rating{Value: *ratingValue, Count: ratingCount}
		}

		schools = append(schools, school)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating school rows: %w", err)
	}

	return &Dataset{Schools: schools, Origin: "postgres:" + SchoolsTable}, nil
}

// SeedSchools replaces the contents of the schools table with schools,
// preserving their order. It runs in a single transaction.
func SeedSchools(ctx context.Context, db *database.Database, schools []models.School) (int64, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, CreateSchoolsTableSQL); err != nil {
		return 0, fmt.Errorf("failed to create schools table: %w", err)
	}
	if _, err := tx.Exec(ctx, "TRUNCATE schools RESTART IDENTITY"); err != nil {
		return 0, fmt.Errorf("failed to truncate schools table: %w", err)
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{SchoolsTable}, schoolColumns, pgx.CopyFromSlice(len(schools), func(i int) ([]any, error) {
		return schoolRow(&schools[i]), nil
	}))
	if err != nil {
		return 0, fmt.Errorf("failed to copy schools: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	return copied, nil
}

// schoolRow flattens a school into column values matching schoolColumns.
func schoolRow(s *models.School) []any {
	var ratingValue *float64
	var ratingCount *int
	if s.Rating != nil {
		v := s.Rating.Value
		ratingValue = &v
		ratingCount = s.Rating.Count
	}

	return []any{
		s.ID.String(), s.Name, s.Slug, s.AlternateName, s.Description,
		s.Address.Street, s.Address.City, s.Address.State, s.Address.PostalCode, s.Address.County,
		s.Telephone, s.Website, s.GradeRange, s.TotalEnrollment,
		ratingValue, ratingCount, s.Image,
	}
}
