package db

import (
	"context"
	"fmt"
	"log/slog"

	"roster-server-go/models"
	"roster-server-go/query"
	"roster-server-go/resource"
)

// SeedIfEmpty adds demo classes and students when no class is stored yet.
// It reports whether data was added.
func SeedIfEmpty(ctx context.Context, classes *resource.Manager[*models.ClassRecord], students *resource.Manager[*models.StudentRecord], logger *slog.Logger) (bool, error) {
	page, err := classes.FetchPage(ctx, nil, query.PageRequest{Page: 0, Size: 1})
	if err != nil {
		return false, fmt.Errorf("check existing classes: %w", err)
	}
	if page.Total > 0 {
		logger.Info("existing classes found, skipping seed data", "count", page.Total)
		return false, nil
	}

	logger.Info("no classes found, adding seed data")

	seedClasses := []*models.ClassRecord{
		{ClassID: models.Ptr(1), Name: models.Ptr("2024 Go Backend Class 1")},
		{ClassID: models.Ptr(2), Name: models.Ptr("2024 Python Data Science 2")},
	}
	for _, c := range seedClasses {
		if _, err := classes.Create(ctx, c); err != nil {
			return false, fmt.Errorf("seed class %s: %w", *c.Name, err)
		}
	}

	seedStudents := []*models.StudentRecord{
		{StudentID: models.Ptr(1001), Name: models.Ptr("Alice"), Age: models.Ptr(20), ClassName: seedClasses[0].Name, Address: models.Ptr("12 Harbour Road")},
		{StudentID: models.Ptr(1002), Name: models.Ptr("Bob"), Age: models.Ptr(21), ClassName: seedClasses[0].Name},
		{StudentID: models.Ptr(1003), Name: models.Ptr("Charlie"), Age: models.Ptr(20), ClassName: seedClasses[0].Name},
		{StudentID: models.Ptr(2001), Name: models.Ptr("David"), Age: models.Ptr(22), ClassName: seedClasses[1].Name},
		{StudentID: models.Ptr(2002), Name: models.Ptr("Eve"), Age: models.Ptr(19), ClassName: seedClasses[1].Name, Address: models.Ptr("4 Mill Lane")},
	}
	for _, s := range seedStudents {
		if _, err := students.Create(ctx, s); err != nil {
			return false, fmt.Errorf("seed student %s: %w", *s.Name, err)
		}
	}

	logger.Info("seed data added", "classes", len(seedClasses), "students", len(seedStudents))
	return true, nil
}
