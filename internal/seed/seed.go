// Package seed loads the sample students used for local development and
// demos.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aanand-mishra/enrollment-api/internal/storage"
	"github.com/aanand-mishra/enrollment-api/internal/types"
	"github.com/aanand-mishra/enrollment-api/internal/validate"
)

// Samples are inserted in this order.
var Samples = []types.Student{
	{
		Name:   "Alice Johnson",
		Email:  "alice@example.com",
		Phone:  "0712345671",
		Course: types.CourseComputerScience,
		Status: types.StatusActive,
	},
	{
		Name:   "Bob Smith",
		Email:  "bob@example.com",
		Phone:  "0712345672",
		Course: types.CourseSoftwareEngineering,
		Status: types.StatusPending,
	},
	{
		Name:   "Charlie Brown",
		Email:  "charlie@example.com",
		Phone:  "0712345673",
		Course: types.CourseInformationTechnology,
		Status: types.StatusGraduated,
	},
}

// Result counts what Run did.
type Result struct {
	Removed  int
	Inserted int
	Skipped  int
}

// Run inserts Samples into store. With reset, every existing student is
// deleted first. A sample whose email is already taken is skipped, so
// running twice without reset is harmless.
func Run(ctx context.Context, store storage.Storage, reset bool) (Result, error) {
	var res Result

	if reset {
		existing, err := store.GetStudents(ctx)
		if err != nil {
			return res, fmt.Errorf("seed.Run: list students: %w", err)
		}
		for _, s := range existing {
			err := store.DeleteStudentByID(ctx, s.ID)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return res, fmt.Errorf("seed.Run: delete %s: %w", s.ID, err)
			}
			res.Removed++
		}
		slog.Info("existing students cleared", slog.Int("count", res.Removed))
	}

	for _, sample := range Samples {
		s, err := validate.Student(sample)
		if err != nil {
			return res, fmt.Errorf("seed.Run: sample %s: %w", sample.Email, err)
		}

		created, err := store.CreateStudent(ctx, s)
		if errors.Is(err, storage.ErrDuplicateEmail) {
			slog.Info("sample already present, skipping", slog.String("email", s.Email))
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("seed.Run: insert %s: %w", s.Email, err)
		}

		slog.Info("sample student inserted", slog.String("id", created.ID), slog.String("email", created.Email))
		res.Inserted++
	}

	return res, nil
}
