package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/facultyreview/internal/common"
	"github.com/dmitrijs2005/facultyreview/internal/logging"
	"github.com/dmitrijs2005/facultyreview/internal/server/models"
	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/faculties"
	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/repomanager"
)

// maxMutateAttempts bounds re-application of a mutation after losing a
// version race.
const maxMutateAttempts = 3

var (
	// ErrInvalidRating is wrapped into common.ErrorValidation for out of range
	// or fractional ratings.
	ErrInvalidRating = errors.New("rating must be a number between 1 and 5")

	ErrFacultyNotFound = fmt.Errorf("faculty %w", common.ErrorNotFound)
	ErrReviewNotFound  = fmt.Errorf("review %w", common.ErrorNotFound)
)

// ReviewInput carries the client-editable review fields. Rating is a pointer
// so a missing value can be told apart from zero.
type ReviewInput struct {
	User      string
	Rating    *float64
	Comment   string
	UserImage string
}

func (in ReviewInput) rating() (int, error) {
	if in.Rating == nil {
		return 0, fmt.Errorf("%w: %w", common.ErrorValidation, ErrInvalidRating)
	}
	r := *in.Rating
	if math.IsNaN(r) || r != math.Trunc(r) || r < common.MinRating || r > common.MaxRating {
		return 0, fmt.Errorf("%w: %w", common.ErrorValidation, ErrInvalidRating)
	}
	return int(r), nil
}

func (in ReviewInput) image() string {
	if strings.TrimSpace(in.UserImage) == "" {
		return common.DefaultReviewerImage
	}
	return in.UserImage
}

type FacultyService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	now         func() time.Time
}

func NewFacultyService(m repomanager.RepositoryManager, logger logging.Logger) *FacultyService {
	return &FacultyService{
		repomanager: m,
		logger:      logger.With("module", "faculty"),
		now:         time.Now,
	}
}

// List returns the faculties matching filter with their review statistics.
func (s *FacultyService) List(ctx context.Context, filter faculties.Filter) ([]models.FacultyView, error) {
	list, err := s.repomanager.Faculties().Find(ctx, filter)
	if err != nil {
		s.logger.Error(ctx, "faculty lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	views := make([]models.FacultyView, 0, len(list))
	for _, f := range list {
		views = append(views, models.NewFacultyView(f))
	}
	return views, nil
}

// TopThree returns the three most reviewed faculties. Ties are broken by
// average rating, then by name.
func (s *FacultyService) TopThree(ctx context.Context) ([]models.FacultyView, error) {
	views, err := s.List(ctx, faculties.Filter{})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if a.TotalReviews != b.TotalReviews {
			return a.TotalReviews > b.TotalReviews
		}
		if a.Average() != b.Average() {
			return a.Average() > b.Average()
		}
		return a.Name < b.Name
	})

	if len(views) > 3 {
		views = views[:3]
	}
	return views, nil
}

func (s *FacultyService) AddReview(ctx context.Context, facultyID, userID string, in ReviewInput) (*models.Review, error) {
	rating, err := in.rating()
	if err != nil {
		return nil, err
	}

	review := models.Review{
		ID:        s.repomanager.NewID(),
		User:      strings.TrimSpace(in.User),
		Rating:    rating,
		Comment:   in.Comment,
		UserImage: in.image(),
		UserID:    userID,
	}

	err = s.mutate(ctx, facultyID, func(f *models.Faculty) error {
		review.Date = s.now().UTC()
		f.Reviews = append(f.Reviews, review)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "review added", "faculty_id", facultyID, "review_id", review.ID)
	return &review, nil
}

// UpdateReview rewrites the caller's first review on the faculty.
func (s *FacultyService) UpdateReview(ctx context.Context, facultyID, userID string, in ReviewInput) (*models.Review, error) {
	rating, err := in.rating()
	if err != nil {
		return nil, err
	}

	var updated models.Review
	err = s.mutate(ctx, facultyID, func(f *models.Faculty) error {
		i := f.ReviewIndexByUser(userID)
		if i < 0 {
			return ErrReviewNotFound
		}
		r := &f.Reviews[i]
		r.User = strings.TrimSpace(in.User)
		r.Rating = rating
		r.Comment = in.Comment
		r.UserImage = in.image()
		r.Date = s.now().UTC()
		updated = *r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "review updated", "faculty_id", facultyID, "review_id", updated.ID)
	return &updated, nil
}

func (s *FacultyService) DeleteReview(ctx context.Context, facultyID, reviewID string) error {
	err := s.mutate(ctx, facultyID, func(f *models.Faculty) error {
		i := f.ReviewIndex(reviewID)
		if i < 0 {
			return ErrReviewNotFound
		}
		f.Reviews = append(f.Reviews[:i], f.Reviews[i+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "review deleted", "faculty_id", facultyID, "review_id", reviewID)
	return nil
}

// Seed inserts the given faculties when the store is empty. It returns the
// number of inserted documents.
func (s *FacultyService) Seed(ctx context.Context, list []models.Faculty) (int, error) {
	n, err := s.repomanager.Faculties().Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count faculties: %w", err)
	}
	if n > 0 {
		s.logger.Info(ctx, "faculty store not empty, skipping seed", "count", n)
		return 0, nil
	}

	for i := range list {
		f := list[i]
		for j := range f.Reviews {
			if f.Reviews[j].ID == "" {
				f.Reviews[j].ID = s.repomanager.NewID()
			}
		}
		if err := s.repomanager.Faculties().Insert(ctx, &f); err != nil {
			return i, fmt.Errorf("insert faculty %q: %w", f.Name, err)
		}
	}

	s.logger.Info(ctx, "faculties seeded", "count", len(list))
	return len(list), nil
}

// mutate loads the faculty, applies fn and writes the reviews back under the
// version check. A lost race reloads and re-applies fn.
func (s *FacultyService) mutate(ctx context.Context, facultyID string, fn func(f *models.Faculty) error) error {
	repo := s.repomanager.Faculties()

	for attempt := 1; attempt <= maxMutateAttempts; attempt++ {
		f, err := repo.GetByID(ctx, facultyID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return ErrFacultyNotFound
			}
			s.logger.Error(ctx, "faculty lookup failed", "faculty_id", facultyID, "error", err)
			return common.ErrorInternal
		}

		if err := fn(f); err != nil {
			return err
		}

		err = repo.UpdateReviews(ctx, f)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, common.ErrVersionConflict):
			s.logger.Debug(ctx, "faculty version conflict, retrying", "faculty_id", facultyID, "attempt", attempt)
			continue
		default:
			s.logger.Error(ctx, "faculty update failed", "faculty_id", facultyID, "error", err)
			return common.ErrorInternal
		}
	}

	return fmt.Errorf("%w: faculty was modified concurrently", common.ErrorConflict)
}
