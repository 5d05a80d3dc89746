package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/facultyreview/internal/common"
	"github.com/dmitrijs2005/facultyreview/internal/server/models"
	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/faculties"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rating(v float64) *float64 { return &v }

func newFacultyService(t *testing.T, fs ...models.Faculty) (*FacultyService, *fakeManager) {
	t.Helper()
	m := newFakeManager()
	m.faculties.put(fs...)
	svc := NewFacultyService(m, testLogger())
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	return svc, m
}

func reviewsWith(ratings ...int) []models.Review {
	out := make([]models.Review, 0, len(ratings))
	for i, r := range ratings {
		out = append(out, models.Review{ID: "r" + string(rune('a'+i)), Rating: r, UserID: "user-" + string(rune('a'+i))})
	}
	return out
}

func TestReviewInput_Rating(t *testing.T) {
	for _, v := range []float64{0, 6, 4.5, -1} {
		_, err := ReviewInput{Rating: rating(v)}.rating()
		require.ErrorIs(t, err, common.ErrorValidation, v)
		require.ErrorIs(t, err, ErrInvalidRating, v)
	}

	_, err := ReviewInput{}.rating()
	require.ErrorIs(t, err, common.ErrorValidation)

	for _, v := range []float64{1, 3, 5} {
		r, err := ReviewInput{Rating: rating(v)}.rating()
		require.NoError(t, err)
		assert.Equal(t, int(v), r)
	}
}

func TestFacultyService_List(t *testing.T) {
	svc, _ := newFacultyService(t,
		models.Faculty{ID: "f1", Name: "Dr. Ali Raza", Department: "Computer Science", Reviews: reviewsWith(5, 5, 4)},
		models.Faculty{ID: "f2", Name: "Dr. Sana Khan", Department: "Mathematics"},
	)
	ctx := context.Background()

	all, err := svc.List(ctx, faculties.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	first := all[0]
	assert.Equal(t, 3, first.TotalReviews)
	assert.Equal(t, 14, first.TotalStars)
	assert.Equal(t, "4.7", first.Rating)
	if diff := cmp.Diff(map[int]int{1: 0, 2: 0, 3: 0, 4: 1, 5: 2}, first.RatingDistribution); diff != "" {
		t.Errorf("distribution mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "0.0", all[1].Rating)
	assert.NotNil(t, all[1].Reviews)

	got, err := svc.List(ctx, faculties.Filter{Department: "math"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "f2", got[0].ID)

	none, err := svc.List(ctx, faculties.Filter{Name: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestFacultyService_TopThree(t *testing.T) {
	svc, _ := newFacultyService(t,
		models.Faculty{ID: "f1", Name: "Zed", Reviews: reviewsWith(5)},
		models.Faculty{ID: "f2", Name: "Bea", Reviews: reviewsWith(3, 3)},
		models.Faculty{ID: "f3", Name: "Amy", Reviews: reviewsWith(4, 4)},
		models.Faculty{ID: "f4", Name: "Cal", Reviews: reviewsWith(1, 1, 1)},
		models.Faculty{ID: "f5", Name: "Dan", Reviews: reviewsWith(5, 5)},
	)

	top, err := svc.TopThree(context.Background())
	require.NoError(t, err)

	var ids []string
	for _, v := range top {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{"f4", "f5", "f3"}, ids)
}

func TestFacultyService_TopThree_Ties(t *testing.T) {
	svc, _ := newFacultyService(t,
		models.Faculty{ID: "f1", Name: "Bea", Reviews: reviewsWith(4)},
		models.Faculty{ID: "f2", Name: "Amy", Reviews: reviewsWith(4)},
	)

	top, err := svc.TopThree(context.Background())
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Amy", top[0].Name)
	assert.Equal(t, "Bea", top[1].Name)
}

func TestFacultyService_AddReview(t *testing.T) {
	svc, m := newFacultyService(t, models.Faculty{ID: "f1", Name: "Dr. Ali"})
	ctx := context.Background()

	r, err := svc.AddReview(ctx, "f1", "u1", ReviewInput{User: " Ayesha ", Rating: rating(5), Comment: "great"})
	require.NoError(t, err)

	want := &models.Review{
		ID:        "id-1",
		User:      "Ayesha",
		Date:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Rating:    5,
		Comment:   "great",
		UserImage: common.DefaultReviewerImage,
		UserID:    "u1",
	}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("review mismatch (-want +got):\n%s", diff)
	}

	stored := m.faculties.byID["f1"]
	require.Len(t, stored.Reviews, 1)
	assert.Equal(t, int64(1), stored.Version)

	_, err = svc.AddReview(ctx, "f1", "u1", ReviewInput{Rating: rating(0)})
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = svc.AddReview(ctx, "missing", "u1", ReviewInput{Rating: rating(3)})
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFacultyService_UpdateReview(t *testing.T) {
	svc, m := newFacultyService(t, models.Faculty{ID: "f1", Reviews: []models.Review{
		{ID: "r1", UserID: "u1", Rating: 2, Comment: "meh", UserImage: "img"},
		{ID: "r2", UserID: "u2", Rating: 4},
		{ID: "r3", UserID: "u1", Rating: 1},
	}})
	ctx := context.Background()

	r, err := svc.UpdateReview(ctx, "f1", "u1", ReviewInput{User: "Ayesha", Rating: rating(4), Comment: "better"})
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)
	assert.Equal(t, 4, r.Rating)
	assert.Equal(t, common.DefaultReviewerImage, r.UserImage)

	stored := m.faculties.byID["f1"].Reviews
	assert.Equal(t, "better", stored[0].Comment)
	assert.Equal(t, 1, stored[2].Rating)

	_, err = svc.UpdateReview(ctx, "f1", "u9", ReviewInput{Rating: rating(4)})
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = svc.UpdateReview(ctx, "f1", "u1", ReviewInput{Rating: rating(6)})
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestFacultyService_DeleteReview(t *testing.T) {
	svc, m := newFacultyService(t, models.Faculty{ID: "f1", Reviews: reviewsWith(5, 4, 3)})
	ctx := context.Background()

	err := svc.DeleteReview(ctx, "f1", "unknown")
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.Len(t, m.faculties.byID["f1"].Reviews, 3)

	require.NoError(t, svc.DeleteReview(ctx, "f1", "rb"))
	left := m.faculties.byID["f1"].Reviews
	require.Len(t, left, 2)
	assert.Equal(t, "ra", left[0].ID)
	assert.Equal(t, "rc", left[1].ID)

	err = svc.DeleteReview(ctx, "nope", "ra")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFacultyService_MutateRetries(t *testing.T) {
	ctx := context.Background()

	t.Run("recovers from a lost race", func(t *testing.T) {
		svc, m := newFacultyService(t, models.Faculty{ID: "f1"})
		m.faculties.conflicts = 2

		_, err := svc.AddReview(ctx, "f1", "u1", ReviewInput{Rating: rating(3)})
		require.NoError(t, err)
		assert.Equal(t, 3, m.faculties.updates)
		assert.Len(t, m.faculties.byID["f1"].Reviews, 1)
	})

	t.Run("gives up", func(t *testing.T) {
		svc, m := newFacultyService(t, models.Faculty{ID: "f1"})
		m.faculties.conflicts = 10

		_, err := svc.AddReview(ctx, "f1", "u1", ReviewInput{Rating: rating(3)})
		require.ErrorIs(t, err, common.ErrorConflict)
		assert.Equal(t, maxMutateAttempts, m.faculties.updates)
	})

	t.Run("storage failure", func(t *testing.T) {
		svc, m := newFacultyService(t, models.Faculty{ID: "f1"})
		m.faculties.updateErr = errors.New("db down")

		_, err := svc.AddReview(ctx, "f1", "u1", ReviewInput{Rating: rating(3)})
		require.ErrorIs(t, err, common.ErrorInternal)
	})
}

func TestFacultyService_Seed(t *testing.T) {
	ctx := context.Background()
	svc, m := newFacultyService(t)

	n, err := svc.Seed(ctx, []models.Faculty{
		{Name: "A", Reviews: []models.Review{{Rating: 5}}},
		{Name: "B"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, m.faculties.order, 2)
	assert.NotEmpty(t, m.faculties.byID[m.faculties.order[0]].Reviews[0].ID)

	n, err = svc.Seed(ctx, []models.Faculty{{Name: "C"}})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, m.faculties.order, 2)
}
