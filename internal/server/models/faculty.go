package models

import (
	"fmt"
	"time"
)

type Review struct {
	ID        string    `json:"_id"`
	User      string    `json:"user"`
	Date      time.Time `json:"date"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	UserImage string    `json:"userImage"`
	Likes     int       `json:"likes"`
	Replies   int       `json:"replies"`
	UserID    string    `json:"userId,omitempty"`
}

// Faculty is the aggregate root; reviews are only ever written by rewriting
// the whole document. Version is bumped on every write.
type Faculty struct {
	ID           string   `json:"_id"`
	Name         string   `json:"name"`
	ProfileImage string   `json:"profileImage"`
	ProfileLink  string   `json:"profileLink"`
	Department   string   `json:"department"`
	Designation  string   `json:"designation"`
	HECApproved  bool     `json:"hecApproved"`
	Interest     string   `json:"interest"`
	Reviews      []Review `json:"reviews"`
	Version      int64    `json:"-"`
}

// FacultyView is the read model returned to clients.
type FacultyView struct {
	Faculty
	TotalReviews       int         `json:"totalReviews"`
	TotalStars         int         `json:"totalStars"`
	Rating             string      `json:"rating"`
	RatingDistribution map[int]int `json:"ratingDistribution"`
}

// Average returns the mean rating, 0 when there are no reviews.
func (v FacultyView) Average() float64 {
	if v.TotalReviews == 0 {
		return 0
	}
	return float64(v.TotalStars) / float64(v.TotalReviews)
}

// NewFacultyView derives the review statistics for f. Ratings outside 1..5
// count towards the totals but not towards the distribution.
func NewFacultyView(f Faculty) FacultyView {
	v := FacultyView{
		Faculty:            f,
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}
	if v.Reviews == nil {
		v.Reviews = []Review{}
	}

	for _, r := range f.Reviews {
		v.TotalStars += r.Rating
		if _, ok := v.RatingDistribution[r.Rating]; ok {
			v.RatingDistribution[r.Rating]++
		}
	}
	v.TotalReviews = len(f.Reviews)
	v.Rating = fmt.Sprintf("%.1f", v.Average())

	return v
}

// ReviewIndexByUser returns the index of the first review written by userID,
// or -1.
func (f *Faculty) ReviewIndexByUser(userID string) int {
	for i, r := range f.Reviews {
		if r.UserID != "" && r.UserID == userID {
			return i
		}
	}
	return -1
}

// ReviewIndex returns the index of the review with the given id, or -1.
func (f *Faculty) ReviewIndex(reviewID string) int {
	for i, r := range f.Reviews {
		if r.ID == reviewID {
			return i
		}
	}
	return -1
}
