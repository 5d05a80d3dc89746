package client

import "time"

type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

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

// Faculty is the server's faculty view, statistics included.
type Faculty struct {
	ID                 string         `json:"_id"`
	Name               string         `json:"name"`
	Department         string         `json:"department"`
	Designation        string         `json:"designation"`
	ProfileLink        string         `json:"profileLink"`
	HECApproved        bool           `json:"hecApproved"`
	Interest           string         `json:"interest"`
	Reviews            []Review       `json:"reviews"`
	TotalReviews       int            `json:"totalReviews"`
	TotalStars         int            `json:"totalStars"`
	Rating             string         `json:"rating"`
	RatingDistribution map[string]int `json:"ratingDistribution"`
}

type Filter struct {
	ID         string
	Name       string
	Department string
}

type ReviewInput struct {
	User      string `json:"user"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	UserImage string `json:"userImage,omitempty"`
}

type Upload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
