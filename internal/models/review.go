package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Review target kinds
const (
	TargetPackage    = "package"
	TargetAttraction = "attraction"
)

// Review represents a row of the reviews table
type Review struct {
	ID         uuid.UUID      `db:"id" json:"_id"`
	UserID     uuid.UUID      `db:"user_id" json:"user_id"`
	Rating     int            `db:"rating" json:"rating"`
	Comment    string         `db:"comment" json:"comment"`
	Photos     pq.StringArray `db:"photos" json:"photos"`
	TargetType string         `db:"target_type" json:"-"`
	TargetID   uuid.UUID      `db:"target_id" json:"-"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updatedAt"`
}

// ReviewTarget is the API shape of the reviewed entity
type ReviewTarget struct {
	Type string    `json:"type"`
	ID   uuid.UUID `json:"id"`
}

// Target returns the reviewed entity
func (r Review) Target() ReviewTarget {
	return ReviewTarget{Type: r.TargetType, ID: r.TargetID}
}

// ReviewView is the response shape of a review
type ReviewView struct {
	Review
	Target ReviewTarget `json:"target"`
}

// View wraps the review with its nested target for responses
func (r Review) View() ReviewView {
	return ReviewView{Review: r, Target: r.Target()}
}

// ReviewTargetInput is the request shape of a review target
type ReviewTargetInput struct {
	Type *string `json:"type"`
	ID   *string `json:"id"`
}

// ReviewInput is used for both create and partial update
type ReviewInput struct {
	TypeProblems

	UserID  *string            `json:"user_id"`
	Rating  *int               `json:"rating"`
	Comment *string            `json:"comment"`
	Photos  []string           `json:"photos"`
	Target  *ReviewTargetInput `json:"target"`
}

// ReviewFilter narrows review listings
type ReviewFilter struct {
	TargetType string
	TargetID   *uuid.UUID
	UserID     *uuid.UUID
	Offset     int
	Limit      int
}

// RatingStats summarises the reviews of one target
type RatingStats struct {
	AverageRating float64     `json:"averageRating"`
	TotalReviews  int         `json:"totalReviews"`
	Distribution  map[int]int `json:"ratingDistribution"`
}
