package models

import (
	"slices"
	"time"
)

type IssueStatus string

const (
	StatusOpen       IssueStatus = "open"
	StatusInProgress IssueStatus = "in-progress"
	StatusResolved   IssueStatus = "resolved"
)

func (s IssueStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Comment.UserID is empty for comments written through the admin bypass.
type Comment struct {
	UserID    string
	Author    string
	Text      string
	CreatedAt time.Time
}

// Reporter is the contact data typed into the report form. It is kept as
// submitted and may differ from the account that created the issue.
type Reporter struct {
	Name    string
	USN     string
	Branch  string
	Section string
	Email   string
}

type Issue struct {
	ID          string
	Title       string
	Description string
	Status      IssueStatus
	CreatedBy   string
	AssignedTo  string
	Reporter    Reporter
	Photo       string
	Date        string
	Upvotes     []string
	Comments    []Comment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasUpvote reports whether email already upvoted the issue.
func (i *Issue) HasUpvote(email string) bool {
	return slices.Contains(i.Upvotes, email)
}
