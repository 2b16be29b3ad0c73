package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/common"
	"github.com/dmitrijs2005/issuedesk/internal/server/models"
	"github.com/gin-gonic/gin"
)

// JSON field names follow the existing web client.

type userResponse struct {
	ID        string      `json:"_id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt *time.Time  `json:"createdAt,omitempty"`
}

type commentResponse struct {
	User      string    `json:"user,omitempty"`
	Author    string    `json:"author,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type issueResponse struct {
	ID          string             `json:"_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      models.IssueStatus `json:"status"`
	CreatedBy   string             `json:"createdBy,omitempty"`
	AssignedTo  *string            `json:"assignedTo"`
	Name        string             `json:"name,omitempty"`
	USN         string             `json:"usn,omitempty"`
	Branch      string             `json:"branch,omitempty"`
	Section     string             `json:"section,omitempty"`
	Email       string             `json:"email,omitempty"`
	Photo       string             `json:"photo,omitempty"`
	Date        string             `json:"date,omitempty"`
	Upvotes     []string           `json:"upvotes"`
	Comments    []commentResponse  `json:"comments"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func newIssueResponse(i *models.Issue) issueResponse {
	r := issueResponse{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		Status:      i.Status,
		CreatedBy:   i.CreatedBy,
		Name:        i.Reporter.Name,
		USN:         i.Reporter.USN,
		Branch:      i.Reporter.Branch,
		Section:     i.Reporter.Section,
		Email:       i.Reporter.Email,
		Photo:       i.Photo,
		Date:        i.Date,
		Upvotes:     i.Upvotes,
		Comments:    make([]commentResponse, 0, len(i.Comments)),
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
	if i.AssignedTo != "" {
		a := i.AssignedTo
		r.AssignedTo = &a
	}
	if r.Upvotes == nil {
		r.Upvotes = []string{}
	}
	for _, c := range i.Comments {
		r.Comments = append(r.Comments, commentResponse{User: c.UserID, Author: c.Author, Text: c.Text, CreatedAt: c.CreatedAt})
	}
	return r
}

func newIssueList(list []*models.Issue) []issueResponse {
	out := make([]issueResponse, 0, len(list))
	for _, i := range list {
		out = append(out, newIssueResponse(i))
	}
	return out
}

// issueError writes the {"error": ...} body for a failed issue operation.
func (s *HTTPServer) issueError(c *gin.Context, err error) {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
	case errors.Is(err, common.ErrorInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
	case errors.Is(err, common.ErrorForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to change this issue"})
	case errors.Is(err, common.ErrorStorageDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Photo storage is not configured"})
	default:
		s.serverError(c, "error", err)
	}
}

// serverError logs the cause and answers 500 without leaking it.
func (s *HTTPServer) serverError(c *gin.Context, key string, err error) {
	s.logger.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{key: "Server error"})
}
