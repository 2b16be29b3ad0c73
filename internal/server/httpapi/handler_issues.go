package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/issuedesk/internal/common"
	"github.com/dmitrijs2005/issuedesk/internal/server/models"
	"github.com/dmitrijs2005/issuedesk/internal/server/services"
	"github.com/gin-gonic/gin"
)

// createIssueRequest mirrors the report form. The description arrives as
// "issue"; "description" is accepted too.
type createIssueRequest struct {
	Title       string `json:"title"`
	Issue       string `json:"issue"`
	Description string `json:"description"`
	Name        string `json:"name"`
	USN         string `json:"usn"`
	Branch      string `json:"branch"`
	Section     string `json:"section"`
	Email       string `json:"email"`
	Photo       string `json:"photo"`
	Date        string `json:"date"`
}

type updateIssueRequest struct {
	Status     *string `json:"status"`
	AssignedTo *string `json:"assignedTo"`
}

type commentRequest struct {
	Text string `json:"text"`
}

var errBadBody = common.Invalid("Invalid request body")

func (s *HTTPServer) createIssue(c *gin.Context) {
	var req createIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.issueError(c, errBadBody)
		return
	}

	description := req.Issue
	if description == "" {
		description = req.Description
	}

	issue, err := s.issues.Create(c.Request.Context(), principal(c), services.CreateIssueInput{
		Title:       req.Title,
		Description: description,
		Reporter: models.Reporter{
			Name:    req.Name,
			USN:     req.USN,
			Branch:  req.Branch,
			Section: req.Section,
			Email:   req.Email,
		},
		Photo: req.Photo,
		Date:  req.Date,
	})
	if err != nil {
		s.issueError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newIssueResponse(issue))
}

func (s *HTTPServer) listIssues(c *gin.Context) {
	mine, _ := strconv.ParseBool(c.Query("mine"))
	list, err := s.issues.List(c.Request.Context(), principal(c), services.ListIssuesInput{
		Status: c.Query("status"),
		Mine:   mine,
	})
	if err != nil {
		s.issueError(c, err)
		return
	}
	c.JSON(http.StatusOK, newIssueList(list))
}

func (s *HTTPServer) getIssue(c *gin.Context) {
	issue, err := s.issues.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.issueError(c, err)
		return
	}
	c.JSON(http.StatusOK, newIssueResponse(issue))
}

func (s *HTTPServer) updateIssue(c *gin.Context) {
	var req updateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.issueError(c, errBadBody)
		return
	}

	issue, err := s.issues.Update(c.Request.Context(), principal(c), c.Param("id"), services.UpdateIssueInput{
		Status:     req.Status,
		AssignedTo: req.AssignedTo,
	})
	if err != nil {
		s.issueError(c, err)
		return
	}
	c.JSON(http.StatusOK, newIssueResponse(issue))
}

func (s *HTTPServer) addComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.issueError(c, errBadBody)
		return
	}

	issue, err := s.issues.AddComment(c.Request.Context(), principal(c), c.Param("id"), req.Text)
	if err != nil {
		s.issueError(c, err)
		return
	}
	c.JSON(http.StatusOK, newIssueResponse(issue))
}

func (s *HTTPServer) toggleUpvote(c *gin.Context) {
	issue, err := s.issues.ToggleUpvote(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		s.issueError(c, err)
		return
	}
	c.JSON(http.StatusOK, newIssueResponse(issue))
}

func (s *HTTPServer) photoUploadURL(c *gin.Context) {
	key, url, err := s.issues.PhotoUploadURL(c.Request.Context())
	if err != nil {
		s.issueError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "url": url})
}
