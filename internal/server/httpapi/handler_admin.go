package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) pendingIssues(c *gin.Context) {
	list, err := s.issues.ListPending(c.Request.Context())
	if err != nil {
		s.issueError(c, err)
		return
	}
	c.JSON(http.StatusOK, newIssueList(list))
}

func (s *HTTPServer) resolveIssue(c *gin.Context) {
	issue, err := s.issues.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.issueError(c, err)
		return
	}
	s.logger.Info(c.Request.Context(), "issue resolved by admin", "issue_id", issue.ID, "by", principal(c).Email())
	c.JSON(http.StatusOK, newIssueResponse(issue))
}

func (s *HTTPServer) deleteIssue(c *gin.Context) {
	if err := s.issues.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.issueError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted"})
}

func (s *HTTPServer) listUsers(c *gin.Context) {
	all, err := s.users.ListUsers(c.Request.Context())
	if err != nil {
		s.serverError(c, "error", err)
		return
	}

	out := make([]userResponse, 0, len(all))
	for _, u := range all {
		created := u.CreatedAt
		out = append(out, userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: &created})
	}
	c.JSON(http.StatusOK, out)
}
