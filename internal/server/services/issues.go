package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/common"
	"github.com/dmitrijs2005/issuedesk/internal/logging"
	"github.com/dmitrijs2005/issuedesk/internal/server/auth"
	"github.com/dmitrijs2005/issuedesk/internal/server/mailer"
	"github.com/dmitrijs2005/issuedesk/internal/server/metrics"
	"github.com/dmitrijs2005/issuedesk/internal/server/models"
	"github.com/dmitrijs2005/issuedesk/internal/server/repositories/issues"
)

type CreateIssueInput struct {
	Title       string
	Description string
	Reporter    models.Reporter
	Photo       string
	Date        string
}

type ListIssuesInput struct {
	Status string
	Mine   bool
}

// UpdateIssueInput holds the PATCH fields; nil leaves a field unchanged.
type UpdateIssueInput struct {
	Status     *string
	AssignedTo *string
}

type IssueService struct {
	issues  issues.Repository
	mail    MailerFactory
	photos  PhotoPresigner
	log     logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewIssueService wires the issue operations. photos may be nil, which
// turns photo uploads off.
func NewIssueService(repo issues.Repository, mail MailerFactory, photos PhotoPresigner,
	log logging.Logger, m *metrics.Metrics) *IssueService {
	if log == nil {
		log = logging.Nop{}
	}
	return &IssueService{issues: repo, mail: mail, photos: photos, log: log, metrics: m, now: time.Now}
}

// storeErr passes the repository sentinels through and classifies
// everything else as internal.
func storeErr(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorInvalidID) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", common.ErrorInternal, op, err)
}

func parseStatus(s string) (models.IssueStatus, error) {
	st := models.IssueStatus(s)
	if !st.Valid() {
		return "", common.Invalid("Invalid status")
	}
	return st, nil
}

func (s *IssueService) Create(ctx context.Context, p auth.Principal, in CreateIssueInput) (*models.Issue, error) {
	if blank(in.Title, in.Description) {
		return nil, common.Invalid("Title and description are required")
	}

	createdBy, _ := p.UserID()
	issue, err := s.issues.Create(ctx, &models.Issue{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Status:      models.StatusOpen,
		CreatedBy:   createdBy,
		Reporter:    in.Reporter,
		Photo:       in.Photo,
		Date:        in.Date,
	})
	if err != nil {
		return nil, storeErr("create issue", err)
	}

	s.metrics.IssueCreated()
	s.log.Info(ctx, "issue created", "issue_id", issue.ID, "created_by", createdBy)
	return issue, nil
}

// List returns issues newest first. Any authenticated principal may browse;
// Mine narrows the result to the principal's own reports.
func (s *IssueService) List(ctx context.Context, p auth.Principal, in ListIssuesInput) ([]*models.Issue, error) {
	var f issues.Filter
	if in.Status != "" {
		st, err := parseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		f.Status = st
	}
	if in.Mine {
		id, ok := p.UserID()
		if !ok {
			return []*models.Issue{}, nil
		}
		f.CreatedBy = id
	}

	list, err := s.issues.List(ctx, f)
	if err != nil {
		return nil, storeErr("list issues", err)
	}
	return list, nil
}

func (s *IssueService) Get(ctx context.Context, id string) (*models.Issue, error) {
	issue, err := s.issues.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("get issue", err)
	}
	return issue, nil
}

// Update lets the reporter or an admin change the status. Assignment is
// admin only.
func (s *IssueService) Update(ctx context.Context, p auth.Principal, id string, in UpdateIssueInput) (*models.Issue, error) {
	if in.Status == nil && in.AssignedTo == nil {
		return nil, common.Invalid("Nothing to update")
	}

	var patch issues.Patch
	if in.Status != nil {
		st, err := parseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		patch.Status = &st
	}
	patch.AssignedTo = in.AssignedTo

	current, err := s.issues.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("get issue", err)
	}

	admin := auth.RequireAdmin(p)
	uid, ok := p.UserID()
	owner := ok && uid == current.CreatedBy
	if patch.AssignedTo != nil && !admin {
		return nil, common.ErrorForbidden
	}
	if patch.Status != nil && !admin && !owner {
		return nil, common.ErrorForbidden
	}

	issue, err := s.issues.Update(ctx, id, patch)
	if err != nil {
		return nil, storeErr("update issue", err)
	}
	return issue, nil
}

func (s *IssueService) AddComment(ctx context.Context, p auth.Principal, id, text string) (*models.Issue, error) {
	if blank(text) {
		return nil, common.Invalid("Comment text is required")
	}

	uid, _ := p.UserID()
	issue, err := s.issues.AddComment(ctx, id, models.Comment{
		UserID:    uid,
		Author:    p.Name(),
		Text:      strings.TrimSpace(text),
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, storeErr("add comment", err)
	}
	return issue, nil
}

// ToggleUpvote adds the principal's email to the upvotes, or removes it.
func (s *IssueService) ToggleUpvote(ctx context.Context, p auth.Principal, id string) (*models.Issue, error) {
	if p.Email() == "" {
		return nil, common.Invalid("An email is required to upvote")
	}
	issue, err := s.issues.ToggleUpvote(ctx, id, p.Email())
	if err != nil {
		return nil, storeErr("toggle upvote", err)
	}
	return issue, nil
}

// ListPending returns every issue that is not resolved yet.
func (s *IssueService) ListPending(ctx context.Context) ([]*models.Issue, error) {
	list, err := s.issues.List(ctx, issues.Filter{ExcludeStatus: models.StatusResolved})
	if err != nil {
		return nil, storeErr("list pending issues", err)
	}
	return list, nil
}

// Resolve marks the issue resolved and notifies the reporter by email when
// one was given. A failed notification is only logged.
func (s *IssueService) Resolve(ctx context.Context, id string) (*models.Issue, error) {
	resolved := models.StatusResolved
	issue, err := s.issues.Update(ctx, id, issues.Patch{Status: &resolved})
	if err != nil {
		return nil, storeErr("resolve issue", err)
	}
	s.metrics.IssueResolved()
	s.log.Info(ctx, "issue resolved", "issue_id", issue.ID)

	if issue.Reporter.Email != "" {
		s.notifyResolved(ctx, issue)
	}
	return issue, nil
}

func (s *IssueService) notifyResolved(ctx context.Context, issue *models.Issue) {
	summary := issue.Description
	if summary == "" {
		summary = issue.Title
	}

	sender, err := s.mail()
	if err == nil {
		err = sender.Send(ctx, mailer.IssueResolvedMessage(issue.Reporter.Email, summary))
	}
	s.metrics.Mail("issue_resolved", err)
	if err != nil {
		s.log.Error(ctx, "resolution mail failed", "issue_id", issue.ID, "error", err)
	}
}

func (s *IssueService) Delete(ctx context.Context, id string) error {
	if err := s.issues.Delete(ctx, id); err != nil {
		return storeErr("delete issue", err)
	}
	s.log.Info(ctx, "issue deleted", "issue_id", id)
	return nil
}

// PhotoUploadURL returns a storage key and a presigned PUT URL for it.
func (s *IssueService) PhotoUploadURL(ctx context.Context) (string, string, error) {
	if s.photos == nil {
		return "", "", common.ErrorStorageDisabled
	}
	key, url, err := s.photos.PresignPut(ctx)
	if err != nil {
		return "", "", fmt.Errorf("%w: presign photo upload: %v", common.ErrorInternal, err)
	}
	return key, url, nil
}
