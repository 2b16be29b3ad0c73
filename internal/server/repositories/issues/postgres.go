package issues

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/common"
	"github.com/dmitrijs2005/issuedesk/internal/dbx"
	"github.com/dmitrijs2005/issuedesk/internal/server/models"
	"github.com/google/uuid"
)

// DB is what the repository needs from *sql.DB: plain queries plus
// transactions for the upvote toggle.
type DB interface {
	dbx.DBTX
	dbx.Beginner
}

type PostgresRepository struct {
	db DB
}

func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const issueSelect = `SELECT i.id, i.title, i.description, i.status, i.created_by, i.assigned_to,
       i.name, i.usn, i.branch, i.section, i.email, i.photo, i.date, i.created_at, i.updated_at,
       COALESCE((SELECT json_agg(u.email ORDER BY u.created_at) FROM issue_upvotes u WHERE u.issue_id = i.id), '[]'::json),
       COALESCE((SELECT json_agg(json_build_object('user_id', c.user_id, 'author', c.author, 'text', c.text, 'created_at', c.created_at) ORDER BY c.id)
                 FROM issue_comments c WHERE c.issue_id = i.id), '[]'::json)
  FROM issues i`

type commentRow struct {
	UserID    string    `json:"user_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*models.Issue, error) {
	var (
		i                      models.Issue
		status                 string
		upvotesRaw, commentRaw []byte
	)
	err := row.Scan(&i.ID, &i.Title, &i.Description, &status, &i.CreatedBy, &i.AssignedTo,
		&i.Reporter.Name, &i.Reporter.USN, &i.Reporter.Branch, &i.Reporter.Section, &i.Reporter.Email,
		&i.Photo, &i.Date, &i.CreatedAt, &i.UpdatedAt, &upvotesRaw, &commentRaw)
	if err != nil {
		return nil, err
	}
	i.Status = models.IssueStatus(status)

	i.Upvotes = []string{}
	if err := json.Unmarshal(upvotesRaw, &i.Upvotes); err != nil {
		return nil, fmt.Errorf("decode upvotes: %w", err)
	}

	var comments []commentRow
	if err := json.Unmarshal(commentRaw, &comments); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	i.Comments = make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		i.Comments = append(i.Comments, models.Comment(c))
	}

	return &i, nil
}

func parseID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorInvalidID
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, issue *models.Issue) (*models.Issue, error) {
	query :=
		`INSERT INTO issues (title, description, status, created_by, assigned_to, name, usn, branch, section, email, photo, date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at, updated_at`

	created := *issue
	err := r.db.QueryRowContext(ctx, query,
		created.Title, created.Description, string(created.Status), created.CreatedBy, created.AssignedTo,
		created.Reporter.Name, created.Reporter.USN, created.Reporter.Branch, created.Reporter.Section, created.Reporter.Email,
		created.Photo, created.Date,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	created.Upvotes = []string{}
	created.Comments = []models.Comment{}
	return &created, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Issue, error) {
	if err := parseID(id); err != nil {
		return nil, err
	}

	i, err := scanIssue(r.db.QueryRowContext(ctx, issueSelect+` WHERE i.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return i, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter Filter) ([]*models.Issue, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("i.status = $%d", len(args)))
	} else if filter.ExcludeStatus != "" {
		args = append(args, string(filter.ExcludeStatus))
		where = append(where, fmt.Sprintf("i.status <> $%d", len(args)))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		where = append(where, fmt.Sprintf("i.created_by = $%d", len(args)))
	}

	query := issueSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY i.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Issue, 0)
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch Patch) (*models.Issue, error) {
	if err := parseID(id); err != nil {
		return nil, err
	}

	sets := []string{"updated_at = now()"}
	var args []any
	if patch.Status != nil {
		args = append(args, string(*patch.Status))
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if patch.AssignedTo != nil {
		args = append(args, *patch.AssignedTo)
		sets = append(sets, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE issues SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	if err := r.execOne(ctx, r.db, query, args...); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *PostgresRepository) AddComment(ctx context.Context, id string, comment models.Comment) (*models.Issue, error) {
	if err := parseID(id); err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO issue_comments (issue_id, user_id, author, text, created_at)
		 SELECT id, $2, $3, $4, $5 FROM issues WHERE id = $1`

	if err := r.execOne(ctx, r.db, query, id, comment.UserID, comment.Author, comment.Text, comment.CreatedAt); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *PostgresRepository) ToggleUpvote(ctx context.Context, id, email string) (*models.Issue, error) {
	if err := parseID(id); err != nil {
		return nil, err
	}

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var locked string
		if err := tx.QueryRowContext(ctx, `SELECT id FROM issues WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrorNotFound
			}
			return fmt.Errorf("db error: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM issue_upvotes WHERE issue_id = $1 AND email = $2`, id, email)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if n == 0 {
			if _, err := tx.ExecContext(ctx, `INSERT INTO issue_upvotes (issue_id, email) VALUES ($1, $2)`, id, email); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}

		return r.execOne(ctx, tx, `UPDATE issues SET updated_at = now() WHERE id = $1`, id)
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if err := parseID(id); err != nil {
		return err
	}
	return r.execOne(ctx, r.db, `DELETE FROM issues WHERE id = $1`, id)
}

// execOne runs a statement that must touch a row; zero rows means the issue
// does not exist.
func (r *PostgresRepository) execOne(ctx context.Context, db dbx.DBTX, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
