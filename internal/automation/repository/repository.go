package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the slice of pgxpool.Pool the repository uses. Satisfied by the
// real pool and by pgxmock in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repository struct {
	pool DB
}

func New(pool DB) *Repository {
	return &Repository{pool: pool}
}

// Candidate is the slice of a lead the evaluator needs to build a message.
type Candidate struct {
	LeadID          uuid.UUID
	Name            string
	Phone           string
	Email           *string
	Service         string
	Score           int
	Priority        string
	QuoteAmount     *float64
	AppointmentDate *time.Time
}

const candidateColumns = `l.id, l.name, l.phone, l.email, l.service, l.score, l.priority, l.quote_amount, l.appointment_date`

func (r *Repository) queryCandidates(ctx context.Context, query string, args ...interface{}) ([]Candidate, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]Candidate, 0)
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.LeadID, &c.Name, &c.Phone, &c.Email, &c.Service, &c.Score, &c.Priority, &c.QuoteAmount, &c.AppointmentDate); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// notAlreadyRun excludes leads that already have a log entry for the rule,
// so every rule is once-per-lead regardless of how often the evaluator runs.
const notAlreadyRun = `NOT EXISTS (
	SELECT 1 FROM automation_logs al WHERE al.lead_id = l.id AND al.rule = $1
)`

// WelcomeCandidates finds brand-new leads inside the welcome window.
func (r *Repository) WelcomeCandidates(ctx context.Context, rule string, now time.Time, window time.Duration) ([]Candidate, error) {
	return r.queryCandidates(ctx, `
		SELECT `+candidateColumns+` FROM leads l
		WHERE l.status = 'new'
		  AND l.first_contact_at IS NULL
		  AND l.created_at >= $2
		  AND `+notAlreadyRun+`
		ORDER BY l.created_at ASC
	`, rule, now.Add(-window))
}

// StaleNewCandidates finds leads nobody contacted within the follow-up window.
func (r *Repository) StaleNewCandidates(ctx context.Context, rule string, now time.Time, window time.Duration) ([]Candidate, error) {
	return r.queryCandidates(ctx, `
		SELECT `+candidateColumns+` FROM leads l
		WHERE l.status = 'new'
		  AND l.first_contact_at IS NULL
		  AND l.created_at <= $2
		  AND `+notAlreadyRun+`
		ORDER BY l.created_at ASC
	`, rule, now.Add(-window))
}

// QuoteFollowupCandidates finds quoted leads with no decision after the window.
func (r *Repository) QuoteFollowupCandidates(ctx context.Context, rule string, now time.Time, window time.Duration) ([]Candidate, error) {
	return r.queryCandidates(ctx, `
		SELECT `+candidateColumns+` FROM leads l
		WHERE l.status = 'quoted'
		  AND l.quote_accepted IS NULL
		  AND l.quote_sent_at IS NOT NULL
		  AND l.quote_sent_at <= $2
		  AND `+notAlreadyRun+`
		ORDER BY l.quote_sent_at ASC
	`, rule, now.Add(-window))
}

// AppointmentReminderCandidates finds leads with a visit inside the reminder
// window, roughly a day out. The two-hour band tolerates evaluator runs that
// drift off schedule without sending duplicate or missed reminders.
func (r *Repository) AppointmentReminderCandidates(ctx context.Context, rule string, now time.Time, lower, upper time.Duration) ([]Candidate, error) {
	return r.queryCandidates(ctx, `
		SELECT `+candidateColumns+` FROM leads l
		WHERE l.appointment_scheduled = TRUE
		  AND l.appointment_date BETWEEN $2 AND $3
		  AND `+notAlreadyRun+`
		ORDER BY l.appointment_date ASC
	`, rule, now.Add(lower), now.Add(upper))
}

// ReviewRequestCandidates finds completed jobs old enough to ask for a review.
func (r *Repository) ReviewRequestCandidates(ctx context.Context, rule string, now time.Time, window time.Duration) ([]Candidate, error) {
	return r.queryCandidates(ctx, `
		SELECT `+candidateColumns+` FROM leads l
		WHERE l.job_completed = TRUE
		  AND l.review_requested = FALSE
		  AND l.job_completion_date IS NOT NULL
		  AND l.job_completion_date <= $2
		  AND `+notAlreadyRun+`
		ORDER BY l.job_completion_date ASC
	`, rule, now.Add(-window))
}

// ColdCandidates finds early-pipeline leads that went quiet for the window.
func (r *Repository) ColdCandidates(ctx context.Context, rule string, now time.Time, window time.Duration) ([]Candidate, error) {
	return r.queryCandidates(ctx, `
		SELECT `+candidateColumns+` FROM leads l
		WHERE l.status IN ('new', 'contacted', 'qualified')
		  AND l.updated_at <= $2
		  AND `+notAlreadyRun+`
		ORDER BY l.updated_at ASC
	`, rule, now.Add(-window))
}

// DecrementScoreIfUncontacted lowers the score, floored at zero, only while
// the lead is still uncontacted. Returns false when staff contacted the lead
// between candidate selection and this write.
func (r *Repository) DecrementScoreIfUncontacted(ctx context.Context, id uuid.UUID, points int) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET score = GREATEST(score - $2, 0), updated_at = now()
		WHERE id = $1 AND first_contact_at IS NULL AND status = 'new'
	`, id, points)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkReviewRequested flips the single-fire review flag. Returns false if
// another run already claimed it.
func (r *Repository) MarkReviewRequested(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET review_requested = TRUE, updated_at = now()
		WHERE id = $1 AND review_requested = FALSE
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkReEngaged moves a cold lead to re_engaged only while it is still in a
// cold-eligible status, and appends the history entry when it does.
func (r *Repository) MarkReEngaged(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE leads
		SET status = 're_engaged', updated_at = now()
		WHERE id = $1 AND status IN ('new', 'contacted', 'qualified')
	`, id)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, status) VALUES ($1, 're_engaged')
	`, id); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}
