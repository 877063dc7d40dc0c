package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"subline/internal/domain"
	"subline/internal/events"
)

// Repo persists the event log and the materialized submission state. The
// event log is the source of truth; the submissions table is a projection
// refreshed on every save.
type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// Querier is satisfied by both *sql.DB and *sql.Tx. Reads that must observe
// an open transaction take one explicitly; sqlite holds a database-wide
// write lock, so reading through a second connection mid-transaction blocks.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// InsertSubmission creates the submission row and returns the assigned
// identifier.
func (r Repo) InsertSubmission(ctx context.Context, tx *sql.Tx, s *domain.Submission) (int64, error) {
	state, err := json.Marshal(s)
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO submissions(status,title,owner_id,created_at,updated_at,state_json) VALUES (?,?,?,?,?,?)`,
		string(s.Status), nullable(s.Metadata.Title), s.Owner.Identifier(),
		s.Created.UTC().Format(time.RFC3339Nano), s.Updated.UTC().Format(time.RFC3339Nano), string(state))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateSubmissionState refreshes the materialized state and the
// denormalized columns used for listing.
func (r Repo) UpdateSubmissionState(ctx context.Context, tx *sql.Tx, s *domain.Submission) error {
	state, err := json.Marshal(s)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE submissions SET status=?, title=?, owner_id=?, updated_at=?, state_json=? WHERE submission_id=?`,
		string(s.Status), nullable(s.Metadata.Title), s.Owner.Identifier(),
		s.Updated.UTC().Format(time.RFC3339Nano), string(state), s.SubmissionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetSubmissionState loads the materialized state without replaying the
// event log.
func (r Repo) GetSubmissionState(ctx context.Context, submissionID int64) (*domain.Submission, error) {
	var state string
	err := r.DB.QueryRowContext(ctx, `SELECT state_json FROM submissions WHERE submission_id=?`, submissionID).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s domain.Submission
	if err := json.Unmarshal([]byte(state), &s); err != nil {
		return nil, fmt.Errorf("decoding submission %d state: %w", submissionID, err)
	}
	s.InitCollections()
	return &s, nil
}

// SubmissionExists reports whether a submission row exists.
func (r Repo) SubmissionExists(ctx context.Context, submissionID int64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, `SELECT 1 FROM submissions WHERE submission_id=?`, submissionID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// AppendEvent writes one event to the log. Events are identified by
// content, so re-appending an identical event is a no-op.
func (r Repo) AppendEvent(ctx context.Context, tx *sql.Tx, e *events.Event) error {
	payload, err := events.EncodePayload(e.Data)
	if err != nil {
		return err
	}
	creator, err := json.Marshal(e.Creator)
	if err != nil {
		return err
	}
	proxy, err := marshalOptionalAgent(e.Proxy)
	if err != nil {
		return err
	}
	client, err := marshalOptionalAgent(e.Client)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO events(event_id,submission_id,event_type,created_at,creator_json,proxy_json,client_json,payload_json)
VALUES (?,?,?,?,?,?,?,?)`,
		e.ID, e.SubmissionID, string(e.Data.Type()), e.Created.UTC().Format(time.RFC3339Nano),
		string(creator), proxy, client, string(payload))
	return err
}

func marshalOptionalAgent(a *domain.Agent) (any, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// ListEvents loads the full event log of a submission in replay order:
// ascending creation time, ties broken by event id.
func (r Repo) ListEvents(ctx context.Context, submissionID int64) ([]*events.Event, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT event_id,submission_id,event_type,created_at,creator_json,proxy_json,client_json,payload_json
FROM events WHERE submission_id=? ORDER BY created_at ASC, event_id ASC`, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*events.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEvent(rows *sql.Rows) (*events.Event, error) {
	var (
		e          events.Event
		eventType  string
		createdAt  string
		creator    string
		proxy      sql.NullString
		client     sql.NullString
		payload    string
	)
	if err := rows.Scan(&e.ID, &e.SubmissionID, &eventType, &createdAt, &creator, &proxy, &client, &payload); err != nil {
		return nil, err
	}
	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("event %s: bad created_at %q: %w", e.ID, createdAt, err)
	}
	e.Created = created
	if err := json.Unmarshal([]byte(creator), &e.Creator); err != nil {
		return nil, fmt.Errorf("event %s: decoding creator: %w", e.ID, err)
	}
	if proxy.Valid {
		var a domain.Agent
		if err := json.Unmarshal([]byte(proxy.String), &a); err != nil {
			return nil, fmt.Errorf("event %s: decoding proxy: %w", e.ID, err)
		}
		e.Proxy = &a
	}
	if client.Valid {
		var a domain.Agent
		if err := json.Unmarshal([]byte(client.String), &a); err != nil {
			return nil, fmt.Errorf("event %s: decoding client: %w", e.ID, err)
		}
		e.Client = &a
	}
	data, err := events.DecodePayload(events.Type(eventType), []byte(payload))
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", e.ID, err)
	}
	e.Data = data
	e.Committed = true
	return &e, nil
}

// TitleRecord is a denormalized row used by duplicate-title detection.
type TitleRecord struct {
	SubmissionID int64
	Title        string
	OwnerID      string
}

// ListActiveTitles returns the titles of active submissions other than the
// one given. Submissions without a title are skipped. Pass the open
// transaction as the querier when called during a save.
func (r Repo) ListActiveTitles(ctx context.Context, q Querier, excludeID int64) ([]TitleRecord, error) {
	if q == nil {
		q = r.DB
	}
	rows, err := q.QueryContext(ctx, `SELECT submission_id,title,owner_id FROM submissions
WHERE submission_id != ? AND title IS NOT NULL AND status NOT IN (?,?)`,
		excludeID, string(domain.StatusDeleted), string(domain.StatusPublished))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TitleRecord
	for rows.Next() {
		var t TitleRecord
		if err := rows.Scan(&t.SubmissionID, &t.Title, &t.OwnerID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListSubmissions returns summary rows for all submissions, newest first.
func (r Repo) ListSubmissions(ctx context.Context) ([]SubmissionRow, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT submission_id,status,COALESCE(title,'') AS title,owner_id,created_at,updated_at
FROM submissions ORDER BY created_at DESC, submission_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SubmissionRow
	for rows.Next() {
		var s SubmissionRow
		if err := rows.Scan(&s.SubmissionID, &s.Status, &s.Title, &s.OwnerID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SubmissionRow is a listing row from the submissions table.
type SubmissionRow struct {
	SubmissionID int64
	Status       string
	Title        string
	OwnerID      string
	CreatedAt    string
	UpdatedAt    string
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
