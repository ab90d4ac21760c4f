package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/assoportal/pollengine/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	// Run migrations
	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS votes (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			start_date DATETIME NOT NULL,
			end_date DATETIME NOT NULL,
			show_results_mode TEXT NOT NULL,
			created_by TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS vote_options (
			id TEXT PRIMARY KEY,
			vote_id TEXT NOT NULL,
			text TEXT NOT NULL,
			position INTEGER NOT NULL,
			FOREIGN KEY (vote_id) REFERENCES votes(id) ON DELETE CASCADE,
			UNIQUE(vote_id, text),
			UNIQUE(vote_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS vote_responses (
			id TEXT PRIMARY KEY,
			vote_id TEXT NOT NULL,
			voter_id TEXT NOT NULL,
			selected_option_ids TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (vote_id) REFERENCES votes(id) ON DELETE CASCADE,
			UNIQUE(vote_id, voter_id)
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_status ON votes(status)`,
		`CREATE INDEX IF NOT EXISTS idx_options_vote ON vote_options(vote_id)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_vote ON vote_responses(vote_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}

	// Insert default settings if not exists
	// Note: base_url is intentionally not set here - it's set by app.go
	// with the detected LAN IP address on startup
	defaultSettings := map[string]string{
		"announcements_enabled": "true",
	}

	for key, value := range defaultSettings {
		_, err := r.db.Exec(`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, value)
		if err != nil {
			return err
		}
	}

	return nil
}

// ==================== Vote Methods ====================

// CreateVote inserts a vote and its option set in one transaction
func (r *Repository) CreateVote(ctx context.Context, vote *models.Vote, options []models.VoteOption) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO votes (id, title, description, type, status, start_date, end_date, show_results_mode, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		vote.ID, vote.Title, vote.Description, vote.Type, vote.Status,
		vote.StartDate, vote.EndDate, vote.ShowResultsMode, vote.CreatedBy,
		vote.CreatedAt, vote.UpdatedAt)
	if err != nil {
		return err
	}

	for _, opt := range options {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO vote_options (id, vote_id, text, position) VALUES (?, ?, ?, ?)`,
			opt.ID, opt.VoteID, opt.Text, opt.Position)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetVote retrieves a vote by id
func (r *Repository) GetVote(ctx context.Context, id string) (*models.Vote, error) {
	var v models.Vote
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, type, status, start_date, end_date, show_results_mode, created_by, created_at, updated_at
		 FROM votes WHERE id = ?`, id).
		Scan(&v.ID, &v.Title, &v.Description, &v.Type, &v.Status, &v.StartDate,
			&v.EndDate, &v.ShowResultsMode, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVotes returns votes, optionally filtered by status, newest first
func (r *Repository) ListVotes(ctx context.Context, status models.VoteStatus) ([]models.Vote, error) {
	query := `SELECT id, title, description, type, status, start_date, end_date, show_results_mode, created_by, created_at, updated_at
		 FROM votes ORDER BY created_at DESC`
	args := []interface{}{}
	if status != "" {
		query = `SELECT id, title, description, type, status, start_date, end_date, show_results_mode, created_by, created_at, updated_at
		 FROM votes WHERE status = ? ORDER BY created_at DESC`
		args = append(args, status)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []models.Vote
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ID, &v.Title, &v.Description, &v.Type, &v.Status,
			&v.StartDate, &v.EndDate, &v.ShowResultsMode, &v.CreatedBy,
			&v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// UpdateVote updates the mutable fields of a vote
func (r *Repository) UpdateVote(ctx context.Context, vote *models.Vote) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE votes SET title = ?, description = ?, start_date = ?, end_date = ?, show_results_mode = ?, updated_at = ?
		 WHERE id = ?`,
		vote.Title, vote.Description, vote.StartDate, vote.EndDate,
		vote.ShowResultsMode, vote.UpdatedAt, vote.ID)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// UpdateVoteStatus sets the lifecycle status of a vote
func (r *Repository) UpdateVoteStatus(ctx context.Context, id string, status models.VoteStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE votes SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// DeleteVote removes a vote; options and responses cascade
func (r *Repository) DeleteVote(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM votes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// ListOptions returns a vote's options in creation order
func (r *Repository) ListOptions(ctx context.Context, voteID string) ([]models.VoteOption, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, vote_id, text, position FROM vote_options WHERE vote_id = ? ORDER BY position`, voteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []models.VoteOption
	for rows.Next() {
		var o models.VoteOption
		if err := rows.Scan(&o.ID, &o.VoteID, &o.Text, &o.Position); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

// ReplaceOptions swaps a vote's option set atomically (draft-only edits)
func (r *Repository) ReplaceOptions(ctx context.Context, voteID string, options []models.VoteOption) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vote_options WHERE vote_id = ?`, voteID); err != nil {
		return err
	}
	for _, opt := range options {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO vote_options (id, vote_id, text, position) VALUES (?, ?, ?, ?)`,
			opt.ID, opt.VoteID, opt.Text, opt.Position)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ==================== Response Methods ====================

// UpsertResponse inserts a response or, if one already exists for the
// (vote_id, voter_id) pair, overwrites its selection. The UNIQUE constraint
// plus ON CONFLICT makes the insert-or-update a single atomic statement, so
// two concurrent first submissions cannot both insert. Returns the stored
// row, which keeps its original id and created_at on overwrite.
func (r *Repository) UpsertResponse(ctx context.Context, response *models.VoteResponse) (*models.VoteResponse, error) {
	selected, err := json.Marshal(response.SelectedOptionIDs)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO vote_responses (id, vote_id, voter_id, selected_option_ids, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(vote_id, voter_id) DO UPDATE SET
			selected_option_ids = excluded.selected_option_ids,
			updated_at = excluded.updated_at`,
		response.ID, response.VoteID, response.VoterID, string(selected),
		response.CreatedAt, response.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return r.GetResponse(ctx, response.VoteID, response.VoterID)
}

// GetResponse retrieves the response for a (vote, voter) pair
func (r *Repository) GetResponse(ctx context.Context, voteID, voterID string) (*models.VoteResponse, error) {
	var resp models.VoteResponse
	var selected string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, vote_id, voter_id, selected_option_ids, created_at, updated_at
		 FROM vote_responses WHERE vote_id = ? AND voter_id = ?`, voteID, voterID).
		Scan(&resp.ID, &resp.VoteID, &resp.VoterID, &selected, &resp.CreatedAt, &resp.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(selected), &resp.SelectedOptionIDs); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListResponses returns all responses for a vote
func (r *Repository) ListResponses(ctx context.Context, voteID string) ([]models.VoteResponse, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, vote_id, voter_id, selected_option_ids, created_at, updated_at
		 FROM vote_responses WHERE vote_id = ?`, voteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []models.VoteResponse
	for rows.Next() {
		var resp models.VoteResponse
		var selected string
		if err := rows.Scan(&resp.ID, &resp.VoteID, &resp.VoterID, &selected,
			&resp.CreatedAt, &resp.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(selected), &resp.SelectedOptionIDs); err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

// CountResponses returns the number of distinct response rows for a vote
func (r *Repository) CountResponses(ctx context.Context, voteID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vote_responses WHERE vote_id = ?`, voteID).Scan(&count)
	return count, err
}

// ==================== Settings Methods ====================

// GetSetting retrieves a setting value by key
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting stores a setting value
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// GetVoteStats returns aggregate counts for the admin dashboard
func (r *Repository) GetVoteStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM votes GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byStatus := make(map[string]int)
	totalVotes := 0
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		byStatus[status] = count
		totalVotes += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	stats["votes_by_status"] = byStatus
	stats["total_votes"] = totalVotes

	var totalResponses int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vote_responses`).Scan(&totalResponses); err != nil {
		return nil, err
	}
	stats["total_responses"] = totalResponses

	var distinctVoters int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT voter_id) FROM vote_responses`).Scan(&distinctVoters); err != nil {
		return nil, err
	}
	stats["distinct_voters"] = distinctVoters

	return stats, nil
}

// requireRowsAffected converts a zero-row update/delete into ErrNotFound
func requireRowsAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
