package repository

import (
	"context"

	"github.com/assoportal/pollengine/internal/models"
)

// VoteRepository defines vote and option data operations
type VoteRepository interface {
	CreateVote(ctx context.Context, vote *models.Vote, options []models.VoteOption) error
	GetVote(ctx context.Context, id string) (*models.Vote, error)
	ListVotes(ctx context.Context, status models.VoteStatus) ([]models.Vote, error)
	UpdateVote(ctx context.Context, vote *models.Vote) error
	UpdateVoteStatus(ctx context.Context, id string, status models.VoteStatus) error
	DeleteVote(ctx context.Context, id string) error
	ListOptions(ctx context.Context, voteID string) ([]models.VoteOption, error)
	ReplaceOptions(ctx context.Context, voteID string, options []models.VoteOption) error
}

// ResponseRepository defines response data operations.
// UpsertResponse is the atomic insert-if-absent-else-update keyed on
// (vote_id, voter_id) that keeps the one-response-per-voter invariant.
type ResponseRepository interface {
	UpsertResponse(ctx context.Context, response *models.VoteResponse) (*models.VoteResponse, error)
	GetResponse(ctx context.Context, voteID, voterID string) (*models.VoteResponse, error)
	ListResponses(ctx context.Context, voteID string) ([]models.VoteResponse, error)
	CountResponses(ctx context.Context, voteID string) (int, error)
}

// SettingsRepository defines settings data operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	GetVoteStats(ctx context.Context) (map[string]interface{}, error)
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	VoteRepository
	ResponseRepository
	SettingsRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
