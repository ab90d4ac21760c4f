package mock

import (
	"context"

	"github.com/assoportal/pollengine/internal/models"
	"github.com/assoportal/pollengine/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.UpsertResponseError = errors.New("database error")
//	svc := services.NewSubmissionService(log, mockRepo)
//	_, err := svc.Submit(ctx, voteID, voterID, optionIDs)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== Vote Errors =====
	CreateVoteError       error
	GetVoteError          error
	ListVotesError        error
	UpdateVoteError       error
	UpdateVoteStatusError error
	DeleteVoteError       error
	ListOptionsError      error
	ReplaceOptionsError   error

	// ===== Response Errors =====
	UpsertResponseError error
	GetResponseError    error
	ListResponsesError  error
	CountResponsesError error

	// ===== Settings Errors =====
	GetSettingError   error
	SetSettingError   error
	GetVoteStatsError error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Vote Methods =====

func (m *Repository) CreateVote(ctx context.Context, vote *models.Vote, options []models.VoteOption) error {
	if m.CreateVoteError != nil {
		return m.CreateVoteError
	}
	return m.FullRepository.CreateVote(ctx, vote, options)
}

func (m *Repository) GetVote(ctx context.Context, id string) (*models.Vote, error) {
	if m.GetVoteError != nil {
		return nil, m.GetVoteError
	}
	return m.FullRepository.GetVote(ctx, id)
}

func (m *Repository) ListVotes(ctx context.Context, status models.VoteStatus) ([]models.Vote, error) {
	if m.ListVotesError != nil {
		return nil, m.ListVotesError
	}
	return m.FullRepository.ListVotes(ctx, status)
}

func (m *Repository) UpdateVote(ctx context.Context, vote *models.Vote) error {
	if m.UpdateVoteError != nil {
		return m.UpdateVoteError
	}
	return m.FullRepository.UpdateVote(ctx, vote)
}

func (m *Repository) UpdateVoteStatus(ctx context.Context, id string, status models.VoteStatus) error {
	if m.UpdateVoteStatusError != nil {
		return m.UpdateVoteStatusError
	}
	return m.FullRepository.UpdateVoteStatus(ctx, id, status)
}

func (m *Repository) DeleteVote(ctx context.Context, id string) error {
	if m.DeleteVoteError != nil {
		return m.DeleteVoteError
	}
	return m.FullRepository.DeleteVote(ctx, id)
}

func (m *Repository) ListOptions(ctx context.Context, voteID string) ([]models.VoteOption, error) {
	if m.ListOptionsError != nil {
		return nil, m.ListOptionsError
	}
	return m.FullRepository.ListOptions(ctx, voteID)
}

func (m *Repository) ReplaceOptions(ctx context.Context, voteID string, options []models.VoteOption) error {
	if m.ReplaceOptionsError != nil {
		return m.ReplaceOptionsError
	}
	return m.FullRepository.ReplaceOptions(ctx, voteID, options)
}

// ===== Response Methods =====

func (m *Repository) UpsertResponse(ctx context.Context, response *models.VoteResponse) (*models.VoteResponse, error) {
	if m.UpsertResponseError != nil {
		return nil, m.UpsertResponseError
	}
	return m.FullRepository.UpsertResponse(ctx, response)
}

func (m *Repository) GetResponse(ctx context.Context, voteID, voterID string) (*models.VoteResponse, error) {
	if m.GetResponseError != nil {
		return nil, m.GetResponseError
	}
	return m.FullRepository.GetResponse(ctx, voteID, voterID)
}

func (m *Repository) ListResponses(ctx context.Context, voteID string) ([]models.VoteResponse, error) {
	if m.ListResponsesError != nil {
		return nil, m.ListResponsesError
	}
	return m.FullRepository.ListResponses(ctx, voteID)
}

func (m *Repository) CountResponses(ctx context.Context, voteID string) (int, error) {
	if m.CountResponsesError != nil {
		return 0, m.CountResponsesError
	}
	return m.FullRepository.CountResponses(ctx, voteID)
}

// ===== Settings Methods =====

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}

func (m *Repository) GetVoteStats(ctx context.Context) (map[string]interface{}, error) {
	if m.GetVoteStatsError != nil {
		return nil, m.GetVoteStatsError
	}
	return m.FullRepository.GetVoteStats(ctx)
}
