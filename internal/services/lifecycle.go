package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/assoportal/pollengine/internal/auth"
	"github.com/assoportal/pollengine/internal/errors"
	"github.com/assoportal/pollengine/internal/logger"
	"github.com/assoportal/pollengine/internal/models"
	"github.com/assoportal/pollengine/internal/repository"
)

// LifecycleServiceRepository defines the repository methods needed by LifecycleService
type LifecycleServiceRepository interface {
	repository.VoteRepository
}

// LifecycleService enforces the draft/active/closed/archived state machine
// and the create/update/delete rules around it
type LifecycleService struct {
	log         logger.Logger
	repo        LifecycleServiceRepository
	broadcaster Broadcaster
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(log logger.Logger, repo LifecycleServiceRepository) *LifecycleService {
	return &LifecycleService{log: log, repo: repo}
}

// SetBroadcaster wires the announcement hub; nil disables announcements
func (s *LifecycleService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// NewVote is the input for creating a vote
type NewVote struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Type            string    `json:"type"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	ShowResultsMode string    `json:"show_results_mode"`
	Options         []string  `json:"options"`
}

// VoteUpdate carries the fields an update may change. Nil pointers leave the
// field untouched. A non-nil Options replaces the whole option set, which is
// only permitted while the vote is a draft.
type VoteUpdate struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	ShowResultsMode *string    `json:"show_results_mode,omitempty"`
	Options         []string   `json:"options,omitempty"`
}

// VoteWithOptions pairs a vote with its option set
type VoteWithOptions struct {
	Vote    models.Vote         `json:"vote"`
	Options []models.VoteOption `json:"options"`
}

// canManage is the single authorization predicate for mutating operations:
// the creator and administrators may edit, transition, and delete a vote.
func canManage(vote *models.Vote, actor auth.Identity) bool {
	return actor.IsAdmin() || vote.CreatedBy == actor.MemberID
}

// CreateVote validates and stores a new draft vote with its options
func (s *LifecycleService) CreateVote(ctx context.Context, actor auth.Identity, input NewVote) (*VoteWithOptions, error) {
	if actor.MemberID == "" {
		return nil, errors.Unauthorized("no authenticated member")
	}

	voteType := models.VoteType(input.Type)
	if !voteType.Valid() {
		return nil, errors.Validationf("unknown vote type %q", input.Type)
	}
	mode := models.ShowResultsMode(input.ShowResultsMode)
	if !mode.Valid() {
		return nil, errors.Validationf("unknown show_results_mode %q", input.ShowResultsMode)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.Validation("title is required")
	}
	if !input.StartDate.Before(input.EndDate) {
		return nil, errors.Validation("start_date must be before end_date")
	}
	if problem := models.ValidateOptionTexts(voteType, input.Options); problem != "" {
		return nil, errors.Validation(problem)
	}

	now := time.Now().UTC()
	vote := &models.Vote{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		Type:            voteType,
		Status:          models.VoteStatusDraft,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		ShowResultsMode: mode,
		CreatedBy:       actor.MemberID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	options := buildOptions(vote.ID, input.Options)

	if err := s.repo.CreateVote(ctx, vote, options); err != nil {
		return nil, err
	}

	s.log.Info("Vote created", "vote_id", vote.ID, "type", vote.Type, "created_by", actor.MemberID)
	return &VoteWithOptions{Vote: *vote, Options: options}, nil
}

// GetVote retrieves a vote and its options
func (s *LifecycleService) GetVote(ctx context.Context, id string) (*VoteWithOptions, error) {
	vote, err := s.repo.GetVote(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("vote %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	options, err := s.repo.ListOptions(ctx, id)
	if err != nil {
		return nil, err
	}
	return &VoteWithOptions{Vote: *vote, Options: options}, nil
}

// ListVotes returns votes with their options, optionally filtered by status
func (s *LifecycleService) ListVotes(ctx context.Context, statusFilter string) ([]VoteWithOptions, error) {
	status := models.VoteStatus(statusFilter)
	if statusFilter != "" && !status.Valid() {
		return nil, errors.Validationf("unknown status %q", statusFilter)
	}

	votes, err := s.repo.ListVotes(ctx, status)
	if err != nil {
		return nil, err
	}

	result := make([]VoteWithOptions, 0, len(votes))
	for _, vote := range votes {
		options, err := s.repo.ListOptions(ctx, vote.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, VoteWithOptions{Vote: vote, Options: options})
	}
	return result, nil
}

// UpdateVote applies an edit under the lifecycle rules: title, description,
// dates, and disclosure mode may change while draft or active; the option set
// may only change while draft. Closed and archived votes are immutable.
func (s *LifecycleService) UpdateVote(ctx context.Context, actor auth.Identity, id string, update VoteUpdate) (*VoteWithOptions, error) {
	if actor.MemberID == "" {
		return nil, errors.Unauthorized("no authenticated member")
	}

	vote, err := s.repo.GetVote(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("vote %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	if !canManage(vote, actor) {
		return nil, errors.PermissionDenied("only the creator or an administrator can edit this vote")
	}

	switch vote.Status {
	case models.VoteStatusClosed, models.VoteStatusArchived:
		return nil, errors.IllegalTransitionf("cannot edit a %s vote", vote.Status)
	}
	if update.Options != nil && vote.Status != models.VoteStatusDraft {
		return nil, errors.IllegalTransition("options can only be changed while the vote is a draft")
	}

	if update.Title != nil {
		if strings.TrimSpace(*update.Title) == "" {
			return nil, errors.Validation("title is required")
		}
		vote.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		vote.Description = *update.Description
	}
	if update.StartDate != nil {
		vote.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		vote.EndDate = *update.EndDate
	}
	if update.ShowResultsMode != nil {
		mode := models.ShowResultsMode(*update.ShowResultsMode)
		if !mode.Valid() {
			return nil, errors.Validationf("unknown show_results_mode %q", *update.ShowResultsMode)
		}
		vote.ShowResultsMode = mode
	}
	if !vote.StartDate.Before(vote.EndDate) {
		return nil, errors.Validation("start_date must be before end_date")
	}

	var options []models.VoteOption
	if update.Options != nil {
		if problem := models.ValidateOptionTexts(vote.Type, update.Options); problem != "" {
			return nil, errors.Validation(problem)
		}
		options = buildOptions(vote.ID, update.Options)
	}

	vote.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateVote(ctx, vote); err != nil {
		return nil, err
	}
	if options != nil {
		if err := s.repo.ReplaceOptions(ctx, vote.ID, options); err != nil {
			return nil, err
		}
	} else {
		if options, err = s.repo.ListOptions(ctx, vote.ID); err != nil {
			return nil, err
		}
	}

	s.log.Info("Vote updated", "vote_id", vote.ID, "actor", actor.MemberID)
	return &VoteWithOptions{Vote: *vote, Options: options}, nil
}

// Transition moves a vote along one of the permitted lifecycle edges.
// Activating a vote does not re-validate or shift its time window; a vote
// activated after its end date simply never accepts a response.
func (s *LifecycleService) Transition(ctx context.Context, actor auth.Identity, id string, newStatus models.VoteStatus) (*models.Vote, error) {
	if actor.MemberID == "" {
		return nil, errors.Unauthorized("no authenticated member")
	}

	vote, err := s.repo.GetVote(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("vote %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	if !canManage(vote, actor) {
		return nil, errors.PermissionDenied("only the creator or an administrator can transition this vote")
	}

	if !newStatus.Valid() || !vote.Status.CanTransitionTo(newStatus) {
		return nil, errors.IllegalTransitionf("cannot transition vote from %s to %s", vote.Status, newStatus)
	}

	if err := s.repo.UpdateVoteStatus(ctx, id, newStatus); err != nil {
		return nil, err
	}
	vote.Status = newStatus
	vote.UpdatedAt = time.Now().UTC()

	s.log.Info("Vote transitioned", "vote_id", id, "status", newStatus, "actor", actor.MemberID)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastVoteStatus(vote.ID, vote.Title, newStatus)
	}
	return vote, nil
}

// DeleteVote removes a vote; its options and responses cascade with it
func (s *LifecycleService) DeleteVote(ctx context.Context, actor auth.Identity, id string) error {
	if actor.MemberID == "" {
		return errors.Unauthorized("no authenticated member")
	}

	vote, err := s.repo.GetVote(ctx, id)
	if err == repository.ErrNotFound {
		return errors.NotFoundf("vote %s not found", id)
	}
	if err != nil {
		return err
	}
	if !canManage(vote, actor) {
		return errors.PermissionDenied("only the creator or an administrator can delete this vote")
	}

	if err := s.repo.DeleteVote(ctx, id); err != nil {
		return err
	}
	s.log.Info("Vote deleted", "vote_id", id, "actor", actor.MemberID)
	return nil
}

// buildOptions assigns ids and creation-order positions to option texts
func buildOptions(voteID string, texts []string) []models.VoteOption {
	options := make([]models.VoteOption, 0, len(texts))
	for i, text := range texts {
		options = append(options, models.VoteOption{
			ID:       uuid.NewString(),
			VoteID:   voteID,
			Text:     strings.TrimSpace(text),
			Position: i,
		})
	}
	return options
}
