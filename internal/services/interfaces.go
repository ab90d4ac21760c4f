package services

import (
	"context"

	"github.com/assoportal/pollengine/internal/auth"
	"github.com/assoportal/pollengine/internal/models"
)

// LifecycleServicer defines the interface for vote lifecycle operations
type LifecycleServicer interface {
	CreateVote(ctx context.Context, actor auth.Identity, input NewVote) (*VoteWithOptions, error)
	GetVote(ctx context.Context, id string) (*VoteWithOptions, error)
	ListVotes(ctx context.Context, statusFilter string) ([]VoteWithOptions, error)
	UpdateVote(ctx context.Context, actor auth.Identity, id string, update VoteUpdate) (*VoteWithOptions, error)
	Transition(ctx context.Context, actor auth.Identity, id string, newStatus models.VoteStatus) (*models.Vote, error)
	DeleteVote(ctx context.Context, actor auth.Identity, id string) error
	SetBroadcaster(b Broadcaster)
}

// SubmissionServicer defines the interface for response submission
type SubmissionServicer interface {
	Submit(ctx context.Context, voteID, voterID string, selectedOptionIDs []string) (*models.VoteResponse, error)
	HasResponded(ctx context.Context, voteID, voterID string) (bool, error)
}

// ResultsServicer defines the interface for result aggregation
type ResultsServicer interface {
	ComputeResults(ctx context.Context, voteID string) (*models.VoteResult, error)
	GetResultsForViewer(ctx context.Context, voteID, viewerID string) (*models.VoteResult, error)
	GetStats(ctx context.Context) (map[string]interface{}, error)
}

// SettingsServicer defines the interface for settings operations
type SettingsServicer interface {
	GetBaseURL(ctx context.Context) (string, error)
	SetBaseURL(ctx context.Context, url string) error
	AnnouncementsEnabled(ctx context.Context) (bool, error)
	SetAnnouncementsEnabled(ctx context.Context, enabled bool) error
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	AllSettings(ctx context.Context) (map[string]interface{}, error)
	UpdateSettings(ctx context.Context, settings Settings) error
}

// ShareServicer defines the interface for vote share links
type ShareServicer interface {
	ShareURL(ctx context.Context, voteID string) (string, error)
	QRImage(ctx context.Context, voteID string) ([]byte, error)
}

// Broadcaster announces vote lifecycle changes to connected clients
type Broadcaster interface {
	BroadcastVoteStatus(voteID, title string, status models.VoteStatus)
}

// Ensure concrete types implement interfaces
var (
	_ LifecycleServicer  = (*LifecycleService)(nil)
	_ SubmissionServicer = (*SubmissionService)(nil)
	_ ResultsServicer    = (*ResultsService)(nil)
	_ SettingsServicer   = (*SettingsService)(nil)
	_ ShareServicer      = (*ShareService)(nil)
)
