package services

import (
	"context"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/assoportal/pollengine/internal/errors"
	"github.com/assoportal/pollengine/internal/logger"
	"github.com/assoportal/pollengine/internal/models"
	"github.com/assoportal/pollengine/internal/repository"
)

// qrImageSize is the width/height in pixels of generated QR codes
const qrImageSize = 256

// ShareServiceRepository defines the repository methods needed by ShareService
type ShareServiceRepository interface {
	GetVote(ctx context.Context, id string) (*models.Vote, error)
}

// ShareService builds share links and QR codes for votes so members can
// reach a poll from a noticeboard or a printed announcement
type ShareService struct {
	log      logger.Logger
	repo     ShareServiceRepository
	settings SettingsServicer
}

// NewShareService creates a new ShareService
func NewShareService(log logger.Logger, repo ShareServiceRepository, settings SettingsServicer) *ShareService {
	return &ShareService{log: log, repo: repo, settings: settings}
}

// ShareURL returns the portal URL for a vote
func (s *ShareService) ShareURL(ctx context.Context, voteID string) (string, error) {
	if _, err := s.repo.GetVote(ctx, voteID); err != nil {
		if err == repository.ErrNotFound {
			return "", errors.NotFoundf("vote %s not found", voteID)
		}
		return "", err
	}

	baseURL, err := s.settings.GetBaseURL(ctx)
	if err != nil {
		return "", err
	}
	if baseURL == "" {
		return "", errors.Validation("base_url is not configured")
	}
	return baseURL + "/votes/" + voteID, nil
}

// QRImage renders the share URL for a vote as a QR code PNG
func (s *ShareService) QRImage(ctx context.Context, voteID string) ([]byte, error) {
	url, err := s.ShareURL(ctx, voteID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(url, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, err
	}
	return png, nil
}
