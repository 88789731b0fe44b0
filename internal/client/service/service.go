package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Druxys/MTG-Next/internal/client/models"
	"github.com/Druxys/MTG-Next/package/logger"
	"golang.org/x/sync/singleflight"
)

// ErrNoSession is returned when no session has been persisted
var ErrNoSession = errors.New("no stored session")

// Service struct
type Service struct {
	stor   Storager
	seal   Sealer
	images ImageFetcher
	logger *logger.Logger

	downloads singleflight.Group
}

// Storager interface
type Storager interface {
	SaveSession(ctx context.Context, session models.Session) error
	GetSession(ctx context.Context) (*models.Session, error)
	DeleteSession(ctx context.Context) error
	PutCardImage(ctx context.Context, cardID string, data []byte) error
	GetCardImage(ctx context.Context, cardID string) ([]byte, error)
}

// Sealer encrypts tokens before they reach the storage
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// ImageFetcher downloads card images from the API
type ImageFetcher interface {
	CardImage(ctx context.Context, cardID string) ([]byte, error)
}

// NewService creates new service instance. A nil sealer disables session
// persistence.
func NewService(stor Storager, seal Sealer, images ImageFetcher, logger *logger.Logger) *Service {
	return &Service{
		stor:   stor,
		seal:   seal,
		images: images,
		logger: logger.With("service"),
	}
}

// PersistsSessions reports whether sessions survive a restart
func (s *Service) PersistsSessions() bool {
	return s.seal != nil
}

// SaveSession seals the token and stores the session
func (s *Service) SaveSession(ctx context.Context, session models.Session) error {
	if s.seal == nil {
		s.logger.Debug("Session persistence disabled, not saving")
		return nil
	}

	sealed, err := s.seal.Seal(session.Token)
	if err != nil {
		s.logger.Error("Failed to seal session token")
		return fmt.Errorf("seal session: %w", err)
	}
	session.Token = sealed

	if err := s.stor.SaveSession(ctx, session); err != nil {
		s.logger.Error("Failed to save session to storage")
		return err
	}

	s.logger.Infof("Session for %s saved", session.Username)
	return nil
}

// LoadSession reads and unseals the stored session. A session that can not
// be opened is dropped from the storage.
func (s *Service) LoadSession(ctx context.Context) (*models.Session, error) {
	if s.seal == nil {
		return nil, ErrNoSession
	}

	session, err := s.stor.GetSession(ctx)
	if err != nil {
		s.logger.Error("Failed to read session from storage")
		return nil, err
	}
	if session == nil {
		return nil, ErrNoSession
	}

	token, err := s.seal.Open(session.Token)
	if err != nil {
		s.logger.Warning("Stored session can not be opened, discarding it")
		if delErr := s.stor.DeleteSession(ctx); delErr != nil {
			s.logger.Error("Failed to delete unreadable session")
		}
		return nil, fmt.Errorf("open session: %w", err)
	}
	session.Token = token

	return session, nil
}

// ClearSession removes the stored session
func (s *Service) ClearSession(ctx context.Context) error {
	if s.seal == nil {
		return nil
	}

	if err := s.stor.DeleteSession(ctx); err != nil {
		s.logger.Error("Failed to delete session from storage")
		return err
	}
	return nil
}

// CardImage returns the image of a card, served from the local cache when
// possible. Concurrent requests for the same card share one download.
func (s *Service) CardImage(ctx context.Context, cardID string) ([]byte, error) {
	data, err := s.stor.GetCardImage(ctx, cardID)
	if err != nil {
		s.logger.Warningf("Image cache lookup for %s failed: %v", cardID, err)
	}
	if len(data) > 0 {
		return data, nil
	}

	// The download outlives a caller that gives up so the others still get it.
	shared := context.WithoutCancel(ctx)
	ch := s.downloads.DoChan(cardID, func() (any, error) {
		data, err := s.images.CardImage(shared, cardID)
		if err != nil {
			return nil, err
		}
		if err := s.stor.PutCardImage(shared, cardID, data); err != nil {
			s.logger.Warningf("Failed to cache image for %s: %v", cardID, err)
		}
		return data, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debugf("Image for %s shared with a concurrent request", cardID)
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
