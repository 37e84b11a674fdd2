// README: Rate card service; validates on publish and serves the active card through the cache.
package ratecard

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type Service struct {
	store *Store
	cache *Cache
	log   *logrus.Logger
}

func NewService(store *Store, cache *Cache, log *logrus.Logger) *Service {
	return &Service{store: store, cache: cache, log: log}
}

// Publish validates and persists a new card version, then drops the cached
// active card so the new version takes effect on the next read.
func (s *Service) Publish(ctx context.Context, c *RateCard) error {
	if err := Validate(c); err != nil {
		return err
	}
	if c.EffectiveFrom.IsZero() {
		c.EffectiveFrom = time.Now().UTC()
	}
	if err := s.store.Publish(ctx, c); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.log.WithError(err).Warn("rate card cache invalidate failed")
		}
	}
	return nil
}

// Active returns the currently effective card. Cards are validated again on
// the read path: a malformed card must halt pricing, never be guessed around.
func (s *Service) Active(ctx context.Context) (*RateCard, error) {
	if s.cache != nil {
		card, hit, err := s.cache.GetActive(ctx)
		if err != nil {
			s.log.WithError(err).Warn("rate card cache read failed")
		}
		if hit {
			if err := Validate(card); err != nil {
				return nil, err
			}
			return card, nil
		}
	}

	card, err := s.store.Active(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := Validate(card); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetActive(ctx, card); err != nil {
			s.log.WithError(err).Warn("rate card cache write failed")
		}
	}
	return card, nil
}

func (s *Service) ByVersion(ctx context.Context, version int) (*RateCard, error) {
	card, err := s.store.ByVersion(ctx, version)
	if err != nil {
		return nil, err
	}
	if err := Validate(card); err != nil {
		return nil, err
	}
	return card, nil
}
