package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/scsaalabs/memberhub/internal/clock"
	"github.com/scsaalabs/memberhub/internal/event/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("event.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Event, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	if req.StartsAt.IsZero() {
		return nil, domain.ErrInvalidStart
	}

	eventSlug := slug.Make(title)
	existing, err := s.repo.FindBySlug(ctx, s.db, eventSlug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrSlugTaken
	}

	now := s.clock.Now(ctx)
	e := &domain.Event{
		ID:          s.genID.Generate(),
		Title:       title,
		Slug:        eventSlug,
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Metadata:    req.Metadata,
		CreatedBy:   req.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, s.db, e); err != nil {
		return nil, err
	}

	s.log.Info("event created", zap.String("slug", e.Slug))
	return e, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateRequest) (*domain.Event, error) {
	e, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, domain.ErrEventNotFound
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		if title != e.Title {
			newSlug := slug.Make(title)
			if newSlug != e.Slug {
				existing, err := s.repo.FindBySlug(ctx, s.db, newSlug)
				if err != nil {
					return nil, err
				}
				if existing != nil && existing.ID != e.ID {
					return nil, domain.ErrSlugTaken
				}
				e.Slug = newSlug
			}
			e.Title = title
		}
	}
	if req.Description != nil {
		e.Description = strings.TrimSpace(*req.Description)
	}
	if req.Location != nil {
		e.Location = strings.TrimSpace(*req.Location)
	}
	if req.StartsAt != nil {
		if req.StartsAt.IsZero() {
			return nil, domain.ErrInvalidStart
		}
		e.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		e.EndsAt = req.EndsAt
	}
	if req.Metadata != nil {
		e.Metadata = req.Metadata
	}

	e.UpdatedAt = s.clock.Now(ctx)
	if err := s.repo.Update(ctx, s.db, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	e, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if e == nil {
		return domain.ErrEventNotFound
	}
	return s.repo.Delete(ctx, s.db, id)
}

func (s *Service) GetBySlug(ctx context.Context, eventSlug string) (*domain.Event, error) {
	e, err := s.repo.FindBySlug(ctx, s.db, strings.TrimSpace(eventSlug))
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, domain.ErrEventNotFound
	}
	return e, nil
}

func (s *Service) ListUpcoming(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListUpcoming(ctx, s.db, s.clock.Now(ctx), limit)
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Event, error) {
	return s.repo.ListAll(ctx, s.db)
}
