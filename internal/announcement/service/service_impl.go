package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/scsaalabs/memberhub/internal/announcement/domain"
	"github.com/scsaalabs/memberhub/internal/clock"
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
		log:   p.Log.Named("announcement.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Announcement, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}

	announcementSlug := slug.Make(title)
	existing, err := s.repo.FindBySlug(ctx, s.db, announcementSlug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrSlugTaken
	}

	now := s.clock.Now(ctx)
	a := &domain.Announcement{
		ID:        s.genID.Generate(),
		Title:     title,
		Slug:      announcementSlug,
		Body:      strings.TrimSpace(req.Body),
		Metadata:  req.Metadata,
		CreatedBy: req.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Publish {
		a.PublishedAt = &now
	}

	if err := s.repo.Create(ctx, s.db, a); err != nil {
		return nil, err
	}

	s.log.Info("announcement created",
		zap.String("slug", a.Slug),
		zap.Bool("published", a.Published()))
	return a, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateRequest) (*domain.Announcement, error) {
	a, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrAnnouncementNotFound
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		if title != a.Title {
			newSlug := slug.Make(title)
			if newSlug != a.Slug {
				existing, err := s.repo.FindBySlug(ctx, s.db, newSlug)
				if err != nil {
					return nil, err
				}
				if existing != nil && existing.ID != a.ID {
					return nil, domain.ErrSlugTaken
				}
				a.Slug = newSlug
			}
			a.Title = title
		}
	}
	if req.Body != nil {
		a.Body = strings.TrimSpace(*req.Body)
	}
	if req.Metadata != nil {
		a.Metadata = req.Metadata
	}

	now := s.clock.Now(ctx)
	if req.Publish != nil {
		if *req.Publish && a.PublishedAt == nil {
			a.PublishedAt = &now
		} else if !*req.Publish {
			a.PublishedAt = nil
		}
	}

	a.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	a, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if a == nil {
		return domain.ErrAnnouncementNotFound
	}
	return s.repo.Delete(ctx, s.db, id)
}

func (s *Service) GetBySlug(ctx context.Context, announcementSlug string) (*domain.Announcement, error) {
	a, err := s.repo.FindBySlug(ctx, s.db, strings.TrimSpace(announcementSlug))
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrAnnouncementNotFound
	}
	return a, nil
}

func (s *Service) ListPublished(ctx context.Context, limit int) ([]domain.Announcement, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListPublished(ctx, s.db, limit)
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Announcement, error) {
	return s.repo.ListAll(ctx, s.db)
}
