package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wadjakorntonsri/shorts/pkg/core/domain"
	"github.com/wadjakorntonsri/shorts/pkg/ports"
	"github.com/wadjakorntonsri/shorts/pkg/validation"
)

type LinkService struct {
	repo ports.Repository
	now  func() time.Time
}

func NewLinkService(repo ports.Repository) *LinkService {
	return &LinkService{repo: repo, now: time.Now}
}

func (s *LinkService) ListLinksByPopularity(ctx context.Context) ([]domain.LinkWithHits, error) {
	return s.repo.ListLinksByHits(ctx)
}

// AddLink stores a new short link. The store's UNIQUE constraint decides
// races between concurrent requests for the same short.
func (s *LinkService) AddLink(ctx context.Context, short, original string) (*domain.Link, error) {
	short = strings.TrimSpace(short)
	original = strings.TrimSpace(original)
	if short == "" || original == "" {
		return nil, fmt.Errorf("short and url are required: %w", domain.ErrInvalidInput)
	}
	if !validation.IsHTTPURL(original) {
		return nil, fmt.Errorf("url %q: %w", original, domain.ErrInvalidInput)
	}

	link := &domain.Link{Short: short, Original: original}
	if err := s.repo.CreateLink(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// RemoveLink reports whether a link named short existed and was deleted.
func (s *LinkService) RemoveLink(ctx context.Context, short string) (bool, error) {
	link, err := s.repo.GetLinkByShort(ctx, short)
	if err != nil {
		return false, err
	}
	if link == nil {
		return false, nil
	}
	if err := s.repo.DeleteLink(ctx, link.ID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *LinkService) GetLink(ctx context.Context, short string) (*domain.Link, error) {
	link, err := s.repo.GetLinkByShort(ctx, short)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, fmt.Errorf("link %q: %w", short, domain.ErrNotFound)
	}
	return link, nil
}

// RecordHit stores one visit of short. An unknown short yields ErrNotFound.
func (s *LinkService) RecordHit(ctx context.Context, short string, userAgent *string) (*domain.Hit, error) {
	link, err := s.GetLink(ctx, short)
	if err != nil {
		return nil, err
	}

	hit := &domain.Hit{
		Parent:    link.ID,
		Time:      s.now().Unix(),
		UserAgent: userAgent,
	}
	if err := s.repo.CreateHit(ctx, hit); err != nil {
		return nil, err
	}
	return hit, nil
}

// ListHits returns the hits of short, newest first.
func (s *LinkService) ListHits(ctx context.Context, short string) ([]domain.Hit, error) {
	link, err := s.GetLink(ctx, short)
	if err != nil {
		return nil, err
	}
	return s.repo.ListHits(ctx, link.ID)
}

var _ ports.LinkService = (*LinkService)(nil)
