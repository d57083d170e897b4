package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sujeethshingade/form-builder-sub000/internal/form/entity"
	"github.com/sujeethshingade/form-builder-sub000/internal/form/repository"
)

var collectionNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// CollectionService 集合服务
type CollectionService struct {
	repo *repository.CollectionRepository
	deps Deps
}

// NewCollectionService 创建集合服务
func NewCollectionService(repo *repository.CollectionRepository, deps Deps) *CollectionService {
	return &CollectionService{repo: repo, deps: deps}
}

// CreateCollectionRequest 创建集合请求
type CreateCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// List 集合列表
func (s *CollectionService) List(ctx context.Context) ([]entity.Collection, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	if items == nil {
		items = []entity.Collection{}
	}
	return items, nil
}

func checkCollectionName(name string) error {
	if name == "" {
		return invalid("Collection name is required")
	}
	if !collectionNamePattern.MatchString(name) {
		return invalid("Invalid collection name: %s", name)
	}
	return nil
}

// Create 创建集合，名称重复时报错
func (s *CollectionService) Create(ctx context.Context, req *CreateCollectionRequest) (*entity.Collection, error) {
	name := strings.TrimSpace(req.Name)
	if err := checkCollectionName(name); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, invalid("Collection already exists: %s", name)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find collection: %w", err)
	}

	c := &entity.Collection{ID: newID(), Name: name, Description: req.Description}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	s.deps.Events.Publish("collection", c.ID, ActionCreated)
	return c, nil
}

// Ensure 集合不存在时创建
func (s *CollectionService) Ensure(ctx context.Context, name string) (*entity.Collection, error) {
	if err := checkCollectionName(name); err != nil {
		return nil, err
	}
	c, err := s.repo.Ensure(ctx, &entity.Collection{ID: newID(), Name: name})
	if err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}
	return c, nil
}
