package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/models"
)

type MockLinkStore struct {
	mock.Mock
}

func (s *MockLinkStore) FindByShortID(ctx context.Context, shortID string) (*models.ShortLink, error) {
	args := s.Called(ctx, shortID)
	link, _ := args.Get(0).(*models.ShortLink)
	return link, args.Error(1)
}

func (s *MockLinkStore) FindByLongURL(ctx context.Context, longURL string) (*models.ShortLink, error) {
	args := s.Called(ctx, longURL)
	link, _ := args.Get(0).(*models.ShortLink)
	return link, args.Error(1)
}

func (s *MockLinkStore) ShortIDExists(ctx context.Context, shortID string) (bool, error) {
	args := s.Called(ctx, shortID)
	return args.Bool(0), args.Error(1)
}

func (s *MockLinkStore) CreateShortLink(ctx context.Context, shortID, longURL string, createdBy int64) (*models.ShortLink, error) {
	args := s.Called(ctx, shortID, longURL, createdBy)
	link, _ := args.Get(0).(*models.ShortLink)
	return link, args.Error(1)
}

func (s *MockLinkStore) IncrementClicks(ctx context.Context, rowID, currentClicks int64) error {
	args := s.Called(ctx, rowID, currentClicks)
	return args.Error(0)
}

type MockUserStore struct {
	mock.Mock
}

func (s *MockUserStore) FindUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	args := s.Called(ctx, identifier)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (s *MockUserStore) UpdateLastLogin(ctx context.Context, rowID int64) error {
	args := s.Called(ctx, rowID)
	return args.Error(0)
}

func (s *MockUserStore) AppendLoginLog(ctx context.Context, attempt models.LoginAttempt) error {
	args := s.Called(ctx, attempt)
	return args.Error(0)
}
