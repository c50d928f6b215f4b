package services

import (
	"context"
	"strings"

	"socialfeed/internal/logger"
	"socialfeed/internal/models"
	"socialfeed/internal/repositories"

	"go.uber.org/zap"
)

// profileInvalidator drops cached profiles after the graph changes.
type profileInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...string)
}

// SocialGraphService manages follow relationships.
type SocialGraphService struct {
	userRepo repositories.UserRepository
	profiles profileInvalidator
	events   activityNotifier
	log      *zap.Logger
}

// NewSocialGraphService creates a new SocialGraphService. profiles may be nil.
func NewSocialGraphService(userRepo repositories.UserRepository, profiles *ProfileService, publisher EventPublisher, log *zap.Logger) *SocialGraphService {
	log = logger.OrNop(log)
	s := &SocialGraphService{
		userRepo: userRepo,
		events:   activityNotifier{publisher: publisher, log: log},
		log:      log,
	}
	if profiles != nil {
		s.profiles = profiles
	}
	return s
}

// Follow makes userID a follower of targetUserID.
func (s *SocialGraphService) Follow(ctx context.Context, userID, targetUserID string) error {
	if err := validatePair(userID, targetUserID, "You cannot follow yourself."); err != nil {
		return err
	}
	if err := s.userRepo.Follow(ctx, userID, targetUserID); err != nil {
		return err
	}
	s.afterChange(ctx, models.EventUserFollowed, userID, targetUserID)
	return nil
}

// Unfollow removes userID from targetUserID's followers.
func (s *SocialGraphService) Unfollow(ctx context.Context, userID, targetUserID string) error {
	if err := validatePair(userID, targetUserID, "You cannot unfollow yourself."); err != nil {
		return err
	}
	if err := s.userRepo.Unfollow(ctx, userID, targetUserID); err != nil {
		return err
	}
	s.afterChange(ctx, models.EventUserUnfollowed, userID, targetUserID)
	return nil
}

func (s *SocialGraphService) afterChange(ctx context.Context, event, userID, targetUserID string) {
	if s.profiles != nil {
		s.profiles.Invalidate(ctx, userID, targetUserID)
	}
	s.log.Info("social graph changed", zap.String("event", event),
		zap.String("user_id", userID), zap.String("target_user_id", targetUserID))
	s.events.notify(ctx, models.ActivityEvent{Type: event, ActorID: userID, TargetID: targetUserID})
}

func validatePair(userID, targetUserID, selfMessage string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(targetUserID) == "" {
		return models.NewValidationError("userId and targetUserId are required")
	}
	if userID == targetUserID {
		return models.NewValidationError(selfMessage)
	}
	return nil
}
