package models

import "time"

// Activity event routing keys.
const (
	EventUserRegistered = "user.registered"
	EventUserFollowed   = "user.followed"
	EventUserUnfollowed = "user.unfollowed"
	EventPostCreated    = "post.created"
	EventPostLiked      = "post.liked"
	EventPostCommented  = "post.commented"
)

// ActivityEvent is published after every successful write.
type ActivityEvent struct {
	Type       string    `json:"type"`
	ActorID    string    `json:"actorId,omitempty"`
	TargetID   string    `json:"targetId,omitempty"`
	PostID     string    `json:"postId,omitempty"`
	Likes      int       `json:"likes,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
