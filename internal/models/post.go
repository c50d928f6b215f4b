package models

import "time"

// Post is an authored item with an optional embedded image.
//
// UserName is copied from the author at creation time and is not updated
// if the author is later renamed.
type Post struct {
	ID               string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID           string    `json:"userId" gorm:"type:varchar(36);not null;index"`
	UserName         string    `json:"userName" gorm:"type:varchar(100)"`
	Caption          string    `json:"caption" gorm:"type:text"`
	ImageData        []byte    `json:"-"`
	ImageContentType string    `json:"-" gorm:"type:varchar(100)"`
	File             string    `json:"file,omitempty" gorm:"type:text"`
	Likes            int       `json:"likes" gorm:"not null;default:1"`
	Shares           int       `json:"shares" gorm:"not null;default:0"`
	Comments         []Comment `json:"comments" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt        time.Time `json:"-"`
}

// New posts start with one like.
const InitialPostLikes = 1

// Comment belongs to exactly one post and is only ever appended.
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PostID    string    `json:"-" gorm:"type:varchar(36);not null;uniqueIndex:idx_comment_position"`
	Position  int       `json:"-" gorm:"not null;uniqueIndex:idx_comment_position"`
	UserID    string    `json:"userId" gorm:"type:varchar(36)"`
	UserName  string    `json:"userName" gorm:"type:varchar(100)"`
	Text      string    `json:"comment" gorm:"type:text;not null"`
	Likes     int       `json:"likes" gorm:"not null;default:0"`
	Timestamp time.Time `json:"timestamp"`
}

// PostView is a stored post with its image inlined as a data URI.
type PostView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Caption   string    `json:"caption"`
	Image     *string   `json:"image"`
	File      string    `json:"file,omitempty"`
	Likes     int       `json:"likes"`
	Shares    int       `json:"shares"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostListItem is one row of the lightweight post listing.
type PostListItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Caption   string    `json:"caption"`
	Likes     int       `json:"likes"`
	Shares    int       `json:"shares"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
	Timestamp string    `json:"timestamp"`
}

// FeedComment is a comment with a human-relative timestamp.
type FeedComment struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Comment   string `json:"comment"`
	Likes     int    `json:"likes"`
	Timestamp string `json:"timestamp"`
}

// FeedItem is one fully resolved feed entry. Degraded is set when the
// author's avatar could not be looked up.
type FeedItem struct {
	PostID    string        `json:"postId"`
	UserID    string        `json:"userId"`
	UserName  string        `json:"userName"`
	Caption   string        `json:"caption"`
	Likes     int           `json:"likes"`
	Comments  []FeedComment `json:"comments"`
	ImageSrc  *string       `json:"imageSrc"`
	Avatar    *string       `json:"avatar"`
	Timestamp string        `json:"timestamp"`
	Degraded  bool          `json:"degraded,omitempty"`
}
