package models

import "time"

// Profile is the optional profile block embedded in a user row.
type Profile struct {
	ImageData        []byte `json:"-"`
	ImageContentType string `json:"-" gorm:"type:varchar(100)"`
	Bio              string `json:"bio,omitempty" gorm:"type:text"`
	Location         string `json:"location,omitempty" gorm:"type:varchar(255)"`
	Website          string `json:"website,omitempty" gorm:"type:varchar(255)"`
}

// User represents an account on the network.
type User struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserNumber int64     `json:"userId" gorm:"uniqueIndex"`
	Name       string    `json:"name" gorm:"type:varchar(100);not null"`
	Email      string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Password   string    `json:"-" gorm:"type:varchar(255);not null"`
	Bio        string    `json:"bio" gorm:"type:text"`
	Gender     string    `json:"gender" gorm:"type:varchar(20)"`
	Phone      string    `json:"phone" gorm:"type:varchar(20)"`
	Address    string    `json:"address" gorm:"type:text"`
	Profile    Profile   `json:"-" gorm:"embedded;embeddedPrefix:profile_"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"-"`

	// Loaded from the follows table.
	Followers []string `json:"followers" gorm:"-"`
	Following []string `json:"following" gorm:"-"`
}

// Follow is one directed edge of the social graph, keyed by the pair. A user's "following"
// list and the target's "followers" list are both read from this row.
type Follow struct {
	FollowerID  string    `json:"followerId" gorm:"primaryKey;type:varchar(36)"`
	FollowingID string    `json:"followingId" gorm:"primaryKey;type:varchar(36);index"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProfileView is the client shape of a profile block.
type ProfileView struct {
	ImageURL *string `json:"imageUrl"`
	Bio      string  `json:"bio,omitempty"`
	Location string  `json:"location,omitempty"`
	Website  string  `json:"website,omitempty"`
}

// UserView is a user without credentials and with the image inlined.
type UserView struct {
	ID         string      `json:"id"`
	UserNumber int64       `json:"userId"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Bio        string      `json:"bio"`
	Gender     string      `json:"gender"`
	Phone      string      `json:"phone"`
	Address    string      `json:"address"`
	Profile    ProfileView `json:"profile"`
	Followers  []string    `json:"followers"`
	Following  []string    `json:"following"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// UserSummary is one row of the user directory.
type UserSummary struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Bio     string      `json:"bio"`
	Profile ProfileView `json:"profile"`
}

// PublicUser is what register and login hand back next to the token.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
