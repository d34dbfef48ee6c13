package models

import (
	"time"
)

// User is created on first Google sign-in. The ID is a server-generated UUID
// rather than an auto-increment so it can double as the JWT subject.
type User struct {
	ID                 string     `gorm:"primaryKey" json:"id"`
	Email              string     `gorm:"uniqueIndex;not null" json:"email"`
	Name               string     `json:"name"`
	Picture            *string    `json:"picture,omitempty"`
	RefreshToken       *string    `json:"-"`
	RefreshTokenExpiry *time.Time `json:"-"`

	Markers []Marker       `gorm:"foreignKey:UserID" json:"-"`
	Images  []MarkerImage  `gorm:"foreignKey:UserID" json:"-"`
	Ratings []MarkerRating `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Coordinates is an immutable lat/lng pair stored inline on the marker row.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Marker struct {
	ID          int         `gorm:"primaryKey" json:"id"`
	Name        string      `gorm:"not null" json:"name"`
	Position    Coordinates `gorm:"embedded;embeddedPrefix:position_" json:"position"`
	Type        string      `json:"type"`
	UserID      *string     `gorm:"index" json:"user_id,omitempty"` // nil on legacy rows
	User        *User       `gorm:"foreignKey:UserID" json:"-"`
	Description *string     `json:"description,omitempty"`
	ImageUrl    *string     `json:"image_url,omitempty"`
	Rating      *float64    `json:"rating,omitempty"`

	Images  []MarkerImage  `gorm:"foreignKey:MarkerID;constraint:OnDelete:CASCADE" json:"images"`
	Ratings []MarkerRating `gorm:"foreignKey:MarkerID;constraint:OnDelete:CASCADE" json:"ratings"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnedBy reports whether userID is the marker's owner. Legacy markers
// without an owner are owned by nobody.
func (m *Marker) OwnedBy(userID string) bool {
	return m.UserID != nil && *m.UserID == userID
}

// MarkerImage is a secondary image contributed by any authenticated user.
// UserID is nullable because early records were stored without attribution.
type MarkerImage struct {
	ID       int     `gorm:"primaryKey" json:"id"`
	MarkerID int     `gorm:"index;not null" json:"marker_id"`
	Marker   *Marker `gorm:"foreignKey:MarkerID" json:"-"`
	ImageUrl string  `gorm:"not null" json:"image_url"`
	UserID   *string `gorm:"index" json:"user_id,omitempty"`
	User     *User   `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// ContributedBy reports whether userID uploaded this image.
func (i *MarkerImage) ContributedBy(userID string) bool {
	return i.UserID != nil && *i.UserID == userID
}

// MarkerRating holds one user's rating of one marker. The composite unique
// index is what turns a repeat rating into an overwrite instead of a
// duplicate row.
type MarkerRating struct {
	ID       int     `gorm:"primaryKey" json:"id"`
	MarkerID int     `gorm:"not null;uniqueIndex:idx_rating_user_marker" json:"marker_id"`
	Marker   *Marker `gorm:"foreignKey:MarkerID" json:"-"`
	UserID   string  `gorm:"not null;uniqueIndex:idx_rating_user_marker" json:"user_id"`
	User     *User   `gorm:"foreignKey:UserID" json:"-"`
	Value    int     `gorm:"not null" json:"value"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
