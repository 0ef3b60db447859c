package models

import "time"

// PostPreviewLength is the number of characters Post.String keeps.
const PostPreviewLength = 15

// Post is a text entry published by an author, optionally in a group and with an image.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	GroupID   *uint     `gorm:"index" json:"group_id,omitempty"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	// Image is a path relative to the media root, empty when the post has no image.
	Image string `gorm:"size:255" json:"image,omitempty"`
}

func (p Post) String() string {
	runes := []rune(p.Text)
	if len(runes) <= PostPreviewLength {
		return p.Text
	}
	return string(runes[:PostPreviewLength])
}

// IsAuthor reports whether userID wrote the post.
func (p Post) IsAuthor(userID uint) bool {
	return userID != 0 && p.AuthorID == userID
}
