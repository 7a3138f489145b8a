package models

import "time"

// Post is the only domain entity. ID and CreatedAt are assigned by the store
// on insert and never change afterwards.
type Post struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"type:text;not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()" json:"created_at"`
}

func (Post) TableName() string {
	return "posts"
}
