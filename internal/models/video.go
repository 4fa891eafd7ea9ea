package models

import "time"

// Video is a library entry: metadata plus an opaque media reference to
// content that lives on the chat platform. The binary itself is never
// stored locally. MediaRef is immutable once set.
type Video struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	MediaRef    string `gorm:"size:256;not null"`
	Title       string `gorm:"not null"`
	Description string `gorm:"type:text"`
	CategoryID  *uint  `gorm:"index"`
	UploadedBy  string `gorm:"size:64;not null;index"`
	Active      bool   `gorm:"default:true;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Category *Category `gorm:"foreignKey:CategoryID"`
}
