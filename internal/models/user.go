package models

import "gorm.io/gorm"

// User represents an account owning snippets. Authentication lives outside
// this service; handlers identify the caller by header.
type User struct {
	gorm.Model
	Email    string    `json:"email" gorm:"uniqueIndex"`
	Snippets []Snippet `json:"snippets,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// Setting names used by the highlight importer
const (
	SettingReadwiseToken   = "readwise_token"
	SettingReadwiseTitles  = "readwise_titles"
	SettingDefaultDuration = "readwise_duration"
)

// UserSetting is a per-user name/value pair (importer token, synced titles,
// default clip duration).
type UserSetting struct {
	gorm.Model
	UserID uint   `json:"user_id" gorm:"not null;index:idx_settings_user_name"`
	Name   string `json:"name" gorm:"not null;size:80;index:idx_settings_user_name"`
	Value  string `json:"value" gorm:"not null;size:255"`
}

// TableName specifies the table name for GORM
func (UserSetting) TableName() string {
	return "user_settings"
}
