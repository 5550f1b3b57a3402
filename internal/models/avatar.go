package models

// Avatar maps a symbolic avatar name to the image path served for it.
// Rows come from the avatar catalog file and are join-time decoration only.
type Avatar struct {
	AvatarName string `gorm:"primaryKey;size:64" json:"avatar_name"`
	ImagePath  string `gorm:"not null" json:"image_path"`
}

// TableName specifies the table name for GORM
func (Avatar) TableName() string {
	return "avatars"
}
