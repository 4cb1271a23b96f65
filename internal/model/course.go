package model

import "time"

// Level is the difficulty of a course.
type Level string

const (
	LevelBasic        Level = "BASIC"
	LevelIntermediate Level = "INTERMEDIATE"
	LevelAdvanced     Level = "ADVANCED"
)

// Course is a learning route made of ordered classes.
type Course struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Level       Level     `json:"level" gorm:"type:varchar(20);not null"`
	NameURL     string    `json:"nameUrl" gorm:"column:name_url;uniqueIndex;size:191;not null"`
	ImageURL    string    `json:"imageUrl" gorm:"column:image_url;size:512"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// Class is a single lesson of a course. ClassNumber is its 1-based position
// within the course.
type Class struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Role        Role      `json:"role" gorm:"type:varchar(20);not null"`
	ClassNumber int       `json:"classNumber" gorm:"column:class_number;not null;uniqueIndex:idx_route_class_number"`
	RouteID     uint      `json:"routeId" gorm:"column:route_id;not null;uniqueIndex:idx_route_class_number"`
	VideoURL    string    `json:"videoUrl" gorm:"column:video_url;size:512;not null"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`

	Course Course `json:"-" gorm:"foreignKey:RouteID;constraint:OnDelete:CASCADE"`
}

// TableName keeps the table name stable regardless of pluralisation rules.
func (Class) TableName() string {
	return "classes"
}
