package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is a campus event listing
type Event struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID          uuid.UUID      `json:"user_id" gorm:"type:uuid;index;not null"`
	Title           string         `json:"title" gorm:"size:200;not null"`
	Description     string         `json:"description" gorm:"type:text"`
	Category        string         `json:"category" gorm:"size:100"`
	Type            string         `json:"type" gorm:"size:50"` // workshop, fest, hackathon...
	Date            time.Time      `json:"date" gorm:"index;not null"`
	Time            string         `json:"time" gorm:"size:20"`
	Location        string         `json:"location" gorm:"size:200"`
	College         string         `json:"college" gorm:"size:150;index"`
	Participants    int            `json:"participants" gorm:"default:0"`
	MaxParticipants int            `json:"max_participants" gorm:"default:0"` // 0 = unlimited
	Fee             float64        `json:"fee" gorm:"default:0"`
	ImageURL        string         `json:"image_url,omitempty" gorm:"size:500"`
	OfficialLink    string         `json:"official_link,omitempty" gorm:"size:500"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Organizer User `json:"organizer,omitempty" gorm:"foreignKey:UserID"`
}
