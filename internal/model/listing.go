package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Product is a physical item listed for sale or rent
type Product struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      uuid.UUID      `json:"user_id" gorm:"type:uuid;index;not null"`
	Name        string         `json:"name" gorm:"size:200;not null"`
	Description string         `json:"description" gorm:"type:text"`
	Price       float64        `json:"price" gorm:"not null"`
	Category    string         `json:"category" gorm:"size:100;index"`
	Condition   string         `json:"condition" gorm:"size:50"`
	Campus      string         `json:"campus" gorm:"size:150;index"`
	ImageURLs   pq.StringArray `json:"image_urls,omitempty" gorm:"type:text[]"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Seller  User     `json:"seller,omitempty" gorm:"foreignKey:UserID"`
	Ratings []Rating `json:"ratings,omitempty" gorm:"foreignKey:ProductID"`
}

// Service is a freelance service offered by a student
type Service struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      uuid.UUID      `json:"user_id" gorm:"type:uuid;index;not null"`
	Title       string         `json:"title" gorm:"size:200;not null"`
	Description string         `json:"description" gorm:"type:text"`
	Price       float64        `json:"price" gorm:"not null"`
	Unit        string         `json:"unit" gorm:"size:50"` // per hour, per page, per project
	Category    string         `json:"category" gorm:"size:100;index"`
	Skills      pq.StringArray `json:"skills,omitempty" gorm:"type:text[]"`
	ImageURL    string         `json:"image_url,omitempty" gorm:"size:500"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Provider User     `json:"provider,omitempty" gorm:"foreignKey:UserID"`
	Ratings  []Rating `json:"ratings,omitempty" gorm:"foreignKey:ServiceID"`
}

// Favorite bookmarks a product for a user
type Favorite struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex:idx_user_product;not null"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;uniqueIndex:idx_user_product;not null"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// Rating is one user's star rating of a product or a service.
// Exactly one of ProductID/ServiceID is set; a user rates each item at most once.
type Rating struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	ProductID *uuid.UUID `json:"product_id,omitempty" gorm:"type:uuid;index"`
	ServiceID *uuid.UUID `json:"service_id,omitempty" gorm:"type:uuid;index"`
	Rating    int        `json:"rating" gorm:"not null"` // 1..5
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
