package main

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/nextbenchapp/nextbench/internal/config"
	"github.com/nextbenchapp/nextbench/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var campuses = []string{"IIT Delhi", "BITS Pilani", "NIT Trichy", "VIT Vellore"}

func main() {
	cfg := config.Load()

	// Force DB logging off to avoid noise
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Connected to Database")

	// Common password for all users
	password := "password123"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}

	log.Println("🌱 Seeding 10 users...")

	users := make([]model.User, 0, 10)
	for i := 1; i <= 10; i++ {
		username := fmt.Sprintf("student%d", i)
		email := fmt.Sprintf("student%d@nextbench.local", i)

		var existing model.User
		if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
			users = append(users, existing)
			continue
		}

		now := time.Now()
		user := model.User{
			ID:              uuid.New(),
			Name:            fmt.Sprintf("Student %d", i),
			Email:           email,
			Password:        string(hashedPassword),
			AuthProvider:    model.AuthProviderEmail,
			EmailVerifiedAt: &now, // Verified immediately
			Campus:          campuses[i%len(campuses)],
			AvatarURL:       fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", username),
		}

		if err := db.Create(&user).Error; err != nil {
			log.Printf("❌ Failed to create user %s: %v", username, err)
			continue
		}
		users = append(users, user)
		log.Printf("✅ Created user: %s | Email: %s | Pass: %s", username, email, password)
	}

	if len(users) < 4 {
		log.Fatalln("❌ Not enough users to seed listings")
	}

	seedMarketplace(db, users)
	seedCommunity(db, users)

	log.Println("🎉 Seeding completed!")
}

func seedMarketplace(db *gorm.DB, users []model.User) {
	var count int64
	db.Model(&model.Product{}).Count(&count)
	if count > 0 {
		return
	}

	products := []model.Product{
		{
			UserID:      users[0].ID,
			Name:        "Casio FX-991 Calculator",
			Description: "Barely used, all keys working. Perfect for engineering math.",
			Price:       650,
			Category:    "electronics",
			Condition:   "like new",
			Campus:      users[0].Campus,
			ImageURLs:   pq.StringArray{"https://picsum.photos/seed/calc/400"},
		},
		{
			UserID:      users[1].ID,
			Name:        "Data Structures Textbook (Cormen)",
			Description: "3rd edition, some highlighting in the first chapters.",
			Price:       400,
			Category:    "books",
			Condition:   "good",
			Campus:      users[1].Campus,
		},
		{
			UserID:    users[2].ID,
			Name:      "Hero Sprint Cycle",
			Price:     3500,
			Category:  "vehicles",
			Condition: "used",
			Campus:    users[2].Campus,
		},
	}
	for i := range products {
		if err := db.Create(&products[i]).Error; err != nil {
			log.Printf("❌ Failed to seed product: %v", err)
		}
	}

	services := []model.Service{
		{
			UserID:      users[3].ID,
			Title:       "Assignment proofreading",
			Description: "Grammar and structure review for reports and essays.",
			Price:       50,
			Unit:        "per page",
			Category:    "writing",
			Skills:      pq.StringArray{"editing", "academic writing"},
		},
		{
			UserID:   users[0].ID,
			Title:    "Guitar lessons for beginners",
			Price:    300,
			Unit:     "per hour",
			Category: "music",
			Skills:   pq.StringArray{"guitar", "music theory"},
		},
	}
	for i := range services {
		if err := db.Create(&services[i]).Error; err != nil {
			log.Printf("❌ Failed to seed service: %v", err)
		}
	}
	log.Println("🛒 Seeded marketplace listings")
}

func seedCommunity(db *gorm.DB, users []model.User) {
	var count int64
	db.Model(&model.StudyGroup{}).Count(&count)
	if count > 0 {
		return
	}

	host := users[0]

	// Study group with its chat conversation
	conv := model.Conversation{
		Name:      "OS Finals Prep",
		IsGroup:   true,
		CreatedBy: &host.ID,
	}
	if err := db.Create(&conv).Error; err != nil {
		log.Printf("❌ Failed to seed group conversation: %v", err)
		return
	}
	db.Create(&model.ConversationMember{ConversationID: conv.ID, UserID: host.ID, JoinedAt: time.Now()})

	group := model.StudyGroup{
		UserID:         host.ID,
		Subject:        "Operating Systems",
		Topic:          "Finals prep: scheduling and memory",
		College:        host.Campus,
		MaxMembers:     6,
		Schedule:       "Tue/Thu 7pm",
		Location:       "Library room 2",
		Level:          "intermediate",
		ConversationID: &conv.ID,
	}
	if err := db.Create(&group).Error; err != nil {
		log.Printf("❌ Failed to seed study group: %v", err)
		return
	}
	db.Create(&model.StudyGroupMember{GroupID: group.ID, UserID: host.ID, JoinedAt: time.Now()})

	swap := model.SkillSwap{
		UserID:       users[1].ID,
		Offering:     "Python basics",
		Seeking:      "Spoken German",
		Description:  "Happy to trade weekly one hour sessions.",
		Availability: "weekends",
	}
	if err := db.Create(&swap).Error; err != nil {
		log.Printf("❌ Failed to seed skill swap: %v", err)
	}

	event := model.Event{
		UserID:          users[2].ID,
		Title:           "Campus Hackathon",
		Description:     "24 hour build sprint, teams of four.",
		Category:        "tech",
		Type:            "hackathon",
		Date:            time.Now().AddDate(0, 0, 14),
		Time:            "9:00 AM",
		Location:        "Main auditorium",
		College:         users[2].Campus,
		MaxParticipants: 120,
	}
	if err := db.Create(&event).Error; err != nil {
		log.Printf("❌ Failed to seed event: %v", err)
	}

	log.Println("🏫 Seeded community content")
}
