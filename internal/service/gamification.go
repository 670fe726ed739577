package service

import (
	"log"
	"math"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/model"
	"github.com/nextbenchapp/nextbench/internal/repository"
)

// XP awarded per action. Coins accrue alongside at a tenth of the XP.
const (
	XPCreateListing       = 40
	XPCompleteTransaction = 120
	XPFiveStarRating      = 30
	XPQuickReply          = 10
	XPDailyActivity       = 15
	XPSkillSwapComplete   = 80
)

// TrustScore computes the 0..100 reputation value from a user's track record.
func TrustScore(completedDeals int, avgRating float64, responseRate float64, reports int) int {
	raw := float64(completedDeals)*3 + avgRating*10 + responseRate*0.3 - float64(reports)*15
	score := int(math.Round(raw))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// GamificationService awards XP and coins and maintains trust scores. It is
// driven by event bus subscribers, never called inline from handlers.
type GamificationService struct {
	userRepo    *repository.UserRepository
	listingRepo *repository.ListingRepository
}

func NewGamificationService(userRepo *repository.UserRepository, listingRepo *repository.ListingRepository) *GamificationService {
	return &GamificationService{
		userRepo:    userRepo,
		listingRepo: listingRepo,
	}
}

// Award grants XP to a user, with coins at a tenth of the XP
func (s *GamificationService) Award(userID uuid.UUID, xp int) {
	if err := s.userRepo.AddXP(userID, xp, xp/10); err != nil {
		log.Printf("gamification: award %d xp to %s: %v", xp, userID, err)
	}
}

// RecordTransaction credits a completed deal and refreshes the trust score
func (s *GamificationService) RecordTransaction(userID uuid.UUID) {
	if err := s.userRepo.IncrementCompletedDeals(userID); err != nil {
		log.Printf("gamification: increment deals for %s: %v", userID, err)
		return
	}
	s.Award(userID, XPCompleteTransaction)
	s.RefreshTrustScore(userID)
}

// RecordRating awards the five-star bonus when earned and refreshes the
// rated user's trust score.
func (s *GamificationService) RecordRating(ownerID uuid.UUID, stars int) {
	if stars == 5 {
		s.Award(ownerID, XPFiveStarRating)
	}
	s.RefreshTrustScore(ownerID)
}

// RefreshTrustScore recomputes and stores the user's trust score
func (s *GamificationService) RefreshTrustScore(userID uuid.UUID) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		log.Printf("gamification: load user %s: %v", userID, err)
		return
	}
	avg, err := s.listingRepo.AverageRatingForUser(userID)
	if err != nil {
		log.Printf("gamification: average rating for %s: %v", userID, err)
		return
	}

	score := TrustScore(user.CompletedDeals, avg, user.ResponseRate, user.Reports)
	if err := s.userRepo.UpdateTrustScore(userID, score); err != nil {
		log.Printf("gamification: update trust score for %s: %v", userID, err)
	}
}

// Leaderboard returns the top users by XP
func (s *GamificationService) Leaderboard(limit int) ([]model.UserResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	users, err := s.userRepo.Leaderboard(limit)
	if err != nil {
		return nil, err
	}

	result := []model.UserResponse{}
	for _, u := range users {
		result = append(result, u.ToResponse())
	}
	return result, nil
}
