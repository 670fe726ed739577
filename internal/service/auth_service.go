package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/events"
	"github.com/nextbenchapp/nextbench/internal/model"
	"github.com/nextbenchapp/nextbench/internal/repository"
	"github.com/nextbenchapp/nextbench/pkg/auth"
	"github.com/nextbenchapp/nextbench/pkg/mailer"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"
)

const (
	otpLength        = 6
	otpExpiryMinutes = 5
	otpRateLimit     = 3 // max OTPs per hour
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo       *repository.UserRepository
	otpRepo        *repository.OTPRepository
	jwtManager     *auth.JWTManager
	mailer         *mailer.Mailer
	rdb            *redis.Client
	bus            *events.Bus
	googleClientID string
}

func NewAuthService(
	userRepo *repository.UserRepository,
	otpRepo *repository.OTPRepository,
	jwtManager *auth.JWTManager,
	mailer *mailer.Mailer,
	rdb *redis.Client,
	bus *events.Bus,
	googleClientID string,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		otpRepo:        otpRepo,
		jwtManager:     jwtManager,
		mailer:         mailer,
		rdb:            rdb,
		bus:            bus,
		googleClientID: googleClientID,
	}
}

// ==================== Register (Email + OTP) ====================

// Register creates a new unverified user account and sends an OTP
func (s *AuthService) Register(req model.RegisterRequest) (*model.OTPSentResponse, error) {
	existingUser, err := s.userRepo.FindByEmail(req.Email)
	if err == nil {
		if existingUser.IsEmailVerified() {
			return nil, errors.New("email already registered")
		}
		// Registered but never verified, resend the code
		return s.sendOTP(existingUser, model.OTPPurposeEmailVerification)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		Password:     string(hashedPassword),
		Campus:       req.Campus,
		AuthProvider: model.AuthProviderEmail,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, errors.New("failed to create user")
	}

	return s.sendOTP(user, model.OTPPurposeEmailVerification)
}

// VerifyOTP verifies an OTP code and activates the account
func (s *AuthService) VerifyOTP(req model.VerifyOTPRequest) (*model.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, errors.New("user not found")
	}

	otp, err := s.otpRepo.FindValidOTP(user.ID, req.Code, model.OTPPurposeEmailVerification)
	if err != nil {
		return nil, errors.New("invalid or expired OTP code")
	}
	if err := s.otpRepo.MarkAsUsed(otp.ID); err != nil {
		return nil, errors.New("failed to verify OTP")
	}
	if err := s.userRepo.VerifyEmail(user.ID); err != nil {
		return nil, errors.New("failed to verify email")
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	user, _ = s.userRepo.FindByID(user.ID)
	return &model.LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}

// ResendOTP generates and sends a new OTP code
func (s *AuthService) ResendOTP(req model.ResendOTPRequest) (*model.OTPSentResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, errors.New("user not found")
	}
	if user.IsEmailVerified() {
		return nil, errors.New("email already verified")
	}
	return s.sendOTP(user, model.OTPPurposeEmailVerification)
}

// ==================== Login ====================

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(req model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid email or password")
		}
		return nil, errors.New("failed to find user")
	}

	if user.AuthProvider == model.AuthProviderGoogle {
		return nil, errors.New("this account uses Google login. Please sign in with Google")
	}
	if !user.IsEmailVerified() {
		return nil, errors.New("email not verified. Please check your inbox for the verification code")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	_ = s.userRepo.TouchLastSeen(user.ID)
	return &model.LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}

// LoginWithGoogle handles Google Sign-In
func (s *AuthService) LoginWithGoogle(req model.GoogleLoginRequest) (*model.LoginResponse, error) {
	userInfo, err := s.verifyGoogleToken(req.IDToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetOrCreateGoogleUser(*userInfo)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	_ = s.userRepo.TouchLastSeen(user.ID)
	return &model.LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}

// verifyGoogleToken validates a Google ID token and extracts user info
func (s *AuthService) verifyGoogleToken(tokenString string) (*model.GoogleUserInfo, error) {
	payload, err := idtoken.Validate(context.Background(), tokenString, s.googleClientID)
	if err != nil {
		return nil, fmt.Errorf("invalid google token: %w", err)
	}

	claims := payload.Claims
	email, ok := claims["email"].(string)
	if !ok {
		return nil, errors.New("email not found in token")
	}
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)
	verified, _ := claims["email_verified"].(bool)

	return &model.GoogleUserInfo{
		GoogleID: payload.Subject,
		Email:    email,
		Name:     name,
		Picture:  picture,
		Verified: verified,
	}, nil
}

// ==================== Forgot/Reset Password ====================

// ForgotPassword sends a password reset OTP
func (s *AuthService) ForgotPassword(req model.ForgotPasswordRequest) (*model.OTPSentResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		// Don't reveal whether the email exists
		return &model.OTPSentResponse{
			Message:   "If the email exists, a reset code has been sent",
			Email:     req.Email,
			ExpiresIn: otpExpiryMinutes * 60,
		}, nil
	}

	if user.AuthProvider == model.AuthProviderGoogle {
		return nil, errors.New("this account uses Google login. Password reset is not available")
	}
	return s.sendOTP(user, model.OTPPurposePasswordReset)
}

// ResetPassword verifies the OTP and sets a new password
func (s *AuthService) ResetPassword(req model.ResetPasswordRequest) error {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return errors.New("user not found")
	}

	otp, err := s.otpRepo.FindValidOTP(user.ID, req.Code, model.OTPPurposePasswordReset)
	if err != nil {
		return errors.New("invalid or expired reset code")
	}
	if err := s.otpRepo.MarkAsUsed(otp.ID); err != nil {
		return errors.New("failed to process reset code")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash password")
	}
	return s.userRepo.UpdatePassword(user.ID, string(hashedPassword))
}

// ==================== Profile ====================

// GetProfile returns the current user's profile
func (s *AuthService) GetProfile(userID uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	resp := user.ToResponse()
	return &resp, nil
}

// UpdateProfile applies a partial profile update
func (s *AuthService) UpdateProfile(userID uuid.UUID, req model.UpdateProfileRequest) (*model.UserResponse, error) {
	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.AvatarURL != "" {
		updates["avatar_url"] = req.AvatarURL
	}
	if req.Campus != "" {
		updates["campus"] = req.Campus
	}
	if req.Bio != "" {
		updates["bio"] = req.Bio
	}
	if req.Location != "" {
		updates["location"] = req.Location
	}
	if len(updates) > 0 {
		if err := s.userRepo.UpdateProfile(userID, updates); err != nil {
			return nil, err
		}
	}
	return s.GetProfile(userID)
}

// SearchUsers searches other users by name
func (s *AuthService) SearchUsers(query string, excludeUserID uuid.UUID) ([]model.UserResponse, error) {
	users, err := s.userRepo.SearchByName(query, excludeUserID, 20)
	if err != nil {
		return nil, err
	}

	result := []model.UserResponse{}
	for _, u := range users {
		result = append(result, u.ToResponse())
	}
	return result, nil
}

// RegisterDevice registers a device token for push notifications
func (s *AuthService) RegisterDevice(userID uuid.UUID, req model.RegisterDeviceRequest) error {
	return s.userRepo.RegisterDevice(&model.UserDevice{
		UserID:       userID,
		FCMToken:     req.FCMToken,
		DeviceType:   req.DeviceType,
		LastActiveAt: time.Now(),
	})
}

// Heartbeat records that the user is active right now. The first heartbeat of
// a calendar day earns the daily activity reward.
func (s *AuthService) Heartbeat(userID uuid.UUID) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return err
	}

	firstToday := user.LastSeenAt == nil || !sameDay(*user.LastSeenAt, time.Now())
	if err := s.userRepo.TouchLastSeen(userID); err != nil {
		return err
	}
	if firstToday && s.bus != nil {
		s.bus.Publish(events.TopicDailyActive, events.DailyActive{UserID: userID})
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ya, ma, da := a.Date()
	yb, mb, db := b.Date()
	return ya == yb && ma == mb && da == db
}

// Logout blacklists the token for its remaining lifetime
func (s *AuthService) Logout(userID uuid.UUID, tokenString string) error {
	if err := s.userRepo.TouchLastSeen(userID); err != nil {
		return err
	}

	claims, err := s.jwtManager.ValidateToken(tokenString)
	if err != nil {
		return err
	}

	expiresIn := time.Until(claims.ExpiresAt.Time)
	if expiresIn <= 0 {
		return nil
	}
	return s.rdb.Set(context.Background(), "blacklist:"+tokenString, "revoked", expiresIn).Err()
}

// ==================== Internal Helpers ====================

// sendOTP generates a code, saves it, and emails it
func (s *AuthService) sendOTP(user *model.User, purpose model.OTPPurpose) (*model.OTPSentResponse, error) {
	count, _ := s.otpRepo.CountRecentOTPs(user.ID, purpose, time.Now().Add(-1*time.Hour))
	if count >= int64(otpRateLimit) {
		return nil, errors.New("too many OTP requests. Please try again later")
	}

	_ = s.otpRepo.InvalidateAllForUser(user.ID, purpose)

	code, err := generateOTPCode(otpLength)
	if err != nil {
		return nil, errors.New("failed to generate OTP code")
	}

	otp := &model.OTPCode{
		UserID:    user.ID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(time.Duration(otpExpiryMinutes) * time.Minute),
	}
	if err := s.otpRepo.Create(otp); err != nil {
		return nil, errors.New("failed to save OTP")
	}

	go func() {
		var emailErr error
		switch purpose {
		case model.OTPPurposeEmailVerification:
			emailErr = s.mailer.SendOTP(user.Email, user.Name, code, otpExpiryMinutes)
		case model.OTPPurposePasswordReset:
			emailErr = s.mailer.SendPasswordReset(user.Email, user.Name, code, otpExpiryMinutes)
		}
		if emailErr != nil {
			log.Printf("auth: failed to send email: %v", emailErr)
		}
	}()

	return &model.OTPSentResponse{
		Message:   "Verification code sent to your email",
		Email:     user.Email,
		ExpiresIn: otpExpiryMinutes * 60,
	}, nil
}

// generateOTPCode generates a cryptographically secure random numeric code
func generateOTPCode(length int) (string, error) {
	code := ""
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code += fmt.Sprintf("%d", n.Int64())
	}
	return code, nil
}
