package model

import (
	"time"

	"github.com/google/uuid"
)

// ========== Auth DTOs ==========

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Campus   string `json:"campus" binding:"max=150"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

type ResendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type OTPSentResponse struct {
	Message   string `json:"message"`
	Email     string `json:"email"`
	ExpiresIn int    `json:"expires_in"` // seconds until code expires
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

type UpdateProfileRequest struct {
	Name      string `json:"name" binding:"max=100"`
	AvatarURL string `json:"avatar_url" binding:"max=500"`
	Campus    string `json:"campus" binding:"max=150"`
	Bio       string `json:"bio" binding:"max=2000"`
	Location  string `json:"location" binding:"max=150"`
}

// GoogleUserInfo holds the identity claims extracted from a Google ID token
type GoogleUserInfo struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
	Verified bool
}

type RegisterDeviceRequest struct {
	FCMToken   string `json:"fcm_token" binding:"required"`
	DeviceType string `json:"device_type" binding:"required"`
}

// ========== Conversation DTOs ==========

type DirectConversationRequest struct {
	ReceiverID uuid.UUID `json:"receiver_id" binding:"required"`
}

// ConversationResponse enriches a conversation with the per-viewer unread
// count, the counterpart's profile (direct chats only) and the most recent
// message still visible to the viewer.
type ConversationResponse struct {
	Conversation
	UnreadCount int           `json:"unread_count"`
	OtherUser   *UserResponse `json:"other_user,omitempty"`
}

type DirectConversationResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	Messages     []Message            `json:"messages"`
	IsNew        bool                 `json:"is_new"`
}

// ========== Message DTOs ==========

type SendMessageRequest struct {
	Content  string   `json:"content" binding:"required_without=FileURL"`
	FileURL  string   `json:"file_url,omitempty" binding:"max=500"`
	FileType FileKind `json:"file_type,omitempty"`
}

// ========== Marketplace DTOs ==========

type CreateProductRequest struct {
	Name        string   `json:"name" binding:"required,max=200"`
	Description string   `json:"description"`
	Price       float64  `json:"price" binding:"required,gte=0"`
	Category    string   `json:"category" binding:"max=100"`
	Condition   string   `json:"condition" binding:"max=50"`
	Campus      string   `json:"campus" binding:"max=150"`
	ImageURLs   []string `json:"image_urls"`
}

// UpdateProductRequest carries optional fields; empty values are left untouched
type UpdateProductRequest struct {
	Name        string   `json:"name,omitempty" binding:"max=200"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty" binding:"omitempty,gte=0"`
	Category    string   `json:"category,omitempty" binding:"max=100"`
	Condition   string   `json:"condition,omitempty" binding:"max=50"`
	ImageURLs   []string `json:"image_urls,omitempty"`
}

type ListingFilter struct {
	Search   string `form:"search"`
	Campus   string `form:"campus"`
	Category string `form:"category"`
}

type CreateServiceRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Description string   `json:"description"`
	Price       float64  `json:"price" binding:"required,gte=0"`
	Unit        string   `json:"unit" binding:"max=50"`
	Category    string   `json:"category" binding:"max=100"`
	Skills      []string `json:"skills"`
	ImageURL    string   `json:"image_url" binding:"max=500"`
}

type UpdateServiceRequest struct {
	Title       string   `json:"title,omitempty" binding:"max=200"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty" binding:"omitempty,gte=0"`
	Unit        string   `json:"unit,omitempty" binding:"max=50"`
	Category    string   `json:"category,omitempty" binding:"max=100"`
	Skills      []string `json:"skills,omitempty"`
	ImageURL    string   `json:"image_url,omitempty" binding:"max=500"`
}

type SubmitRatingRequest struct {
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	ItemType string    `json:"item_type" binding:"required,oneof=product service"`
	Rating   int       `json:"rating" binding:"required,min=1,max=5"`
}

// ========== Event DTOs ==========

type CreateEventRequest struct {
	Title           string    `json:"title" binding:"required,max=200"`
	Description     string    `json:"description"`
	Category        string    `json:"category" binding:"max=100"`
	Type            string    `json:"type" binding:"max=50"`
	Date            time.Time `json:"date" binding:"required"`
	Time            string    `json:"time" binding:"max=20"`
	Location        string    `json:"location" binding:"max=200"`
	College         string    `json:"college" binding:"max=150"`
	MaxParticipants int       `json:"max_participants" binding:"gte=0"`
	Fee             float64   `json:"fee" binding:"gte=0"`
	ImageURL        string    `json:"image_url" binding:"max=500"`
	OfficialLink    string    `json:"official_link" binding:"max=500"`
}

type UpdateEventRequest struct {
	Title           string     `json:"title,omitempty" binding:"max=200"`
	Description     string     `json:"description,omitempty"`
	Category        string     `json:"category,omitempty" binding:"max=100"`
	Type            string     `json:"type,omitempty" binding:"max=50"`
	Date            *time.Time `json:"date,omitempty"`
	Time            string     `json:"time,omitempty" binding:"max=20"`
	Location        string     `json:"location,omitempty" binding:"max=200"`
	MaxParticipants *int       `json:"max_participants,omitempty" binding:"omitempty,gte=0"`
	Fee             *float64   `json:"fee,omitempty" binding:"omitempty,gte=0"`
	ImageURL        string     `json:"image_url,omitempty" binding:"max=500"`
	OfficialLink    string     `json:"official_link,omitempty" binding:"max=500"`
}

// ========== Skill Swap DTOs ==========

type CreateSkillSwapRequest struct {
	Offering     string `json:"offering" binding:"required,max=200"`
	Seeking      string `json:"seeking" binding:"required,max=200"`
	Description  string `json:"description"`
	Availability string `json:"availability" binding:"max=200"`
}

type UpdateSkillSwapRequest struct {
	Offering     string `json:"offering,omitempty" binding:"max=200"`
	Seeking      string `json:"seeking,omitempty" binding:"max=200"`
	Description  string `json:"description,omitempty"`
	Availability string `json:"availability,omitempty" binding:"max=200"`
}

type ProposeSwapRequest struct {
	SwapID     uuid.UUID `json:"swap_id" binding:"required"`
	ReceiverID uuid.UUID `json:"receiver_id" binding:"required"`
}

type UpdateSwapStatusRequest struct {
	Status SwapRequestStatus `json:"status" binding:"required,oneof=accepted declined"`
}

// ========== Study Group DTOs ==========

type CreateStudyGroupRequest struct {
	Subject     string     `json:"subject" binding:"required,max=150"`
	Topic       string     `json:"topic" binding:"max=200"`
	Description string     `json:"description"`
	College     string     `json:"college" binding:"max=150"`
	MaxMembers  int        `json:"max_members" binding:"gte=0"`
	Schedule    string     `json:"schedule" binding:"max=200"`
	Location    string     `json:"location" binding:"max=200"`
	Level       string     `json:"level" binding:"max=50"`
	SessionTime *time.Time `json:"session_time"`
}

type UpdateStudyGroupRequest struct {
	Topic       string     `json:"topic,omitempty" binding:"max=200"`
	Description string     `json:"description,omitempty"`
	MaxMembers  *int       `json:"max_members,omitempty" binding:"omitempty,gte=0"`
	Schedule    string     `json:"schedule,omitempty" binding:"max=200"`
	Location    string     `json:"location,omitempty" binding:"max=200"`
	Level       string     `json:"level,omitempty" binding:"max=50"`
	SessionTime *time.Time `json:"session_time,omitempty"`
}

// StudyGroupResponse adds the live member count used by list views
type StudyGroupResponse struct {
	StudyGroup
	MemberCount int `json:"members"`
}

// ========== WebSocket Event DTOs ==========

// WSEvent is the envelope for every frame on the realtime channel
type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocket event types. join/leave/typing/stop_typing/send_message travel
// client to server; new_message, typing and stop_typing fan out to the room.
const (
	WSEventJoinConversation  = "join_conversation"
	WSEventLeaveConversation = "leave_conversation"
	WSEventTyping            = "typing"
	WSEventStopTyping        = "stop_typing"
	WSEventSendMessage       = "send_message"
	WSEventNewMessage        = "new_message"
	WSEventOnline            = "online"
	WSEventOffline           = "offline"
)

type RoomEvent struct {
	ConversationID string `json:"conversation_id"`
}

type TypingEvent struct {
	ConversationID string    `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	Name           string    `json:"name"`
}

type OnlineEvent struct {
	UserID   uuid.UUID `json:"user_id"`
	IsOnline bool      `json:"is_online"`
}

// ========== Upload ==========

type UploadResponse struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

// ========== Common ==========

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
