package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/events"
	"github.com/nextbenchapp/nextbench/internal/model"
	"github.com/nextbenchapp/nextbench/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrGroupFull     = errors.New("study group is full")
	ErrNotGroupHost  = errors.New("only the host can do that")
	ErrAlreadyJoined = errors.New("you are already a member of this group")
)

// StudyGroupService handles study groups and their group chats. Every group
// owns one conversation; joining the group joins the chat and leaving it
// leaves the chat.
type StudyGroupService struct {
	groupRepo *repository.StudyGroupRepository
	chat      *ChatService
	bus       *events.Bus
}

func NewStudyGroupService(groupRepo *repository.StudyGroupRepository, chat *ChatService, bus *events.Bus) *StudyGroupService {
	return &StudyGroupService{
		groupRepo: groupRepo,
		chat:      chat,
		bus:       bus,
	}
}

// Create provisions a study group together with its group conversation. The
// host is the first member of both.
func (s *StudyGroupService) Create(hostID uuid.UUID, req model.CreateStudyGroupRequest) (*model.StudyGroup, error) {
	conv, err := s.chat.CreateGroupConversation(hostID, req.Subject, nil)
	if err != nil {
		return nil, err
	}

	group := &model.StudyGroup{
		UserID:         hostID,
		Subject:        req.Subject,
		Topic:          req.Topic,
		Description:    req.Description,
		College:        req.College,
		MaxMembers:     req.MaxMembers,
		Schedule:       req.Schedule,
		Location:       req.Location,
		Level:          req.Level,
		SessionTime:    req.SessionTime,
		ConversationID: &conv.ID,
	}
	if err := s.groupRepo.Create(group); err != nil {
		// Do not leave an orphaned conversation behind
		_ = s.chat.DeleteConversation(conv.ID)
		return nil, err
	}

	if err := s.groupRepo.AddMember(&model.StudyGroupMember{
		GroupID:  group.ID,
		UserID:   hostID,
		JoinedAt: time.Now(),
	}); err != nil {
		return nil, err
	}

	s.bus.Publish(events.TopicListingCreated, events.ListingCreated{
		OwnerID: hostID,
		Kind:    "study_group",
		ItemID:  group.ID,
	})
	return s.groupRepo.FindByID(group.ID)
}

// List returns upcoming and recurring groups with live member counts. Groups
// whose one-off session time has passed are hidden by the store.
func (s *StudyGroupService) List() ([]model.StudyGroupResponse, error) {
	groups, err := s.groupRepo.List()
	if err != nil {
		return nil, err
	}

	result := []model.StudyGroupResponse{}
	for i := range groups {
		count, _ := s.groupRepo.CountMembers(groups[i].ID)
		result = append(result, model.StudyGroupResponse{
			StudyGroup:  groups[i],
			MemberCount: int(count),
		})
	}
	return result, nil
}

func (s *StudyGroupService) Get(id uuid.UUID) (*model.StudyGroup, error) {
	return s.groupRepo.FindByID(id)
}

// Members lists the group's members with their profiles
func (s *StudyGroupService) Members(groupID uuid.UUID) ([]model.StudyGroupMember, error) {
	if _, err := s.groupRepo.FindByID(groupID); err != nil {
		return nil, err
	}
	return s.groupRepo.ListMembers(groupID)
}

// Update applies a partial update, hosts only
func (s *StudyGroupService) Update(groupID, hostID uuid.UUID, req model.UpdateStudyGroupRequest) (*model.StudyGroup, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, err
	}
	if group.UserID != hostID {
		return nil, ErrNotGroupHost
	}

	updates := map[string]interface{}{}
	if req.Topic != "" {
		updates["topic"] = req.Topic
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.MaxMembers != nil {
		updates["max_members"] = *req.MaxMembers
	}
	if req.Schedule != "" {
		updates["schedule"] = req.Schedule
	}
	if req.Location != "" {
		updates["location"] = req.Location
	}
	if req.Level != "" {
		updates["level"] = req.Level
	}
	if req.SessionTime != nil {
		updates["session_time"] = *req.SessionTime
	}
	if len(updates) == 0 {
		return group, nil
	}
	return s.groupRepo.Update(groupID, updates)
}

// Join adds the caller to the group and its conversation
func (s *StudyGroupService) Join(groupID, userID uuid.UUID) error {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return err
	}

	if existing, err := s.groupRepo.FindMembership(groupID, userID); err == nil && existing != nil {
		return ErrAlreadyJoined
	}

	if group.MaxMembers > 0 {
		count, err := s.groupRepo.CountMembers(groupID)
		if err != nil {
			return err
		}
		if count >= int64(group.MaxMembers) {
			return ErrGroupFull
		}
	}

	if err := s.groupRepo.AddMember(&model.StudyGroupMember{
		GroupID:  groupID,
		UserID:   userID,
		JoinedAt: time.Now(),
	}); err != nil {
		return err
	}
	if group.ConversationID != nil {
		if err := s.chat.AddMember(*group.ConversationID, userID); err != nil {
			return err
		}
	}

	s.bus.Publish(events.TopicStudyGroupJoined, events.StudyGroupJoined{
		GroupID:  groupID,
		HostID:   group.UserID,
		JoinerID: userID,
		Subject:  group.Subject,
	})
	return nil
}

// Leave removes the caller from the group and its conversation
func (s *StudyGroupService) Leave(groupID, userID uuid.UUID) error {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return err
	}
	if group.UserID == userID {
		return errors.New("the host cannot leave; delete the group instead")
	}

	if err := s.groupRepo.RemoveMember(groupID, userID); err != nil {
		return err
	}
	if group.ConversationID != nil {
		return s.chat.RemoveMember(*group.ConversationID, userID)
	}
	return nil
}

// Kick removes another member, hosts only
func (s *StudyGroupService) Kick(groupID, hostID, memberID uuid.UUID) error {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return err
	}
	if group.UserID != hostID {
		return ErrNotGroupHost
	}
	if memberID == hostID {
		return errors.New("the host cannot kick themselves")
	}

	if err := s.groupRepo.RemoveMember(groupID, memberID); err != nil {
		return err
	}
	if group.ConversationID != nil {
		return s.chat.RemoveMember(*group.ConversationID, memberID)
	}
	return nil
}

// Delete removes the group, hosts only. This is the one place a conversation
// is hard-deleted together with its messages.
func (s *StudyGroupService) Delete(groupID, hostID uuid.UUID) error {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if group.UserID != hostID {
		return ErrNotGroupHost
	}

	if err := s.groupRepo.Delete(groupID); err != nil {
		return err
	}
	if group.ConversationID != nil {
		return s.chat.DeleteConversation(*group.ConversationID)
	}
	return nil
}
