package service

import (
	"errors"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/events"
	"github.com/nextbenchapp/nextbench/internal/model"
	"github.com/nextbenchapp/nextbench/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrNotRequestReceiver = errors.New("only the request receiver can respond")
	ErrRequestSettled     = errors.New("request has already been responded to")
)

// SkillSwapService handles swap listings and proposals between users
type SkillSwapService struct {
	swapRepo *repository.SkillSwapRepository
	bus      *events.Bus
}

func NewSkillSwapService(swapRepo *repository.SkillSwapRepository, bus *events.Bus) *SkillSwapService {
	return &SkillSwapService{swapRepo: swapRepo, bus: bus}
}

// Create posts a new swap listing
func (s *SkillSwapService) Create(ownerID uuid.UUID, req model.CreateSkillSwapRequest) (*model.SkillSwap, error) {
	swap := &model.SkillSwap{
		UserID:       ownerID,
		Offering:     req.Offering,
		Seeking:      req.Seeking,
		Description:  req.Description,
		Availability: req.Availability,
	}
	if err := s.swapRepo.Create(swap); err != nil {
		return nil, err
	}

	s.bus.Publish(events.TopicListingCreated, events.ListingCreated{
		OwnerID: ownerID,
		Kind:    "skill_swap",
		ItemID:  swap.ID,
	})
	return s.swapRepo.FindByID(swap.ID)
}

func (s *SkillSwapService) List() ([]model.SkillSwap, error) {
	return s.swapRepo.List()
}

func (s *SkillSwapService) Get(id uuid.UUID) (*model.SkillSwap, error) {
	return s.swapRepo.FindByID(id)
}

// Update applies a partial update, owners only
func (s *SkillSwapService) Update(ownerID, swapID uuid.UUID, req model.UpdateSkillSwapRequest) (*model.SkillSwap, error) {
	swap, err := s.swapRepo.FindByID(swapID)
	if err != nil {
		return nil, err
	}
	if swap.UserID != ownerID {
		return nil, ErrNotOwner
	}

	updates := map[string]interface{}{}
	if req.Offering != "" {
		updates["offering"] = req.Offering
	}
	if req.Seeking != "" {
		updates["seeking"] = req.Seeking
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Availability != "" {
		updates["availability"] = req.Availability
	}
	if len(updates) == 0 {
		return swap, nil
	}
	return s.swapRepo.Update(swapID, updates)
}

// Delete removes a swap listing, owners only
func (s *SkillSwapService) Delete(ownerID, swapID uuid.UUID) error {
	swap, err := s.swapRepo.FindByID(swapID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if swap.UserID != ownerID {
		return ErrNotOwner
	}
	return s.swapRepo.Delete(swapID)
}

// Propose sends a swap proposal to the listing owner
func (s *SkillSwapService) Propose(senderID uuid.UUID, req model.ProposeSwapRequest) (*model.SkillSwapRequest, error) {
	swap, err := s.swapRepo.FindByID(req.SwapID)
	if err != nil {
		return nil, err
	}
	if swap.UserID == senderID {
		return nil, errors.New("you cannot propose on your own listing")
	}
	if swap.UserID != req.ReceiverID {
		return nil, errors.New("receiver does not own this listing")
	}

	request := &model.SkillSwapRequest{
		SwapID:     req.SwapID,
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Status:     model.SwapRequestPending,
	}
	if err := s.swapRepo.CreateRequest(request); err != nil {
		return nil, err
	}

	s.bus.Publish(events.TopicSkillSwapProposed, events.SkillSwapProposed{
		RequestID:  request.ID,
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
	})
	return s.swapRepo.FindRequestByID(request.ID)
}

// ListIncomingRequests returns the proposals addressed to the caller
func (s *SkillSwapService) ListIncomingRequests(receiverID uuid.UUID) ([]model.SkillSwapRequest, error) {
	return s.swapRepo.ListRequestsForReceiver(receiverID)
}

// CancelRequest withdraws a pending proposal. Only the sender can cancel,
// and only while the receiver has not responded. A request that is already
// gone is a successful no-op.
func (s *SkillSwapService) CancelRequest(senderID, requestID uuid.UUID) error {
	request, err := s.swapRepo.FindRequestByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if request.SenderID != senderID {
		return errors.New("only the sender can cancel a request")
	}
	if request.Status != model.SwapRequestPending {
		return ErrRequestSettled
	}
	return s.swapRepo.DeleteRequest(requestID)
}

// Respond accepts or declines a pending proposal. Only the receiver can
// respond, and only once.
func (s *SkillSwapService) Respond(receiverID, requestID uuid.UUID, status model.SwapRequestStatus) (*model.SkillSwapRequest, error) {
	request, err := s.swapRepo.FindRequestByID(requestID)
	if err != nil {
		return nil, err
	}
	if request.ReceiverID != receiverID {
		return nil, ErrNotRequestReceiver
	}
	if request.Status != model.SwapRequestPending {
		return nil, ErrRequestSettled
	}

	if err := s.swapRepo.UpdateRequestStatus(requestID, status); err != nil {
		return nil, err
	}

	if status == model.SwapRequestAccepted {
		s.bus.Publish(events.TopicSkillSwapAccepted, events.SkillSwapAccepted{
			RequestID:  requestID,
			SenderID:   request.SenderID,
			ReceiverID: receiverID,
		})
	}
	return s.swapRepo.FindRequestByID(requestID)
}
