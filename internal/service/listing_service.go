package service

import (
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/nextbenchapp/nextbench/internal/events"
	"github.com/nextbenchapp/nextbench/internal/model"
	"github.com/nextbenchapp/nextbench/internal/repository"
	"gorm.io/gorm"
)

var ErrNotOwner = errors.New("you do not own this listing")

// ListingService handles products, services, favorites and ratings
type ListingService struct {
	listingRepo *repository.ListingRepository
	userRepo    *repository.UserRepository
	bus         *events.Bus
}

func NewListingService(listingRepo *repository.ListingRepository, userRepo *repository.UserRepository, bus *events.Bus) *ListingService {
	return &ListingService{
		listingRepo: listingRepo,
		userRepo:    userRepo,
		bus:         bus,
	}
}

// ========== Products ==========

// CreateProduct lists a new product for the seller
func (s *ListingService) CreateProduct(sellerID uuid.UUID, req model.CreateProductRequest) (*model.Product, error) {
	product := &model.Product{
		UserID:      sellerID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Condition:   req.Condition,
		Campus:      req.Campus,
		ImageURLs:   req.ImageURLs,
	}
	if product.Campus == "" {
		if seller, err := s.userRepo.FindByID(sellerID); err == nil {
			product.Campus = seller.Campus
		}
	}
	if err := s.listingRepo.CreateProduct(product); err != nil {
		return nil, err
	}

	s.bus.Publish(events.TopicListingCreated, events.ListingCreated{
		OwnerID: sellerID,
		Kind:    "product",
		ItemID:  product.ID,
	})
	return s.listingRepo.FindProductByID(product.ID)
}

// ListProducts returns products matching the filter, with the viewer's own
// campus surfaced first. The campus pass is stable so the newest-first order
// from the store is kept within each half.
func (s *ListingService) ListProducts(viewerID uuid.UUID, filter model.ListingFilter) ([]model.Product, error) {
	products, err := s.listingRepo.ListProducts(filter)
	if err != nil {
		return nil, err
	}

	viewer, err := s.userRepo.FindByID(viewerID)
	if err != nil || viewer.Campus == "" {
		return products, nil
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Campus == viewer.Campus && products[j].Campus != viewer.Campus
	})
	return products, nil
}

func (s *ListingService) GetProduct(id uuid.UUID) (*model.Product, error) {
	return s.listingRepo.FindProductByID(id)
}

func (s *ListingService) ListUserProducts(userID uuid.UUID) ([]model.Product, error) {
	return s.listingRepo.ListProductsByUser(userID)
}

// UpdateProduct applies a partial update, owners only
func (s *ListingService) UpdateProduct(ownerID, productID uuid.UUID, updates map[string]interface{}) (*model.Product, error) {
	product, err := s.listingRepo.FindProductByID(productID)
	if err != nil {
		return nil, err
	}
	if product.UserID != ownerID {
		return nil, ErrNotOwner
	}
	return s.listingRepo.UpdateProduct(productID, updates)
}

// MarkProductSold closes out a listing as a completed deal. The product is
// removed from the marketplace and the seller is credited.
func (s *ListingService) MarkProductSold(ownerID, productID uuid.UUID) error {
	product, err := s.listingRepo.FindProductByID(productID)
	if err != nil {
		return err
	}
	if product.UserID != ownerID {
		return ErrNotOwner
	}
	if err := s.listingRepo.DeleteProduct(productID); err != nil {
		return err
	}

	s.bus.Publish(events.TopicDealCompleted, events.DealCompleted{
		SellerID: ownerID,
		ItemID:   productID,
	})
	return nil
}

// DeleteProduct removes a listing, owners only
func (s *ListingService) DeleteProduct(ownerID, productID uuid.UUID) error {
	product, err := s.listingRepo.FindProductByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if product.UserID != ownerID {
		return ErrNotOwner
	}
	return s.listingRepo.DeleteProduct(productID)
}

// ========== Services ==========

// CreateService lists a new freelance service
func (s *ListingService) CreateService(providerID uuid.UUID, req model.CreateServiceRequest) (*model.Service, error) {
	svc := &model.Service{
		UserID:      providerID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Unit:        req.Unit,
		Category:    req.Category,
		Skills:      req.Skills,
		ImageURL:    req.ImageURL,
	}
	if err := s.listingRepo.CreateService(svc); err != nil {
		return nil, err
	}

	s.bus.Publish(events.TopicListingCreated, events.ListingCreated{
		OwnerID: providerID,
		Kind:    "service",
		ItemID:  svc.ID,
	})
	return s.listingRepo.FindServiceByID(svc.ID)
}

func (s *ListingService) ListServices() ([]model.Service, error) {
	return s.listingRepo.ListServices()
}

func (s *ListingService) GetService(id uuid.UUID) (*model.Service, error) {
	return s.listingRepo.FindServiceByID(id)
}

func (s *ListingService) ListUserServices(userID uuid.UUID) ([]model.Service, error) {
	return s.listingRepo.ListServicesByUser(userID)
}

// UpdateService applies a partial update, owners only
func (s *ListingService) UpdateService(ownerID, serviceID uuid.UUID, req model.UpdateServiceRequest) (*model.Service, error) {
	svc, err := s.listingRepo.FindServiceByID(serviceID)
	if err != nil {
		return nil, err
	}
	if svc.UserID != ownerID {
		return nil, ErrNotOwner
	}

	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Unit != "" {
		updates["unit"] = req.Unit
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.Skills != nil {
		updates["skills"] = pq.StringArray(req.Skills)
	}
	if req.ImageURL != "" {
		updates["image_url"] = req.ImageURL
	}
	if len(updates) == 0 {
		return svc, nil
	}
	return s.listingRepo.UpdateService(serviceID, updates)
}

// DeleteService removes a service listing, owners only
func (s *ListingService) DeleteService(ownerID, serviceID uuid.UUID) error {
	svc, err := s.listingRepo.FindServiceByID(serviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if svc.UserID != ownerID {
		return ErrNotOwner
	}
	return s.listingRepo.DeleteService(serviceID)
}

// ========== Favorites ==========

// ToggleFavorite bookmarks a product, or removes the bookmark if it already
// exists. Returns whether the product is favorited after the call.
func (s *ListingService) ToggleFavorite(userID, productID uuid.UUID) (bool, error) {
	existing, err := s.listingRepo.FindFavorite(userID, productID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, s.listingRepo.DeleteFavorite(existing.ID)
	}

	fav := &model.Favorite{UserID: userID, ProductID: productID}
	if err := s.listingRepo.CreateFavorite(fav); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ListingService) ListFavorites(userID uuid.UUID) ([]model.Product, error) {
	return s.listingRepo.ListFavoriteProducts(userID)
}

// ========== Ratings ==========

// SubmitRating stores the caller's star rating for a product or service.
// Rating the same item again replaces the earlier value.
func (s *ListingService) SubmitRating(raterID uuid.UUID, req model.SubmitRatingRequest) error {
	rating := &model.Rating{
		UserID: raterID,
		Rating: req.Rating,
	}

	var ownerID uuid.UUID
	switch req.ItemType {
	case "product":
		product, err := s.listingRepo.FindProductByID(req.ItemID)
		if err != nil {
			return err
		}
		ownerID = product.UserID
		rating.ProductID = &req.ItemID
	case "service":
		svc, err := s.listingRepo.FindServiceByID(req.ItemID)
		if err != nil {
			return err
		}
		ownerID = svc.UserID
		rating.ServiceID = &req.ItemID
	default:
		return errors.New("unknown item type")
	}

	if ownerID == raterID {
		return errors.New("you cannot rate your own listing")
	}

	if err := s.listingRepo.UpsertRating(rating); err != nil {
		return err
	}

	s.bus.Publish(events.TopicRatingSubmitted, events.RatingSubmitted{
		RaterID: raterID,
		OwnerID: ownerID,
		Stars:   req.Rating,
	})
	return nil
}
