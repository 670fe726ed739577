package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/nextbenchapp/nextbench/internal/model"
	"github.com/nextbenchapp/nextbench/internal/service"
	"gorm.io/gorm"
)

// ListingHandler handles marketplace endpoints: products, services,
// favorites and ratings.
type ListingHandler struct {
	listingService *service.ListingService
}

func NewListingHandler(listingService *service.ListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

// ========== Products ==========

// CreateProduct godoc
// @Summary List a product for sale
// @Tags Marketplace
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.CreateProductRequest true "Product"
// @Success 201 {object} model.Product
// @Router /products [post]
func (h *ListingHandler) CreateProduct(c *gin.Context) {
	var req model.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	product, err := h.listingService.CreateProduct(userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to create product"})
		return
	}
	c.JSON(http.StatusCreated, product)
}

// ListProducts godoc
// @Summary Browse products
// @Description Filterable by search text, campus and category. The viewer's own campus is listed first.
// @Tags Marketplace
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search text"
// @Param campus query string false "Campus filter"
// @Param category query string false "Category filter"
// @Success 200 {array} model.Product
// @Router /products [get]
func (h *ListingHandler) ListProducts(c *gin.Context) {
	var filter model.ListingFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid filter", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	products, err := h.listingService.ListProducts(userID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to list products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct returns a single product with seller and ratings
func (h *ListingHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid product ID"})
		return
	}

	product, err := h.listingService.GetProduct(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to get product"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// ListMyProducts returns the caller's own listings
func (h *ListingHandler) ListMyProducts(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)
	products, err := h.listingService.ListUserProducts(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to list products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// UpdateProduct edits a listing, owners only
func (h *ListingHandler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid product ID"})
		return
	}

	var req model.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.Condition != "" {
		updates["condition"] = req.Condition
	}
	if len(req.ImageURLs) > 0 {
		updates["image_urls"] = pq.StringArray(req.ImageURLs)
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	product, err := h.listingService.UpdateProduct(userID, id, updates)
	if err != nil {
		if errors.Is(err, service.ErrNotOwner) {
			c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to update product"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// MarkSold closes a listing as a completed deal
func (h *ListingHandler) MarkSold(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid product ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.listingService.MarkProductSold(userID, id); err != nil {
		if errors.Is(err, service.ErrNotOwner) {
			c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to mark product as sold"})
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Product marked as sold"})
}

// DeleteProduct removes a listing, owners only
func (h *ListingHandler) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid product ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.listingService.DeleteProduct(userID, id); err != nil {
		if errors.Is(err, service.ErrNotOwner) {
			c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to delete product"})
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Product deleted"})
}

// ========== Services ==========

// CreateService lists a freelance service
func (h *ListingHandler) CreateService(c *gin.Context) {
	var req model.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	svc, err := h.listingService.CreateService(userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to create service"})
		return
	}
	c.JSON(http.StatusCreated, svc)
}

// ListServices returns all service listings, newest first
func (h *ListingHandler) ListServices(c *gin.Context) {
	services, err := h.listingService.ListServices()
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to list services"})
		return
	}
	c.JSON(http.StatusOK, services)
}

// ListMyServices returns the caller's own service listings
func (h *ListingHandler) ListMyServices(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)
	services, err := h.listingService.ListUserServices(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to list services"})
		return
	}
	c.JSON(http.StatusOK, services)
}

// UpdateService applies a partial update to a service, owners only
func (h *ListingHandler) UpdateService(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid service ID"})
		return
	}

	var req model.UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	svc, err := h.listingService.UpdateService(userID, id, req)
	if err != nil {
		if errors.Is(err, service.ErrNotOwner) {
			c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Service not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to update service"})
		return
	}
	c.JSON(http.StatusOK, svc)
}

// GetService returns one service listing
func (h *ListingHandler) GetService(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid service ID"})
		return
	}

	svc, err := h.listingService.GetService(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Service not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to get service"})
		return
	}
	c.JSON(http.StatusOK, svc)
}

// DeleteService removes a service listing, owners only
func (h *ListingHandler) DeleteService(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid service ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.listingService.DeleteService(userID, id); err != nil {
		if errors.Is(err, service.ErrNotOwner) {
			c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to delete service"})
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Service deleted"})
}

// ========== Favorites ==========

// ToggleFavorite godoc
// @Summary Toggle a product bookmark
// @Tags Marketplace
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} model.SuccessResponse
// @Router /products/{id}/favorite [post]
func (h *ListingHandler) ToggleFavorite(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid product ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	favorited, err := h.listingService.ToggleFavorite(userID, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to toggle favorite"})
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{
		Message: "ok",
		Data:    gin.H{"favorited": favorited},
	})
}

// ListFavorites returns the caller's bookmarked products
func (h *ListingHandler) ListFavorites(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)
	products, err := h.listingService.ListFavorites(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to list favorites"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// ========== Ratings ==========

// SubmitRating godoc
// @Summary Rate a product or service
// @Description One rating per user per item; rating again replaces the old value.
// @Tags Marketplace
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.SubmitRatingRequest true "Rating"
// @Success 200 {object} model.SuccessResponse
// @Router /ratings [post]
func (h *ListingHandler) SubmitRating(c *gin.Context) {
	var req model.SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.listingService.SubmitRating(userID, req); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Item not found"})
			return
		}
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Rating submitted"})
}
