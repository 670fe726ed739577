package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListingRepository handles database operations for products, services,
// favorites and ratings.
type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// ========== Products ==========

func (r *ListingRepository) CreateProduct(p *model.Product) error {
	return r.db.Create(p).Error
}

func (r *ListingRepository) FindProductByID(id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.Preload("Seller").Preload("Ratings").Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns products newest first, with optional ilike search over
// name/description/category and exact campus/category filters.
func (r *ListingRepository) ListProducts(f model.ListingFilter) ([]model.Product, error) {
	var products []model.Product
	query := r.db.Preload("Seller").Preload("Ratings").Order("created_at DESC")

	if f.Search != "" {
		s := "%" + f.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ? OR category ILIKE ?", s, s, s)
	}
	if f.Campus != "" {
		query = query.Where("campus = ?", f.Campus)
	}
	if f.Category != "" && f.Category != "all" {
		query = query.Where("category = ?", f.Category)
	}

	err := query.Find(&products).Error
	return products, err
}

func (r *ListingRepository) ListProductsByUser(userID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&products).Error
	return products, err
}

func (r *ListingRepository) UpdateProduct(id uuid.UUID, updates map[string]interface{}) (*model.Product, error) {
	if err := r.db.Model(&model.Product{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.FindProductByID(id)
}

func (r *ListingRepository) DeleteProduct(id uuid.UUID) error {
	return r.db.Where("id = ?", id).Delete(&model.Product{}).Error
}

// ========== Services ==========

func (r *ListingRepository) CreateService(s *model.Service) error {
	return r.db.Create(s).Error
}

func (r *ListingRepository) FindServiceByID(id uuid.UUID) (*model.Service, error) {
	var s model.Service
	err := r.db.Preload("Provider").Preload("Ratings").Where("id = ?", id).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ListingRepository) ListServices() ([]model.Service, error) {
	var services []model.Service
	err := r.db.Preload("Provider").Preload("Ratings").
		Order("created_at DESC").Find(&services).Error
	return services, err
}

func (r *ListingRepository) ListServicesByUser(userID uuid.UUID) ([]model.Service, error) {
	var services []model.Service
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&services).Error
	return services, err
}

func (r *ListingRepository) UpdateService(id uuid.UUID, updates map[string]interface{}) (*model.Service, error) {
	if err := r.db.Model(&model.Service{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.FindServiceByID(id)
}

func (r *ListingRepository) DeleteService(id uuid.UUID) error {
	return r.db.Where("id = ?", id).Delete(&model.Service{}).Error
}

// ========== Favorites ==========

func (r *ListingRepository) FindFavorite(userID, productID uuid.UUID) (*model.Favorite, error) {
	var fav model.Favorite
	err := r.db.Where("user_id = ? AND product_id = ?", userID, productID).First(&fav).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fav, nil
}

func (r *ListingRepository) CreateFavorite(fav *model.Favorite) error {
	return r.db.Create(fav).Error
}

func (r *ListingRepository) DeleteFavorite(id uuid.UUID) error {
	return r.db.Unscoped().Where("id = ?", id).Delete(&model.Favorite{}).Error
}

// ListFavoriteProducts returns the products a user has bookmarked, newest bookmark first
func (r *ListingRepository) ListFavoriteProducts(userID uuid.UUID) ([]model.Product, error) {
	var favorites []model.Favorite
	err := r.db.Preload("Product.Seller").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favorites).Error
	if err != nil {
		return nil, err
	}

	products := make([]model.Product, 0, len(favorites))
	for _, f := range favorites {
		if f.Product.ID != uuid.Nil {
			products = append(products, f.Product)
		}
	}
	return products, nil
}

// ========== Ratings ==========

// UpsertRating stores one rating per (user, item), replacing a prior value
func (r *ListingRepository) UpsertRating(rating *model.Rating) error {
	target := []clause.Column{{Name: "user_id"}, {Name: "product_id"}}
	if rating.ServiceID != nil {
		target = []clause.Column{{Name: "user_id"}, {Name: "service_id"}}
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   target,
		DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
	}).Create(rating).Error
}

// AverageRatingForUser returns the mean star rating across all of a user's
// product and service listings (0 when unrated).
func (r *ListingRepository) AverageRatingForUser(userID uuid.UUID) (float64, error) {
	var avg *float64
	err := r.db.Model(&model.Rating{}).
		Select("AVG(ratings.rating)").
		Joins("LEFT JOIN products ON products.id = ratings.product_id").
		Joins("LEFT JOIN services ON services.id = ratings.service_id").
		Where("products.user_id = ? OR services.user_id = ?", userID, userID).
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}
