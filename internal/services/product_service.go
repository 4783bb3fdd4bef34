// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckzone/truckzone-backend/internal/models"
	"github.com/truckzone/truckzone-backend/internal/utils"
)

const advertisedLimit = 4

type ProductService struct {
	db      *gorm.DB
	catalog *CatalogService
	users   *UserService
}

type CreateProductRequest struct {
	SellerName    string   `json:"sellerName" validate:"max=255"`
	Name          string   `json:"name" validate:"required,max=255"`
	Description   string   `json:"description"`
	Category      string   `json:"category" validate:"max=100"`
	Brand         string   `json:"brand" validate:"max=100"`
	Price         float64  `json:"price" validate:"gte=0"`
	OriginalPrice float64  `json:"originalPrice" validate:"gte=0"`
	YearsOfUse    int      `json:"yearsOfUse" validate:"gte=0"`
	Condition     string   `json:"condition" validate:"max=50"`
	Location      string   `json:"location" validate:"max=255"`
	Phone         string   `json:"phone" validate:"max=50"`
	Images        []string `json:"images,omitempty" validate:"max=10,dive,url"`
}

func NewProductService(db *gorm.DB, catalog *CatalogService, users *UserService) *ProductService {
	return &ProductService{
		db:      db,
		catalog: catalog,
		users:   users,
	}
}

// CreateProduct lists a vehicle for sellerID. Status flags always start at their
// defaults: available, not advertised, not reported.
func (s *ProductService) CreateProduct(ctx context.Context, sellerID string, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product := &models.Product{
		SellerID:      sellerID,
		SellerName:    req.SellerName,
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Brand:         req.Brand,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		YearsOfUse:    req.YearsOfUse,
		Condition:     req.Condition,
		Location:      req.Location,
		Phone:         req.Phone,
		Images:        models.StringList(req.Images),
		SellStatus:    true,
		AdsStatus:     models.AdsStatusNo,
		ReportStatus:  false,
	}

	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// ListAvailable returns unsold listings, newest first.
func (s *ProductService) ListAvailable(ctx context.Context) ([]models.Product, error) {
	return s.find(ctx, s.db.Where("sell_status = ?", true))
}

// ListAdvertised returns at most four advertised, unsold listings, newest first.
func (s *ProductService) ListAdvertised(ctx context.Context) ([]models.Product, error) {
	return s.find(ctx, s.db.
		Where("ads_status = ? AND sell_status = ?", models.AdsStatusYes, true).
		Limit(advertisedLimit))
}

func (s *ProductService) ListByCategory(ctx context.Context, slug string) ([]models.Product, error) {
	category, err := s.catalog.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, s.db.Where("category = ?", category.Name))
}

func (s *ProductService) ListByBrand(ctx context.Context, slug string) ([]models.Product, error) {
	brand, err := s.catalog.GetBrandBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, s.db.Where("brand = ?", brand.Name))
}

func (s *ProductService) ListBySeller(ctx context.Context, sellerID string) ([]models.Product, error) {
	return s.find(ctx, s.db.Where("seller_id = ?", sellerID))
}

func (s *ProductService) ListReported(ctx context.Context) ([]models.Product, error) {
	return s.find(ctx, s.db.Where("report_status = ?", true))
}

func (s *ProductService) find(ctx context.Context, query *gorm.DB) ([]models.Product, error) {
	products := []models.Product{}
	if err := query.WithContext(ctx).Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, nil
}

func (s *ProductService) SetAdsStatus(ctx context.Context, id uuid.UUID, status models.AdsStatus) (*models.Product, error) {
	return s.updateProduct(ctx, id, map[string]interface{}{"ads_status": status})
}

func (s *ProductService) SetReportStatus(ctx context.Context, id uuid.UUID, reported bool) (*models.Product, error) {
	return s.updateProduct(ctx, id, map[string]interface{}{"report_status": reported})
}

func (s *ProductService) updateProduct(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Product, error) {
	result := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrProductNotFound
	}
	return s.GetProduct(ctx, id)
}

// DeleteProduct removes a listing. Only its seller or an admin may delete it.
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID, callerUID string) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	if product.SellerID != callerUID {
		isAdmin, err := s.users.HasRole(ctx, callerUID, models.UserTypeAdmin)
		if err != nil {
			return err
		}
		if !isAdmin {
			return ErrForbidden
		}
	}

	result := s.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
