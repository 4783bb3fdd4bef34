// internal/handlers/product.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/truckzone/truckzone-backend/internal/i18n"
	"github.com/truckzone/truckzone-backend/internal/models"
	"github.com/truckzone/truckzone-backend/internal/services"
	"github.com/truckzone/truckzone-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
	storageService *services.StorageService
}

func NewProductHandler(productService *services.ProductService, storageService *services.StorageService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		storageService: storageService,
	}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	h.list(c, h.productService.ListAvailable)
}

// GET /advertise-products
func (h *ProductHandler) GetAdvertisedProducts(c *gin.Context) {
	h.list(c, h.productService.ListAdvertised)
}

// GET /reported-products
func (h *ProductHandler) GetReportedProducts(c *gin.Context) {
	h.list(c, h.productService.ListReported)
}

func (h *ProductHandler) list(c *gin.Context, fetch func(context.Context) ([]models.Product, error)) {
	products, err := fetch(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, products)
}

// GET /category/:slug
func (h *ProductHandler) GetProductsByCategory(c *gin.Context) {
	products, err := h.productService.ListByCategory(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, products)
}

// GET /brand/:slug
func (h *ProductHandler) GetProductsByBrand(c *gin.Context) {
	products, err := h.productService.ListByBrand(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, products)
}

// GET /my-products?uid=
func (h *ProductHandler) GetMyProducts(c *gin.Context) {
	uid, _ := utils.GetUIDFromContext(c)

	products, err := h.productService.ListBySeller(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, products)
}

// GET /product/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "product")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

// POST /product
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	uid, exists := utils.GetUIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), uid, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, product)
}

// PUT /product/get-ads/:id
func (h *ProductHandler) StartAds(c *gin.Context) {
	h.update(c, func(ctx context.Context, id uuid.UUID) (*models.Product, error) {
		return h.productService.SetAdsStatus(ctx, id, models.AdsStatusYes)
	})
}

// PUT /product/remove-ads/:id
func (h *ProductHandler) StopAds(c *gin.Context) {
	h.update(c, func(ctx context.Context, id uuid.UUID) (*models.Product, error) {
		return h.productService.SetAdsStatus(ctx, id, models.AdsStatusNo)
	})
}

// PUT /product/report-product/:id
func (h *ProductHandler) ReportProduct(c *gin.Context) {
	h.update(c, func(ctx context.Context, id uuid.UUID) (*models.Product, error) {
		return h.productService.SetReportStatus(ctx, id, true)
	})
}

// PUT /product/remove-report/:id
func (h *ProductHandler) RemoveReport(c *gin.Context) {
	h.update(c, func(ctx context.Context, id uuid.UUID) (*models.Product, error) {
		return h.productService.SetReportStatus(ctx, id, false)
	})
}

func (h *ProductHandler) update(c *gin.Context, apply func(context.Context, uuid.UUID) (*models.Product, error)) {
	id, ok := parseID(c, "product")
	if !ok {
		return
	}

	product, err := apply(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

// DELETE /product/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	uid, exists := utils.GetUIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := parseID(c, "product")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id, uid); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"deleted": true, "id": id})
}

// POST /product/images
func (h *ProductHandler) UploadProductImages(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	uid, exists := utils.GetUIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	if !h.storageService.Configured() {
		respondError(c, services.ErrStorageNotConfigured)
		return
	}

	// Parse multipart form
	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "images"), nil)
		return
	}

	for _, header := range files {
		if header.Size > services.MaxListingImageSize {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileTooLarge, "5"), header.Filename)
			return
		}
	}

	results, err := h.storageService.UploadListingImages(c.Request.Context(), uid, files)
	if err != nil {
		respondError(c, err)
		return
	}

	urls := make([]string, 0, len(results))
	for _, result := range results {
		urls = append(urls, result.URL)
	}

	utils.CreatedResponse(c, gin.H{
		"images": results,
		"urls":   urls,
	})
}
