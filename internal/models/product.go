// internal/models/product.go
package models

type Product struct {
	BaseModel
	SellerID      string     `json:"sellerId" gorm:"size:128;not null;index"`
	SellerName    string     `json:"sellerName" gorm:"size:255"`
	Name          string     `json:"name" gorm:"size:255;not null"`
	Description   string     `json:"description" gorm:"type:text"`
	Category      string     `json:"category" gorm:"size:100;index"`
	Brand         string     `json:"brand" gorm:"size:100;index"`
	Price         float64    `json:"price" gorm:"type:decimal(12,2);not null"`
	OriginalPrice float64    `json:"originalPrice" gorm:"type:decimal(12,2)"`
	YearsOfUse    int        `json:"yearsOfUse"`
	Condition     string     `json:"condition" gorm:"size:50"`
	Location      string     `json:"location" gorm:"size:255"`
	Phone         string     `json:"phone" gorm:"size:50"`
	Images        StringList `json:"images" gorm:"type:text"`
	SellStatus    bool       `json:"sellStatus" gorm:"not null;index"`
	AdsStatus     AdsStatus  `json:"adsStatus" gorm:"type:varchar(3);not null;default:'no';index"`
	ReportStatus  bool       `json:"reportStatus" gorm:"not null;index"`
}
