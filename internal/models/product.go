package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents an item of the rental inventory.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Code        string          `json:"code" gorm:"uniqueIndex;type:varchar(100);not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;default:0"`
	Description string          `json:"description" gorm:"type:varchar(500)"`
	Modelo      string          `json:"modelo" gorm:"type:varchar(100)"`
	TotalValue  decimal.Decimal `json:"totalValue" gorm:"type:decimal(12,2);not null;default:0"`
	Color       string          `json:"color" gorm:"type:varchar(50)"`
	Popularity  int             `json:"popularity" gorm:"not null;default:0"`
	Image       string          `json:"image" gorm:"type:varchar(500)"`
	Contracts   []Contract      `json:"contracts" gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductInput is the payload accepted when registering a product.
type ProductInput struct {
	Code        string          `json:"code" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description" validate:"omitempty,max=500"`
	Modelo      string          `json:"modelo" validate:"omitempty,max=100"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	Color       string          `json:"color" validate:"omitempty,max=50"`
	Image       string          `json:"image" validate:"omitempty,url"`
}

// ProductUpdate carries a partial update. Nil or zero fields keep the stored value.
type ProductUpdate struct {
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	Modelo      *string          `json:"modelo" validate:"omitempty,max=100"`
	Color       *string          `json:"color" validate:"omitempty,max=50"`
}

// Image is a stored product picture fetched back from object storage.
type Image struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
	URL         string `json:"url"` // data: URI over Data
}
