package storage

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// CartLineRecord persists one line of the local cart mirror.
type CartLineRecord struct {
	Key                 string          `gorm:"column:cart_key;primaryKey;type:varchar(512)"`
	BaseProductID       string          `gorm:"column:base_product_id;type:varchar(128);not null;index"`
	Quantity            int             `gorm:"column:quantity;not null"`
	Variations          datatypes.JSON  `gorm:"column:variations"`
	VariationAdjustment decimal.Decimal `gorm:"column:variation_adjustment;type:varchar(32);not null"`
	FinalPrice          decimal.Decimal `gorm:"column:final_price;type:varchar(32);not null"`
	UpdatedAt           time.Time       `gorm:"column:updated_at"`
}

func (CartLineRecord) TableName() string {
	return "storefront_cart_line"
}

// SessionRecord is the single-row table holding the auth token.
type SessionRecord struct {
	ID        uint      `gorm:"column:id;primaryKey"`
	Token     string    `gorm:"column:token;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (SessionRecord) TableName() string {
	return "storefront_session"
}
