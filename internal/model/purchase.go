package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is a stocked item. Quantity is allowed to go negative, which
// signals that the item has to be reordered.
type Purchase struct {
	BaseModel
	Item          string          `gorm:"type:varchar(255);not null" json:"item" validate:"required,max=255"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"purchase_price" validate:"gte=0"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"sale_price" validate:"gte=0"`
	PurchaseDate  time.Time       `gorm:"type:date;not null;index" json:"purchase_date" validate:"required"`
	Quantity      int             `gorm:"not null;default:0" json:"quantity"`
	Picture       *string         `gorm:"type:varchar(255)" json:"picture,omitempty"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id" validate:"uuid_required"`
	User   *User     `gorm:"foreignKey:UserID" json:"user,omitempty" validate:"-"`

	OrderItems []OrderItem `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE" json:"-" validate:"-"`
}

// NeedsReorder reports whether stock has been exhausted.
func (p *Purchase) NeedsReorder() bool {
	return p.Quantity <= 0
}

func (p *Purchase) String() string {
	return p.Item + " (" + p.ID.String() + ")"
}

func (p *Purchase) CSVHeader() []string {
	return []string{"id", "item", "purchase_price", "sale_price", "purchase_date", "quantity", "picture", "user"}
}

func (p *Purchase) CSVRecord() []string {
	picture := ""
	if p.Picture != nil {
		picture = *p.Picture
	}
	return []string{
		p.ID.String(),
		p.Item,
		p.PurchasePrice.StringFixed(2),
		p.SalePrice.StringFixed(2),
		p.PurchaseDate.Format(DateLayout),
		itoa(p.Quantity),
		picture,
		p.UserID.String(),
	}
}
