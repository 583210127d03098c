package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinalTally is the derived financial summary of one Order. Rows are only
// ever written by the recomputation rule.
type FinalTally struct {
	BaseModel
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"order_id"`
	Order          *Order          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order,omitempty"`
	PurchaseAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"purchase_amount"`
	SellAmount     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"sell_amount"`
	ProfitLoss     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"profit_loss"`
}

// TableName keeps the singular/plural pair readable in SQL.
func (FinalTally) TableName() string {
	return "final_tallies"
}

func (t *FinalTally) String() string {
	return "Tally for " + t.OrderID.String()
}

func (t *FinalTally) CSVHeader() []string {
	return []string{"id", "order", "purchase_amount", "sell_amount", "profit_loss"}
}

func (t *FinalTally) CSVRecord() []string {
	return []string{
		t.ID.String(),
		t.OrderID.String(),
		t.PurchaseAmount.StringFixed(2),
		t.SellAmount.StringFixed(2),
		t.ProfitLoss.StringFixed(2),
	}
}
