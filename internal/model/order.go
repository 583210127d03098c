package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and CSV format of calendar dates.
const DateLayout = "2006-01-02"

// Order groups the items sent to one customer. Every order owns exactly
// one FinalTally.
type Order struct {
	BaseModel
	CustomerName string    `gorm:"type:varchar(255);not null" json:"customer_name" validate:"required,max=255"`
	Date         time.Time `gorm:"type:date;not null;index" json:"date"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id" validate:"uuid_required"`
	User   *User     `gorm:"foreignKey:UserID" json:"user,omitempty" validate:"-"`

	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items,omitempty" validate:"-"`
	FinalTally *FinalTally `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"final_tally,omitempty" validate:"-"`
}

func (o *Order) String() string {
	return "Order " + o.ID.String() + " by " + o.CustomerName
}

func (o *Order) CSVHeader() []string {
	return []string{"id", "customer_name", "date", "user"}
}

func (o *Order) CSVRecord() []string {
	return []string{
		o.ID.String(),
		o.CustomerName,
		o.Date.Format(DateLayout),
		o.UserID.String(),
	}
}

// OrderItem links an Order to the Purchase it draws stock from.
type OrderItem struct {
	BaseModel
	OrderID      uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id" validate:"uuid_required"`
	Order        *Order    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order,omitempty" validate:"-"`
	PurchaseID   uuid.UUID `gorm:"type:uuid;not null;index" json:"purchase_id" validate:"uuid_required"`
	Purchase     *Purchase `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE" json:"purchase,omitempty" validate:"-"`
	QuantitySent int       `gorm:"not null" json:"quantity_sent" validate:"gt=0"`
}

func (i *OrderItem) String() string {
	if i.Purchase != nil {
		return i.Purchase.Item + " x " + itoa(i.QuantitySent)
	}
	return i.PurchaseID.String() + " x " + itoa(i.QuantitySent)
}

func (i *OrderItem) CSVHeader() []string {
	return []string{"id", "order", "purchase", "quantity_sent"}
}

func (i *OrderItem) CSVRecord() []string {
	return []string{
		i.ID.String(),
		i.OrderID.String(),
		i.PurchaseID.String(),
		itoa(i.QuantitySent),
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
