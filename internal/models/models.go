package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusShipping  = "shipping"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"unique;not null"     json:"token"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}

// Address belongs to exactly one user. At most one address per user
// carries IsDefault=true; the invariant is enforced by the repo save
// path, every write goes through it.
type Address struct {
	ID         uint   `gorm:"primaryKey"     json:"id"`
	UserID     uint   `gorm:"index;not null" json:"user_id"`
	FullName   string `gorm:"not null"       json:"full_name"`
	Phone      string `json:"phone"`
	Line1      string `gorm:"not null"       json:"line1"`
	Line2      string `json:"line2"`
	City       string `gorm:"not null"       json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `gorm:"default:false"  json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
}

type Category struct {
	ID       uint   `gorm:"primaryKey"      json:"id"`
	Name     string `gorm:"unique;not null" json:"name"`
	Slug     string `gorm:"unique;not null" json:"slug"`
	Position uint   `gorm:"default:0"       json:"position"`
}

type Color struct {
	ID   uint   `gorm:"primaryKey"      json:"id"`
	Name string `gorm:"unique;not null" json:"name"`
	Hex  string `json:"hex"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey"                json:"id"`
	Name        string          `gorm:"unique;not null"           json:"name"`
	Slug        string          `gorm:"unique;not null"           json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	// Stock is nil for products that do not track inventory; those are
	// always sellable and skipped by checkout stock checks.
	Stock      *int64         `json:"stock"`
	Categories []Category     `gorm:"many2many:product_categories" json:"categories,omitempty"`
	Colors     []Color        `gorm:"many2many:product_colors"     json:"colors,omitempty"`
	Images     []ProductImage `gorm:"constraint:OnDelete:CASCADE"  json:"images,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type ProductImage struct {
	ID        uint   `gorm:"primaryKey"     json:"id"`
	ProductID uint   `gorm:"index;not null" json:"product_id"`
	URL       string `gorm:"not null"       json:"url"`
	Position  uint   `gorm:"default:0"      json:"position"`
}

// Cart is owned by a user once UserID is set; before that it is an
// anonymous cart addressed only by its uuid token.
type Cart struct {
	ID        uint       `gorm:"primaryKey"        json:"id"`
	UserID    *uint      `gorm:"uniqueIndex"       json:"user_id"`
	Token     string     `gorm:"uniqueIndex;not null" json:"-"`
	Items     []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// CartItem rows are unique per (cart, product, color). SQL unique
// indexes treat NULLs as distinct, so colorless lines get their own
// partial index.
type CartItem struct {
	ID        uint  `gorm:"primaryKey"                                                                                              json:"id"`
	CartID    uint  `gorm:"uniqueIndex:idx_cart_product_color;uniqueIndex:idx_cart_product_nocolor,where:color_id IS NULL;not null" json:"cart_id"`
	ProductID uint  `gorm:"uniqueIndex:idx_cart_product_color;uniqueIndex:idx_cart_product_nocolor;not null"                        json:"product_id"`
	ColorID   *uint `gorm:"uniqueIndex:idx_cart_product_color"                                                                      json:"color_id"`
	Quantity  uint  `gorm:"default:1;check:quantity>0"                                                                              json:"quantity"`

	Product Product `json:"product,omitempty"`
	Color   *Color  `json:"color,omitempty"`
}

// Order is an immutable snapshot of a cart at checkout time. Shipping
// fields are copied from the chosen address, item prices from the
// products; later catalog edits never change an order.
type Order struct {
	ID              uint            `gorm:"primaryKey"        json:"id"`
	UserID          *uint           `gorm:"index"             json:"user_id"`
	FullName        string          `gorm:"not null"          json:"full_name"`
	Phone           string          `json:"phone"`
	Address         string          `gorm:"not null"          json:"address"`
	Status          string          `gorm:"not null;default:pending" json:"status"`
	PaymentMethod   string          `json:"payment_method"`
	TransactionCode string          `json:"transaction_code,omitempty"`
	Total           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Items           []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// OrderItem keeps a weak product reference: ProductID is nulled when
// the product is deleted, while ProductName/UnitPrice keep the order
// history renderable.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey"     json:"id"`
	OrderID     uint            `gorm:"index;not null" json:"order_id"`
	ProductID   *uint           `gorm:"constraint:OnDelete:SET NULL" json:"product_id"`
	ProductName string          `gorm:"not null"       json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Quantity    uint            `gorm:"check:quantity>0" json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"line_total"`
}

// CanCancel reports whether the order is still in a cancellable state.
func (o *Order) CanCancel() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusShipping
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &RefreshToken{}, &Address{},
		&Category{}, &Color{}, &Product{}, &ProductImage{},
		&Cart{}, &CartItem{},
		&Order{}, &OrderItem{},
	}
}
