package transport

import "github.com/shopspring/decimal"

// Shipping is the resolved recipient identity copied onto an order.
type Shipping struct {
	UserID   *uint
	FullName string
	Phone    string
	Address  string
}

// Shortage describes one cart line that exceeds available stock.
type Shortage struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Requested uint   `json:"requested"`
	Available uint   `json:"available"`
}

// CartLine is one rendered cart row.
type CartLine struct {
	ItemID    uint            `json:"item_id"`
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	ImageURL  string          `json:"image_url,omitempty"`
	ColorID   *uint           `json:"color_id,omitempty"`
	ColorName string          `json:"color_name,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  uint            `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartView is the payload every cart mutation responds with.
type CartView struct {
	CartID uint            `json:"cart_id"`
	Items  []CartLine      `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

type CartMutationRequest struct {
	ProductID uint `json:"product" form:"product"`
	ColorID   uint `json:"color" form:"color"`
	Quantity  int  `json:"qty" form:"qty"`
}

type CheckoutRequest struct {
	FullName      string `json:"fullname" form:"fullname"`
	Phone         string `json:"phone" form:"phone"`
	Address       string `json:"address" form:"address"`
	AddressID     uint   `json:"address_id" form:"address_id"`
	PaymentMethod string `json:"payment_method" form:"payment_method"`
}

type CheckoutResponse struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	OrderID   uint            `json:"order_id,omitempty"`
	Total     decimal.Decimal `json:"total,omitempty"`
	Shortages []Shortage      `json:"shortages,omitempty"`
}

type CancelResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type AddressRequest struct {
	FullName   string `json:"full_name" form:"full_name"`
	Phone      string `json:"phone" form:"phone"`
	Line1      string `json:"line1" form:"line1"`
	Line2      string `json:"line2" form:"line2"`
	City       string `json:"city" form:"city"`
	State      string `json:"state" form:"state"`
	PostalCode string `json:"postal_code" form:"postal_code"`
	Country    string `json:"country" form:"country"`
	IsDefault  bool   `json:"is_default" form:"is_default"`
}

type ProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       *int64          `json:"stock"`
	CategoryIDs []uint          `json:"category_ids"`
	ColorIDs    []uint          `json:"color_ids"`
}

type CategoryRequest struct {
	Name     string `json:"name"`
	Position uint   `json:"position"`
}

type ColorRequest struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}
