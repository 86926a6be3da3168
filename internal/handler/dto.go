package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lmarind/tienda-api/internal/domain/order"
	"github.com/lmarind/tienda-api/internal/domain/product"
)

// createdAtLayout is the human-facing timestamp format used in order
// responses, e.g. "15 Jun 2025".
const createdAtLayout = "02 Jan 2006"

type createOrderRequest struct {
	Address       addressPayload     `json:"address"`
	Products      []orderLinePayload `json:"products"`
	PaymentMethod string             `json:"payment_method"`
	Notes         string             `json:"notes"`
	CouponCode    string             `json:"coupon_code"`
}

type orderLinePayload struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

type addressPayload struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Locality    string `json:"locality"`
	StreetType  string `json:"street_type"`
	StreetValue string `json:"street_value"`
	Number      string `json:"number"`
	Complement  string `json:"complement"`
}

func (a addressPayload) fields() order.AddressFields {
	return order.AddressFields{
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Email:       a.Email,
		Phone:       a.Phone,
		Locality:    a.Locality,
		StreetType:  a.StreetType,
		StreetValue: a.StreetValue,
		Number:      a.Number,
		Complement:  a.Complement,
	}
}

type createRefundRequest struct {
	Reason string `json:"reason"`
}

type orderResponse struct {
	ID              int64             `json:"id"`
	Status          string            `json:"status"`
	CreatedAt       string            `json:"created_at"`
	Notes           string            `json:"notes,omitempty"`
	ItemsCount      int               `json:"items_count"`
	Items           []itemResponse    `json:"items"`
	Payments        []paymentResponse `json:"payments"`
	Refunds         []refundResponse  `json:"refunds,omitempty"`
	BillingAddress  *addressResponse  `json:"billing_address,omitempty"`
	ShippingAddress *addressResponse  `json:"shipping_address,omitempty"`
}

type itemResponse struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSlug string          `json:"product_slug"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type paymentResponse struct {
	Amount        decimal.Decimal `json:"amount"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
	CreatedAt     string          `json:"created_at"`
}

type refundResponse struct {
	ID        int64  `json:"id"`
	Reason    string `json:"reason"`
	Accepted  bool   `json:"accepted"`
	CreatedAt string `json:"created_at"`
}

type addressResponse struct {
	addressPayload
	Kind string `json:"kind"`
}

type productResponse struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Discount      int             `json:"discount"`
	Stock         int             `json:"stock"`
	IsNew         bool            `json:"is_new"`
	IsTop         bool            `json:"is_top"`
	IsFeatured    bool            `json:"is_featured"`
	CategoryID    *int64          `json:"category_id,omitempty"`
}

type categoryResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ImageURL string `json:"image_url,omitempty"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:         o.ID,
		Status:     o.Status.Display(),
		CreatedAt:  o.CreatedAt.Format(createdAtLayout),
		Notes:      o.Notes,
		ItemsCount: o.ItemsCount(),
		Items:      make([]itemResponse, len(o.Items)),
		Payments:   make([]paymentResponse, len(o.Payments)),
	}
	for i, item := range o.Items {
		resp.Items[i] = itemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ProductSlug: item.ProductSlug,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Subtotal(),
		}
	}
	for i, p := range o.Payments {
		resp.Payments[i] = paymentResponse{
			Amount:        p.Amount,
			ShippingCost:  p.ShippingCost,
			PaymentMethod: p.Method.Wire(),
			Status:        string(p.Status),
			CreatedAt:     p.CreatedAt.Format(createdAtLayout),
		}
	}
	for _, rf := range o.Refunds {
		resp.Refunds = append(resp.Refunds, refundResponse{
			ID:        rf.ID,
			Reason:    rf.Reason,
			Accepted:  rf.Accepted,
			CreatedAt: rf.CreatedAt.Format(createdAtLayout),
		})
	}
	resp.BillingAddress = toAddressResponse(o.BillingAddress)
	resp.ShippingAddress = toAddressResponse(o.ShippingAddress)
	return resp
}

func toAddressResponse(a *order.Address) *addressResponse {
	if a == nil {
		return nil
	}
	return &addressResponse{
		addressPayload: addressPayload{
			FirstName:   a.FirstName,
			LastName:    a.LastName,
			Email:       a.Email,
			Phone:       a.Phone,
			Locality:    a.Locality,
			StreetType:  a.StreetType,
			StreetValue: a.StreetValue,
			Number:      a.Number,
			Complement:  a.Complement,
		},
		Kind: string(a.Kind),
	}
}

func toProductResponse(p *product.Product, now time.Time) productResponse {
	display, original := p.DisplayPrice(now)
	return productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		Description:   p.Description,
		Price:         display,
		OriginalPrice: original,
		Discount:      p.Discount,
		Stock:         p.Stock,
		IsNew:         p.IsNew,
		IsTop:         p.IsTop,
		IsFeatured:    p.IsFeatured,
		CategoryID:    p.CategoryID,
	}
}
