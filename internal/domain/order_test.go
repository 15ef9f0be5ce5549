package domain_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/game-orders/internal/domain"
)

// helper для создания базового заказа с одной позицией.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	order := domain.NewOrder("customer-1", "customer-1@example.com", "12 Kallang Ave", now)
	order.OrderID = 1
	order.Items = []domain.OrderItem{
		{
			ItemID:      1,
			OrderID:     1,
			GameID:      "game-1",
			GameName:    "Chess",
			Quantity:    2,
			Price:       9.99,
			PriceID:     "price_1",
			GenreString: "Strategy",
		},
	}
	return order
}

func TestNewOrder_Defaults(t *testing.T) {
	now := time.Now().UTC()
	order := domain.NewOrder("customer-1", "customer-1@example.com", "", now)

	if order.Status != domain.OrderStatusProcessing {
		t.Fatalf("expected status processing, got %s", order.Status)
	}
	if order.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("expected payment status pending, got %s", order.PaymentStatus)
	}
	if order.ShippingAddress != domain.DefaultShippingAddress {
		t.Fatalf("expected fallback shipping address, got %q", order.ShippingAddress)
	}
	if order.StripeSessionID != domain.UnboundSessionID {
		t.Fatalf("expected sentinel session id, got %q", order.StripeSessionID)
	}
	if !order.Created.Equal(now) || !order.Modified.Equal(now) {
		t.Fatal("expected created and modified set to now")
	}
}

func TestNewOrder_KeepsExplicitAddress(t *testing.T) {
	order := domain.NewOrder("customer-1", "customer-1@example.com", "12 Kallang Ave", time.Now().UTC())
	if order.ShippingAddress != "12 Kallang Ave" {
		t.Fatalf("expected explicit address kept, got %q", order.ShippingAddress)
	}
}

func TestJoinGenres(t *testing.T) {
	if got := domain.JoinGenres([]string{"Strategy", "Puzzle"}); got != "Strategy, Puzzle" {
		t.Fatalf("expected joined genres, got %q", got)
	}
	if got := domain.JoinGenres(nil); got != "" {
		t.Fatalf("expected empty string for nil genres, got %q", got)
	}
}

func TestValidPaymentStatus(t *testing.T) {
	for _, s := range []domain.PaymentStatus{domain.PaymentStatusPending, domain.PaymentStatusPaid, domain.PaymentStatusFailed} {
		if !domain.ValidPaymentStatus(s) {
			t.Fatalf("expected %s to be valid", s)
		}
	}
	if domain.ValidPaymentStatus("refunded") {
		t.Fatal("expected refunded to be rejected")
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
	}{
		{
			name: "no customer",
			mut: func(o *domain.Order) {
				o.CustomerID = ""
			},
		},
		{
			name: "no email",
			mut: func(o *domain.Order) {
				o.CustomerEmail = ""
			},
		},
		{
			name: "bad status",
			mut: func(o *domain.Order) {
				o.Status = "delivered"
			},
		},
		{
			name: "bad payment status",
			mut: func(o *domain.Order) {
				o.PaymentStatus = "refunded"
			},
		},
		{
			name: "empty session id",
			mut: func(o *domain.Order) {
				o.StripeSessionID = ""
			},
		},
		{
			name: "no game id",
			mut: func(o *domain.Order) {
				o.Items[0].GameID = ""
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mut(&order)
			if errs := order.ValidateInvariants(); len(errs) == 0 {
				t.Fatal("expected validation errors")
			}
		})
	}
}
