package usecase

// Published on order.events after checkout
type OrderCreatedMsg struct {
	OrderID      string `json:"orderId"`
	Customer     string `json:"customer"`
	CatalogPrice string `json:"catalogPrice"`
	PaidAmount   string `json:"paidAmount"`
	Currency     string `json:"currency"`
}

// Published on order.events when a webhook moves an order
type PaymentStatusChangedMsg struct {
	OrderID       string `json:"orderId"`
	DepositID     string `json:"depositId"`
	From          string `json:"from"`
	To            string `json:"to"`
	PawapayStatus string `json:"pawapayStatus"`
	FailCode      string `json:"failCode,omitempty"`
	PriceMatches  bool   `json:"priceMatches"`
	At            string `json:"at"`
}

// Sent by the courier system on Kafka
type DeliveryConfirmedMsg struct {
	OrderID     string `json:"orderId"`
	Status      string `json:"status"` // e.g. "DELIVERED"
	DeliveredAt string `json:"deliveredAt"`
}
