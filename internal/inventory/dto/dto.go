package dto

// StockLevel is the stock view of one product: what the store holds, what
// robots have claimed and what is left to assign.
type StockLevel struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	Reserved  int    `json:"reserved"`
	Available int    `json:"available"`
}
