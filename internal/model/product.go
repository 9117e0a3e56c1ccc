package model

type Product struct {
	BaseModel
	Name  string `db:"name" json:"name"`
	Stock int    `db:"stock" json:"stock"`
}

// StockChange is one line of a batch stock decrement.
type StockChange struct {
	ProductID   string
	ProductName string
	Quantity    int
}
