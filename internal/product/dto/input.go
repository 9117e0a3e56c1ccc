package dto

type CreateProductInput struct {
	Name  string
	Stock int
}
