package models

// Topic принадлежит ровно одной категории на момент создания
type Topic struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	CategoryID string `json:"categoryId"`
}
