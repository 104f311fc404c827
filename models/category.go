package models

// Category - верхнеуровневая группа тем
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
