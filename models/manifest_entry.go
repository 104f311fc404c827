package models

// ManifestEntry - один файл в манифесте: относительный путь и текстовое содержимое
type ManifestEntry struct {
	Path     string `json:"path"`
	Contents string `json:"contents"`
}
