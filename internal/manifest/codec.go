package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"topics_go/models"
	"topics_go/pkg/jsonfile"
)

// Encode сериализует манифест с отступом в два пробела
func Encode(entries []models.ManifestEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.ManifestEntry{}
	}
	return jsonfile.MarshalPretty(entries)
}

// WriteFile записывает манифест в файл
func WriteFile(path string, entries []models.ManifestEntry) error {
	data, err := Encode(entries)
	if err != nil {
		return err
	}
	if err := jsonfile.WriteAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

// Decode разбирает манифест. Элементы, которые не являются объектом
// {path: string, contents: string}, не прерывают разбор: их индексы возвращаются в skipped.
func Decode(data []byte) (entries []models.ManifestEntry, skipped []int, err error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(jsonfile.StripBOM(data), &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if raw == nil {
		return nil, nil, ErrInvalidManifest
	}

	entries = make([]models.ManifestEntry, 0, len(raw))
	for i, item := range raw {
		var e struct {
			Path     *string `json:"path"`
			Contents *string `json:"contents"`
		}
		if err := json.Unmarshal(item, &e); err != nil || e.Path == nil || e.Contents == nil {
			skipped = append(skipped, i)
			continue
		}
		entries = append(entries, models.ManifestEntry{Path: *e.Path, Contents: *e.Contents})
	}
	return entries, skipped, nil
}

// ReadFile читает манифест с диска без разбора
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return data, nil
}
