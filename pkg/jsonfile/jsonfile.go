// Package jsonfile содержит общие помощники для JSON-файлов на диске:
// снятие BOM, форматированная сериализация и атомарная запись.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// StripBOM убирает UTF-8 BOM в начале данных, если он есть
func StripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, bom)
}

// MarshalPretty сериализует значение с отступом в два пробела.
// HTML-символы не экранируются, чтобы файлы оставались читаемыми.
func MarshalPretty(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeArray разбирает JSON-массив в срез. null превращается в пустой срез.
func DecodeArray[T any](data []byte) ([]T, error) {
	data = bytes.TrimSpace(StripBOM(data))
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// WriteAtomic записывает данные во временный файл рядом с целевым и переименовывает его.
// Читатель видит либо старое, либо новое содержимое целиком.
func WriteAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
