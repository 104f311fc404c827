// Package manifest переносит наборы текстовых файлов через один JSON-документ:
// extract собирает файлы по списку в массив {path, contents}, populate раскладывает их обратно.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadList читает список путей из файла
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list %s: %w", path, err)
	}
	defer f.Close()
	return ParseList(f)
}

// ParseList возвращает непустые строки списка без пробелов по краям.
// Строки, начинающиеся с #, считаются комментариями.
func ParseList(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read list: %w", err)
	}
	return out, nil
}
