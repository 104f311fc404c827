package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultListName - имя файла со списком путей по умолчанию
const DefaultListName = "filelist.txt"

// GenerateFileList записывает в listPath имена всех записей верхнего уровня каталога root,
// по одной на строку. Пустой listPath означает root/filelist.txt. Сам файл списка и имена
// из skip не включаются. Возвращает число записей.
func GenerateFileList(root, listPath string, skip ...string) (int, error) {
	if listPath == "" {
		listPath = filepath.Join(root, DefaultListName)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, fmt.Errorf("read dir %s: %w", root, err)
	}

	// файл списка исключается, только если лежит прямо в root
	listName := ""
	if sameDir(filepath.Dir(listPath), root) {
		listName = filepath.Base(listPath)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if name == listName || slices.Contains(skip, name) {
			continue
		}
		names = append(names, name)
	}

	content := strings.Join(names, "\n") + "\n"
	if err := os.WriteFile(listPath, []byte(content), 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", listPath, err)
	}
	return len(names), nil
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
