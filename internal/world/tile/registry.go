package tile

import "strings"

// Kind представляет вариант тайла (тег размеченного объединения)
type Kind uint8

// Константы вариантов тайлов
const (
	KindEmpty Kind = iota // 0 - пустой слот
	KindBrick             // 1 - кирпич с цветом палитры
)

var registry = map[Kind]string{
	KindEmpty: "empty",
	KindBrick: "brick",
}

// IsValidKind проверяет, зарегистрирован ли вариант
func IsValidKind(kind Kind) bool {
	_, exists := registry[kind]
	return exists
}

// ParseKind ищет вариант по имени (без учёта регистра)
func ParseKind(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, n := range registry {
		if n == name {
			return kind, true
		}
	}
	return KindEmpty, false
}

// String возвращает имя варианта
func (k Kind) String() string {
	if name, ok := registry[k]; ok {
		return name
	}
	return "unknown"
}
