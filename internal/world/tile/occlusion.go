package tile

import (
	"fmt"
	"strings"
)

// OcclusionPolicy определяет, скрывает ли соседний тайл грань
type OcclusionPolicy uint8

const (
	// OccludeAnySolid любой непустой сосед скрывает грань
	OccludeAnySolid OcclusionPolicy = iota
	// OccludeSameTile грань скрывается только точно таким же тайлом
	OccludeSameTile
)

// Hides сообщает, скрыта ли грань тайла self соседом other
func (p OcclusionPolicy) Hides(self, other Tile) bool {
	if other.IsEmpty() {
		return false
	}
	if p == OccludeSameTile {
		return self.Equal(other)
	}
	return true
}

func (p OcclusionPolicy) String() string {
	switch p {
	case OccludeSameTile:
		return "same_tile"
	default:
		return "any_solid"
	}
}

// ParseOcclusionPolicy разбирает значение из конфигурации
func ParseOcclusionPolicy(s string) (OcclusionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any_solid", "any":
		return OccludeAnySolid, nil
	case "same_tile", "same":
		return OccludeSameTile, nil
	default:
		return OccludeAnySolid, fmt.Errorf("unknown occlusion policy %q", s)
	}
}
