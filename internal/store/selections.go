package store

import "github.com/GoArmGo/PhotoPrint/internal/domain"

// Selections сопоставляет ID фото выбранному формату печати (не больше одного на фото).
type Selections struct {
	sizes map[string]domain.PrintSize
}

func NewSelections() *Selections {
	return &Selections{sizes: make(map[string]domain.PrintSize)}
}

// Assign создаёт или заменяет выбор формата.
func (s *Selections) Assign(photoID string, size domain.PrintSize) {
	s.sizes[photoID] = size
}

func (s *Selections) Get(photoID string) (domain.PrintSize, bool) {
	size, ok := s.sizes[photoID]
	return size, ok
}

// Prune удаляет выборы для фото, которых нет в live. Возвращает число удалённых записей.
func (s *Selections) Prune(live map[string]struct{}) int {
	removed := 0
	for id := range s.sizes {
		if _, ok := live[id]; !ok {
			delete(s.sizes, id)
			removed++
		}
	}
	return removed
}

func (s *Selections) Clear() {
	clear(s.sizes)
}

func (s *Selections) Len() int {
	return len(s.sizes)
}

// Snapshot возвращает копию отображения.
func (s *Selections) Snapshot() map[string]domain.PrintSize {
	cp := make(map[string]domain.PrintSize, len(s.sizes))
	for k, v := range s.sizes {
		cp[k] = v
	}
	return cp
}
