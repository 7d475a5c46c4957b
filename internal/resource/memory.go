package resource

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps the collections in process memory. It backs tests and
// DSN-less development runs; production uses the Postgres store.
type MemoryStore struct {
	mu           sync.RWMutex
	eventos      []Evento
	distritos    []Distrito
	responsables []Responsable
	actividades  []ActividadITCA
	oficios      []Oficio
	catalogs     map[string][]CatalogItem
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{catalogs: make(map[string][]CatalogItem)}
}

func (s *MemoryStore) ListEventos(_ context.Context) ([]Evento, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Evento(nil), s.eventos...), nil
}

func (s *MemoryStore) ReplaceEventos(_ context.Context, records []Evento) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventos = append([]Evento(nil), records...)
	return nil
}

func (s *MemoryStore) ListDistritos(_ context.Context) ([]Distrito, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Distrito(nil), s.distritos...), nil
}

func (s *MemoryStore) ReplaceDistritos(_ context.Context, records []Distrito) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.distritos = append([]Distrito(nil), records...)
	return nil
}

func (s *MemoryStore) ListResponsables(_ context.Context) ([]Responsable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Responsable(nil), s.responsables...), nil
}

func (s *MemoryStore) ReplaceResponsables(_ context.Context, records []Responsable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responsables = append([]Responsable(nil), records...)
	return nil
}

func (s *MemoryStore) ListActividades(_ context.Context) ([]ActividadITCA, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ActividadITCA(nil), s.actividades...), nil
}

func (s *MemoryStore) ReplaceActividades(_ context.Context, records []ActividadITCA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actividades = append([]ActividadITCA(nil), records...)
	return nil
}

func (s *MemoryStore) ListOficios(_ context.Context) ([]Oficio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Oficio(nil), s.oficios...), nil
}

func (s *MemoryStore) ReplaceOficios(_ context.Context, records []Oficio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.oficios = append([]Oficio(nil), records...)
	return nil
}

func (s *MemoryStore) ListCatalog(_ context.Context, catalogType string) ([]CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []CatalogItem
	for _, item := range s.catalogs[catalogType] {
		if item.IsActive() {
			result = append(result, item)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Order < result[j].Order })
	return result, nil
}

func (s *MemoryStore) ReplaceCatalog(_ context.Context, catalogType string, items []CatalogItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalogs[catalogType] = append([]CatalogItem(nil), items...)
	return nil
}
