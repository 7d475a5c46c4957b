package resource

import "context"

// Store persists the synchronized collections. Every Replace method is a
// full-collection substitution executed atomically: readers never observe a
// half-written collection and a failure leaves the prior state intact.
type Store interface {
	ListEventos(ctx context.Context) ([]Evento, error)
	ReplaceEventos(ctx context.Context, records []Evento) error

	ListDistritos(ctx context.Context) ([]Distrito, error)
	ReplaceDistritos(ctx context.Context, records []Distrito) error

	ListResponsables(ctx context.Context) ([]Responsable, error)
	ReplaceResponsables(ctx context.Context, records []Responsable) error

	ListActividades(ctx context.Context) ([]ActividadITCA, error)
	ReplaceActividades(ctx context.Context, records []ActividadITCA) error

	ListOficios(ctx context.Context) ([]Oficio, error)
	ReplaceOficios(ctx context.Context, records []Oficio) error

	// Catalog operations are scoped per catalog type: replacing type T
	// leaves every other type untouched. ListCatalog returns active items
	// ordered by their submitted position.
	ListCatalog(ctx context.Context, catalogType string) ([]CatalogItem, error)
	ReplaceCatalog(ctx context.Context, catalogType string, items []CatalogItem) error
}
