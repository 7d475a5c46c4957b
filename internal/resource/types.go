package resource

import "time"

// Kind names a synchronized collection. Kinds double as the API path segment
// under /api/ and map onto the page permission that gates them.
type Kind string

const (
	KindEventos         Kind = "eventos"
	KindDistritos       Kind = "distritos"
	KindResponsables    Kind = "responsables"
	KindActividadesITCA Kind = "actividadesITCA"
	KindOficios         Kind = "oficios"
)

// Permission returns the page permission string guarding the kind.
func (k Kind) Permission() string {
	// The ITCA activities collection is edited from the "actividades" page.
	if k == KindActividadesITCA {
		return "page:actividades"
	}
	return "page:" + string(k)
}

// EventoProps carries the calendar-event detail block. It is stored as a
// single JSONB value, mirroring how the portal edits it as one unit.
type EventoProps struct {
	Duracion           int      `json:"duracion" validate:"gte=0"`
	Tema               string   `json:"tema" validate:"required"`
	Aliado             string   `json:"aliado"`
	Institucion        string   `json:"institucion"`
	Publico            string   `json:"publico"`
	Responsable        string   `json:"responsable"`
	Observaciones      string   `json:"observaciones"`
	Estado             string   `json:"estado" validate:"required,oneof=Confirmado Pendiente Realizado Postergado Cancelado"`
	NuevaFecha         string   `json:"nuevaFecha,omitempty"`
	NuevaHora          string   `json:"nuevaHora,omitempty"`
	MotivoPostergacion string   `json:"motivoPostergacion,omitempty"`
	MotivoCancelacion  string   `json:"motivoCancelacion,omitempty"`
	DetalleCancelacion string   `json:"detalleCancelacion,omitempty"`
	Asistentes         *int     `json:"asistentes,omitempty"`
	Evaluacion         string   `json:"evaluacion,omitempty"`
	Logros             string   `json:"logros,omitempty"`
	Evidencias         []string `json:"evidencias,omitempty"`
}

// Evento is a scheduled committee event shown on the agenda calendar.
type Evento struct {
	ID    string      `json:"id" validate:"required"`
	Title string      `json:"title" validate:"required"`
	Start string      `json:"start" validate:"required,isodate"`
	Props EventoProps `json:"extendedProps"`
}

// Distrito is district metadata.
type Distrito struct {
	ID          string `json:"id" validate:"required"`
	Nombre      string `json:"nombre" validate:"required"`
	Responsable string `json:"responsable" validate:"required"`
	Actividades string `json:"actividades"`
	Estado      string `json:"estado" validate:"required,oneof=Activo Inactivo"`
}

// Responsable is a responsible-party directory entry.
type Responsable struct {
	ID          string `json:"id" validate:"required"`
	Nombre      string `json:"nombre" validate:"required"`
	Cargo       string `json:"cargo" validate:"required"`
	Institucion string `json:"institucion" validate:"required"`
	Distrito    string `json:"distrito" validate:"required"`
	Telefono    string `json:"telefono" validate:"required,min=3"`
	Email       string `json:"email" validate:"required,email"`
}

// ActividadITCA is a quarterly joint-activity compliance row.
type ActividadITCA struct {
	ID               int    `json:"id"`
	LineaEstrategica string `json:"lineaEstrategica" validate:"required"`
	Actividad        string `json:"actividad" validate:"required"`
	Responsable      string `json:"responsable"`
	Fecha            string `json:"fecha" validate:"required,isodate"`
}

// Oficio is a generated official letter.
type Oficio struct {
	ID           string `json:"id" validate:"required"`
	Fecha        string `json:"fecha" validate:"required,isodate"`
	Destinatario string `json:"destinatario" validate:"required"`
	Asunto       string `json:"asunto" validate:"required"`
	Contenido    string `json:"contenido" validate:"required"`
	Estado       string `json:"estado" validate:"required,oneof=Borrador Enviado"`
	Tipo         string `json:"tipo" validate:"required,oneof=personalizado sesiones eventos responsables"`
}

// CatalogItem is a configurable dropdown value scoped by catalog type.
// Active defaults to true when absent; Order is the submitted position.
type CatalogItem struct {
	Value  string `json:"value" validate:"required"`
	Active *bool  `json:"active,omitempty"`
	Order  int    `json:"order"`
}

// IsActive resolves the optional active flag with its default.
func (c CatalogItem) IsActive() bool {
	return c.Active == nil || *c.Active
}

// CatalogTypes are the editable catalogs of the configuration page.
var CatalogTypes = []string{"lineas", "estados", "publicos", "niveles", "turnos", "ie", "distritos"}

// ValidCatalogType reports whether t names a known catalog.
func ValidCatalogType(t string) bool {
	for _, known := range CatalogTypes {
		if known == t {
			return true
		}
	}
	return false
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses the ISO-8601 variants the portal emits.
func ParseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
