// Package oficio renders official municipal letters from field-substitution
// templates. Placeholders use the {campo} form; every occurrence is replaced.
package oficio

import (
	"errors"
	"strings"
	"time"
)

// Template is a letter blueprint: a subject line and a body, both carrying
// {campo} placeholders.
type Template struct {
	Tipo      string `json:"tipo"`
	Asunto    string `json:"asunto"`
	Contenido string `json:"contenido"`
}

// ErrUnknownTipo is returned for a tipo with no registered template.
var ErrUnknownTipo = errors.New("oficio: unknown template tipo")

var templates = map[string]Template{
	"sesiones": {
		Tipo:      "sesiones",
		Asunto:    "INVITACIÓN A {tipo_sesion} DEL CODISEC",
		Contenido: "OFICIO N° 188-2025-RST-CODISEC\n\nLima, {fecha}\n\nSeñor(a)\n{destinatario}\nPresente.-\n\nASUNTO: INVITACIÓN A {tipo_sesion_completa} DEL COMITÉ DISTRITAL DE SEGURIDAD CIUDADANA\n\n...\nLugar: {lugar_sesion}\nFecha: {fecha_sesion} {hora_sesion}",
	},
	"eventos": {
		Tipo:      "eventos",
		Asunto:    "COORDINACIÓN PARA {tipo_evento} - CODISEC",
		Contenido: "OFICIO N° 338-2024-RST-CODISEC-DIR\n\nLima, {fecha}\n\nSeñor(a)\n{destinatario}\nPresente.-\n\nASUNTO: COORDINACIÓN PARA {tipo_evento_completa}\n\nFecha: {fecha_evento}\nHora: {hora_evento}\nDirigido a: {poblacion_objetivo}",
	},
	"responsables": {
		Tipo:      "responsables",
		Asunto:    "REMISIÓN DE ACTIVIDADES ITCA - {trimestre} TRIMESTRE 2025",
		Contenido: "OFICIO N° 211-2025-RST-CODISEC\n\nLima, {fecha}\n\nSeñor(a)\n{responsable_especifico}\n{destinatario}\nPresente.-\n\nASUNTO: REMISIÓN DE ACTIVIDADES CORRESPONDIENTES AL {trimestre} TRIMESTRE - ITCA 2025\n\n{tabla_actividades}\n\nFECHA LÍMITE DE ENTREGA: {fecha_limite}",
	},
}

// Lookup returns the template registered for tipo. The "personalizado" tipo
// has no template: the caller supplies free-form text.
func Lookup(tipo string) (Template, error) {
	tpl, ok := templates[tipo]
	if !ok {
		return Template{}, ErrUnknownTipo
	}
	return tpl, nil
}

// Tipos lists the registered template tipos.
func Tipos() []string {
	return []string{"sesiones", "eventos", "responsables"}
}

// Render substitutes campos into every placeholder of text. The {fecha}
// placeholder defaults to today's date when the caller does not provide one;
// unresolved placeholders are left verbatim so missing fields stay visible.
func Render(text string, campos map[string]string) string {
	if _, ok := campos["fecha"]; !ok {
		out := strings.ReplaceAll(text, "{fecha}", time.Now().Format("02/01/2006"))
		text = out
	}
	for campo, valor := range campos {
		text = strings.ReplaceAll(text, "{"+campo+"}", valor)
	}
	return text
}

// RenderTemplate renders both parts of the tipo's template.
func RenderTemplate(tipo string, campos map[string]string) (asunto, contenido string, err error) {
	tpl, err := Lookup(tipo)
	if err != nil {
		return "", "", err
	}
	return Render(tpl.Asunto, campos), Render(tpl.Contenido, campos), nil
}
