package oficio

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLookupKnownTipos(t *testing.T) {
	for _, tipo := range Tipos() {
		tpl, err := Lookup(tipo)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", tipo, err)
		}
		if tpl.Tipo != tipo {
			t.Fatalf("expected tipo %q, got %q", tipo, tpl.Tipo)
		}
		if tpl.Asunto == "" || tpl.Contenido == "" {
			t.Fatalf("template %q has empty parts", tipo)
		}
	}

	if _, err := Lookup("personalizado"); !errors.Is(err, ErrUnknownTipo) {
		t.Fatalf("expected ErrUnknownTipo for personalizado, got %v", err)
	}
}

func TestRenderSubstitutesEveryOccurrence(t *testing.T) {
	got := Render("{lugar} y de nuevo {lugar}", map[string]string{
		"lugar": "Municipalidad",
		"fecha": "01/02/2025",
	})
	if got != "Municipalidad y de nuevo Municipalidad" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestRenderDefaultsFecha(t *testing.T) {
	got := Render("Lima, {fecha}", map[string]string{})
	want := "Lima, " + time.Now().Format("02/01/2006")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	got = Render("Lima, {fecha}", map[string]string{"fecha": "15/09/2026"})
	if got != "Lima, 15/09/2026" {
		t.Fatalf("expected explicit fecha to win, got %q", got)
	}
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	got := Render("Destino: {destinatario}", map[string]string{"fecha": "x"})
	if got != "Destino: {destinatario}" {
		t.Fatalf("expected unresolved placeholder kept, got %q", got)
	}
}

func TestRenderTemplate(t *testing.T) {
	asunto, contenido, err := RenderTemplate("sesiones", map[string]string{
		"tipo_sesion":          "SESIÓN ORDINARIA",
		"tipo_sesion_completa": "LA PRIMERA SESIÓN ORDINARIA",
		"destinatario":         "Crnl. PNP Luis Soto",
		"fecha":                "05/03/2025",
		"lugar_sesion":         "Sala de reuniones",
		"fecha_sesion":         "12/03/2025",
		"hora_sesion":          "10:00",
	})
	if err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	if !strings.Contains(asunto, "SESIÓN ORDINARIA") {
		t.Fatalf("asunto missing substitution: %q", asunto)
	}
	if strings.Contains(contenido, "{") {
		t.Fatalf("contenido has unresolved placeholders:\n%s", contenido)
	}
	if !strings.Contains(contenido, "Crnl. PNP Luis Soto") {
		t.Fatalf("contenido missing destinatario:\n%s", contenido)
	}

	if _, _, err := RenderTemplate("otro", nil); !errors.Is(err, ErrUnknownTipo) {
		t.Fatalf("expected ErrUnknownTipo, got %v", err)
	}
}
