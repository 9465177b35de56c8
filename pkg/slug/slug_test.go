package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Gestion-api/pkg/slug"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Jefe de Área":         "jefe-de-area",
		"  Supervisión  HSEQ ": "supervision-hseq",
		"Ñandú & Cía.":         "nandu-cia",
		"---":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, slug.Make(in), in)
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Cedula_de_ciudadania.pdf", slug.FileName("Cédula de ciudadanía.pdf"))
	assert.Equal(t, "passwd", slug.FileName("../../etc/passwd"))
	assert.Equal(t, "archivo", slug.FileName("  "))
}
