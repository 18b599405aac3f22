package handler

import (
	"html/template"
	"time"

	"github.com/dukerupert/cepfinder/internal/cep"
)

// TemplateFuncs returns a FuncMap with custom template functions
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"year": func() int {
			return time.Now().Year()
		},
		"formatCEP": cep.Format,
	}
}
