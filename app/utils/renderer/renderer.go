// renderer/renderer.go
package renderer

import (
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"github.com/unrolled/render"
)

func New() *render.Render {
	return render.New(render.Options{
		Layout:     "layout",
		Extensions: []string{".html"},
		Funcs: []template.FuncMap{
			{
				"price": func(value decimal.NullDecimal) string {
					if !value.Valid {
						return ""
					}
					return "$" + value.Decimal.StringFixed(2)
				},
				"day": func(t *time.Time) string {
					if t == nil {
						return ""
					}
					return t.Format("2006-01-02")
				},
				"add": func(a, b int) int { return a + b },
			},
		},
	})
}
