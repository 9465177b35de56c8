package document

import (
	"fmt"
	"time"
)

const periodLayout = "2006-01"

// Period clave mensual YYYY-MM.
func Period(t time.Time) string {
	return t.Format(periodLayout)
}

// ParsePeriod valida una clave YYYY-MM.
func ParsePeriod(s string) (string, error) {
	t, err := time.Parse(periodLayout, s)
	if err != nil {
		return "", fmt.Errorf("periodo inválido %q (formato YYYY-MM)", s)
	}
	return Period(t), nil
}
