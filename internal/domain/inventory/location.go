package inventory

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/conteo-inventario/internal/domain"
)

var locationCodePattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// NormalizeLocationCode convierte la referencia de ubicación al código que entiende la fuente de
// inventario: sin espacios ni tildes, en mayúsculas, alfanumérico de 1 a 10 caracteres.
func NormalizeLocationCode(raw string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	clean, _, err := transform.String(t, raw)
	if err != nil {
		return "", domain.Invalid("código de ubicación ilegible: " + raw)
	}
	clean = strings.ToUpper(strings.Join(strings.Fields(clean), ""))
	if !locationCodePattern.MatchString(clean) {
		return "", domain.Invalid("código de ubicación inválido: " + raw)
	}
	return clean, nil
}
