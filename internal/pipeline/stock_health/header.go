package stock_health

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/cast"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type canonicalField int

const (
	fieldProductCode canonicalField = iota
	fieldProductName
	fieldCurrentStock
	fieldDepartment
	fieldSalesQuantity
	fieldBrand
)

// headerAliases lists the normalized header spellings of each field, highest priority first.
var headerAliases = []struct {
	field   canonicalField
	aliases []string
}{
	{fieldProductCode, []string{"codigo", "codigoproducto", "codproducto", "cod", "clave", "sku"}},
	{fieldProductName, []string{"nombre", "nombreproducto", "descripcion", "producto"}},
	{fieldCurrentStock, []string{"existenciaactual", "existencia", "existencias", "stock"}},
	{fieldDepartment, []string{"dptodescrip", "departamento", "depto", "dpto"}},
	{fieldSalesQuantity, []string{"ventas60d", "cantidad", "cantidadvendida", "ventas"}},
	{fieldBrand, []string{"marca"}},
}

var knownHeaders = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, entry := range headerAliases {
		for _, a := range entry.aliases {
			m[a] = struct{}{}
		}
	}
	return m
}()

// foldText strips diacritics and lowercases s.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// NormalizeHeader folds a column label to its lookup form: no accents, lowercase,
// no periods and no whitespace. "Código" and "EXISTENCIA ACTUAL." become
// "codigo" and "existenciaactual".
func NormalizeHeader(name string) string {
	folded := foldText(name)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r == '.' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeRow maps a decoded row onto the canonical field set. Missing or
// malformed fields fall back to their defaults; the call never fails.
func NormalizeRow(raw RawRow) NormalizedRow {
	// Sort raw keys so collisions after folding resolve the same way every time.
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	byHeader := make(map[string]interface{}, len(raw))
	for _, k := range keys {
		h := NormalizeHeader(k)
		if _, seen := byHeader[h]; seen {
			continue
		}
		byHeader[h] = raw[k]
	}

	lookup := func(field canonicalField) (interface{}, bool) {
		for _, entry := range headerAliases {
			if entry.field != field {
				continue
			}
			for _, alias := range entry.aliases {
				if v, ok := byHeader[alias]; ok {
					return v, true
				}
			}
		}
		return nil, false
	}
	str := func(field canonicalField) string {
		v, _ := lookup(field)
		return toText(v)
	}
	num := func(field canonicalField) float64 {
		v, _ := lookup(field)
		return toNumber(v)
	}

	row := NormalizedRow{
		ProductCode:   str(fieldProductCode),
		ProductName:   str(fieldProductName),
		CurrentStock:  num(fieldCurrentStock),
		Department:    str(fieldDepartment),
		Brand:         str(fieldBrand),
		SalesQuantity: num(fieldSalesQuantity),
	}
	if row.Brand == "" {
		row.Brand = NoBrand
	}

	for h, v := range byHeader {
		if _, known := knownHeaders[h]; known {
			continue
		}
		if row.Extra == nil {
			row.Extra = make(map[string]interface{})
		}
		row.Extra[h] = v
	}

	return row
}

// NormalizeRows normalizes every row and drops the ones without a product code.
func NormalizeRows(raws []RawRow) []NormalizedRow {
	out := make([]NormalizedRow, 0, len(raws))
	for _, raw := range raws {
		row := NormalizeRow(raw)
		if row.ProductCode == "" {
			continue
		}
		out = append(out, row)
	}
	return out
}

func toText(v interface{}) string {
	if v == nil {
		return ""
	}
	if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1e15 {
		// Spreadsheet decoders hand numeric codes back as floats.
		return cast.ToString(int64(f))
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

var numberCleaner = strings.NewReplacer(" ", "", "\u00a0", "", "$", "")

// normalizeSeparators rewrites a locale-formatted number with "." as the only
// decimal separator. When both "," and "." appear, the last one is the decimal
// separator. A single "," alone is a decimal comma ("1,5" is 1.5); repeated
// separators of one kind are digit grouping ("1,234,567", "1.234.567").
func normalizeSeparators(s string) string {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")
	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case commas == 1:
		return strings.Replace(s, ",", ".", 1)
	case commas > 1:
		return strings.ReplaceAll(s, ",", "")
	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

func toNumber(v interface{}) float64 {
	if v == nil {
		return 0
	}
	if s, ok := v.(string); ok {
		s = normalizeSeparators(numberCleaner.Replace(strings.TrimSpace(s)))
		if s == "" {
			return 0
		}
		v = s
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
