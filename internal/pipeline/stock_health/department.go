package stock_health

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const minKeywordLength = 4

// DepartmentIndex holds, per department, the keywords seen in its product names.
type DepartmentIndex struct {
	order    []string
	keywords map[string]map[string]struct{}
}

// hasDepartment reports whether dept is a real label and not empty or the sentinel.
func hasDepartment(dept string) bool {
	d := strings.TrimSpace(dept)
	if d == "" {
		return false
	}
	return NormalizeHeader(d) != NormalizeHeader(NoDepartment)
}

func keywords(name string) []string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minKeywordLength {
			out = append(out, f)
		}
	}
	return out
}

// BuildDepartmentIndex collects keywords from every row that already carries a department.
func BuildDepartmentIndex(rows []NormalizedRow) *DepartmentIndex {
	idx := &DepartmentIndex{keywords: make(map[string]map[string]struct{})}
	for _, row := range rows {
		if !hasDepartment(row.Department) {
			continue
		}
		set, ok := idx.keywords[row.Department]
		if !ok {
			set = make(map[string]struct{})
			idx.keywords[row.Department] = set
			idx.order = append(idx.order, row.Department)
		}
		for _, kw := range keywords(row.ProductName) {
			set[kw] = struct{}{}
		}
	}
	return idx
}

// Infer picks the department whose keywords occur most often in productName.
// Ties go to the department indexed first; no hit yields NoDepartment.
func (idx *DepartmentIndex) Infer(productName string) string {
	name := strings.ToLower(productName)
	best, bestScore := NoDepartment, 0
	for _, dept := range idx.order {
		score := 0
		for kw := range idx.keywords[dept] {
			if strings.Contains(name, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = dept, score
		}
	}
	return best
}

// Departments returns the indexed departments in build order.
func (idx *DepartmentIndex) Departments() []string {
	return append([]string(nil), idx.order...)
}
