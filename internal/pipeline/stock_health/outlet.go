package stock_health

import (
	"path/filepath"
	"strings"
)

// OutletID identifies one retail outlet.
type OutletID string

const (
	OutletCentro   OutletID = "CENTRO"
	OutletNorte    OutletID = "NORTE"
	OutletPoniente OutletID = "PONIENTE"
	OutletUnknown  OutletID = ""
)

// FileRole tells whether an extract lists stock or sold units.
type FileRole string

const (
	RoleStock   FileRole = "stock"
	RoleSales   FileRole = "sales"
	RoleUnknown FileRole = ""
)

// OutletPattern maps filename fragments to an outlet.
type OutletPattern struct {
	Outlet    OutletID
	Fragments []string
}

// Resolver classifies extract files by their name.
type Resolver struct {
	outlets     []OutletPattern
	stockMarker string
	salesMarker string
}

// NewResolver returns the resolver for the known outlets and role markers.
func NewResolver() *Resolver {
	return &Resolver{
		outlets: []OutletPattern{
			{Outlet: OutletCentro, Fragments: []string{"centro", "matriz"}},
			{Outlet: OutletNorte, Fragments: []string{"norte"}},
			{Outlet: OutletPoniente, Fragments: []string{"poniente", "occidente"}},
		},
		stockMarker: "listado",
		salesMarker: "vendido",
	}
}

// Outlets returns the known outlet IDs in match order.
func (r *Resolver) Outlets() []OutletID {
	ids := make([]OutletID, 0, len(r.outlets))
	for _, o := range r.outlets {
		ids = append(ids, o.Outlet)
	}
	return ids
}

// ResolveOutlet returns the first outlet whose fragment appears in the file's base name.
func (r *Resolver) ResolveOutlet(filename string) OutletID {
	name := foldText(filepath.Base(filename))
	for _, o := range r.outlets {
		for _, frag := range o.Fragments {
			if strings.Contains(name, frag) {
				return o.Outlet
			}
		}
	}
	return OutletUnknown
}

// ResolveRole tags a file as a stock or sales extract. The stock marker wins when both appear.
func (r *Resolver) ResolveRole(filename string) FileRole {
	name := foldText(filepath.Base(filename))
	switch {
	case strings.Contains(name, r.stockMarker):
		return RoleStock
	case strings.Contains(name, r.salesMarker):
		return RoleSales
	default:
		return RoleUnknown
	}
}

// Resolve returns both outlet and role; ok is false when the file must be ignored.
func (r *Resolver) Resolve(filename string) (OutletID, FileRole, bool) {
	outlet := r.ResolveOutlet(filename)
	if outlet == OutletUnknown {
		return OutletUnknown, RoleUnknown, false
	}
	role := r.ResolveRole(filename)
	if role == RoleUnknown {
		return outlet, RoleUnknown, false
	}
	return outlet, role, true
}

// OutletFiles groups the extract paths of one outlet.
type OutletFiles struct {
	Outlet     OutletID
	StockFiles []string
	SalesFiles []string
}

// GroupFiles buckets paths by outlet in first-seen order. Unresolvable paths are
// returned separately; outlets without a stock file are left out.
func (r *Resolver) GroupFiles(paths []string) (groups []OutletFiles, ignored []string) {
	index := make(map[OutletID]int)
	var all []OutletFiles
	for _, p := range paths {
		outlet, role, ok := r.Resolve(p)
		if !ok {
			ignored = append(ignored, p)
			continue
		}
		i, seen := index[outlet]
		if !seen {
			i = len(all)
			index[outlet] = i
			all = append(all, OutletFiles{Outlet: outlet})
		}
		if role == RoleStock {
			all[i].StockFiles = append(all[i].StockFiles, p)
		} else {
			all[i].SalesFiles = append(all[i].SalesFiles, p)
		}
	}

	for _, g := range all {
		if len(g.StockFiles) == 0 {
			ignored = append(ignored, g.SalesFiles...)
			continue
		}
		groups = append(groups, g)
	}
	return groups, ignored
}
