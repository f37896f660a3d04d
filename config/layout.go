package config

import "fmt"

// IndexLayout holds the cell offsets of the index summary row
type IndexLayout struct {
	Marker        string // Substring the first cell must contain
	High          int
	Low           int
	Current       int
	Change        int
	PercentChange int
}

// ConstituentLayout holds the cell offsets of a constituents table row
type ConstituentLayout struct {
	Heading       string // Text of the heading preceding the table
	MinCells      int    // Rows with fewer cells are dropped
	Symbol        int
	Name          int
	LDCP          int
	Current       int
	Change        int
	ChangePercent int
	Volume        int
	MarketCap     int
}

// Layout describes where each record field lives in the source tables
type Layout struct {
	Index        IndexLayout
	Constituents ConstituentLayout
}

// Layouts maps layout names to their column offsets
var Layouts = map[string]Layout{
	// dps.psx.com.pk/indices; columns 6 and 8 of the constituents table are not modeled
	"psx-indices": {
		Index: IndexLayout{
			Marker:        "KSE100",
			High:          1,
			Low:           2,
			Current:       3,
			Change:        4,
			PercentChange: 5,
		},
		Constituents: ConstituentLayout{
			Heading:       "KSE 100 INDEX Constituents",
			MinCells:      7,
			Symbol:        0,
			Name:          1,
			LDCP:          2,
			Current:       3,
			Change:        4,
			ChangePercent: 5,
			Volume:        7,
			MarketCap:     9,
		},
	},
}

// DefaultLayoutName is the layout used when none is configured
const DefaultLayoutName = "psx-indices"

// DefaultLayout is the layout of the PSX indices page
var DefaultLayout = Layouts[DefaultLayoutName]

// ResolveLayout looks up a named layout
func ResolveLayout(name string) (Layout, error) {
	layout, ok := Layouts[name]
	if !ok {
		return Layout{}, fmt.Errorf("unknown layout %q", name)
	}
	return layout, nil
}
