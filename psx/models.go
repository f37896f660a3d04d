// Package psx extracts KSE100 index and constituent data from the rendered PSX indices page.
package psx

// TimeLayout is the capture timestamp format of IndexSummary.Time
const TimeLayout = "2006-01-02 15:04:05"

// IndexName is the fixed name stored on every IndexSummary
const IndexName = "KSE100"

// IndexSummary is one snapshot of the KSE100 index row
type IndexSummary struct {
	Index         string `json:"index" csv:"Index"`
	High          string `json:"high" csv:"High"`
	Low           string `json:"low" csv:"Low"`
	Current       string `json:"current" csv:"Current"`
	Change        string `json:"change" csv:"Change"`
	PercentChange string `json:"percentChange" csv:"Percent_Change"`
	Time          string `json:"time" csv:"Time"`
}

// Constituent is one company row of the KSE 100 constituents table
type Constituent struct {
	Symbol        string `json:"symbol" csv:"Symbol"`
	Name          string `json:"name" csv:"Name"`
	LDCP          string `json:"ldcp" csv:"LDCP"`
	Current       string `json:"current" csv:"Current"`
	Change        string `json:"change" csv:"Change"`
	ChangePercent string `json:"changePercent" csv:"Change_Percent"`
	Volume        string `json:"volume" csv:"Volume"`
	MarketCap     string `json:"marketCap" csv:"Market_Cap"`
}
