package model

// RiskColor is the traffic-light rating of a clause annotation
type RiskColor string

const (
	ColorRed    RiskColor = "red"
	ColorYellow RiskColor = "yellow"
	ColorGreen  RiskColor = "green"
)

// Rank orders colors: red is the most severe
func (c RiskColor) Rank() int {
	switch c {
	case ColorRed:
		return 2
	case ColorYellow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether c is one of the known colors
func (c RiskColor) Valid() bool {
	return c == ColorRed || c == ColorYellow || c == ColorGreen
}

// ClauseAnnotation is one clause rule that fired on a clause
type ClauseAnnotation struct {
	RuleID      string    `json:"rule_id"`
	Name        string    `json:"name"`
	Color       RiskColor `json:"color"`
	Explanation string    `json:"explanation"`
	Alternative string    `json:"alternative,omitempty"`
}

// Clause is one segment of the contract
type Clause struct {
	Index       int                `json:"index"` // 1-based
	Title       string             `json:"title"`
	Text        string             `json:"text"`
	Risk        RiskColor          `json:"risk"`
	Annotations []ClauseAnnotation `json:"annotations"`
}

// ClauseStats counts clauses by risk color. Safe+Caution+Danger == Total.
type ClauseStats struct {
	Total   int `json:"total"`
	Safe    int `json:"safe"`
	Caution int `json:"caution"`
	Danger  int `json:"danger"`
}

// ClauseReport is the annotator output
type ClauseReport struct {
	Clauses []Clause    `json:"clauses"`
	Stats   ClauseStats `json:"stats"`
}
