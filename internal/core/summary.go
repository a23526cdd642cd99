package core

// CategoryAmount is spend aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthSummary is a compact spend summary for a specific year+month,
// shown on the statistics screen.
type MonthSummary struct {
	Year       int
	Month      int // 1-12
	Total      Money
	ByCategory []CategoryAmount
}
