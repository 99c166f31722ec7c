package types

// OrderDesc and OrderAsc are the accepted sort directions
const (
	OrderDesc = "desc"
	OrderAsc  = "asc"
)
