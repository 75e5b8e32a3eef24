package query

// Type tags the variant of a ParsedQuery.
type Type string

const (
	TypeScreener    Type = "screener"
	TypeSingleStock Type = "single_stock"
	TypeComparison  Type = "comparison"
	TypeWatchlist   Type = "watchlist"
	TypeAlert       Type = "alert"
	TypeUnknown     Type = "unknown"
	TypeHelp        Type = "help"
)

// WatchlistAction is what a watchlist request asks for.
type WatchlistAction string

const (
	WatchlistAdd    WatchlistAction = "add"
	WatchlistRemove WatchlistAction = "remove"
	WatchlistShow   WatchlistAction = "show"
)

// WatchlistRequest is the payload of a watchlist query.
type WatchlistRequest struct {
	Action  WatchlistAction `json:"action"`
	Symbols []string        `json:"symbols,omitempty"`
}

// AlertRequest is the payload of an alert query.
type AlertRequest struct {
	Symbols    []string `json:"symbols,omitempty"`
	Conditions []Filter `json:"conditions,omitempty"`
}

// ParsedQuery is the translator's output. Type selects which payload is set:
//
//	screener                 -> Screener
//	single_stock, comparison -> Symbols
//	watchlist                -> Watchlist
//	alert                    -> Alert
//	unknown                  -> nothing
type ParsedQuery struct {
	Type       Type              `json:"type"`
	Screener   *ScreenerQuery    `json:"screener,omitempty"`
	Symbols    []string          `json:"symbols,omitempty"`
	Watchlist  *WatchlistRequest `json:"watchlist,omitempty"`
	Alert      *AlertRequest     `json:"alert,omitempty"`
	Refinement bool              `json:"refinement"`
	Raw        string            `json:"raw"`
}
