package domain

// Link represents a shortened URL
type Link struct {
	ID       int64  `json:"id"`
	Short    string `json:"short"`
	Original string `json:"original"`
}

// LinkWithHits is a Link annotated with its aggregated hit count
type LinkWithHits struct {
	Link
	Hits int64 `json:"hits"`
}
