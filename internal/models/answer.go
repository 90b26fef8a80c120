package models

// Answer is the outcome of a RAG query: the generated (or canned) text plus
// the aggregate retrieval confidence and the titles of the source documents.
type Answer struct {
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
	Sources    []string `json:"sources,omitempty"`
}
