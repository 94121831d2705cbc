package model

const (
	// MethodModel marks an answer produced by a remote completion model.
	MethodModel = "model"
	// MethodFallback marks an answer produced by the local lexical search.
	MethodFallback = "fallback_search"
)

type Source struct {
	Document string `json:"document"`
	Excerpt  string `json:"excerpt"`
}

type AnswerResult struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	Confidence float64  `json:"confidence"`
	Method     string   `json:"method"`
}
