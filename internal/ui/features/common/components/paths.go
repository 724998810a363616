package components

import (
	"net/url"
	"strconv"
)

// DatastarScript is the client bundle loaded by every page.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// Endpoints the components post to.
const (
	QueryPath   = "/api/query"
	UploadPath  = "/api/datasets/upload"
	DragPath    = "/api/datasets/drag/"
	HistoryPath = "/api/history"
)

// HistoryID is the element id patched by the stored-history endpoint.
const HistoryID = "history"

// post builds a datastar @post action for path.
func post(path string, opts ...string) string {
	expr := "@post(" + strconv.Quote(path)
	if len(opts) > 0 && opts[0] != "" {
		expr += ", " + opts[0]
	}
	return expr + ")"
}

// SelectPath is the select endpoint for dataset id.
func SelectPath(id string) string {
	return "/api/datasets/" + url.PathEscape(id) + "/select"
}

// SuggestionPath is the endpoint that loads suggestion i into the query signal.
func SuggestionPath(i int) string {
	return "/api/query/suggestions/" + strconv.Itoa(i)
}
