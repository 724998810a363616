// Package components holds the HTML components of the web UI.
package components

import "github.com/leapstack-labs/askdata/internal/render"

// AppID is the element id patched by every SSE update.
const AppID = "app"

// DatasetItem is one entry of the sidebar dataset list.
type DatasetItem struct {
	ID       string
	Name     string
	RowCount int
	Active   bool
}

// UploadData is the upload zone state.
type UploadData struct {
	Busy     bool
	Dragging bool
}

// QueryData is the query form state.
type QueryData struct {
	Text        string
	Busy        bool
	Suggestions []string
}

// AppData is everything the app container renders.
// It is a snapshot; components never reach back into the workspace.
type AppData struct {
	Bootstrapped bool
	Datasets     []DatasetItem
	// Active is nil until a dataset is selected
	Active  *render.DatasetSummary
	Upload  UploadData
	Query   QueryData
	Results []render.View
	Flashes []string
}

// HistoryData is the stored query log of one dataset, oldest first.
type HistoryData struct {
	Dataset string
	Results []render.View
	Error   string
}
