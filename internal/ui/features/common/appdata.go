// Package common provides shared view-building and response helpers for UI features.
package common

import (
	"github.com/leapstack-labs/askdata/internal/query"
	"github.com/leapstack-labs/askdata/internal/render"
	"github.com/leapstack-labs/askdata/internal/ui/features/common/components"
	"github.com/leapstack-labs/askdata/internal/workspace"
)

// BuildAppData snapshots the workspace into the app container's view model.
func BuildAppData(ws *workspace.Workspace, flashes ...string) components.AppData {
	snap := ws.Store.Snapshot()

	data := components.AppData{
		Bootstrapped: snap.Bootstrapped,
		Datasets:     make([]components.DatasetItem, 0, len(snap.Datasets)),
		Upload: components.UploadData{
			Busy:     ws.Upload.Busy(),
			Dragging: ws.Upload.Dragging(),
		},
		Query: components.QueryData{
			Text:        ws.Query.Text(),
			Busy:        ws.Query.State() == query.Submitting,
			Suggestions: ws.Query.Suggestions(),
		},
		Results: render.BuildAll(snap.Results),
		Flashes: flashes,
	}

	for _, ds := range snap.Datasets {
		data.Datasets = append(data.Datasets, components.DatasetItem{
			ID:       ds.ID,
			Name:     ds.Name,
			RowCount: ds.RowCount,
			Active:   ds.ID == snap.ActiveID,
		})
	}

	if active, ok := snap.Active(); ok {
		summary := render.Summarize(active)
		data.Active = &summary
	}
	return data
}
