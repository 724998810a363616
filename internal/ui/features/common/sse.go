package common

import (
	"net/http"
	"strconv"

	"github.com/leapstack-labs/askdata/internal/ui/features/common/components"
	"github.com/leapstack-labs/askdata/internal/workspace"
	"github.com/starfederation/datastar-go/datastar"
)

// IsDatastar reports whether r was issued by the datastar client.
func IsDatastar(r *http.Request) bool {
	return r.Header.Get("Datastar-Request") == "true"
}

// PatchApp re-renders the app container from the workspace.
func PatchApp(sse *datastar.ServerSentEventGenerator, ws *workspace.Workspace) error {
	return sse.PatchElementTempl(components.AppContainer(BuildAppData(ws)))
}

// Alert shows msg in a browser alert dialog.
func Alert(sse *datastar.ServerSentEventGenerator, msg string) error {
	return sse.ExecuteScript("alert(" + strconv.Quote(msg) + ")")
}
