// Package render turns query results into display-ready view models.
//
// Build is a pure function: it never fails and never panics. Payloads it does
// not understand produce a KindUnknown view that still carries the generated
// code for inspection.
package render

import (
	"github.com/leapstack-labs/askdata/pkg/core"
)

// Kind selects how a result body is presented.
type Kind int

// View kinds.
const (
	KindUnknown Kind = iota
	KindTable
	KindChart
	KindMarkup
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindChart:
		return "chart"
	case KindMarkup:
		return "markup"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// View is the presentation of one query result.
type View struct {
	Kind Kind
	// ResultType is the raw discriminant, shown as a badge
	ResultType string
	// QueryText is the question that produced the result, when the service echoes it
	QueryText string

	Table        *TableView
	Chart        *ChartView
	Markup       string
	ErrorMessage string

	// Code is the generated analysis code; it is shown for every kind
	Code string
	// Reason explains a KindUnknown view
	Reason string
}

// HasBody reports whether the view renders anything besides the code panel.
func (v View) HasBody() bool {
	return v.Kind != KindUnknown
}

// Build dispatches on the result's payload.
func Build(res core.QueryResult) View {
	v := View{
		ResultType: res.ResultType,
		QueryText:  res.QueryText,
		Code:       res.GeneratedCode,
	}

	switch p := res.Payload().(type) {
	case core.ErrorPayload:
		v.Kind = KindError
		v.ErrorMessage = p.Message
	case core.TablePayload:
		v.Kind = KindTable
		v.Table = NewTable(p.Records)
	case core.ChartPayload:
		chart, err := DecodeChart(p.Encoded)
		if err != nil {
			v.Kind = KindUnknown
			v.Reason = err.Error()
			break
		}
		v.Kind = KindChart
		v.Chart = chart
	case core.MarkupPayload:
		v.Kind = KindMarkup
		v.Markup = p.Markup
	case core.UnknownPayload:
		v.Kind = KindUnknown
		v.Reason = p.Reason
	default:
		v.Kind = KindUnknown
		v.Reason = "unsupported payload"
	}
	return v
}

// BuildAll builds views for a result log, keeping its order.
func BuildAll(results []core.QueryResult) []View {
	views := make([]View, len(results))
	for i, res := range results {
		views[i] = Build(res)
	}
	return views
}
