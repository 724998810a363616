package output

import (
	"fmt"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/askdata/internal/render"
	"github.com/leapstack-labs/askdata/pkg/core"
)

// DatasetOutput is the machine-readable form of a dataset.
type DatasetOutput struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	FileType   string   `json:"file_type,omitempty" yaml:"file_type,omitempty"`
	RowCount   int      `json:"row_count" yaml:"row_count"`
	Columns    []string `json:"columns" yaml:"columns"`
	UploadedAt string   `json:"uploaded_at,omitempty" yaml:"uploaded_at,omitempty"`
	Active     bool     `json:"active,omitempty" yaml:"active,omitempty"`
}

// NewDatasetOutput converts a dataset.
func NewDatasetOutput(ds core.Dataset, active bool) DatasetOutput {
	out := DatasetOutput{
		ID:       ds.ID,
		Name:     ds.Name,
		FileType: ds.FileType,
		RowCount: ds.RowCount,
		Columns:  append([]string{}, ds.Columns...),
		Active:   active,
	}
	if !ds.UploadedAt.IsZero() {
		out.UploadedAt = ds.UploadedAt.UTC().Format(time.RFC3339)
	}
	return out
}

// ResultOutput is the machine-readable form of a rendered query result.
type ResultOutput struct {
	Kind          string     `json:"kind" yaml:"kind"`
	ResultType    string     `json:"result_type" yaml:"result_type"`
	Query         string     `json:"query,omitempty" yaml:"query,omitempty"`
	Error         string     `json:"error,omitempty" yaml:"error,omitempty"`
	Columns       []string   `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows          [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
	TotalRows     int        `json:"total_rows,omitempty" yaml:"total_rows,omitempty"`
	Truncated     bool       `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	ChartPath     string     `json:"chart_path,omitempty" yaml:"chart_path,omitempty"`
	ChartMIME     string     `json:"chart_mime,omitempty" yaml:"chart_mime,omitempty"`
	Markup        string     `json:"markup,omitempty" yaml:"markup,omitempty"`
	Reason        string     `json:"reason,omitempty" yaml:"reason,omitempty"`
	GeneratedCode string     `json:"generated_code" yaml:"generated_code"`
}

// NewResultOutput converts a result view. chartPath is where a chart was saved, if anywhere.
func NewResultOutput(v render.View, chartPath string) ResultOutput {
	out := ResultOutput{
		Kind:          v.Kind.String(),
		ResultType:    v.ResultType,
		Query:         v.QueryText,
		Error:         v.ErrorMessage,
		Markup:        v.Markup,
		Reason:        v.Reason,
		GeneratedCode: v.Code,
	}
	if v.Table != nil {
		out.Columns = v.Table.Header
		out.Rows = v.Table.Rows
		out.TotalRows = v.Table.Total
		out.Truncated = v.Table.Truncated()
	}
	if v.Chart != nil {
		out.ChartPath = chartPath
		out.ChartMIME = v.Chart.MIME
	}
	return out
}

// ResultOptions tunes how a result is shown.
type ResultOptions struct {
	// ChartPath is where the chart image was written, if it was
	ChartPath string
	// ShowCode prints the generated code after the result body
	ShowCode bool
}

// Datasets lists datasets, marking the active one.
func (r *Renderer) Datasets(datasets []core.Dataset, activeID string) error {
	switch r.EffectiveMode() {
	case ModeJSON, ModeYAML:
		list := make([]DatasetOutput, len(datasets))
		for i, ds := range datasets {
			list[i] = NewDatasetOutput(ds, ds.ID == activeID)
		}
		return r.Encode(list)
	case ModeMarkdown:
		r.Header(1, fmt.Sprintf("Datasets (%d)", len(datasets)))
		if len(datasets) == 0 {
			r.Println("No datasets uploaded yet.")
			return nil
		}
		rows := make([][]string, len(datasets))
		for i, ds := range datasets {
			name := ds.Name
			if ds.ID == activeID {
				name = "**" + name + "** (active)"
			}
			rows[i] = []string{ds.ID, name, r.Count(ds.RowCount), fmt.Sprintf("%d", len(ds.Columns))}
		}
		r.Printf("%s", FormatTable([]string{"ID", "Name", "Rows", "Columns"}, rows))
		return nil
	default:
		r.Header(1, "Your Datasets")
		if len(datasets) == 0 {
			r.Muted("No datasets uploaded yet. Use `askdata upload FILE` to add one.")
			return nil
		}
		t := r.newTable()
		t.AppendHeader(table.Row{"", "ID", "Name", "Rows", "Columns"})
		for _, ds := range datasets {
			marker := ""
			if ds.ID == activeID {
				marker = r.styles.Badge.Render(IconBullet)
			}
			t.AppendRow(table.Row{marker, ds.ID, ds.Name, r.Count(ds.RowCount), len(ds.Columns)})
		}
		t.Render()
		return nil
	}
}

// DatasetInfo shows the summary panel of one dataset.
func (r *Renderer) DatasetInfo(ds core.Dataset) error {
	if r.Structured() {
		return r.Encode(NewDatasetOutput(ds, true))
	}

	s := render.Summarize(ds)
	if r.EffectiveMode() == ModeMarkdown {
		r.Header(2, s.Name)
		r.Println(FormatKeyValue("ID", ds.ID))
		r.Println(FormatKeyValue("Size", s.Meta))
		r.Println(FormatKeyValue("Columns", strings.Join(s.Columns, ", ")))
		if len(s.PreviewRows) > 0 {
			r.Println()
			r.Printf("%s", FormatTable(s.PreviewHeader, s.PreviewRows))
		}
		return nil
	}

	r.Header(2, "📊 "+s.Name)
	r.Muted(s.Meta)
	r.Println("Columns: " + strings.Join(s.Columns, ", "))
	if len(s.PreviewRows) > 0 {
		r.Println("Sample Data:")
		r.grid(s.PreviewHeader, s.PreviewRows)
	}
	return nil
}

// Result shows one query result.
func (r *Renderer) Result(v render.View, opts ResultOptions) error {
	switch r.EffectiveMode() {
	case ModeJSON, ModeYAML:
		return r.Encode(NewResultOutput(v, opts.ChartPath))
	case ModeMarkdown:
		r.markdownResult(v, opts)
	default:
		r.textResult(v, opts)
	}
	return nil
}

// Results shows a result log in order.
func (r *Renderer) Results(views []render.View) error {
	if r.Structured() {
		list := make([]ResultOutput, len(views))
		for i, v := range views {
			list[i] = NewResultOutput(v, "")
		}
		return r.Encode(list)
	}
	if len(views) == 0 {
		r.Muted("No queries yet.")
		return nil
	}
	for i, v := range views {
		if i > 0 {
			r.Println()
		}
		if err := r.Result(v, ResultOptions{}); err != nil {
			return err
		}
	}
	return nil
}

// Code shows generated analysis code.
func (r *Renderer) Code(code string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatCodeBlock("python", code))
		return
	}
	for _, line := range strings.Split(strings.TrimRight(code, "\n"), "\n") {
		r.Println("  " + r.styles.Code.Render(line))
	}
}

func (r *Renderer) textResult(v render.View, opts ResultOptions) {
	if v.Kind == render.KindError {
		r.Println(r.styles.Error.Render(IconError + " Error"))
		r.Println(v.ErrorMessage)
		if opts.ShowCode && v.Code != "" {
			r.Muted("Generated Code:")
			r.Code(v.Code)
		}
		return
	}

	r.Println(r.styles.Success.Render(IconSuccess+" Query Result") + " " + r.styles.Badge.Render("["+v.ResultType+"]"))
	if v.QueryText != "" {
		r.Muted("Q: " + v.QueryText)
	}

	switch v.Kind {
	case render.KindTable:
		if len(v.Table.Header) == 0 {
			r.Muted("(0 rows)")
			break
		}
		r.grid(v.Table.Header, v.Table.Rows)
		if note := v.Table.Note(); note != "" {
			r.Muted(note)
		} else {
			r.Muted(fmt.Sprintf("(%s rows)", r.Count(v.Table.Total)))
		}
	case render.KindChart:
		r.Println(r.chartLine(v.Chart, opts.ChartPath))
	case render.KindMarkup:
		if text := MarkupText(v.Markup); text != "" {
			r.Println(text)
		} else {
			r.Muted("Interactive chart. Open `askdata ui` to view it.")
		}
	default:
		r.Muted(fmt.Sprintf("No preview for result type %q.", v.ResultType))
	}

	if opts.ShowCode && v.Code != "" {
		r.Muted("View Generated Code:")
		r.Code(v.Code)
	}
}

func (r *Renderer) markdownResult(v render.View, opts ResultOptions) {
	if v.Kind == render.KindError {
		r.Header(2, "Error")
		r.Println(v.ErrorMessage)
		r.Println()
		if opts.ShowCode && v.Code != "" {
			r.Println(FormatCodeBlock("python", v.Code))
		}
		return
	}

	r.Header(2, fmt.Sprintf("Query Result (%s)", v.ResultType))
	if v.QueryText != "" {
		r.Println("> " + v.QueryText)
		r.Println()
	}

	switch v.Kind {
	case render.KindTable:
		if md := FormatTable(v.Table.Header, v.Table.Rows); md != "" {
			r.Printf("%s", md)
		} else {
			r.Println("_(0 rows)_")
		}
		if note := v.Table.Note(); note != "" {
			r.Println()
			r.Println("_" + note + "_")
		}
	case render.KindChart:
		if opts.ChartPath != "" {
			r.Printf("![Generated Chart](%s)\n", opts.ChartPath)
		} else {
			r.Println(r.chartLine(v.Chart, ""))
		}
	case render.KindMarkup:
		if text := MarkupText(v.Markup); text != "" {
			r.Println(text)
		} else {
			r.Println("_Interactive chart. Open `askdata ui` to view it._")
		}
	default:
		r.Printf("_No preview for result type %q._\n", v.ResultType)
	}

	if opts.ShowCode && v.Code != "" {
		r.Println()
		r.Println(FormatCodeBlock("python", v.Code))
	}
}

func (r *Renderer) chartLine(c *render.ChartView, path string) string {
	if path != "" {
		return "Chart saved to " + path
	}
	return fmt.Sprintf("Chart (%s, %s bytes)", c.MIME, r.Count(len(c.Bytes)))
}

func (r *Renderer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	return t
}

func (r *Renderer) grid(header []string, rows [][]string) {
	t := r.newTable()
	h := make(table.Row, len(header))
	for i, col := range header {
		h[i] = col
	}
	t.AppendHeader(h)
	for _, row := range rows {
		cells := make(table.Row, len(row))
		for i, c := range row {
			cells[i] = c
		}
		t.AppendRow(cells)
	}
	t.Render()
}

// MarkupText converts an HTML result fragment to readable markdown.
// Scripts are dropped, so script-only markup yields "".
func MarkupText(markup string) string {
	md, err := htmltomarkdown.ConvertString(markup)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(md)
}
