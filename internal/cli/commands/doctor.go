package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/askdata/internal/cli/config"
	"github.com/leapstack-labs/askdata/internal/cli/output"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Check statuses.
const (
	statusPass  = "pass"
	statusWarn  = "warn"
	statusError = "error"
	statusSkip  = "skip"
)

// HealthCheck is the outcome of one diagnostic.
type HealthCheck struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Group  string `json:"group" yaml:"group"`
	Status string `json:"status" yaml:"status"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// DoctorOutput is the structured health report.
type DoctorOutput struct {
	Backend         string        `json:"backend" yaml:"backend"`
	ConfigFile      string        `json:"config_file,omitempty" yaml:"config_file,omitempty"`
	Score           int           `json:"score" yaml:"score"`
	Checks          []HealthCheck `json:"checks" yaml:"checks"`
	Recommendations []string      `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and service connectivity",
		Long: `Run diagnostics against the local configuration and the analytics service.

Checks:
  - Configuration file and backend URL
  - Charts directory is writable
  - Watch folder exists (when configured)
  - Service is reachable and lists datasets

Exits non-zero when any check fails.`,
		Example: `  # Run all checks
  askdata doctor

  # As JSON for scripts
  askdata doctor -o json`,
		Args: cobra.NoArgs,
		RunE: runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cmdCtx := NewCommandContextWithoutClient(cmd)
	cfg := cmdCtx.Cfg

	report := &DoctorOutput{
		Backend:    cfg.BackendURL,
		ConfigFile: config.GetConfigFileUsed(),
	}
	report.Checks = append(report.Checks, configChecks(cfg)...)

	// The service checks need a client; an invalid URL fails them outright.
	if svcCtx, err := NewCommandContext(cmd); err != nil {
		report.Checks = append(report.Checks,
			HealthCheck{ID: "SV01", Name: "reachable", Group: "service", Status: statusError, Detail: err.Error()},
			HealthCheck{ID: "SV02", Name: "datasets", Group: "service", Status: statusSkip},
		)
	} else {
		report.Checks = append(report.Checks, serviceChecks(cmd.Context(), svcCtx)...)
	}

	report.Score = calculateHealthScore(report.Checks)
	report.Recommendations = generateRecommendations(report.Checks)

	r := cmdCtx.Renderer
	var err error
	switch r.EffectiveMode() {
	case output.ModeJSON, output.ModeYAML:
		err = r.Encode(report)
	case output.ModeMarkdown:
		renderDoctorMarkdown(r, report)
	default:
		renderDoctorText(r, report)
	}
	if err != nil {
		return err
	}

	if failed := countStatus(report.Checks, statusError); failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func configChecks(cfg *config.Config) []HealthCheck {
	var checks []HealthCheck

	file := HealthCheck{ID: "CF01", Name: "config file", Group: "configuration", Status: statusPass}
	if used := config.GetConfigFileUsed(); used != "" {
		file.Detail = used
	} else {
		file.Detail = "none found, using defaults"
	}
	checks = append(checks, file)

	url := HealthCheck{ID: "CF02", Name: "backend url", Group: "configuration", Status: statusPass, Detail: cfg.BackendURL}
	if err := cfg.Validate(); err != nil {
		url.Status = statusError
		url.Detail = err.Error()
	}
	checks = append(checks, url)

	charts := HealthCheck{ID: "CF03", Name: "charts directory", Group: "configuration", Status: statusPass, Detail: cfg.ChartsDir}
	if err := checkWritable(cfg.ChartsDir); err != nil {
		charts.Status = statusWarn
		charts.Detail = err.Error()
	}
	checks = append(checks, charts)

	watch := HealthCheck{ID: "CF04", Name: "watch folder", Group: "configuration", Status: statusSkip, Detail: "not configured"}
	if dir := cfg.Upload.WatchDir; dir != "" {
		watch.Detail = dir
		info, err := os.Stat(dir)
		switch {
		case err != nil:
			watch.Status = statusWarn
			watch.Detail = err.Error()
		case !info.IsDir():
			watch.Status = statusWarn
			watch.Detail = dir + " is not a directory"
		default:
			watch.Status = statusPass
		}
	}
	checks = append(checks, watch)

	return checks
}

func serviceChecks(ctx context.Context, cmdCtx *CommandContext) []HealthCheck {
	ping := HealthCheck{ID: "SV01", Name: "reachable", Group: "service", Status: statusPass}
	greeting, err := cmdCtx.Client.Ping(ctx)
	if err != nil {
		ping.Status = statusError
		ping.Detail = friendlyError(err).Error()
		return []HealthCheck{ping, {ID: "SV02", Name: "datasets", Group: "service", Status: statusSkip}}
	}
	ping.Detail = strings.TrimSpace(greeting)

	list := HealthCheck{ID: "SV02", Name: "datasets", Group: "service", Status: statusPass}
	datasets, err := cmdCtx.Client.ListDatasets(ctx)
	switch {
	case err != nil:
		list.Status = statusError
		list.Detail = friendlyError(err).Error()
	case len(datasets) == 0:
		list.Status = statusWarn
		list.Detail = "no datasets uploaded yet"
	default:
		list.Detail = fmt.Sprintf("%s available", cmdCtx.Renderer.Count(len(datasets)))
	}
	return []HealthCheck{ping, list}
}

// checkWritable creates dir if needed and writes a temporary file into it.
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".askdata-doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// calculateHealthScore starts from 100 and deducts per warning and failure.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, c := range checks {
		switch c.Status {
		case statusWarn:
			score -= 10
		case statusError:
			score -= 30
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

// getRecommendation returns the fix for a failing check, or "" when there is none.
func getRecommendation(id string) string {
	switch id {
	case "CF02":
		return "Set backend_url in askdata.yaml or ASKDATA_BACKEND_URL to the service address (http://host:port)"
	case "CF03":
		return "Point charts_dir at a writable folder or pass --no-save-chart to queries"
	case "CF04":
		return "Create the watch folder or clear upload.watch_dir"
	case "SV01":
		return "Start the analytics service or check backend_url"
	case "SV02":
		return "Upload a dataset with 'askdata upload <file>'"
	default:
		return ""
	}
}

func generateRecommendations(checks []HealthCheck) []string {
	var recs []string
	for _, c := range checks {
		if c.Status != statusWarn && c.Status != statusError {
			continue
		}
		if rec := getRecommendation(c.ID); rec != "" {
			recs = append(recs, rec)
		}
	}
	return recs
}

func countStatus(checks []HealthCheck, status string) int {
	n := 0
	for _, c := range checks {
		if c.Status == status {
			n++
		}
	}
	return n
}

// groupChecks keeps the first-seen order of groups.
func groupChecks(checks []HealthCheck) ([]string, map[string][]HealthCheck) {
	var order []string
	groups := make(map[string][]HealthCheck)
	for _, c := range checks {
		if _, ok := groups[c.Group]; !ok {
			order = append(order, c.Group)
		}
		groups[c.Group] = append(groups[c.Group], c)
	}
	return order, groups
}

func renderDoctorText(r *output.Renderer, report *DoctorOutput) {
	styles := r.Styles()
	titleCaser := cases.Title(language.English)

	r.Println(styles.Header1.Render("askdata Health Report"))
	r.Println(strings.Repeat("=", 55))
	r.Println("")
	r.Println(fmt.Sprintf("Backend: %s", report.Backend))
	r.Println(fmt.Sprintf("Score:   %d/100", report.Score))

	order, groups := groupChecks(report.Checks)
	for _, group := range order {
		r.Println("")
		r.Println(styles.Header2.Render(titleCaser.String(group)))
		for _, c := range groups[group] {
			r.StatusLine(titleCaser.String(c.Name), c.Status, c.Detail)
		}
	}

	if len(report.Recommendations) > 0 {
		r.Println("")
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range report.Recommendations {
			r.Println(fmt.Sprintf("  %d. %s", i+1, rec))
		}
	}
}

func renderDoctorMarkdown(r *output.Renderer, report *DoctorOutput) {
	titleCaser := cases.Title(language.English)

	r.Println(output.FormatHeader(1, "askdata Health Report"))
	r.Println("")
	r.Println(output.FormatKeyValue("Backend", report.Backend))
	r.Println(output.FormatKeyValue("Score", fmt.Sprintf("%d/100", report.Score)))

	order, groups := groupChecks(report.Checks)
	for _, group := range order {
		r.Println("")
		r.Println(output.FormatHeader(2, titleCaser.String(group)))
		r.Println("")
		for _, c := range groups[group] {
			line := fmt.Sprintf("- **[%s]** %s", strings.ToUpper(c.Status), c.Name)
			if c.Detail != "" {
				line += ": " + c.Detail
			}
			r.Println(line)
		}
	}

	if len(report.Recommendations) > 0 {
		r.Println("")
		r.Println(output.FormatHeader(2, "Recommendations"))
		r.Println("")
		for i, rec := range report.Recommendations {
			r.Println(fmt.Sprintf("%d. %s", i+1, rec))
		}
	}
}
