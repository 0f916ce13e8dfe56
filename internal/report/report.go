package report

import (
	"encoding/json"
	"fmt"
	"locator-healer/internal/config"
	"locator-healer/internal/entity"
	"locator-healer/pkg/apperr"
	"locator-healer/pkg/logg"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	reportWriterName = "ReportWriter"

	jsonReportFile     = "healing-report.json"
	markdownReportFile = "healing-report.md"
)

// Writer renders the store's exported snapshot into durable artifacts:
// a JSON snapshot and a human-readable Markdown summary.
type Writer struct {
	config *config.Config
	logger *zap.Logger
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewWriter(params Params) *Writer {
	return &Writer{
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, reportWriterName)),
	}
}

// Generate writes both report files into the configured report directory and
// returns their paths.
func (w *Writer) Generate(snapshot entity.StoreSnapshot) (jsonPath, markdownPath string, err error) {
	const op = "Generate"

	dir := w.config.HealingConfig.ReportDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "mkdir_failed",
			apperr.MetaStage:  apperr.StageReport,
		})
	}

	jsonPath = filepath.Join(dir, jsonReportFile)
	if err := w.WriteSnapshot(snapshot, jsonPath); err != nil {
		return "", "", err
	}

	markdownPath = filepath.Join(dir, markdownReportFile)
	if err := os.WriteFile(markdownPath, []byte(renderMarkdown(snapshot)), 0o644); err != nil {
		return "", "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "write_markdown_failed",
			apperr.MetaStage:  apperr.StageReport,
		})
	}

	w.logger.Info("healing report generated",
		zap.String("json", jsonPath),
		zap.String("markdown", markdownPath),
		zap.Int("events", len(snapshot.HealingEvents)))

	return jsonPath, markdownPath, nil
}

// WriteSnapshot persists the snapshot as indented JSON.
func (w *Writer) WriteSnapshot(snapshot entity.StoreSnapshot, path string) error {
	const op = "WriteSnapshot"

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "marshal_failed",
			apperr.MetaStage:  apperr.StageReport,
		})
	}

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "write_failed",
			apperr.MetaStage:  apperr.StageReport,
		})
	}

	return nil
}

// LoadSnapshot reads a snapshot previously written by WriteSnapshot, used to
// seed the store across process boundaries.
func (w *Writer) LoadSnapshot(path string) (entity.StoreSnapshot, error) {
	const op = "LoadSnapshot"

	var snapshot entity.StoreSnapshot

	payload, err := os.ReadFile(path)
	if err != nil {
		return snapshot, apperr.Wrap(op, apperr.CodeNotFound, err, map[string]any{
			apperr.MetaReason: "read_failed",
			apperr.MetaStage:  apperr.StageReport,
		})
	}

	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return snapshot, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "unmarshal_failed",
			apperr.MetaStage:  apperr.StageReport,
		})
	}

	return snapshot, nil
}

func renderMarkdown(snapshot entity.StoreSnapshot) string {
	var b strings.Builder

	b.WriteString("# Locator Healing Report\n\n")

	healed := 0
	var confidenceSum float64

	for _, event := range snapshot.HealingEvents {
		healed++
		confidenceSum += event.Confidence
	}

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Tracked elements: %d\n", len(snapshot.Fingerprints))
	fmt.Fprintf(&b, "- Healing events: %d\n", healed)

	if healed > 0 {
		fmt.Fprintf(&b, "- Average confidence: %.2f\n", confidenceSum/float64(healed))
	}

	b.WriteString("\n## Tracked elements\n\n")
	b.WriteString("| Element | Primary locator | Strategies | Heal count | Last seen |\n")
	b.WriteString("|---|---|---|---|---|\n")

	for _, fp := range snapshot.Fingerprints {
		fmt.Fprintf(&b, "| %s | `%s` | %d | %d | %s |\n",
			fp.Name, fp.PrimaryLocator, len(fp.Strategies), fp.HealCount,
			fp.LastSeen.Format("2006-01-02 15:04:05"))
	}

	if healed > 0 {
		b.WriteString("\n## Healing events\n\n")
		b.WriteString("| Time | Element | Failed locator | Healed locator | Strategy | Confidence | Test |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")

		for _, event := range snapshot.HealingEvents {
			test := event.TestName
			if event.TestFile != "" {
				test = event.TestFile + " / " + event.TestName
			}

			fmt.Fprintf(&b, "| %s | %s | `%s` | `%s` | %s | %.2f | %s |\n",
				event.Timestamp.Format("15:04:05"), event.ElementName,
				event.FailedLocator, event.HealedLocator,
				event.Strategy, event.Confidence, test)
		}
	}

	return b.String()
}
