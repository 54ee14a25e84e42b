package alerts

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"

	"github.com/agentstation/storefront/internal/cmd/output"
)

// FormatWriter writes alerts in the command's output format, so that
// machine-readable runs also get machine-readable status lines.
type FormatWriter struct {
	writer io.Writer
	format output.Format
	config WriterConfig
}

// WriterConfig configures alert output behavior.
type WriterConfig struct {
	ShowTimestamp bool
	ShowDetails   bool
	UseColor      bool
}

// NewFormatWriter creates a new FormatWriter for the specified format.
func NewFormatWriter(w io.Writer, format output.Format) *FormatWriter {
	return &FormatWriter{
		writer: w,
		format: format,
		config: WriterConfig{
			ShowDetails: true,
			UseColor:    isTerminal(w) && os.Getenv("NO_COLOR") == "",
		},
	}
}

// WithConfig sets the writer configuration.
func (fw *FormatWriter) WithConfig(config WriterConfig) *FormatWriter {
	fw.config = config
	return fw
}

// WriteAlert writes an alert in the configured format.
func (fw *FormatWriter) WriteAlert(alert *Alert) error {
	switch fw.format {
	case output.FormatJSON:
		return fw.writeJSON(alert)
	case output.FormatYAML:
		return fw.writeYAML(alert)
	default:
		return fw.writeText(alert)
	}
}

// alertData represents alert data for structured output.
type alertData struct {
	Level     string   `json:"level" yaml:"level"`
	Message   string   `json:"message" yaml:"message"`
	Details   []string `json:"details,omitempty" yaml:"details,omitempty"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
	Timestamp string   `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

func (fw *FormatWriter) toAlertData(alert *Alert) alertData {
	data := alertData{
		Level:   alert.Level.String(),
		Message: alert.Message,
	}
	if fw.config.ShowDetails {
		data.Details = alert.Details
	}
	if alert.Err != nil {
		data.Error = alert.Err.Error()
	}
	if fw.config.ShowTimestamp {
		data.Timestamp = alert.Timestamp.Format(time.RFC3339)
	}
	return data
}

func (fw *FormatWriter) writeJSON(alert *Alert) error {
	return json.NewEncoder(fw.writer).Encode(fw.toAlertData(alert))
}

func (fw *FormatWriter) writeYAML(alert *Alert) error {
	data, err := yaml.Marshal(fw.toAlertData(alert))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(fw.writer, "---\n%s", data)
	return err
}

func (fw *FormatWriter) writeText(alert *Alert) error {
	message := alert.String()
	if fw.config.UseColor {
		message = alert.Level.Color() + message + resetColor
	}
	if _, err := fmt.Fprintln(fw.writer, message); err != nil {
		return err
	}
	if fw.config.ShowDetails {
		for _, detail := range alert.Details {
			if _, err := fmt.Fprintf(fw.writer, "   %s\n", detail); err != nil {
				return err
			}
		}
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
