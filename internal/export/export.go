// Package export writes the task collection in portable formats.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jung-kurt/gofpdf"
	"gopkg.in/yaml.v3"

	"simpletodo/internal/output"
	"simpletodo/internal/repository"
	"simpletodo/internal/service"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatPDF  = "pdf"
)

// Formats lists the accepted format names.
var Formats = []string{FormatJSON, FormatYAML, FormatTOML, FormatPDF}

// tomlDocument wraps the records; TOML needs a table at the top level.
type tomlDocument struct {
	Tasks []repository.Record `toml:"tasks"`
}

// Write encodes tasks to w. JSON output uses the persisted record layout, so
// an export can be read back by the import command.
func Write(w io.Writer, tasks []service.Task, format string) error {
	records := repository.Records(tasks)

	switch strings.ToLower(format) {
	case "", FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(tomlDocument{Tasks: records})
	case FormatPDF:
		return writePDF(w, tasks)
	default:
		return fmt.Errorf("unknown format %s", format)
	}
}

// Read decodes records previously written by Write (json, yaml or toml).
func Read(r io.Reader, format string) ([]repository.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "", FormatJSON:
		return repository.Decode(data)
	case FormatYAML, "yml":
		var records []repository.Record
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return records, nil
	case FormatTOML:
		var doc tomlDocument
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		return doc.Tasks, nil
	default:
		return nil, fmt.Errorf("unknown format %s", format)
	}
}

func writePDF(w io.Writer, tasks []service.Task) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Tasks", true)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Tasks")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 11)

	if len(tasks) == 0 {
		pdf.Cell(40, 7, output.NoTasks)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, t := range tasks {
		line := fmt.Sprintf("%4d  %s %s", t.ID, output.Checkbox(t.IsDone), output.NormalizeText(t.Text))
		pdf.MultiCell(0, 7, tr(line), "0", "L", false)
	}
	return pdf.Output(w)
}
