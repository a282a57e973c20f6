// Package export renders a task sequence for sharing or printing.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"gopkg.in/yaml.v3"

	"github.com/nibzard/tasklist-go/internal/persist"
	"github.com/nibzard/tasklist-go/internal/task"
)

// Format names an output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatCSV, FormatPDF}
}

// ParseFormat parses a format name. "yml" is accepted for yaml.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatCSV, FormatPDF:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want json, yaml, csv or pdf)", s)
	}
}

// Binary reports whether the format produces non-text output.
func (f Format) Binary() bool {
	return f == FormatPDF
}

// Write renders tasks to w in the given format.
func Write(w io.Writer, tasks []task.Task, format Format) error {
	switch format {
	case FormatJSON:
		data, err := persist.Marshal(tasks)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatYAML:
		return writeYAML(w, tasks)
	case FormatCSV:
		return writeCSV(w, tasks)
	case FormatPDF:
		return writePDF(w, tasks)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

type yamlTask struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	DueDate     string `yaml:"dueDate"`
	Category    string `yaml:"category"`
	Priority    string `yaml:"priority"`
	Completed   bool   `yaml:"completed"`
}

func writeYAML(w io.Writer, tasks []task.Task) error {
	out := make([]yamlTask, len(tasks))
	for i, t := range tasks {
		out[i] = yamlTask{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			DueDate:     t.DueDate,
			Category:    string(t.Category),
			Priority:    string(t.Priority),
			Completed:   t.Completed,
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

var csvHeader = []string{"id", "title", "description", "dueDate", "category", "priority", "completed"}

func writeCSV(w io.Writer, tasks []task.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range tasks {
		row := []string{
			t.ID,
			t.Title,
			t.Description,
			t.DueDate,
			string(t.Category),
			string(t.Priority),
			strconv.FormatBool(t.Completed),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// PDF column widths in mm; they add up to the A4 printable width.
var pdfColumns = []struct {
	title string
	width float64
}{
	{"", 8},
	{"Title", 72},
	{"Due", 26},
	{"Category", 26},
	{"Priority", 22},
	{"Done", 16},
}

func writePDF(w io.Writer, tasks []task.Task) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Task list", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Task list")
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for i, t := range tasks {
		done := ""
		if t.Completed {
			done = "yes"
		}
		cells := []string{
			strconv.Itoa(i + 1),
			truncate(t.Title, 40),
			t.DueDate,
			string(t.Category),
			string(t.Priority),
			done,
		}
		for j, col := range pdfColumns {
			pdf.CellFormat(col.width, 6, tr(cells[j]), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		if t.Description != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.CellFormat(pdfColumns[0].width, 5, "", "", 0, "L", false, 0, "")
			pdf.MultiCell(0, 5, tr(t.Description), "", "L", false)
			pdf.SetFont("Arial", "", 10)
		}
	}

	if len(tasks) == 0 {
		pdf.Ln(4)
		pdf.Cell(40, 6, "No tasks.")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
