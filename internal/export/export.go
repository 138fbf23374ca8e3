// Serializes job records to json, csv, xlsx or xml. Writing is
// all-or-nothing: output goes to a temp file that is renamed into place only
// after a complete write, so a failed export never leaves a truncated file.

package export

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"go-upwork-scraper/internal/scraper"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXML  Format = "xml"
)

// SkillsDelimiter joins the skills list in flat (csv/xlsx/xml) outputs.
const SkillsDelimiter = ";"

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	switch f {
	case FormatJSON, FormatCSV, FormatXLSX, FormatXML:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format: %q", s)
}

type ExportError struct {
	Format Format
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s to %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Column order for flat formats, matching the canonical record schema.
var fieldNames = []string{
	"jobId",
	"title",
	"description",
	"createdAt",
	"jobType",
	"duration",
	"budget",
	"clientLocation",
	"clientPaymentVerification",
	"clientSpent",
	"clientReviews",
	"category",
	"skills",
}

// Export writes records to path in the given format. Input records are never
// mutated.
func Export(records []scraper.JobRecord, format Format, path string) error {
	if records == nil {
		records = []scraper.JobRecord{}
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return &ExportError{Format: format, Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &ExportError{Format: format, Path: path, Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return &ExportError{Format: format, Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed into place

	err = writeTo(tmp, records, format)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return &ExportError{Format: format, Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &ExportError{Format: format, Path: path, Err: err}
	}
	return nil
}

func writeTo(w io.Writer, records []scraper.JobRecord, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatCSV:
		return writeCSV(w, records)
	case FormatXLSX:
		return writeXLSX(w, records)
	case FormatXML:
		return writeXML(w, records)
	}
	return fmt.Errorf("unhandled export format: %q", format)
}

func writeCSV(w io.Writer, records []scraper.JobRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(fieldNames); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(flatten(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, records []scraper.JobRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := make([]interface{}, len(fieldNames))
	for i, name := range fieldNames {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := flatten(r)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.Write(w)
}

type xmlJob struct {
	JobID                     string `xml:"jobId"`
	Title                     string `xml:"title"`
	Description               string `xml:"description"`
	CreatedAt                 string `xml:"createdAt"`
	JobType                   string `xml:"jobType"`
	Duration                  string `xml:"duration"`
	Budget                    string `xml:"budget"`
	ClientLocation            string `xml:"clientLocation"`
	ClientPaymentVerification string `xml:"clientPaymentVerification"`
	ClientSpent               string `xml:"clientSpent"`
	ClientReviews             string `xml:"clientReviews"`
	Category                  string `xml:"category"`
	Skills                    string `xml:"skills"`
}

type xmlJobs struct {
	XMLName xml.Name `xml:"jobs"`
	Jobs    []xmlJob `xml:"job"`
}

func writeXML(w io.Writer, records []scraper.JobRecord) error {
	doc := xmlJobs{Jobs: make([]xmlJob, 0, len(records))}
	for _, r := range records {
		row := flatten(r)
		doc.Jobs = append(doc.Jobs, xmlJob{
			JobID:                     row[0],
			Title:                     row[1],
			Description:               row[2],
			CreatedAt:                 row[3],
			JobType:                   row[4],
			Duration:                  row[5],
			Budget:                    row[6],
			ClientLocation:            row[7],
			ClientPaymentVerification: row[8],
			ClientSpent:               row[9],
			ClientReviews:             row[10],
			Category:                  row[11],
			Skills:                    row[12],
		})
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// flatten renders one record as strings in fieldNames order. Null values
// become empty cells; skills collapse to a delimited string.
func flatten(r scraper.JobRecord) []string {
	createdAt := ""
	if r.CreatedAt != nil {
		createdAt = r.CreatedAt.Format(time.RFC3339)
	}
	reviews := ""
	if r.ClientReviews != nil {
		reviews = strconv.Itoa(*r.ClientReviews)
	}
	return []string{
		r.JobID,
		r.Title,
		r.Description,
		createdAt,
		string(r.JobType),
		r.Duration,
		r.Budget,
		r.ClientLocation,
		strconv.FormatBool(r.ClientPaymentVerification),
		r.ClientSpent,
		reviews,
		r.Category,
		strings.Join(r.Skills, SkillsDelimiter),
	}
}
