package ingest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Record is one raw row from a catalog dump before validation. The embedding
// is optional; rows without one are embedded during the build.
type Record struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Type         string `json:"type"`
	FranchiseKey string `json:"franchise_key,omitempty"`

	Overview    string    `json:"overview"`
	Genre       string    `json:"genre"`
	Rating      float64   `json:"rating"`
	Popularity  float64   `json:"popularity"`
	Year        int       `json:"year"`
	ReleaseDate string    `json:"release_date"`
	Embedding   []float32 `json:"embedding,omitempty"`

	// Row is the 1-based position in the dump, kept for error reporting.
	Row int `json:"-"`
}

// LoadDump reads a catalog dump, dispatching on the file extension.
// Supported formats are .jsonl, .csv, and .xlsx.
func LoadDump(path string) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return loadJSONL(path)
	case ".csv":
		return loadCSV(path)
	case ".xlsx":
		return loadXLSX(path)
	}
	return nil, &IngestionError{Source: path, Reason: fmt.Sprintf("unsupported dump format %q", filepath.Ext(path))}
}

func loadJSONL(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dump: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	// Embedding arrays make lines long; the default scanner limit is too small.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []Record
	row := 0
	for scanner.Scan() {
		row++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, &IngestionError{Source: path, Row: row, Reason: "invalid JSON: " + err.Error()}
		}
		rec.Row = row
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dump: %w", err)
	}
	return records, nil
}

func loadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dump: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, &IngestionError{Source: path, Reason: "missing header row"}
	}
	cols := columnIndex(header)

	var records []Record
	row := 1
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &IngestionError{Source: path, Row: row + 1, Reason: err.Error()}
		}
		row++
		rec, ierr := recordFromRow(fields, cols, path, row)
		if ierr != nil {
			return nil, ierr
		}
		records = append(records, rec)
	}
	return records, nil
}

func loadXLSX(path string) ([]Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening dump: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &IngestionError{Source: path, Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, &IngestionError{Source: path, Reason: "missing header row"}
	}
	cols := columnIndex(rows[0])

	var records []Record
	for i, fields := range rows[1:] {
		if len(fields) == 0 {
			continue
		}
		rec, ierr := recordFromRow(fields, cols, path, i+2)
		if ierr != nil {
			return nil, ierr
		}
		records = append(records, rec)
	}
	return records, nil
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

func recordFromRow(fields []string, cols map[string]int, source string, row int) (Record, *IngestionError) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}
	rec := Record{
		ID:           get("id"),
		Title:        get("title"),
		Type:         get("type"),
		FranchiseKey: get("franchise_key"),
		Overview:     get("overview"),
		Genre:        get("genre"),
		ReleaseDate:  get("release_date"),
		Row:          row,
	}
	var err error
	if rec.Rating, err = parseOptionalFloat(get("rating")); err != nil {
		return rec, &IngestionError{Source: source, Row: row, Reason: "invalid rating: " + err.Error()}
	}
	if rec.Popularity, err = parseOptionalFloat(get("popularity")); err != nil {
		return rec, &IngestionError{Source: source, Row: row, Reason: "invalid popularity: " + err.Error()}
	}
	if y := get("year"); y != "" {
		if rec.Year, err = strconv.Atoi(y); err != nil {
			return rec, &IngestionError{Source: source, Row: row, Reason: "invalid year: " + err.Error()}
		}
	}
	return rec, nil
}

func parseOptionalFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
