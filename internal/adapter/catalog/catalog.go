package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"assessrag/internal/domain"
	"assessrag/internal/port"
)

// CSV columns read from every catalog file.
const (
	colName        = "assessment_name"
	colType        = "assessment_type"
	colSkills      = "skills_measured"
	colRoles       = "job_roles"
	colDescription = "description"
	colDuration    = "duration"
)

var requiredColumns = []string{colName, colDescription}

// Source builds documents from the CSV files matched by a set of glob
// patterns under root.
type Source struct {
	root     string
	patterns []string
}

var _ port.DocumentSource = (*Source)(nil)

func NewSource(root string, patterns []string) *Source {
	return &Source{
		root:     root,
		patterns: patterns,
	}
}

// Files returns the matched CSV paths, sorted and without duplicates.
func (s *Source) Files() ([]string, error) {
	fsys := os.DirFS(s.root)
	seen := make(map[string]struct{})
	var files []string

	for _, pattern := range s.patterns {
		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%w: bad catalog pattern %q: %v", domain.ErrConfiguration, pattern, err)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, filepath.Join(s.root, filepath.FromSlash(m)))
		}
	}

	sort.Strings(files)
	return files, nil
}

// Documents renders one document per usable catalog row, in file then row
// order. Rows without a name or description are skipped, and so are rows
// identical to an earlier one.
func (s *Source) Documents() ([]domain.Document, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no catalog files match %v under %s", domain.ErrConfiguration, s.patterns, s.root)
	}

	var docs []domain.Document
	seen := make(map[string]struct{})

	for _, path := range files {
		rows, err := readRows(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		for _, row := range rows {
			if row[colName] == "" || row[colDescription] == "" {
				continue
			}
			key := rowKey(row)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			docs = append(docs, domain.Document{
				Index: len(docs),
				Name:  row[colName],
				Text:  Render(row),
			})
		}
	}

	return docs, nil
}

// Render formats a catalog row as labeled lines.
func Render(row map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assessment Name: %s\n", row[colName])
	fmt.Fprintf(&b, "Assessment Type: %s\n", row[colType])
	fmt.Fprintf(&b, "Skills Measured: %s\n", row[colSkills])
	fmt.Fprintf(&b, "Job Roles: %s\n", row[colRoles])
	fmt.Fprintf(&b, "Description: %s\n", row[colDescription])
	fmt.Fprintf(&b, "Duration: %s minutes", row[colDuration])
	return b.String()
}

func readRows(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
	}
	if missing := missingColumns(header); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %v", domain.ErrConfiguration, missing)
	}

	var rows []map[string]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func missingColumns(header []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// rowKey covers every column of the row, including ones never rendered, so
// only fully identical rows count as duplicates.
func rowKey(row map[string]string) string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	var b strings.Builder
	for _, col := range cols {
		b.WriteString(col)
		b.WriteByte('=')
		b.WriteString(row[col])
		b.WriteByte('\x1f')
	}
	return b.String()
}
