// Package ddl implements the C4 DDL parser: line-oriented regex extraction
// of CREATE TABLE/INDEX and ALTER TABLE ADD CONSTRAINT statements into
// Database/Table/Column/Index/Constraint entities.
package ddl

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/javagraph/javagraph/internal/errs"
	"github.com/javagraph/javagraph/internal/logging"
	"github.com/javagraph/javagraph/internal/model"
)

var (
	dbCommentRe   = regexp.MustCompile(`(?i)--\s*Database:\s*(\w+)`)
	createDBRe    = regexp.MustCompile(`(?i)CREATE\s+DATABASE\s+(\w+)`)
	envCommentRe  = regexp.MustCompile(`(?i)--\s*Environment:\s*(\w+)`)
	createTableRe = regexp.MustCompile(`(?is)CREATE\s+TABLE\s+(\w+)\s*\((.*?)\)\s*;`)
	createIndexRe = regexp.MustCompile(`(?i)CREATE\s+(UNIQUE\s+)?INDEX\s+(\w+)\s+ON\s+(\w+)\s*\(([^)]+)\)`)
	alterAddConRe = regexp.MustCompile(`(?i)ALTER\s+TABLE\s+(\w+)\s+ADD\s+CONSTRAINT\s+(\w+)\s+([^;]+)`)
	constraintRe  = regexp.MustCompile(`(?i)CONSTRAINT\s+(\w+)\s+([^,]+)`)
	lineCommentRe = regexp.MustCompile(`(?m)--.*$`)
	columnNameRe  = regexp.MustCompile(`^(\w+)`)
	columnTypeRe  = regexp.MustCompile(`(?i)^\s*\w+\s+(\w+(?:\([^)]*\))?(?:\s+WITH\s+TIME\s+ZONE)?)`)
	defaultValRe  = regexp.MustCompile(`(?i)DEFAULT\s+([^,\s]+(?:\s+[^,\s]+)*)`)
)

var nonColumnLeaders = map[string]bool{
	"CONSTRAINT": true, "PRIMARY": true, "FOREIGN": true, "CHECK": true, "UNIQUE": true,
}

// Result is the set of entities extracted from one DDL script.
type Result struct {
	Database    model.Database
	Tables      []model.Table
	Columns     []model.Column
	Indexes     []model.Index
	Constraints []model.Constraint
}

// ScanDirectory parses every .sql file directly under dir.
func ScanDirectory(dir string) []Result {
	log := logging.Get(logging.CategoryExtractDDL)
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn("cannot read DDL directory %s: %v", dir, err)
		return nil
	}

	var results []Result
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			log.Warn("skipping %s: %v", path, rerr)
			continue
		}
		results = append(results, Parse(string(data), path))
	}
	return results
}

// ParseFile reads and parses a single DDL file.
func ParseFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, &errs.IOError{Op: "read", Path: path, Wrapped: err}
	}
	return Parse(string(data), path), nil
}

// Parse extracts all DDL entities from the given script content. It never
// returns an error: a script with no CREATE TABLE statements yields an
// empty table/column set (§7 ParseError policy is at the directory-scan
// caller, which logs and continues).
func Parse(content, path string) Result {
	dbName := extractDatabaseName(content, path)
	env := extractEnvironment(content, path)

	tables, columns := parseTables(content)
	indexes := parseIndexes(content)
	constraints := parseConstraints(content)

	return Result{
		Database:    model.Database{Name: dbName, Version: "1.0", Environment: env},
		Tables:      tables,
		Columns:     columns,
		Indexes:     indexes,
		Constraints: constraints,
	}
}

func extractDatabaseName(content, path string) string {
	if m := dbCommentRe.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	if m := createDBRe.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func extractEnvironment(content, path string) string {
	if m := envCommentRe.FindStringSubmatch(content); m != nil {
		return strings.ToLower(m[1])
	}
	lower := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(lower, "dev"):
		return "development"
	case strings.Contains(lower, "prod"):
		return "production"
	case strings.Contains(lower, "test"):
		return "test"
	default:
		return "development"
	}
}

func parseTables(content string) ([]model.Table, []model.Column) {
	var tables []model.Table
	var columns []model.Column

	for _, m := range createTableRe.FindAllStringSubmatch(content, -1) {
		tableName, body := m[1], m[2]
		cols := parseColumns(body)
		if len(cols) == 0 {
			continue
		}
		tables = append(tables, model.Table{Name: tableName, Schema: "public"})
		for _, c := range cols {
			c.TableName = tableName
			columns = append(columns, c)
		}
	}
	return tables, columns
}

// splitTopLevelCommas splits body on commas that are not nested inside
// parentheses, so composite types like `NUMERIC(10,2)` are not split.
func splitTopLevelCommas(body string) []string {
	clean := lineCommentRe.ReplaceAllString(body, "")
	var parts []string
	var current strings.Builder
	depth := 0
	for _, ch := range clean {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(current.String()))
				current.Reset()
				continue
			}
		}
		current.WriteRune(ch)
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		parts = append(parts, s)
	}
	return parts
}

func parseColumns(body string) []model.Column {
	var columns []model.Column
	for _, part := range splitTopLevelCommas(body) {
		if part == "" {
			continue
		}
		if c, ok := parseSingleColumn(part); ok {
			columns = append(columns, c)
		}
	}
	return columns
}

func parseSingleColumn(def string) (model.Column, bool) {
	trimmed := strings.TrimSpace(def)
	upper := strings.ToUpper(trimmed)
	if strings.HasPrefix(upper, "CONSTRAINT") || strings.HasPrefix(upper, "PRIMARY KEY") {
		return model.Column{}, false
	}

	nameMatch := columnNameRe.FindStringSubmatch(trimmed)
	if nameMatch == nil {
		return model.Column{}, false
	}
	name := nameMatch[1]
	if nonColumnLeaders[strings.ToUpper(name)] {
		return model.Column{}, false
	}

	typeMatch := columnTypeRe.FindStringSubmatch(trimmed)
	if typeMatch == nil {
		return model.Column{}, false
	}
	dataType := typeMatch[1]

	var constraints []string
	if strings.Contains(upper, "NOT NULL") {
		constraints = append(constraints, "NOT NULL")
	}
	if strings.Contains(upper, "UNIQUE") {
		constraints = append(constraints, "UNIQUE")
	}
	if strings.Contains(upper, "PRIMARY KEY") {
		constraints = append(constraints, "PRIMARY KEY")
	}

	defaultValue := ""
	if m := defaultValRe.FindStringSubmatch(def); m != nil {
		defaultValue = strings.TrimSpace(m[1])
	}

	return model.Column{
		Name:         name,
		DataType:     dataType,
		Nullable:     !strings.Contains(upper, "NOT NULL"),
		Unique:       strings.Contains(upper, "UNIQUE"),
		PrimaryKey:   strings.Contains(upper, "PRIMARY KEY"),
		DefaultValue: defaultValue,
		Constraints:  constraints,
	}, true
}

func parseIndexes(content string) []model.Index {
	var out []model.Index
	for _, m := range createIndexRe.FindAllStringSubmatch(content, -1) {
		unique, name, table, colsRaw := m[1], m[2], m[3], m[4]
		idxType := "B-tree"
		if strings.TrimSpace(unique) != "" {
			idxType = "UNIQUE"
		}
		var cols []string
		for _, c := range strings.Split(colsRaw, ",") {
			cols = append(cols, strings.TrimSpace(c))
		}
		out = append(out, model.Index{Name: name, TableName: table, Type: idxType, Columns: cols})
	}
	return out
}

func parseConstraints(content string) []model.Constraint {
	var out []model.Constraint

	for _, m := range alterAddConRe.FindAllStringSubmatch(content, -1) {
		table, name, def := m[1], m[2], strings.TrimSpace(m[3])
		out = append(out, model.Constraint{Name: name, TableName: table, Type: constraintType(def), Definition: def})
	}

	for _, m := range createTableRe.FindAllStringSubmatch(content, -1) {
		table, body := m[1], m[2]
		for _, cm := range constraintRe.FindAllStringSubmatch(body, -1) {
			name, def := cm[1], strings.TrimSpace(cm[2])
			out = append(out, model.Constraint{Name: name, TableName: table, Type: constraintType(def), Definition: def})
		}
	}
	return out
}

func constraintType(def string) string {
	upper := strings.ToUpper(def)
	switch {
	case strings.Contains(upper, "CHECK"):
		return "CHECK"
	case strings.Contains(upper, "FOREIGN KEY"):
		return "FOREIGN KEY"
	case strings.Contains(upper, "UNIQUE"):
		return "UNIQUE"
	case strings.Contains(upper, "PRIMARY KEY"):
		return "PRIMARY KEY"
	default:
		return "OTHER"
	}
}
