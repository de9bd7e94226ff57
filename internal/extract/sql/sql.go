// Package sql implements the regex-driven SQL mini-parser (C1): it extracts
// tables, columns, joins, conditions, and bind parameters from a single raw
// SQL statement. It is deliberately not a grammar — MyBatis statements mix
// dynamic-SQL tags and partial fragments that a real SQL parser would choke
// on, so the same "strip comments, normalize whitespace, regex per clause"
// approach as the upstream analyzer is used here.
package sql

import (
	"regexp"
	"strings"

	"github.com/javagraph/javagraph/internal/model"
)

var (
	lineCommentRe  = regexp.MustCompile(`(?m)--.*$`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	whitespaceRe   = regexp.MustCompile(`\s+`)

	fromRe   = regexp.MustCompile(`(?i)FROM\s+(\w+(?:\.\w+)?)\s*(?:AS\s+(\w+)|\b(\w+)\b)?`)
	selectRe = regexp.MustCompile(`(?is)SELECT\s+(.*?)\s+FROM`)
	columnRe = regexp.MustCompile(`(\w+(?:\.\w+)?)\s*(?:AS\s+(\w+))?`)

	insertTableRe  = regexp.MustCompile(`(?i)INSERT\s+INTO\s+(\w+(?:\.\w+)?)`)
	insertColsRe   = regexp.MustCompile(`(?i)INSERT\s+INTO\s+\w+\s*\(([^)]+)\)`)
	valuesRe       = regexp.MustCompile(`(?i)VALUES\s*\(([^)]+)\)`)
	updateTableRe  = regexp.MustCompile(`(?i)UPDATE\s+(\w+(?:\.\w+)?)`)
	setClauseRe    = regexp.MustCompile(`(?is)SET\s+(.*?)(?:\s+WHERE|$)`)
	setAssignRe    = regexp.MustCompile(`(\w+)\s*=`)
	deleteTableRe  = regexp.MustCompile(`(?i)DELETE\s+FROM\s+(\w+(?:\.\w+)?)`)

	joinRe      = regexp.MustCompile(`(?i)(INNER\s+|LEFT\s+|RIGHT\s+|FULL\s+)?JOIN\s+(\w+(?:\.\w+)?)\s*(?:(?:AS\s+)?(\w+))?\s+ON\s+(.+?)(?:\s+(?:INNER\s+|LEFT\s+|RIGHT\s+|FULL\s+)?JOIN|\s+WHERE|\s+GROUP\s+BY|\s+ORDER\s+BY|\s+HAVING|$)`)
	whereRe     = regexp.MustCompile(`(?is)WHERE\s+(.+?)(?:\s+GROUP\s+BY|\s+ORDER\s+BY|\s+HAVING|$)`)
	orderByRe   = regexp.MustCompile(`(?is)ORDER\s+BY\s+(.+?)(?:\s+HAVING|$)`)
	groupByRe   = regexp.MustCompile(`(?is)GROUP\s+BY\s+(.+?)(?:\s+HAVING|\s+ORDER\s+BY|$)`)
	havingRe    = regexp.MustCompile(`(?is)HAVING\s+(.+?)(?:\s+ORDER\s+BY|$)`)
	subqueryRe  = regexp.MustCompile(`(?is)\(SELECT\s+.*?\)`)
	andOrSplit  = regexp.MustCompile(`(?i)\s+(?:AND|OR)\s+`)

	simpleParamRe = regexp.MustCompile(`[#$]\{(\w+)\}`)
	nestedParamRe = regexp.MustCompile(`[#$]\{(\w+)\.(\w+)\}`)
)

// Parse analyzes sqlContent as a statement of the given type and returns a
// populated model.SQLAnalysis. It never returns an error: empty or
// comment-only SQL yields a zero-value analysis with ComplexityScore 0; any
// other input gets whatever the regexes match and a ComplexityScore of at
// least 1.
func Parse(sqlContent string, sqlType model.SQLType) model.SQLAnalysis {
	cleaned := clean(sqlContent)
	if cleaned == "" {
		return model.SQLAnalysis{}
	}

	var analysis model.SQLAnalysis
	switch sqlType {
	case model.SQLSelect:
		analysis = analyzeSelect(cleaned)
	case model.SQLInsert:
		analysis = analyzeInsert(cleaned)
	case model.SQLUpdate:
		analysis = analyzeUpdate(cleaned)
	case model.SQLDelete:
		analysis = analyzeDelete(cleaned)
	}
	analysis.Parameters = extractParameters(cleaned)
	analysis.ComplexityScore = complexityScore(analysis)
	analysis.ComplexityBucket = complexityBucket(analysis.ComplexityScore)
	return analysis
}

func clean(sqlContent string) string {
	if sqlContent == "" {
		return ""
	}
	s := lineCommentRe.ReplaceAllString(sqlContent, "")
	s = blockCommentRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func analyzeSelect(sql string) model.SQLAnalysis {
	tables := extractFromTables(sql)
	joins := extractJoins(sql)
	for _, j := range joins {
		tables = append(tables, model.TableRef{Name: j.Table})
	}
	return model.SQLAnalysis{
		Tables:          tables,
		Columns:         extractSelectColumns(sql),
		Joins:           joins,
		WhereConditions: splitAndOr(matchOne(whereRe, sql)),
		OrderBy:         extractOrderBy(sql),
		GroupBy:         splitCSV(matchOne(groupByRe, sql)),
		Having:          splitAndOr(matchOne(havingRe, sql)),
		Subqueries:      subqueryRe.FindAllString(sql, -1),
	}
}

func analyzeInsert(sql string) model.SQLAnalysis {
	var tables []model.TableRef
	if m := insertTableRe.FindStringSubmatch(sql); m != nil {
		tables = append(tables, model.TableRef{Name: m[1]})
	}
	var columns []model.ColumnRef
	if m := insertColsRe.FindStringSubmatch(sql); m != nil {
		for _, c := range splitCSV(m[1]) {
			columns = append(columns, model.ColumnRef{Name: c})
		}
	}
	_ = valuesRe // the VALUES list is not matched or surfaced in the model
	return model.SQLAnalysis{Tables: tables, Columns: columns}
}

func analyzeUpdate(sql string) model.SQLAnalysis {
	var tables []model.TableRef
	if m := updateTableRe.FindStringSubmatch(sql); m != nil {
		tables = append(tables, model.TableRef{Name: m[1]})
	}
	var columns []model.ColumnRef
	if m := setClauseRe.FindStringSubmatch(sql); m != nil {
		for _, am := range setAssignRe.FindAllStringSubmatch(m[1], -1) {
			columns = append(columns, model.ColumnRef{Name: am[1]})
		}
	}
	return model.SQLAnalysis{
		Tables:          tables,
		Columns:         columns,
		WhereConditions: splitAndOr(matchOne(whereRe, sql)),
	}
}

func analyzeDelete(sql string) model.SQLAnalysis {
	var tables []model.TableRef
	if m := deleteTableRe.FindStringSubmatch(sql); m != nil {
		tables = append(tables, model.TableRef{Name: m[1]})
	}
	return model.SQLAnalysis{
		Tables:          tables,
		WhereConditions: splitAndOr(matchOne(whereRe, sql)),
	}
}

func extractFromTables(sql string) []model.TableRef {
	var out []model.TableRef
	for _, m := range fromRe.FindAllStringSubmatch(sql, -1) {
		alias := m[2]
		if alias == "" {
			alias = m[3]
		}
		out = append(out, model.TableRef{Name: m[1], Alias: alias})
	}
	return out
}

func extractSelectColumns(sql string) []model.ColumnRef {
	m := selectRe.FindStringSubmatch(sql)
	if m == nil {
		return nil
	}
	clause := m[1]
	if strings.Contains(clause, "*") {
		return []model.ColumnRef{{Name: "*"}}
	}
	var out []model.ColumnRef
	for _, cm := range columnRe.FindAllStringSubmatch(clause, -1) {
		name := cm[1]
		if strings.Contains(name, ".") {
			parts := strings.SplitN(name, ".", 2)
			out = append(out, model.ColumnRef{Name: parts[1], Table: parts[0], Alias: cm[2]})
		} else {
			out = append(out, model.ColumnRef{Name: name, Alias: cm[2]})
		}
	}
	return out
}

func extractJoins(sql string) []model.JoinClause {
	var out []model.JoinClause
	for _, m := range joinRe.FindAllStringSubmatch(sql, -1) {
		joinType := strings.ToUpper(strings.TrimSpace(m[1]))
		if joinType == "" {
			joinType = "INNER"
		}
		out = append(out, model.JoinClause{
			Type:      joinType,
			Table:     m[2],
			Condition: strings.TrimSpace(m[4]),
		})
	}
	return out
}

func extractOrderBy(sql string) []string {
	clause := matchOne(orderByRe, sql)
	if clause == "" {
		return nil
	}
	var out []string
	for _, part := range splitCSV(clause) {
		upper := strings.ToUpper(part)
		direction := "ASC"
		if strings.Contains(upper, "DESC") {
			direction = "DESC"
		}
		name := strings.TrimSpace(strings.NewReplacer("ASC", "", "asc", "", "DESC", "", "desc", "").Replace(part))
		out = append(out, name+" "+direction)
	}
	return out
}

func matchOne(re *regexp.Regexp, sql string) string {
	m := re.FindStringSubmatch(sql)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func splitCSV(clause string) []string {
	if clause == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(clause, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func splitAndOr(clause string) []string {
	if clause == "" {
		return nil
	}
	var out []string
	for _, part := range andOrSplit.Split(clause, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func extractParameters(sql string) []model.SQLParameter {
	var out []model.SQLParameter
	seen := make(map[string]bool)
	for _, m := range nestedParamRe.FindAllStringSubmatch(sql, -1) {
		name := m[1] + "." + m[2]
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, model.SQLParameter{Name: name, Kind: model.ParamNested})
	}
	for _, m := range simpleParamRe.FindAllStringSubmatch(sql, -1) {
		if strings.Contains(sql, "{"+m[1]+".") {
			continue
		}
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		out = append(out, model.SQLParameter{Name: m[1], Kind: model.ParamSimple})
	}
	return out
}

// complexityScore implements spec.md's formula:
// 1 + |tables| + |joins| + |subqueries| + |where| + |group_by| + |order_by| + |having|.
func complexityScore(a model.SQLAnalysis) int {
	return 1 + len(a.Tables) + len(a.Joins) + len(a.Subqueries) +
		len(a.WhereConditions) + len(a.GroupBy) + len(a.OrderBy) + len(a.Having)
}

func complexityBucket(score int) string {
	switch {
	case score <= 3:
		return "simple"
	case score <= 7:
		return "medium"
	case score <= 12:
		return "complex"
	default:
		return "very_complex"
	}
}
