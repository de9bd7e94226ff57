// Package callchain implements C7: a bounded-depth call-chain fetcher
// rooted at one or more top-level methods, producing an ordered event
// stream of method calls, SQL calls, and the tables those SQL calls touch.
package callchain

import (
	"strings"

	"github.com/javagraph/javagraph/internal/graph"
	"github.com/javagraph/javagraph/internal/logging"
	"github.com/javagraph/javagraph/internal/model"
)

// EventKind distinguishes the three event shapes the fetcher emits.
type EventKind string

const (
	EventMethod EventKind = "method"
	EventSQL    EventKind = "sql"
	EventTable  EventKind = "table"
)

// Event is one entry in the ordered call-chain result.
type Event struct {
	Kind       EventKind
	TopMethod  string
	Depth      int
	CallOrder  int
	LineNumber int

	SourceClass  string
	SourceMethod string

	TargetClass   string // "SQL" for sql events, table name for table events
	TargetMethod  string // sql id for sql events
	TargetPackage string
	TargetProject string
	ReturnType    string

	SQLType    model.SQLType
	MapperName string

	TableSchema string
}

var streamMethodBlocklist = map[string]bool{
	"collect": true, "map": true, "filter": true, "forEach": true, "stream": true,
	"reduce": true, "findFirst": true, "findAny": true, "anyMatch": true, "allMatch": true,
	"noneMatch": true, "count": true, "distinct": true, "sorted": true, "limit": true,
	"skip": true, "peek": true, "flatMap": true, "toArray": true,
}

// Fetch runs the bounded DFS described in spec.md §4.3. If method is
// empty, every method of class is treated as a traversal root. project,
// if non-empty, both filters which in-graph methods are considered roots
// and gates external-call suppression.
func Fetch(store *graph.Store, class, method string, maxDepth int, project string) ([]Event, error) {
	if maxDepth <= 0 {
		return nil, nil
	}

	roots, err := resolveRoots(store, class, method, project)
	if err != nil {
		return nil, err
	}

	f := &fetcher{
		store:        store,
		maxDepth:     maxDepth,
		project:      project,
		visitMethod:  make(map[[3]string]int),
		visitSQL:     make(map[[3]string]bool),
		schemaCache:  make(map[string]string),
	}

	var events []Event
	for _, root := range roots {
		f.traverseMethod(root.class, root.method, root.pkg, root.project, 0, root.method, &events)
	}
	return events, nil
}

type rootMethod struct{ class, method, pkg, project string }

func resolveRoots(store *graph.Store, class, method, project string) ([]rootMethod, error) {
	classes, err := store.ClassesByName(class)
	if err != nil {
		return nil, err
	}

	var roots []rootMethod
	for _, c := range classes {
		if project != "" && c.Project != project {
			continue
		}
		if method != "" {
			roots = append(roots, rootMethod{class: c.Name, method: method, pkg: c.Package, project: c.Project})
			continue
		}
		names, err := store.PublicMethodsOf(c.Name, c.Project)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			roots = append(roots, rootMethod{class: c.Name, method: name, pkg: c.Package, project: c.Project})
		}
	}
	return roots, nil
}

type fetcher struct {
	store       *graph.Store
	maxDepth    int
	project     string
	visitMethod map[[3]string]int
	visitSQL    map[[3]string]bool
	schemaCache map[string]string
}

func (f *fetcher) traverseMethod(class, method, pkg, sourceProject string, depth int, topMethod string, events *[]Event) {
	if depth >= f.maxDepth {
		return
	}

	calls, err := f.store.MethodCalls(class, method, sourceProject)
	if err != nil {
		logging.Get(logging.CategoryCallChain).Warn("method calls query failed for %s.%s: %v", class, method, err)
		return
	}
	for _, c := range calls {
		if streamMethodBlocklist[c.TargetMethod] {
			continue
		}
		if !f.shouldIncludeMethod(c.TargetProject) {
			continue
		}

		*events = append(*events, Event{
			Kind: EventMethod, TopMethod: topMethod, Depth: depth + 1,
			CallOrder: c.CallOrder, LineNumber: c.LineNumber,
			SourceClass: class, SourceMethod: method,
			TargetClass: c.TargetClass, TargetMethod: c.TargetMethod,
			TargetPackage: c.TargetPackage, TargetProject: c.TargetProject,
			ReturnType: orVoid(c.ReturnType),
		})

		if depth+1 >= f.maxDepth {
			continue
		}
		key := [3]string{topMethod, c.TargetClass, c.TargetMethod}
		if prev, ok := f.visitMethod[key]; ok && prev <= depth+1 {
			continue
		}
		f.visitMethod[key] = depth + 1
		f.traverseMethod(c.TargetClass, c.TargetMethod, c.TargetPackage, c.TargetProject, depth+1, topMethod, events)
	}

	f.traverseSQL(class, method, pkg, depth, topMethod, events)
}

func (f *fetcher) traverseSQL(class, method, pkg string, depth int, topMethod string, events *[]Event) {
	calls, err := f.store.SQLCallsForMethod(class, method, f.project, pkg)
	if err != nil {
		logging.Get(logging.CategoryCallChain).Warn("sql calls query failed for %s.%s: %v", class, method, err)
		return
	}

	for _, c := range calls {
		if c.SQLID == "" {
			continue
		}
		sqlKey := [3]string{topMethod, method, c.SQLID}
		if !f.visitSQL[sqlKey] {
			*events = append(*events, Event{
				Kind: EventSQL, TopMethod: topMethod, Depth: depth + 1,
				CallOrder: c.CallOrder, LineNumber: c.LineNumber,
				SourceClass: class, SourceMethod: method,
				TargetClass: "SQL", TargetMethod: c.SQLID, TargetPackage: c.MapperName,
				ReturnType: combineSQLReturnType(c.ResultMap, c.ResultType),
				SQLType:    c.SQLType, MapperName: c.MapperName,
			})
			f.visitSQL[sqlKey] = true
		}

		for _, table := range c.Tables {
			schema := f.tableSchema(table.Name)
			*events = append(*events, Event{
				Kind: EventTable, TopMethod: topMethod, Depth: depth + 2,
				SourceClass: class, SourceMethod: method,
				TargetClass: table.Name, TableSchema: schema,
			})
		}
	}
}

func (f *fetcher) tableSchema(name string) string {
	key := strings.ToLower(name)
	if schema, ok := f.schemaCache[key]; ok {
		return schema
	}
	schema, _, err := f.store.TableSchema(name)
	if err != nil {
		schema = ""
	}
	f.schemaCache[key] = schema
	return schema
}

// shouldIncludeMethod implements spec.md §4.3's external-method
// suppression: an edge is dropped only when its target_project is
// empty/"null"/whitespace AND a non-empty project filter is in effect.
func (f *fetcher) shouldIncludeMethod(targetProject string) bool {
	if safeProject(targetProject) == "" && f.project != "" {
		return false
	}
	return true
}

func safeProject(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "null") {
		return ""
	}
	return v
}

func combineSQLReturnType(resultMap, resultType string) string {
	resultMap = strings.TrimSpace(resultMap)
	resultType = strings.TrimSpace(resultType)
	switch {
	case resultMap != "" && resultType != "":
		return resultMap + " | " + resultType
	case resultMap != "":
		return resultMap
	case resultType != "":
		return resultType
	default:
		return "void"
	}
}

func orVoid(returnType string) string {
	if strings.TrimSpace(returnType) == "" {
		return "void"
	}
	return returnType
}
