// Package impact implements C10: reverse impact analysis. Given a table
// or a method, it walks the call graph backwards to every transitive
// caller, scores each impacted node's risk, and aggregates the result
// into per-package statistics, a test-coverage map, and any circular
// call paths discovered along the way.
package impact

import (
	"math"
	"sort"

	"github.com/javagraph/javagraph/internal/graph"
	"github.com/javagraph/javagraph/internal/model"
)

const hardDepthCap = 10

// ImpactNode is one impacted caller, reported at a given tree level and
// call depth. SQL fields are only populated for the depth-0 node that
// directly issues the statement under analysis.
type ImpactNode struct {
	Level, Depth                    int
	Package, Class, Method, Project string
	SQLID, SQLType                  string
	SQLComplexity                   int
	RiskGrade                       string
}

// SQLDetail describes one SQL statement found to reference the analyzed
// table, and the mapper method that calls it.
type SQLDetail struct {
	SQLID, SQLType, MapperClass, MapperMethod, QueryPreview string
	Complexity                                              int
}

// TestScopeItem reports whether an impacted class has a test class under
// the {Class}Test / {Class}Tests / Test{Class} naming conventions.
type TestScopeItem struct {
	ImpactedClass, TestClass string
	TestMethodCount          int
	Exists                   bool
}

// PackageSummary aggregates impact statistics for one package.
type PackageSummary struct {
	Package                           string
	ImpactedClasses, ImpactedMethods  int
	AvgDepth                          float64
	RiskDistribution                  map[string]int
}

// Summary aggregates impact statistics across the whole analysis.
type Summary struct {
	TargetType, TargetName, Project                                   string
	TotalImpactedClasses, TotalImpactedMethods, TotalImpactedPackages int
	MaxDepth                                                          int
	AvgDepth                                                          float64
	RiskDistribution                                                  map[string]int
}

// Result is the full output of a reverse impact analysis run.
type Result struct {
	Project, AnalysisType, TargetName, Timestamp string
	Summary                                      Summary
	ImpactTree                                   map[int][]ImpactNode
	PackageSummary                               []PackageSummary
	SQLDetails                                   []SQLDetail
	TestScope                                    []TestScopeItem
	HasCircularReference                         bool
	CircularPaths                                []string
}

type rawNode struct {
	class, method, pkg, project string
	sqlID, sqlType              string
	sqlComplexity               int
	depth                       int
}

// AnalyzeTableImpact walks table -> SQL statement -> owning mapper
// method -> transitive caller, in reverse, per the table-impact entry
// point. An empty table_name match returns an empty, non-error Result.
func AnalyzeTableImpact(store *graph.Store, table, project string, maxDepth int) (Result, error) {
	stmts, err := store.SQLStatementsReferencingTable(table, project)
	if err != nil {
		return Result{}, err
	}
	if len(stmts) == 0 {
		return emptyResult("table", table, project), nil
	}

	sqlDetails := collectSQLDetails(store, stmts, project)

	var raw []rawNode
	for _, st := range stmts {
		callers, err := store.CallersOfSQL(st.ID, project)
		if err != nil {
			return Result{}, err
		}
		for _, c := range callers {
			pkg := classPackage(store, c.Class, project)
			raw = append(raw, rawNode{
				class: c.Class, method: c.Method, pkg: pkg, project: project,
				sqlID: st.ID, sqlType: string(st.SQLType), sqlComplexity: st.Complexity,
			})
			ancestors, err := bfsCallers(store, c.Class, c.Method, project, maxDepth)
			if err != nil {
				return Result{}, err
			}
			raw = append(raw, ancestors...)
		}
	}

	return buildResult("table", table, project, raw, sqlDetails, store, maxDepth)
}

// AnalyzeMethodImpact walks a class's method (or, when methodName is
// empty, every public method of the class) back through its transitive
// callers, per the method-impact entry point.
func AnalyzeMethodImpact(store *graph.Store, className, methodName, project string, maxDepth int) (Result, error) {
	var targetMethods []string
	if methodName != "" {
		exists, err := store.MethodExists(className, methodName, project)
		if err != nil {
			return Result{}, err
		}
		if exists {
			targetMethods = []string{methodName}
		}
	} else {
		methods, err := store.PublicMethodsOf(className, project)
		if err != nil {
			return Result{}, err
		}
		targetMethods = methods
	}

	displayName := className
	if methodName != "" {
		displayName = className + "." + methodName
	}
	if len(targetMethods) == 0 {
		return emptyResult("method", displayName, project), nil
	}

	var raw []rawNode
	for _, m := range targetMethods {
		ancestors, err := bfsCallers(store, className, m, project, maxDepth)
		if err != nil {
			return Result{}, err
		}
		raw = append(raw, ancestors...)
	}

	return buildResult("method", displayName, project, raw, nil, store, maxDepth)
}

func buildResult(analysisType, targetName, project string, raw []rawNode, sqlDetails []SQLDetail, store *graph.Store, maxDepth int) (Result, error) {
	includeDepthZero := analysisType == "table"
	tree := buildImpactTree(raw, includeDepthZero)
	summary := calculateSummary(analysisType, targetName, project, tree)
	pkgSummary := calculatePackageSummary(tree)
	impactedClasses := extractImpactedClasses(tree)
	testScope := identifyTestScope(store, impactedClasses, project)
	hasCircular, circularPaths, err := detectCircularReferences(store, impactedClasses, project, maxDepth)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Project: project, AnalysisType: analysisType, TargetName: targetName,
		Summary: summary, ImpactTree: tree, PackageSummary: pkgSummary,
		SQLDetails: sqlDetails, TestScope: testScope,
		HasCircularReference: hasCircular, CircularPaths: circularPaths,
	}, nil
}

func emptyResult(analysisType, targetName, project string) Result {
	return Result{
		Project: project, AnalysisType: analysisType, TargetName: targetName,
		Summary:        Summary{TargetType: analysisType, TargetName: targetName, Project: project},
		ImpactTree:     map[int][]ImpactNode{},
		PackageSummary: []PackageSummary{},
		SQLDetails:     []SQLDetail{},
		TestScope:      []TestScopeItem{},
	}
}

func classPackage(store *graph.Store, class, project string) string {
	classes, err := store.ClassesByName(class)
	if err != nil {
		return ""
	}
	for _, c := range classes {
		if project == "" || c.Project == project {
			return c.Package
		}
	}
	if len(classes) > 0 {
		return classes[0].Package
	}
	return ""
}

// bfsCallers walks (class, method)'s transitive callers breadth-first up
// to min(maxDepth, 10) hops, mirroring the bounded CALLS*1..10 variable-
// length path the original traversal issues, with a visited set breaking
// cycles the same way internal/callchain's DFS does.
func bfsCallers(store *graph.Store, class, method, project string, maxDepth int) ([]rawNode, error) {
	limit := maxDepth
	if limit > hardDepthCap {
		limit = hardDepthCap
	}
	if limit <= 0 {
		return nil, nil
	}

	type frame struct {
		class, method string
		depth         int
	}
	visited := map[[2]string]bool{{class, method}: true}
	queue := []frame{{class, method, 0}}
	var out []rawNode

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= limit {
			continue
		}
		callers, err := store.CallersOf(cur.class, cur.method, project)
		if err != nil {
			return nil, err
		}
		for _, c := range callers {
			key := [2]string{c.Class, c.Method}
			if visited[key] {
				continue
			}
			visited[key] = true
			pkg := classPackage(store, c.Class, project)
			out = append(out, rawNode{class: c.Class, method: c.Method, pkg: pkg, project: project, depth: cur.depth + 1})
			queue = append(queue, frame{c.Class, c.Method, cur.depth + 1})
		}
	}
	return out, nil
}

func collectSQLDetails(store *graph.Store, stmts []model.SqlStatement, project string) []SQLDetail {
	var out []SQLDetail
	for _, st := range stmts {
		callers, err := store.CallersOfSQL(st.ID, project)
		if err != nil || len(callers) == 0 {
			continue
		}
		preview := st.SQLContent
		if len(preview) > 100 {
			preview = preview[:100]
		}
		out = append(out, SQLDetail{
			SQLID: st.ID, SQLType: string(st.SQLType),
			MapperClass: callers[0].Class, MapperMethod: callers[0].Method,
			Complexity: st.Complexity, QueryPreview: preview,
		})
	}
	return out
}

// buildImpactTree groups raw traversal nodes by level (depth + 1) and
// drops duplicate (package, class, method) entries within a level.
// includeDepthZero keeps the depth-0 direct-caller node in the tree
// (table impact); method impact omits it since depth 0 is the analysis
// target itself, not an impacted caller.
func buildImpactTree(raw []rawNode, includeDepthZero bool) map[int][]ImpactNode {
	totalNodes := len(raw)
	tree := make(map[int][]ImpactNode)

	for _, n := range raw {
		if n.depth == 0 && !includeDepthZero {
			continue
		}
		node := ImpactNode{
			Level: n.depth + 1, Depth: n.depth,
			Package: n.pkg, Class: n.class, Method: n.method, Project: n.project,
		}
		if n.depth == 0 {
			node.SQLID = n.sqlID
			node.SQLType = n.sqlType
			node.SQLComplexity = n.sqlComplexity
		}
		node.RiskGrade = calculateRiskGrade(n.sqlComplexity, n.depth, totalNodes, n.sqlType)
		tree[node.Level] = append(tree[node.Level], node)
	}

	for level, nodes := range tree {
		seen := map[string]bool{}
		uniq := make([]ImpactNode, 0, len(nodes))
		for _, nd := range nodes {
			key := nd.Package + "." + nd.Class + "." + nd.Method
			if seen[key] {
				continue
			}
			seen[key] = true
			uniq = append(uniq, nd)
		}
		tree[level] = uniq
	}
	return tree
}

// calculateRiskGrade scores an impacted node on four weighted components
// (SQL complexity 0-30, call depth 0-20, total impact scope 10-40, SQL
// type 0-10) and buckets the sum into HIGH (>=70), MEDIUM (>=40), or LOW.
func calculateRiskGrade(sqlComplexity, depth, totalNodes int, sqlType string) string {
	score := 0.0

	switch {
	case sqlComplexity > 10:
		score += 30
	case sqlComplexity > 5:
		score += 20
	case sqlComplexity > 0:
		score += 10
	}

	switch {
	case depth >= 5:
		score += 20
	case depth >= 3:
		score += 15
	case depth >= 1:
		score += 10
	}

	switch {
	case totalNodes > 50:
		score += 40
	case totalNodes > 20:
		score += 30
	case totalNodes > 10:
		score += 20
	default:
		score += 10
	}

	switch sqlType {
	case "UPDATE", "DELETE":
		score += 10
	case "INSERT":
		score += 5
	}

	switch {
	case score >= 70:
		return "HIGH"
	case score >= 40:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func calculateSummary(analysisType, targetName, project string, tree map[int][]ImpactNode) Summary {
	var all []ImpactNode
	for _, nodes := range tree {
		all = append(all, nodes...)
	}
	if len(all) == 0 {
		return Summary{TargetType: analysisType, TargetName: targetName, Project: project}
	}

	classes := map[string]bool{}
	methods := map[string]bool{}
	packages := map[string]bool{}
	risk := map[string]int{"HIGH": 0, "MEDIUM": 0, "LOW": 0}
	maxDepth, depthSum := 0, 0

	for _, n := range all {
		classes[n.Class] = true
		methods[n.Class+"."+n.Method] = true
		if n.Package != "" {
			packages[n.Package] = true
		}
		risk[n.RiskGrade]++
		if n.Depth > maxDepth {
			maxDepth = n.Depth
		}
		depthSum += n.Depth
	}

	return Summary{
		TargetType: analysisType, TargetName: targetName, Project: project,
		TotalImpactedClasses: len(classes), TotalImpactedMethods: len(methods),
		TotalImpactedPackages: len(packages), MaxDepth: maxDepth,
		AvgDepth:         round2(float64(depthSum) / float64(len(all))),
		RiskDistribution: risk,
	}
}

func calculatePackageSummary(tree map[int][]ImpactNode) []PackageSummary {
	type agg struct {
		classes map[string]bool
		methods map[string]bool
		risk    map[string]int
		depths  []int
	}
	data := map[string]*agg{}

	for _, nodes := range tree {
		for _, n := range nodes {
			pkg := n.Package
			if pkg == "" {
				pkg = "default"
			}
			a, ok := data[pkg]
			if !ok {
				a = &agg{classes: map[string]bool{}, methods: map[string]bool{}, risk: map[string]int{"HIGH": 0, "MEDIUM": 0, "LOW": 0}}
				data[pkg] = a
			}
			a.classes[n.Class] = true
			a.methods[n.Class+"."+n.Method] = true
			a.risk[n.RiskGrade]++
			a.depths = append(a.depths, n.Depth)
		}
	}

	out := make([]PackageSummary, 0, len(data))
	for pkg, a := range data {
		sum := 0
		for _, d := range a.depths {
			sum += d
		}
		out = append(out, PackageSummary{
			Package: pkg, ImpactedClasses: len(a.classes), ImpactedMethods: len(a.methods),
			AvgDepth: round2(float64(sum) / float64(len(a.depths))), RiskDistribution: a.risk,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ImpactedMethods > out[j].ImpactedMethods })
	return out
}

func extractImpactedClasses(tree map[int][]ImpactNode) []string {
	set := map[string]bool{}
	for _, nodes := range tree {
		for _, n := range nodes {
			set[n.Class] = true
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func identifyTestScope(store *graph.Store, classes []string, project string) []TestScopeItem {
	out := make([]TestScopeItem, 0, len(classes))
	for _, c := range classes {
		testClass, found, count, err := store.TestClassFor(c, project)
		if err != nil {
			continue
		}
		out = append(out, TestScopeItem{
			ImpactedClass: c, TestClass: testClass, TestMethodCount: count, Exists: found,
		})
	}
	return out
}

// detectCircularReferences looks for a method reachable from itself
// within 2..10 hops among the impacted classes' own methods, bounded to
// the first 10 distinct cycles found.
func detectCircularReferences(store *graph.Store, classes []string, project string, maxDepth int) (bool, []string, error) {
	if len(classes) == 0 {
		return false, nil, nil
	}
	limit := maxDepth
	if limit > hardDepthCap {
		limit = hardDepthCap
	}
	if limit < 2 {
		return false, nil, nil
	}

	var paths []string
	for _, class := range classes {
		methods, err := store.MethodsOf(class, project)
		if err != nil {
			return false, nil, err
		}
		for _, method := range methods {
			if len(paths) >= 10 {
				return true, paths, nil
			}
			path, found, err := findCycle(store, class, method, project, limit)
			if err != nil {
				return false, nil, err
			}
			if found {
				paths = append(paths, path)
			}
		}
	}
	return len(paths) > 0, paths, nil
}

func findCycle(store *graph.Store, rootClass, rootMethod, project string, limit int) (string, bool, error) {
	type frame struct {
		class, method string
		depth         int
		path          []string
	}
	start := frame{rootClass, rootMethod, 0, []string{rootMethod}}
	queue := []frame{start}
	visited := map[[2]string]bool{}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= limit {
			continue
		}
		calls, err := store.MethodCalls(cur.class, cur.method, project)
		if err != nil {
			return "", false, err
		}
		for _, c := range calls {
			if c.TargetClass == rootClass && c.TargetMethod == rootMethod && cur.depth+1 >= 2 {
				return joinPath(append(append([]string{}, cur.path...), c.TargetMethod)), true, nil
			}
			key := [2]string{c.TargetClass, c.TargetMethod}
			if visited[key] {
				continue
			}
			visited[key] = true
			nextPath := append(append([]string{}, cur.path...), c.TargetMethod)
			queue = append(queue, frame{c.TargetClass, c.TargetMethod, cur.depth + 1, nextPath})
		}
	}
	return "", false, nil
}

func joinPath(methods []string) string {
	out := ""
	for i, m := range methods {
		if i > 0 {
			out += " → "
		}
		out += m
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
