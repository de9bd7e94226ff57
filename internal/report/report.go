// Package report implements §6's output file formats: sequence-diagram
// files under output/<project>/<package_as_path>/, and the impact-analysis
// report family (Markdown, JSON, XLSX, and a three-sub-diagram Mermaid
// bundle) under the configured impact analysis output directory.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/javagraph/javagraph/internal/errs"
	"github.com/javagraph/javagraph/internal/impact"
	"github.com/javagraph/javagraph/internal/logging"
)

// DiagramFormat distinguishes the two sequence-diagram output formats.
type DiagramFormat string

const (
	FormatMermaid  DiagramFormat = "mermaid"
	FormatPlantUML DiagramFormat = "plantuml"
)

func (f DiagramFormat) extension() string {
	if f == FormatPlantUML {
		return ".puml"
	}
	return ".md"
}

// Timestamp renders t in the YYYYMMDD-HHmmss form used throughout §6's
// filename patterns.
func Timestamp(t time.Time) string {
	return t.Format("20060102-150405")
}

// SequenceDiagramPath builds the filename spec.md §6 mandates:
// SEQ_<Class>_<Method>_<YYYYMMDD-HHmmss>.md|.puml under
// output/<project>/<package_as_path>/.
func SequenceDiagramPath(outputDir, project, packageName, class, method string, format DiagramFormat, ts time.Time) string {
	pkgPath := strings.ReplaceAll(packageName, ".", string(filepath.Separator))
	name := fmt.Sprintf("SEQ_%s_%s_%s%s", class, method, Timestamp(ts), format.extension())
	return filepath.Join(outputDir, project, pkgPath, name)
}

// WriteSequenceDiagram writes already-rendered diagram text (from
// internal/diagram's RenderMermaid/RenderPlantUML) to its §6 path,
// creating the package-shaped directory tree as needed.
func WriteSequenceDiagram(outputDir, project, packageName, class, method, content string, format DiagramFormat, ts time.Time) (string, error) {
	path := SequenceDiagramPath(outputDir, project, packageName, class, method, format, ts)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", &errs.IOError{Op: "mkdir", Path: filepath.Dir(path), Wrapped: err}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", &errs.IOError{Op: "write", Path: path, Wrapped: err}
	}
	logging.Get(logging.CategoryReport).Info("wrote sequence diagram %s", path)
	return path, nil
}

// ImpactReportBaseName builds the base name §6 mandates for an impact
// report: IMPACT_TABLE_<name>_<ts> for a table analysis, or
// IMPACT_METHOD_<Class>_<Method>_<ts> for a method analysis.
func ImpactReportBaseName(r impact.Result, ts time.Time) string {
	stamp := Timestamp(ts)
	if r.AnalysisType == "table" {
		return fmt.Sprintf("IMPACT_TABLE_%s_%s", r.TargetName, stamp)
	}
	name := strings.ReplaceAll(r.TargetName, ".", "_")
	return fmt.Sprintf("IMPACT_METHOD_%s_%s", name, stamp)
}

func riskIcon(grade string) string {
	switch grade {
	case "HIGH":
		return "[HIGH]"
	case "MEDIUM":
		return "[MED]"
	case "LOW":
		return "[LOW]"
	default:
		return "[?]"
	}
}

func sortedLevels(tree map[int][]impact.ImpactNode) []int {
	levels := make([]int, 0, len(tree))
	for l := range tree {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	return levels
}

// WriteImpactMarkdown renders the Markdown impact report, matching the
// seven-section layout of the original analyzer's report generator:
// overview, summary, impact tree by level, package statistics, SQL
// detail, recommended test scope, and a change-caution callout.
func WriteImpactMarkdown(r impact.Result, path string) error {
	var b strings.Builder

	b.WriteString("# Impact Analysis Report\n\n")
	b.WriteString("## 1. Overview\n")
	fmt.Fprintf(&b, "- **Target**: `%s`\n", r.TargetName)
	if r.Project != "" {
		fmt.Fprintf(&b, "- **Project**: %s\n", r.Project)
	} else {
		b.WriteString("- **Project**: all\n")
	}
	fmt.Fprintf(&b, "- **Analysis type**: %s\n", r.AnalysisType)
	fmt.Fprintf(&b, "- **Generated**: %s\n\n", r.Timestamp)

	s := r.Summary
	b.WriteString("## 2. Impact summary\n")
	fmt.Fprintf(&b, "- Impacted classes: %d\n", s.TotalImpactedClasses)
	fmt.Fprintf(&b, "- Impacted methods: %d\n", s.TotalImpactedMethods)
	fmt.Fprintf(&b, "- Impacted packages: %d\n", s.TotalImpactedPackages)
	fmt.Fprintf(&b, "- Max call depth: %d\n", s.MaxDepth)
	fmt.Fprintf(&b, "- Avg call depth: %.2f\n", s.AvgDepth)

	high, medium, low := s.RiskDistribution["HIGH"], s.RiskDistribution["MEDIUM"], s.RiskDistribution["LOW"]
	switch {
	case high > 0:
		b.WriteString("- **Risk grade**: HIGH\n")
	case medium > 0:
		b.WriteString("- **Risk grade**: MEDIUM\n")
	default:
		b.WriteString("- **Risk grade**: LOW\n")
	}
	fmt.Fprintf(&b, "  - High: %d methods\n", high)
	fmt.Fprintf(&b, "  - Medium: %d methods\n", medium)
	fmt.Fprintf(&b, "  - Low: %d methods\n\n", low)

	b.WriteString("## 3. Impact tree by level\n\n")
	if len(r.ImpactTree) == 0 {
		b.WriteString("No impacted code found.\n\n")
	} else {
		for _, level := range sortedLevels(r.ImpactTree) {
			nodes := r.ImpactTree[level]
			if len(nodes) == 0 {
				continue
			}
			if level == 1 {
				b.WriteString("### Level 1 (direct impact, depth 0)\n")
			} else {
				maxDepth := 0
				for _, n := range nodes {
					if n.Depth > maxDepth {
						maxDepth = n.Depth
					}
				}
				fmt.Fprintf(&b, "### Level %d (indirect impact, depth %d)\n", level, maxDepth)
			}
			for _, n := range nodes {
				full := fmt.Sprintf("%s.%s.%s", n.Package, n.Class, n.Method)
				sqlInfo := ""
				if n.SQLID != "" {
					sqlInfo = fmt.Sprintf(" (%s, complexity %d)", n.SQLType, n.SQLComplexity)
				}
				fmt.Fprintf(&b, "- %s **%s**%s\n", riskIcon(n.RiskGrade), full, sqlInfo)
			}
			b.WriteString("\n")
		}
	}

	if len(r.PackageSummary) > 0 {
		b.WriteString("## 4. Package statistics\n\n")
		b.WriteString("| Package | Classes | Methods | Avg depth | High | Medium | Low |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for _, p := range r.PackageSummary {
			fmt.Fprintf(&b, "| %s | %d | %d | %.2f | %d | %d | %d |\n",
				p.Package, p.ImpactedClasses, p.ImpactedMethods, p.AvgDepth,
				p.RiskDistribution["HIGH"], p.RiskDistribution["MEDIUM"], p.RiskDistribution["LOW"])
		}
		b.WriteString("\n")
	}

	if len(r.SQLDetails) > 0 {
		b.WriteString("## 5. SQL detail\n\n")
		b.WriteString("| SQL ID | Type | Mapper | Complexity | Query |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, d := range r.SQLDetails {
			preview := d.QueryPreview
			if len(preview) > 50 {
				preview = preview[:50] + "..."
			}
			preview = strings.ReplaceAll(preview, "|", "\\|")
			fmt.Fprintf(&b, "| %s | %s | %s.%s | %d | `%s` |\n",
				d.SQLID, d.SQLType, d.MapperClass, d.MapperMethod, d.Complexity, preview)
		}
		b.WriteString("\n")
	}

	if len(r.TestScope) > 0 {
		b.WriteString("## 6. Recommended test scope\n\n")
		var existing, missing []impact.TestScopeItem
		for _, item := range r.TestScope {
			if item.Exists {
				existing = append(existing, item)
			} else {
				missing = append(missing, item)
			}
		}
		if len(existing) > 0 {
			b.WriteString("### Existing tests (run these)\n")
			for _, item := range existing {
				fmt.Fprintf(&b, "- `%s` (%d test methods)\n", item.TestClass, item.TestMethodCount)
			}
			b.WriteString("\n")
		}
		if len(missing) > 0 {
			b.WriteString("### Missing tests (write these)\n")
			for _, item := range missing {
				fmt.Fprintf(&b, "- `%s` has no test class\n", item.ImpactedClass)
			}
			b.WriteString("\n")
		}
		coverage := 0.0
		if len(r.TestScope) > 0 {
			coverage = float64(len(existing)) / float64(len(r.TestScope)) * 100
		}
		fmt.Fprintf(&b, "**Test coverage**: %d/%d (%.1f%%)\n\n", len(existing), len(r.TestScope), coverage)
	}

	b.WriteString("## 7. Notes for changes\n")
	if r.HasCircularReference {
		fmt.Fprintf(&b, "- Circular references detected: %d\n", len(r.CircularPaths))
		limit := len(r.CircularPaths)
		if limit > 5 {
			limit = 5
		}
		for _, p := range r.CircularPaths[:limit] {
			fmt.Fprintf(&b, "  - `%s`\n", p)
		}
		if len(r.CircularPaths) > 5 {
			fmt.Fprintf(&b, "  - ...and %d more\n", len(r.CircularPaths)-5)
		}
	} else {
		b.WriteString("- No circular references\n")
	}
	if high > 0 {
		fmt.Fprintf(&b, "- %d HIGH-risk methods included; test thoroughly before changing\n", high)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return &errs.IOError{Op: "write", Path: path, Wrapped: err}
	}
	logging.Get(logging.CategoryReport).Info("wrote impact markdown report %s", path)
	return nil
}

// WriteImpactJSON serializes the full Result as indented JSON.
func WriteImpactJSON(r impact.Result, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return &errs.IOError{Op: "marshal", Path: path, Wrapped: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &errs.IOError{Op: "write", Path: path, Wrapped: err}
	}
	logging.Get(logging.CategoryReport).Info("wrote impact json report %s", path)
	return nil
}

// WriteImpactDiagram renders the three-sub-diagram Mermaid bundle
// (.diagram.md): a call-chain tree, a risk-distribution pie chart, and a
// per-package bar/flow chart, followed by a short summary.
func WriteImpactDiagram(r impact.Result, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Impact Analysis Diagram: %s\n\n", r.TargetName)
	fmt.Fprintf(&b, "**Target**: %s  \n", r.TargetName)
	b.WriteString("\n")
	if r.Project != "" {
		fmt.Fprintf(&b, "**Project**: %s  \n", r.Project)
	} else {
		b.WriteString("**Project**: all  \n")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "**Generated**: %s  \n\n", r.Timestamp)
	b.WriteString("---\n\n")

	b.WriteString("## 1. Call chain tree\n\n")
	if len(r.ImpactTree) > 0 {
		b.WriteString("```mermaid\n")
		writeTreeDiagram(&b, r)
		b.WriteString("```\n\n")
	} else {
		b.WriteString("_No impacted code._\n\n")
	}

	b.WriteString("## 2. Risk distribution\n\n")
	if r.Summary.TotalImpactedMethods > 0 {
		b.WriteString("```mermaid\n")
		writeRiskPie(&b, r)
		b.WriteString("```\n\n")
	} else {
		b.WriteString("_No data._\n\n")
	}

	b.WriteString("## 3. Impact by package\n\n")
	if len(r.PackageSummary) > 0 {
		b.WriteString("```mermaid\n")
		writePackageChart(&b, r)
		b.WriteString("```\n\n")
	} else {
		b.WriteString("_No data._\n\n")
	}

	b.WriteString("---\n\n## Summary\n")
	fmt.Fprintf(&b, "- **Total impact**: %d classes, %d methods\n", r.Summary.TotalImpactedClasses, r.Summary.TotalImpactedMethods)
	fmt.Fprintf(&b, "- **Max depth**: %d\n", r.Summary.MaxDepth)
	fmt.Fprintf(&b, "- **Avg depth**: %.2f\n", r.Summary.AvgDepth)
	fmt.Fprintf(&b, "- **Risk**: HIGH %d, MEDIUM %d, LOW %d\n",
		r.Summary.RiskDistribution["HIGH"], r.Summary.RiskDistribution["MEDIUM"], r.Summary.RiskDistribution["LOW"])
	if r.HasCircularReference {
		fmt.Fprintf(&b, "- circular references detected: %d\n", len(r.CircularPaths))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return &errs.IOError{Op: "write", Path: path, Wrapped: err}
	}
	logging.Get(logging.CategoryReport).Info("wrote impact diagram bundle %s", path)
	return nil
}

func riskStyle(grade string) string {
	switch grade {
	case "HIGH":
		return "fill:#ffcdd2,stroke:#c62828,stroke-width:2px"
	case "MEDIUM":
		return "fill:#fff9c4,stroke:#f57f17,stroke-width:2px"
	default:
		return "fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px"
	}
}

func writeTreeDiagram(b *strings.Builder, r impact.Result) {
	b.WriteString("graph TD\n")
	rootID := "ROOT"
	fmt.Fprintf(b, "    %s[\"%s\"]\n", rootID, r.TargetName)
	fmt.Fprintf(b, "    style %s fill:#e1f5ff,stroke:#01579b,stroke-width:3px\n", rootID)

	nodeID := make(map[string]string)
	counter := 0
	var levelNodes [][]string

	for _, level := range sortedLevels(r.ImpactTree) {
		nodes := r.ImpactTree[level]
		var current []string
		for _, n := range nodes {
			key := n.Class + "." + n.Method
			id, ok := nodeID[key]
			if !ok {
				id = fmt.Sprintf("N%d", counter)
				counter++
				nodeID[key] = id
			}
			label := n.Class + "\\n" + n.Method
			if n.SQLType != "" {
				label += "\\n(" + n.SQLType + ")"
			}
			fmt.Fprintf(b, "    %s[\"%s\"]\n", id, label)
			fmt.Fprintf(b, "    style %s %s\n", id, riskStyle(n.RiskGrade))
			if level == 1 {
				fmt.Fprintf(b, "    %s --> %s\n", rootID, id)
			}
			current = append(current, id)
		}
		levelNodes = append(levelNodes, current)
	}

	for i := 1; i < len(levelNodes); i++ {
		prev, curr := levelNodes[i-1], levelNodes[i]
		if len(prev) == 0 {
			continue
		}
		if len(prev) > 3 {
			prev = prev[:3]
		}
		limCurr := curr
		if len(limCurr) > 2 {
			limCurr = limCurr[:2]
		}
		for _, p := range prev {
			for _, c := range limCurr {
				fmt.Fprintf(b, "    %s --> %s\n", p, c)
			}
		}
	}
}

func writeRiskPie(b *strings.Builder, r impact.Result) {
	b.WriteString("%%{init: {'theme':'base', 'themeVariables': {'pieOuterStrokeWidth': '3px', 'pieSectionTextSize': '14px'}, 'pie': {'textPosition': 0.5}}}%%\n")
	b.WriteString("pie title Risk grade distribution\n")
	dist := r.Summary.RiskDistribution
	if n := dist["HIGH"]; n > 0 {
		fmt.Fprintf(b, "    \"HIGH\" : %d\n", n)
	}
	if n := dist["MEDIUM"]; n > 0 {
		fmt.Fprintf(b, "    \"MEDIUM\" : %d\n", n)
	}
	if n := dist["LOW"]; n > 0 {
		fmt.Fprintf(b, "    \"LOW\" : %d\n", n)
	}
}

func writePackageChart(b *strings.Builder, r impact.Result) {
	b.WriteString("graph LR\n")
	pkgs := r.PackageSummary
	if len(pkgs) > 10 {
		pkgs = pkgs[:10]
	}
	for i, p := range pkgs {
		id := fmt.Sprintf("PKG%d", i)
		short := p.Package
		if idx := strings.LastIndex(short, "."); idx >= 0 {
			short = short[idx+1:]
		}
		label := fmt.Sprintf("%s\\nmethods: %d", short, p.ImpactedMethods)
		fmt.Fprintf(b, "    %s[\"%s\"]\n", id, label)
		switch {
		case p.RiskDistribution["HIGH"] > 0:
			fmt.Fprintf(b, "    style %s fill:#ffcdd2,stroke:#c62828,stroke-width:2px\n", id)
		case p.RiskDistribution["MEDIUM"] > 0:
			fmt.Fprintf(b, "    style %s fill:#fff9c4,stroke:#f57f17,stroke-width:2px\n", id)
		default:
			fmt.Fprintf(b, "    style %s fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px\n", id)
		}
	}
	for i := 0; i < len(pkgs)-1; i++ {
		fmt.Fprintf(b, "    PKG%d --> PKG%d\n", i, i+1)
	}
}

// formatFloat trims a float to at most two decimals for XLSX cell text.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
