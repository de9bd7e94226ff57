package report

import (
	"archive/zip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javagraph/javagraph/internal/diagram"
	"github.com/javagraph/javagraph/internal/impact"
)

func sampleResult() impact.Result {
	return impact.Result{
		Project:      "demo",
		AnalysisType: "table",
		TargetName:   "orders",
		Timestamp:    "20260730-120000",
		Summary: impact.Summary{
			TargetType: "table", TargetName: "orders", Project: "demo",
			TotalImpactedClasses: 2, TotalImpactedMethods: 3, TotalImpactedPackages: 1,
			MaxDepth: 2, AvgDepth: 1.33,
			RiskDistribution: map[string]int{"HIGH": 1, "MEDIUM": 1, "LOW": 1},
		},
		ImpactTree: map[int][]impact.ImpactNode{
			1: {{Level: 1, Depth: 0, Package: "com.acme.order", Class: "OrderMapper", Method: "findById", Project: "demo", SQLID: "findById", SQLType: "SELECT", SQLComplexity: 3, RiskGrade: "LOW"}},
			2: {{Level: 2, Depth: 1, Package: "com.acme.order", Class: "OrderService", Method: "getOrder", Project: "demo", RiskGrade: "MEDIUM"}},
		},
		PackageSummary: []impact.PackageSummary{
			{Package: "com.acme.order", ImpactedClasses: 2, ImpactedMethods: 3, AvgDepth: 1.0, RiskDistribution: map[string]int{"HIGH": 1, "MEDIUM": 1, "LOW": 1}},
		},
		SQLDetails: []impact.SQLDetail{
			{SQLID: "findById", SQLType: "SELECT", MapperClass: "OrderMapper", MapperMethod: "findById", QueryPreview: "select * from orders where id = #{id}", Complexity: 3},
		},
		TestScope: []impact.TestScopeItem{
			{ImpactedClass: "OrderService", TestClass: "OrderServiceTest", TestMethodCount: 4, Exists: true},
			{ImpactedClass: "OrderMapper", TestClass: "", TestMethodCount: 0, Exists: false},
		},
	}
}

func TestTimestamp_FormatsAsCompactDateTime(t *testing.T) {
	ts := time.Date(2026, 7, 30, 14, 5, 9, 0, time.UTC)
	assert.Equal(t, "20260730-140509", Timestamp(ts))
}

func TestSequenceDiagramPath_MatchesOutputConvention(t *testing.T) {
	ts := time.Date(2026, 7, 30, 14, 5, 9, 0, time.UTC)
	path := SequenceDiagramPath("output", "demo", "com.acme.order", "OrderService", "getOrder", FormatMermaid, ts)
	want := filepath.Join("output", "demo", "com", "acme", "order", "SEQ_OrderService_getOrder_20260730-140509.md")
	assert.Equal(t, want, path)
}

func TestWriteSequenceDiagram_CreatesPackageShapedDirectory(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2026, 7, 30, 14, 5, 9, 0, time.UTC)
	content := diagram.RenderMermaid(nil, "OrderService", "getOrder", "Order", "getOrder flow")

	path, err := WriteSequenceDiagram(dir, "demo", "com.acme.order", "OrderService", "getOrder", content, FormatMermaid, ts)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Contains(t, path, filepath.Join("demo", "com", "acme", "order"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sequenceDiagram")
}

func TestImpactReportBaseName_TableVsMethod(t *testing.T) {
	ts := time.Date(2026, 7, 30, 14, 5, 9, 0, time.UTC)
	tableResult := sampleResult()
	assert.Equal(t, "IMPACT_TABLE_orders_20260730-140509", ImpactReportBaseName(tableResult, ts))

	methodResult := sampleResult()
	methodResult.AnalysisType = "method"
	methodResult.TargetName = "OrderService.getOrder"
	assert.Equal(t, "IMPACT_METHOD_OrderService_getOrder_20260730-140509", ImpactReportBaseName(methodResult, ts))
}

func TestWriteImpactMarkdown_IncludesAllSections(t *testing.T) {
	r := sampleResult()
	path := filepath.Join(t.TempDir(), "report.md")
	require.NoError(t, WriteImpactMarkdown(r, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(data)

	assert.Contains(t, body, "# Impact Analysis Report")
	assert.Contains(t, body, "## 3. Impact tree by level")
	assert.Contains(t, body, "OrderMapper")
	assert.Contains(t, body, "## 4. Package statistics")
	assert.Contains(t, body, "## 5. SQL detail")
	assert.Contains(t, body, "OrderServiceTest")
	assert.Contains(t, body, "Missing tests")
}

func TestWriteImpactJSON_RoundTripsTimestamp(t *testing.T) {
	r := sampleResult()
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteImpactJSON(r, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got impact.Result
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, r.Timestamp, got.Timestamp)
	assert.Equal(t, r.TargetName, got.TargetName)
}

func TestWriteImpactDiagram_RendersAllThreeSubdiagrams(t *testing.T) {
	r := sampleResult()
	path := filepath.Join(t.TempDir(), "report.diagram.md")
	require.NoError(t, WriteImpactDiagram(r, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(data)

	assert.Contains(t, body, "graph TD")
	assert.Contains(t, body, "pie title Risk grade distribution")
	assert.Contains(t, body, "graph LR")
}

func TestWriteImpactDiagram_EmptyResultFallsBackToPlaceholders(t *testing.T) {
	r := impact.Result{TargetName: "orders", AnalysisType: "table", Timestamp: "20260730-120000", ImpactTree: map[int][]impact.ImpactNode{}}
	path := filepath.Join(t.TempDir(), "empty.diagram.md")
	require.NoError(t, WriteImpactDiagram(r, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "_No impacted code._")
}

func TestWriteImpactXLSX_ProducesValidZipWithExpectedSheets(t *testing.T) {
	r := sampleResult()
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteImpactXLSX(r, path))

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["xl/workbook.xml"])
	assert.True(t, names["xl/worksheets/sheet1.xml"])
	assert.True(t, names["xl/worksheets/sheet4.xml"], "SQL Detail and Test Scope sheets should be present when data exists")
}

func TestWriteImpactXLSX_OmitsConditionalSheetsWhenNoData(t *testing.T) {
	r := sampleResult()
	r.SQLDetails = nil
	r.TestScope = nil
	path := filepath.Join(t.TempDir(), "report_no_conditional.xlsx")
	require.NoError(t, WriteImpactXLSX(r, path))

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["xl/worksheets/sheet3.xml"])
	assert.False(t, names["xl/worksheets/sheet4.xml"])
}
