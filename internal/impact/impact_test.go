package impact

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javagraph/javagraph/internal/graph"
	"github.com/javagraph/javagraph/internal/model"
)

func openTestStore(t *testing.T) *graph.Store {
	t.Helper()
	s, err := graph.Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedChain(t *testing.T, s *graph.Store) {
	t.Helper()
	for _, c := range []model.Class{
		{Name: "OrderController", Project: "demo", Package: "com.example.web"},
		{Name: "OrderService", Project: "demo", Package: "com.example.service"},
		{Name: "OrderMapper", Project: "demo", Package: "com.example.mapper"},
	} {
		require.NoError(t, s.AddClass(c))
	}
	require.NoError(t, s.AddMethod(model.Method{ClassName: "OrderController", Name: "getOrder", Project: "demo",
		Modifiers: []string{"public"}}))
	require.NoError(t, s.AddMethod(model.Method{ClassName: "OrderService", Name: "findOrder", Project: "demo",
		Modifiers: []string{"public"}}))
	require.NoError(t, s.AddMethod(model.Method{ClassName: "OrderMapper", Name: "findById", Project: "demo"}))

	require.NoError(t, s.AddCallEdge(model.CallEdge{
		SourceProject: "demo", SourceClass: "OrderController", SourceMethod: "getOrder",
		CallOrder: 0, TargetKind: model.TargetMethodKind, TargetClass: "OrderService",
		TargetMethod: "findOrder", TargetProject: "demo",
	}))
	require.NoError(t, s.AddCallEdge(model.CallEdge{
		SourceProject: "demo", SourceClass: "OrderService", SourceMethod: "findOrder",
		CallOrder: 0, TargetKind: model.TargetMethodKind, TargetClass: "OrderMapper",
		TargetMethod: "findById", TargetProject: "demo",
	}))
	require.NoError(t, s.AddSqlStatement(model.SqlStatement{
		ID: "findById", MapperName: "OrderMapper", Project: "demo", SQLType: model.SQLSelect,
		SQLContent: "select * from orders where id = #{id}", Complexity: 3,
		Tables: []model.TableRef{{Name: "orders"}},
	}))

	require.NoError(t, s.AddCallEdge(model.CallEdge{
		SourceProject: "demo", SourceClass: "OrderMapper", SourceMethod: "findById",
		CallOrder: 0, TargetKind: model.TargetSQL, TargetSQLID: "findById", TargetProject: "demo",
	}))
}

func TestAnalyzeTableImpact_BuildsTreeWithDirectAndTransitiveCallers(t *testing.T) {
	s := openTestStore(t)
	seedChain(t, s)

	result, err := AnalyzeTableImpact(s, "orders", "demo", 10)
	require.NoError(t, err)

	require.Contains(t, result.ImpactTree, 1)
	level1 := result.ImpactTree[1]
	require.Len(t, level1, 1)
	assert.Equal(t, "OrderMapper", level1[0].Class)
	assert.Equal(t, "findById", level1[0].SQLID)
	assert.NotEmpty(t, level1[0].RiskGrade)

	require.Contains(t, result.ImpactTree, 2)
	assert.Equal(t, "OrderService", result.ImpactTree[2][0].Class)

	require.Contains(t, result.ImpactTree, 3)
	assert.Equal(t, "OrderController", result.ImpactTree[3][0].Class)

	require.Len(t, result.SQLDetails, 1)
	assert.Equal(t, "OrderMapper", result.SQLDetails[0].MapperClass)
	assert.Equal(t, 3, result.SQLDetails[0].Complexity)

	assert.Equal(t, 3, result.Summary.TotalImpactedClasses)
}

func TestAnalyzeTableImpact_NoMatchingSQLReturnsEmptyResult(t *testing.T) {
	s := openTestStore(t)

	result, err := AnalyzeTableImpact(s, "nonexistent", "demo", 10)
	require.NoError(t, err)
	assert.Empty(t, result.ImpactTree)
	assert.False(t, result.HasCircularReference)
}

func TestAnalyzeMethodImpact_FindsTransitiveCallers(t *testing.T) {
	s := openTestStore(t)
	seedChain(t, s)

	result, err := AnalyzeMethodImpact(s, "OrderMapper", "findById", "demo", 10)
	require.NoError(t, err)

	require.Contains(t, result.ImpactTree, 2)
	assert.Equal(t, "OrderService", result.ImpactTree[2][0].Class)
	require.Contains(t, result.ImpactTree, 3)
	assert.Equal(t, "OrderController", result.ImpactTree[3][0].Class)

	// depth 0 (the target method itself) is never part of a method-impact tree
	for _, nodes := range result.ImpactTree {
		for _, n := range nodes {
			assert.NotEqual(t, "OrderMapper", n.Class)
		}
	}
}

func TestAnalyzeMethodImpact_NoMethodNameUsesPublicMethods(t *testing.T) {
	s := openTestStore(t)
	seedChain(t, s)

	result, err := AnalyzeMethodImpact(s, "OrderService", "", "demo", 10)
	require.NoError(t, err)
	require.Contains(t, result.ImpactTree, 2)
	assert.Equal(t, "OrderController", result.ImpactTree[2][0].Class)
}

func TestAnalyzeMethodImpact_UnknownTargetReturnsEmptyResult(t *testing.T) {
	s := openTestStore(t)

	result, err := AnalyzeMethodImpact(s, "Ghost", "vanish", "demo", 10)
	require.NoError(t, err)
	assert.Empty(t, result.ImpactTree)
	assert.Equal(t, "Ghost.vanish", result.Summary.TargetName)
}

func TestCalculateRiskGrade_WeighsAllFourComponents(t *testing.T) {
	assert.Equal(t, "LOW", calculateRiskGrade(0, 0, 1, ""))
	assert.Equal(t, "HIGH", calculateRiskGrade(15, 5, 60, "DELETE"))
	assert.Equal(t, "MEDIUM", calculateRiskGrade(6, 1, 15, "SELECT"))
}

func TestDetectCircularReferences_FindsSelfReferencingCycle(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.AddClass(model.Class{Name: "A", Project: "demo"}))
	require.NoError(t, s.AddClass(model.Class{Name: "B", Project: "demo"}))
	require.NoError(t, s.AddMethod(model.Method{ClassName: "A", Name: "one", Project: "demo"}))
	require.NoError(t, s.AddMethod(model.Method{ClassName: "B", Name: "two", Project: "demo"}))
	require.NoError(t, s.AddCallEdge(model.CallEdge{
		SourceProject: "demo", SourceClass: "A", SourceMethod: "one",
		CallOrder: 0, TargetKind: model.TargetMethodKind, TargetClass: "B", TargetMethod: "two", TargetProject: "demo",
	}))
	require.NoError(t, s.AddCallEdge(model.CallEdge{
		SourceProject: "demo", SourceClass: "B", SourceMethod: "two",
		CallOrder: 0, TargetKind: model.TargetMethodKind, TargetClass: "A", TargetMethod: "one", TargetProject: "demo",
	}))

	found, paths, err := detectCircularReferences(s, []string{"A", "B"}, "demo", 10)
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotEmpty(t, paths)
}

func TestIdentifyTestScope_ReportsPresentAndMissingTestClasses(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.AddClass(model.Class{Name: "OrderService", Project: "demo"}))
	require.NoError(t, s.AddClass(model.Class{Name: "OrderServiceTest", Project: "demo"}))
	require.NoError(t, s.AddMethod(model.Method{ClassName: "OrderServiceTest", Name: "testFindOrder", Project: "demo"}))

	items := identifyTestScope(s, []string{"OrderService", "Untested"}, "demo")
	require.Len(t, items, 2)
	assert.Equal(t, "OrderServiceTest", items[0].TestClass)
	assert.True(t, items[0].Exists)
	assert.Equal(t, 1, items[0].TestMethodCount)
	assert.False(t, items[1].Exists)
}
