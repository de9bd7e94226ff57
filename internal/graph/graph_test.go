package graph

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javagraph/javagraph/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesSchemaAndIsReopenable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.AddPackage(model.Package{Name: "com.example", Project: "demo"}))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	counts, err := s2.Counts()
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts["packages"])
}

func TestAddClass_MergesSuperclassAndInterfaceStubs(t *testing.T) {
	s := openTestStore(t)

	err := s.AddClass(model.Class{
		Name: "OrderServiceImpl", Project: "demo", Type: model.ClassTypeClass,
		Superclass: "AbstractService", Interfaces: []string{"OrderService", "Auditable"},
	})
	require.NoError(t, err)

	counts, err := s.Counts()
	require.NoError(t, err)
	assert.EqualValues(t, 4, counts["classes"]) // real class + 3 stubs

	var stub int
	require.NoError(t, s.db.QueryRow(`SELECT stub FROM classes WHERE name = ? AND project = ?`, "AbstractService", "demo").Scan(&stub))
	assert.Equal(t, 1, stub)

	require.NoError(t, s.db.QueryRow(`SELECT stub FROM classes WHERE name = ? AND project = ?`, "OrderServiceImpl", "demo").Scan(&stub))
	assert.Equal(t, 0, stub)
}

func TestAddClass_ReplacingStubWithRealRowClearsStubFlag(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AddClass(model.Class{
		Name: "OrderServiceImpl", Project: "demo", Superclass: "AbstractService",
	}))
	require.NoError(t, s.AddClass(model.Class{Name: "AbstractService", Project: "demo", Type: model.ClassTypeClass}))

	var stub int
	require.NoError(t, s.db.QueryRow(`SELECT stub FROM classes WHERE name = ? AND project = ?`, "AbstractService", "demo").Scan(&stub))
	assert.Equal(t, 0, stub)
}

func TestAddCallEdge_MergesTargetMethodStub(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AddClass(model.Class{Name: "OrderController", Project: "demo"}))
	require.NoError(t, s.AddMethod(model.Method{ClassName: "OrderController", Name: "getOrder", Project: "demo"}))

	err := s.AddCallEdge(model.CallEdge{
		SourceProject: "demo", SourceClass: "OrderController", SourceMethod: "getOrder",
		CallOrder: 0, TargetKind: model.TargetMethodKind,
		TargetClass: "OrderService", TargetMethod: "findById", TargetProject: "demo",
	})
	require.NoError(t, err)

	var stub int
	require.NoError(t, s.db.QueryRow(`SELECT stub FROM methods WHERE class_name = ? AND name = ? AND project = ?`,
		"OrderService", "findById", "demo").Scan(&stub))
	assert.Equal(t, 1, stub)

	counts, err := s.Counts()
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts["call_edges"])
}

func TestAddCallEdge_ExternalEdgeSkipsStubMerge(t *testing.T) {
	s := openTestStore(t)

	err := s.AddCallEdge(model.CallEdge{
		SourceProject: "demo", SourceClass: "OrderController", SourceMethod: "getOrder",
		CallOrder: 0, TargetKind: model.TargetMethodKind,
		TargetClass: "PrintStream", TargetMethod: "println", TargetProject: "",
	})
	require.NoError(t, err)

	counts, err := s.Counts()
	require.NoError(t, err)
	assert.EqualValues(t, 0, counts["classes"])
	assert.EqualValues(t, 0, counts["methods"])
	assert.EqualValues(t, 1, counts["call_edges"])
}

func TestLinkMapperStatements_MaterializesJunctionRows(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AddMapper(model.Mapper{Name: "OrderMapper", Project: "demo", Type: model.MapperInterface}))
	require.NoError(t, s.AddSqlStatement(model.SqlStatement{ID: "findById", MapperName: "OrderMapper", Project: "demo", SQLType: model.SQLSelect}))
	require.NoError(t, s.AddSqlStatement(model.SqlStatement{ID: "save", MapperName: "OrderMapper", Project: "demo", SQLType: model.SQLInsert}))

	n, err := s.LinkMapperStatements("demo")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLinkMethodSQLCalls_AddsCallEdgeForMatchingMethodName(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AddMethod(model.Method{ClassName: "OrderMapper", Name: "findById", Project: "demo"}))
	require.NoError(t, s.AddSqlStatement(model.SqlStatement{ID: "findById", MapperName: "OrderMapper", Project: "demo", SQLType: model.SQLSelect}))

	n, err := s.LinkMethodSQLCalls("demo")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	counts, err := s.Counts()
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts["call_edges"])
}

func TestDeleteClassAndRelated_CascadesToDerivedNodesButNotReferencingEdges(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AddClass(model.Class{Name: "OrderService", Project: "demo"}))
	require.NoError(t, s.AddMethod(model.Method{ClassName: "OrderService", Name: "findById", Project: "demo"}))
	require.NoError(t, s.AddField(model.Field{ClassName: "OrderService", Name: "repo", Project: "demo"}))
	require.NoError(t, s.AddBean(model.Bean{Name: "orderService", Project: "demo", ClassName: "OrderService", Type: model.BeanService}))
	require.NoError(t, s.AddCallEdge(model.CallEdge{
		SourceProject: "demo", SourceClass: "OrderController", SourceMethod: "getOrder",
		CallOrder: 0, TargetKind: model.TargetMethodKind, TargetClass: "OrderService",
		TargetMethod: "findById", TargetProject: "demo",
	}))

	require.NoError(t, s.DeleteClassAndRelated("OrderService", "demo"))

	counts, err := s.Counts()
	require.NoError(t, err)
	assert.EqualValues(t, 0, counts["methods"])
	assert.EqualValues(t, 0, counts["fields"])
	assert.EqualValues(t, 0, counts["beans"])
	// the CALLS edge from OrderController belongs to the referencing side
	// and is untouched by I7.
	assert.EqualValues(t, 1, counts["call_edges"])
}

func TestClean_HonorsJavaAndDBObjectFlags(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AddClass(model.Class{Name: "OrderService", Project: "demo"}))
	require.NoError(t, s.AddTable(model.Table{Name: "orders"}))

	require.NoError(t, s.Clean(true, false))
	counts, err := s.Counts()
	require.NoError(t, err)
	assert.EqualValues(t, 0, counts["classes"])
	assert.EqualValues(t, 1, counts["db_tables"])

	require.NoError(t, s.Clean(false, true))
	counts, err = s.Counts()
	require.NoError(t, err)
	assert.EqualValues(t, 0, counts["db_tables"])
}

func TestClean_BothFlagsFalseWipesEverything(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AddClass(model.Class{Name: "OrderService", Project: "demo"}))
	require.NoError(t, s.AddTable(model.Table{Name: "orders"}))

	require.NoError(t, s.Clean(false, false))
	counts, err := s.Counts()
	require.NoError(t, err)
	assert.EqualValues(t, 0, counts["classes"])
	assert.EqualValues(t, 0, counts["db_tables"])
}
