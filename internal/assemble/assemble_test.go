package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javagraph/javagraph/internal/model"
)

func ann(name, category string, args map[string]string) model.Annotation {
	return model.Annotation{Name: name, Category: category, Args: args}
}

func TestAssemble_BeanClassificationAndScope(t *testing.T) {
	classes := []model.Class{
		{Name: "OrderService", Annotation: []model.Annotation{ann("Service", "component", nil)}},
		{Name: "OrderRepository", Annotation: []model.Annotation{ann("Repository", "component", nil)}},
		{Name: "OrderController", Annotation: []model.Annotation{ann("RestController", "component", nil)}},
		{Name: "AppConfig", Annotation: []model.Annotation{
			ann("Configuration", "component", nil),
			ann("Scope", "other", map[string]string{"value": "prototype"}),
		}},
		{Name: "PlainPojo"},
	}

	r := Assemble("demo", classes, nil, nil)
	require.Len(t, r.Beans, 4)

	byClass := make(map[string]model.Bean)
	for _, b := range r.Beans {
		byClass[b.ClassName] = b
	}

	assert.Equal(t, model.BeanService, byClass["OrderService"].Type)
	assert.Equal(t, "orderService", byClass["OrderService"].Name)
	assert.Equal(t, "singleton", byClass["OrderService"].Scope)

	assert.Equal(t, model.BeanRepository, byClass["OrderRepository"].Type)
	assert.Equal(t, model.BeanController, byClass["OrderController"].Type)
	assert.Equal(t, model.BeanConfiguration, byClass["AppConfig"].Type)
	assert.Equal(t, "prototype", byClass["AppConfig"].Scope)

	_, isPojoBean := byClass["PlainPojo"]
	assert.False(t, isPojoBean)
}

func TestAssemble_FieldInjectionDependency(t *testing.T) {
	classes := []model.Class{
		{Name: "OrderController", Annotation: []model.Annotation{ann("RestController", "component", nil)}},
		{Name: "OrderService", Annotation: []model.Annotation{ann("Service", "component", nil)}},
	}
	fields := []model.Field{
		{ClassName: "OrderController", Name: "orderService", Type: "OrderService",
			Annotation: []model.Annotation{ann("Autowired", "injection", nil)}},
	}

	r := Assemble("demo", classes, nil, fields)
	require.Len(t, r.Dependencies, 1)
	dep := r.Dependencies[0]
	assert.Equal(t, "orderController", dep.SourceBean)
	assert.Equal(t, "orderService", dep.TargetBean)
	assert.Equal(t, model.InjectionField, dep.InjectionType)
	assert.Equal(t, "orderService", dep.FieldName)
}

func TestAssemble_ConstructorInjectionDependency(t *testing.T) {
	classes := []model.Class{
		{Name: "OrderController", Annotation: []model.Annotation{ann("RestController", "component", nil)}},
		{Name: "OrderService", Annotation: []model.Annotation{ann("Service", "component", nil)}},
	}
	methods := []model.Method{
		{ClassName: "OrderController", Name: "OrderController",
			Parameters: []model.Parameter{{Name: "svc", Type: "OrderService"}},
			Annotation: []model.Annotation{ann("Autowired", "injection", nil)}},
	}

	r := Assemble("demo", classes, methods, nil)
	require.Len(t, r.Dependencies, 1)
	assert.Equal(t, model.InjectionConstructor, r.Dependencies[0].InjectionType)
	assert.Equal(t, "svc", r.Dependencies[0].ParameterName)
}

func TestAssemble_EndpointPathJoiningAndVerb(t *testing.T) {
	classes := []model.Class{
		{Name: "OrderController", Annotation: []model.Annotation{
			ann("RestController", "component", nil),
			ann("RequestMapping", "web", map[string]string{"value": "/api/orders"}),
		}},
	}
	methods := []model.Method{
		{ClassName: "OrderController", Name: "getOrder",
			Annotation: []model.Annotation{ann("GetMapping", "web", map[string]string{"value": "/{id}"})}},
		{ClassName: "OrderController", Name: "listOrders",
			Annotation: []model.Annotation{ann("GetMapping", "web", nil)}},
	}

	r := Assemble("demo", classes, methods, nil)
	require.Len(t, r.Endpoints, 2)

	byMethod := make(map[string]model.Endpoint)
	for _, e := range r.Endpoints {
		byMethod[e.HandlerMethod] = e
	}
	assert.Equal(t, "/api/orders/{id}", byMethod["getOrder"].FullPath)
	assert.Equal(t, "GET", byMethod["getOrder"].HTTPMethod)
	assert.Equal(t, "/api/orders", byMethod["listOrders"].FullPath)
}

func TestAssemble_InterfaceMapperSQLTypeInference(t *testing.T) {
	classes := []model.Class{
		{Name: "OrderMapper", Type: model.ClassTypeInterface, Package: "com.example.orders",
			Annotation: []model.Annotation{ann("Mapper", "mybatis", nil)}},
	}
	methods := []model.Method{
		{ClassName: "OrderMapper", Name: "findById"},
		{ClassName: "OrderMapper", Name: "saveOrder"},
		{ClassName: "OrderMapper", Name: "updateStatus"},
		{ClassName: "OrderMapper", Name: "deleteById"},
		{ClassName: "OrderMapper", Name: "select",
			Annotation: []model.Annotation{ann("Select", "mybatis", map[string]string{"value": "SELECT 1"})}},
	}

	r := Assemble("demo", classes, methods, nil)
	require.Len(t, r.Mappers, 1)
	assert.Equal(t, model.MapperInterface, r.Mappers[0].Type)

	byID := make(map[string]model.SqlStatement)
	for _, s := range r.Statements {
		byID[s.ID] = s
	}
	assert.Equal(t, model.SQLSelect, byID["findById"].SQLType)
	assert.Equal(t, model.SQLInsert, byID["saveOrder"].SQLType)
	assert.Equal(t, model.SQLUpdate, byID["updateStatus"].SQLType)
	assert.Equal(t, model.SQLDelete, byID["deleteById"].SQLType)
	assert.Equal(t, model.SQLSelect, byID["select"].SQLType)
	assert.Equal(t, "SELECT 1", byID["select"].SQLContent)
}

func TestWireSQLTables_PopulatesTablesAndComplexity(t *testing.T) {
	stmts := []model.SqlStatement{
		{ID: "findById", MapperName: "OrderMapper", SQLType: model.SQLSelect,
			SQLContent: "SELECT id, status FROM orders WHERE id = #{id}"},
		{ID: "noBody", MapperName: "OrderMapper", SQLType: model.SQLSelect},
	}

	out := WireSQLTables(stmts)
	require.Len(t, out, 2)
	require.Len(t, out[0].Tables, 1)
	assert.Equal(t, "orders", out[0].Tables[0].Name)
	assert.Greater(t, out[0].Complexity, 0)

	assert.Empty(t, out[1].Tables)
}
