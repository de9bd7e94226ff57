// Package assemble implements the C5 entity assembler: Spring-bean
// classification, dependency wiring, endpoint extraction, MyBatis
// interface-mapper synthesis, and SQL/table wiring, run after C2/C3 have
// produced their raw Class/Method/Field/Mapper/SqlStatement entities.
package assemble

import (
	"strings"
	"unicode"

	"github.com/javagraph/javagraph/internal/extract/sql"
	"github.com/javagraph/javagraph/internal/model"
)

// Result is everything C5 derives from one project's C2/C3 output.
type Result struct {
	Beans        []model.Bean
	Dependencies []model.DependsOnEdge
	Endpoints    []model.Endpoint
	Mappers      []model.Mapper
	Statements   []model.SqlStatement
}

// Assemble runs the full C5 pass over one project's classes, methods and
// fields (all already scoped to `project`).
func Assemble(project string, classes []model.Class, methods []model.Method, fields []model.Field) Result {
	methodsByClass := groupMethods(methods)
	fieldsByClass := groupFields(fields)

	beans := extractBeans(project, classes, methodsByClass, fieldsByClass)
	deps := analyzeBeanDependencies(project, classes, beans, methodsByClass, fieldsByClass)
	endpoints := extractEndpoints(project, classes, methodsByClass)
	mappers, stmts := extractInterfaceMappers(project, classes, methodsByClass)

	return Result{
		Beans:        beans,
		Dependencies: deps,
		Endpoints:    endpoints,
		Mappers:      mappers,
		Statements:   stmts,
	}
}

// WireSQLTables runs the C1 mini-parser over every statement's SQL text
// and populates its Tables/Columns/Complexity/Analysis properties — the
// "SQL↔tables wiring" step of C5. Statements with no SQL text (interface
// mappers whose body lives in an external XML file that wasn't found)
// are left untouched.
func WireSQLTables(stmts []model.SqlStatement) []model.SqlStatement {
	out := make([]model.SqlStatement, len(stmts))
	for i, s := range stmts {
		if strings.TrimSpace(s.SQLContent) == "" {
			out[i] = s
			continue
		}
		analysis := sql.Parse(s.SQLContent, s.SQLType)
		s.Analysis = analysis
		s.Tables = analysis.Tables
		s.Columns = analysis.Columns
		s.Complexity = analysis.ComplexityScore
		out[i] = s
	}
	return out
}

func groupMethods(methods []model.Method) map[string][]model.Method {
	m := make(map[string][]model.Method)
	for _, mm := range methods {
		m[mm.ClassName] = append(m[mm.ClassName], mm)
	}
	return m
}

func groupFields(fields []model.Field) map[string][]model.Field {
	m := make(map[string][]model.Field)
	for _, f := range fields {
		m[f.ClassName] = append(m[f.ClassName], f)
	}
	return m
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// extractBeans: a class with any component-category annotation OR an
// explicit @Repository becomes a Bean (spec.md §4.1).
func extractBeans(project string, classes []model.Class, methodsByClass map[string][]model.Method, fieldsByClass map[string][]model.Field) []model.Bean {
	var beans []model.Bean
	for _, cls := range classes {
		hasComponent := false
		hasRepository := false
		for _, ann := range cls.Annotation {
			if ann.Category == "component" {
				hasComponent = true
			}
			if ann.Name == "Repository" {
				hasRepository = true
			}
		}
		if !hasComponent && !hasRepository {
			continue
		}

		beanType := model.BeanComponent
		switch {
		case hasAnnotationName(cls.Annotation, "Service"):
			beanType = model.BeanService
		case hasAnnotationName(cls.Annotation, "Repository"):
			beanType = model.BeanRepository
		case hasAnnotationName(cls.Annotation, "Controller") || hasAnnotationName(cls.Annotation, "RestController"):
			beanType = model.BeanController
		case hasAnnotationName(cls.Annotation, "Configuration"):
			beanType = model.BeanConfiguration
		}

		scope := "singleton"
		for _, ann := range cls.Annotation {
			if ann.Name != "Scope" {
				continue
			}
			if v, ok := ann.Args["value"]; ok {
				scope = v
			}
		}

		beans = append(beans, model.Bean{
			Name:      lowerFirst(cls.Name),
			Project:   project,
			Type:      beanType,
			Scope:     scope,
			ClassName: cls.Name,
		})
	}
	return beans
}

func hasAnnotationName(anns []model.Annotation, name string) bool {
	for _, a := range anns {
		if a.Name == name {
			return true
		}
	}
	return false
}

func annotationsByCategory(anns []model.Annotation, category string) []model.Annotation {
	var out []model.Annotation
	for _, a := range anns {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

// analyzeBeanDependencies walks field, constructor-parameter and
// single-parameter-setter injection sites, producing one DEPENDS_ON edge
// per resolved injection (spec.md §4.1).
func analyzeBeanDependencies(project string, classes []model.Class, beans []model.Bean, methodsByClass map[string][]model.Method, fieldsByClass map[string][]model.Field) []model.DependsOnEdge {
	classToBean := make(map[string]string, len(beans))
	beanClasses := make(map[string]bool, len(beans))
	for _, b := range beans {
		classToBean[b.ClassName] = b.Name
		beanClasses[b.ClassName] = true
	}

	resolve := func(typeName string) (string, bool) {
		name, ok := classToBean[typeName]
		return name, ok
	}

	var deps []model.DependsOnEdge
	for _, cls := range classes {
		sourceBean, ok := classToBean[cls.Name]
		if !ok {
			continue
		}

		for _, f := range fieldsByClass[cls.Name] {
			if len(annotationsByCategory(f.Annotation, "injection")) == 0 {
				continue
			}
			if target, ok := resolve(f.Type); ok {
				deps = append(deps, model.DependsOnEdge{
					Project: project, SourceBean: sourceBean, TargetBean: target,
					InjectionType: model.InjectionField, FieldName: f.Name,
				})
			}
		}

		for _, m := range methodsByClass[cls.Name] {
			if m.Name == cls.Name {
				for _, p := range m.Parameters {
					if target, ok := resolve(p.Type); ok {
						deps = append(deps, model.DependsOnEdge{
							Project: project, SourceBean: sourceBean, TargetBean: target,
							InjectionType: model.InjectionConstructor, ParameterName: p.Name,
						})
					}
				}
				continue
			}
			if strings.HasPrefix(m.Name, "set") && len(m.Parameters) == 1 && len(annotationsByCategory(m.Annotation, "injection")) > 0 {
				p := m.Parameters[0]
				if target, ok := resolve(p.Type); ok {
					deps = append(deps, model.DependsOnEdge{
						Project: project, SourceBean: sourceBean, TargetBean: target,
						InjectionType: model.InjectionSetter, MethodName: m.Name, ParameterName: p.Name,
					})
				}
			}
		}
	}
	return deps
}

var httpMethodByAnnotation = map[string]string{
	"GetMapping": "GET", "PostMapping": "POST", "PutMapping": "PUT",
	"DeleteMapping": "DELETE", "PatchMapping": "PATCH",
}

// extractEndpoints derives one Endpoint per web-annotated method on a
// @Controller/@RestController class (spec.md §4.1).
func extractEndpoints(project string, classes []model.Class, methodsByClass map[string][]model.Method) []model.Endpoint {
	var endpoints []model.Endpoint
	for _, cls := range classes {
		if !hasAnnotationName(cls.Annotation, "Controller") && !hasAnnotationName(cls.Annotation, "RestController") {
			continue
		}

		classPath := ""
		if ann, ok := findAnnotationIn(cls.Annotation, "RequestMapping"); ok {
			classPath = ann.Args["value"]
		}

		for _, m := range methodsByClass[cls.Name] {
			if m.Name == cls.Name {
				continue // constructor
			}
			webAnns := annotationsByCategory(m.Annotation, "web")
			if len(webAnns) == 0 {
				continue
			}

			endpointPath := ""
			httpMethod := "GET"
			for _, ann := range webAnns {
				switch ann.Name {
				case "RequestMapping", "GetMapping", "PostMapping", "PutMapping", "DeleteMapping", "PatchMapping":
					if v, ok := ann.Args["value"]; ok {
						endpointPath = v
					} else if v, ok := ann.Args["path"]; ok {
						endpointPath = v
					}
					if verb, ok := httpMethodByAnnotation[ann.Name]; ok {
						httpMethod = verb
					} else if ann.Name == "RequestMapping" {
						if v, ok := ann.Args["method"]; ok {
							httpMethod = v
						} else {
							httpMethod = "GET"
						}
					}
				}
			}

			fullPath := joinPath(classPath, endpointPath)
			endpoints = append(endpoints, model.Endpoint{
				Path: fallback(endpointPath, "/"), HTTPMethod: httpMethod,
				Project: project, ControllerClass: cls.Name, HandlerMethod: m.Name,
				FullPath: fullPath, Parameters: m.Parameters,
			})
		}
	}
	return endpoints
}

func findAnnotationIn(anns []model.Annotation, name string) (model.Annotation, bool) {
	for _, a := range anns {
		if a.Name == name {
			return a, true
		}
	}
	return model.Annotation{}, false
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// joinPath mirrors spec.md's full_path = class_path + method_path slash
// normalization: insert exactly one "/" between the two segments.
func joinPath(classPath, methodPath string) string {
	if methodPath == "" {
		if classPath == "" {
			return "/"
		}
		return classPath
	}
	if classPath == "" {
		return methodPath
	}
	if !strings.HasSuffix(classPath, "/") && !strings.HasPrefix(methodPath, "/") {
		return classPath + "/" + methodPath
	}
	if strings.HasSuffix(classPath, "/") && strings.HasPrefix(methodPath, "/") {
		return classPath + strings.TrimPrefix(methodPath, "/")
	}
	return classPath + methodPath
}

var sqlTypeByAnnotation = map[string]model.SQLType{
	"Select": model.SQLSelect, "Insert": model.SQLInsert,
	"Update": model.SQLUpdate, "Delete": model.SQLDelete,
}

var sqlTypeByNamePrefix = []struct {
	prefixes []string
	sqlType  model.SQLType
}{
	{[]string{"find", "get", "select", "search", "list", "count", "exists"}, model.SQLSelect},
	{[]string{"save", "insert", "create", "add"}, model.SQLInsert},
	{[]string{"update", "modify", "change"}, model.SQLUpdate},
	{[]string{"delete", "remove"}, model.SQLDelete},
}

// extractInterfaceMappers turns @Mapper-annotated interfaces into
// `interface`-typed Mapper nodes, and each declared method into a
// SqlStatement whose sql_type is inferred from a @Select/@Insert/@Update/
// @Delete annotation or, failing that, a method-name heuristic.
func extractInterfaceMappers(project string, classes []model.Class, methodsByClass map[string][]model.Method) ([]model.Mapper, []model.SqlStatement) {
	var mappers []model.Mapper
	var stmts []model.SqlStatement

	for _, cls := range classes {
		if cls.Type != model.ClassTypeInterface || !hasAnnotationName(cls.Annotation, "Mapper") {
			continue
		}
		mappers = append(mappers, model.Mapper{
			Name: cls.Name, Project: project, Type: model.MapperInterface,
			Namespace: cls.Package + "." + cls.Name, FilePath: cls.FilePath,
		})

		for _, m := range methodsByClass[cls.Name] {
			sqlType, sqlContent := model.SQLSelect, ""
			inferred := false
			for name, t := range sqlTypeByAnnotation {
				if ann, ok := findAnnotationIn(m.Annotation, name); ok {
					sqlType, inferred = t, true
					sqlContent = ann.Args["value"]
				}
			}
			if !inferred {
				sqlType = inferSQLTypeFromName(m.Name)
			}
			stmts = append(stmts, model.SqlStatement{
				ID: m.Name, MapperName: cls.Name, Project: project,
				SQLType: sqlType, SQLContent: sqlContent, ResultType: m.ReturnType,
			})
		}
	}
	return mappers, stmts
}

func inferSQLTypeFromName(name string) model.SQLType {
	lower := strings.ToLower(name)
	for _, rule := range sqlTypeByNamePrefix {
		for _, prefix := range rule.prefixes {
			if strings.HasPrefix(lower, prefix) {
				return rule.sqlType
			}
		}
	}
	return model.SQLSelect
}
