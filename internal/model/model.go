// Package model defines the node and edge kinds of the labeled property
// graph described in spec.md §3: classes, methods, fields, beans,
// endpoints, MyBatis mappers, SQL statements, and the DDL-derived
// database/table/column/index/constraint family, plus the edges that
// connect them.
package model

import "time"

// Visibility mirrors the access modifier of a Java member.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
	VisibilityPackage   Visibility = "package"
)

// ClassType distinguishes a Class node's declaration kind.
type ClassType string

const (
	ClassTypeClass     ClassType = "class"
	ClassTypeInterface ClassType = "interface"
	ClassTypeEnum      ClassType = "enum"
)

// BeanType is the Spring stereotype a Bean node was classified under.
type BeanType string

const (
	BeanComponent     BeanType = "component"
	BeanService       BeanType = "service"
	BeanRepository    BeanType = "repository"
	BeanController    BeanType = "controller"
	BeanConfiguration BeanType = "configuration"
)

// SQLType is the CRUD classification of a SqlStatement (I5).
type SQLType string

const (
	SQLSelect SQLType = "SELECT"
	SQLInsert SQLType = "INSERT"
	SQLUpdate SQLType = "UPDATE"
	SQLDelete SQLType = "DELETE"
)

// InjectionType is the dependency-injection mechanism of a DEPENDS_ON edge.
type InjectionType string

const (
	InjectionField       InjectionType = "field"
	InjectionConstructor InjectionType = "constructor"
	InjectionSetter      InjectionType = "setter"
)

// MapperType distinguishes an interface-based MyBatis mapper from an
// XML-based one.
type MapperType string

const (
	MapperInterface MapperType = "interface"
	MapperXML       MapperType = "xml"
)

// Annotation is a parsed Java annotation usage, category-tagged per the
// taxonomy in spec.md §9.
type Annotation struct {
	Name     string            // e.g. "RequestMapping"
	Category string            // component, injection, web, jpa, test, security, validation, mybatis, other
	Args     map[string]string // simple key=value attribute pairs, best effort
}

// Package is a Java package scoping node, created once per project.
type Package struct {
	Name    string
	Project string
}

// Class is the §3 Class node. Identity: (Name, Project).
type Class struct {
	Name       string
	Project    string
	FilePath   string
	Type       ClassType
	Package    string
	Superclass string
	Interfaces []string
	Imports    []string
	Source     string
	Annotation []Annotation
	// AIDescription is the enrichment text written by internal/ai,
	// empty until enrichment has run for this class.
	AIDescription string
	UpdatedAt     time.Time
}

// Parameter describes one method/constructor parameter.
type Parameter struct {
	Name string
	Type string
}

// Method is the §3 Method node. Identity: (ClassName, Name, Project).
type Method struct {
	ClassName  string
	Name       string
	Project    string
	ReturnType string
	Parameters []Parameter
	Modifiers  []string
	Annotation []Annotation
	Source     string
	// LombokSynthesized marks a Method node manufactured from a @Data
	// annotation (getters/setters/equals/hashCode/toString) rather than
	// parsed from real source text.
	LombokSynthesized bool
	AIDescription     string
	UpdatedAt         time.Time
}

// Field is the §3 Field node. Identity: (ClassName, Name, Project).
type Field struct {
	ClassName    string
	Name         string
	Project      string
	Type         string
	Modifiers    []string
	Annotation   []Annotation
	InitialValue string
	UpdatedAt    time.Time
}

// Bean is the §3 Bean node, derived by C5. Identity: (Name, Project).
type Bean struct {
	Name      string
	Project   string
	Type      BeanType
	Scope     string
	ClassName string
	UpdatedAt time.Time
}

// Endpoint is the §3 Endpoint node, derived by C5. Identity: (Path, Method, Project).
type Endpoint struct {
	Path            string
	HTTPMethod      string
	Project         string
	ControllerClass string
	HandlerMethod   string
	FullPath        string
	Parameters      []Parameter
	UpdatedAt       time.Time
}

// Mapper is the §3 MyBatisMapper node. Identity: (Name, Project).
type Mapper struct {
	Name      string
	Project   string
	Type      MapperType
	Namespace string
	FilePath  string
	UpdatedAt time.Time
}

// TableRef is one element of a SqlStatement's `tables` property (I5).
// It round-trips through three storage encodings (native list, JSON
// string, bracketed string) per P3 — callers of Tables()/SetTables()
// never need to know which encoding the store used.
type TableRef struct {
	Name   string `json:"name"`
	Alias  string `json:"alias,omitempty"`
	Schema string `json:"schema,omitempty"`
}

// ColumnRef is a column reference extracted from SQL text.
type ColumnRef struct {
	Name  string `json:"name"`
	Table string `json:"table,omitempty"`
	Alias string `json:"alias,omitempty"`
}

// SQLAnalysis is the structured output of the C1 mini-parser.
type SQLAnalysis struct {
	Tables           []TableRef
	Columns          []ColumnRef
	Joins            []JoinClause
	WhereConditions  []string
	OrderBy          []string
	GroupBy          []string
	Having           []string
	Subqueries       []string
	Parameters       []SQLParameter
	ComplexityScore  int
	ComplexityBucket string // simple, medium, complex, very_complex
}

// JoinClause is one parsed JOIN.
type JoinClause struct {
	Type      string // INNER, LEFT, RIGHT, FULL
	Table     string
	Condition string
}

// ParamKind distinguishes a simple MyBatis binding from a nested property
// access (#{obj.prop}).
type ParamKind string

const (
	ParamSimple ParamKind = "simple"
	ParamNested ParamKind = "nested"
)

// SQLParameter is a MyBatis #{} / ${} binding found in SQL text.
type SQLParameter struct {
	Name string
	Kind ParamKind
}

// SqlStatement is the §3 SqlStatement node. Identity: (ID, MapperName, Project).
type SqlStatement struct {
	ID            string
	MapperName    string
	Project       string
	SQLType       SQLType
	SQLContent    string
	ParameterType string
	ResultType    string
	ResultMap     string
	Tables        []TableRef
	Columns       []ColumnRef
	Complexity    int
	Analysis      SQLAnalysis
	AIDescription string
	UpdatedAt     time.Time
}

// Database is the §3 Database node, created once per DDL script set.
type Database struct {
	Name        string
	Version     string
	Environment string
	UpdatedAt   time.Time
}

// Table is the §3 Table node: project-agnostic, shared (I6). Identity: Name.
type Table struct {
	Name      string
	Schema    string
	Comment   string
	UpdatedAt time.Time
}

// Column is the §3 Column node. Identity: (Name, TableName).
type Column struct {
	Name         string
	TableName    string
	DataType     string
	Nullable     bool
	Unique       bool
	PrimaryKey   bool
	DefaultValue string
	Constraints  []string
	UpdatedAt    time.Time
}

// Index is the §3 Index node. Identity: (Name, TableName).
type Index struct {
	Name      string
	TableName string
	Type      string // e.g. "UNIQUE", "BTREE"
	Columns   []string
	UpdatedAt time.Time
}

// Constraint is the §3 Constraint node. Identity: (Name, TableName).
type Constraint struct {
	Name       string
	TableName  string
	Type       string // PRIMARY_KEY, FOREIGN_KEY, UNIQUE, CHECK, NOT_NULL
	Definition string
	UpdatedAt  time.Time
}

// CallEdge is a CALLS edge, Method→Method or Method→SqlStatement (I3, I4).
type CallEdge struct {
	SourceProject string
	SourceClass   string
	SourceMethod  string
	// TargetKind distinguishes a method callee from a SQL-statement callee.
	TargetKind   TargetKind
	TargetClass  string // empty when TargetKind == TargetSQL
	TargetMethod string
	TargetSQLID  string // set when TargetKind == TargetSQL
	// TargetProject is empty for an external/unresolved callee (I4).
	TargetProject string
	TargetPackage string
	CallOrder     int
	LineNumber    int
	ReturnType    string
}

// TargetKind distinguishes what a CALLS edge points at.
type TargetKind string

const (
	TargetMethodKind TargetKind = "method"
	TargetSQL        TargetKind = "sql"
)

// IsExternal reports whether the edge's target is outside any known
// project scope (I4): diagram rendering keeps it as a leaf, impact
// traversal excludes it.
func (e CallEdge) IsExternal() bool {
	return e.TargetProject == ""
}

// DependsOnEdge is a Bean→Bean DI edge.
type DependsOnEdge struct {
	Project       string
	SourceBean    string
	TargetBean    string
	InjectionType InjectionType
	FieldName     string
	MethodName    string
	ParameterName string
}
