// Package graph implements C6: an embedded, SQLite-backed labeled
// property graph. Every add_X operation is a single transaction that
// upserts the node by its natural key and merges its structural/auxiliary
// edges, matching spec.md §4.2's MERGE-by-natural-key lifecycle.
package graph

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/javagraph/javagraph/internal/errs"
	"github.com/javagraph/javagraph/internal/logging"
	"github.com/javagraph/javagraph/internal/model"
)

// Store is the embedded property-graph backing store.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// Open creates (if needed) and opens the graph database at path.
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryGraph, "Open")
	defer timer.Stop()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &errs.IOError{Op: "mkdir", Path: dir, Wrapped: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &errs.IOError{Op: "open", Path: path, Wrapped: err}
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.Get(logging.CategoryGraph).Warn("failed to set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.Get(logging.CategoryGraph).Warn("failed to set journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logging.Get(logging.CategoryGraph).Warn("failed to enable foreign_keys: %v", err)
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS packages (
			name TEXT NOT NULL, project TEXT NOT NULL,
			PRIMARY KEY (name, project)
		)`,
		`CREATE TABLE IF NOT EXISTS classes (
			name TEXT NOT NULL, project TEXT NOT NULL,
			file_path TEXT, type TEXT, package_name TEXT, superclass TEXT,
			interfaces TEXT, imports TEXT, source TEXT, annotations TEXT,
			ai_description TEXT NOT NULL DEFAULT '',
			stub INTEGER NOT NULL DEFAULT 0, updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (name, project)
		)`,
		`CREATE TABLE IF NOT EXISTS methods (
			class_name TEXT NOT NULL, name TEXT NOT NULL, project TEXT NOT NULL,
			return_type TEXT, parameters TEXT, modifiers TEXT, annotations TEXT,
			source TEXT, lombok_synthesized INTEGER NOT NULL DEFAULT 0,
			ai_description TEXT NOT NULL DEFAULT '',
			stub INTEGER NOT NULL DEFAULT 0, updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (class_name, name, project)
		)`,
		`CREATE TABLE IF NOT EXISTS fields (
			class_name TEXT NOT NULL, name TEXT NOT NULL, project TEXT NOT NULL,
			type TEXT, modifiers TEXT, annotations TEXT, initial_value TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (class_name, name, project)
		)`,
		`CREATE TABLE IF NOT EXISTS beans (
			name TEXT NOT NULL, project TEXT NOT NULL,
			type TEXT, scope TEXT, class_name TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (name, project)
		)`,
		`CREATE TABLE IF NOT EXISTS endpoints (
			path TEXT NOT NULL, http_method TEXT NOT NULL, project TEXT NOT NULL,
			controller_class TEXT, handler_method TEXT, full_path TEXT, parameters TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (path, http_method, project)
		)`,
		`CREATE TABLE IF NOT EXISTS mappers (
			name TEXT NOT NULL, project TEXT NOT NULL,
			type TEXT, namespace TEXT, file_path TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (name, project)
		)`,
		`CREATE TABLE IF NOT EXISTS sql_statements (
			id TEXT NOT NULL, mapper_name TEXT NOT NULL, project TEXT NOT NULL,
			sql_type TEXT, sql_content TEXT, parameter_type TEXT, result_type TEXT,
			result_map TEXT, tables TEXT, columns TEXT, complexity INTEGER, analysis TEXT,
			ai_description TEXT NOT NULL DEFAULT '',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id, mapper_name, project)
		)`,
		`CREATE TABLE IF NOT EXISTS databases (
			name TEXT NOT NULL PRIMARY KEY,
			version TEXT, environment TEXT, updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS db_tables (
			name TEXT NOT NULL PRIMARY KEY,
			schema_name TEXT, comment TEXT, updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS columns (
			name TEXT NOT NULL, table_name TEXT NOT NULL,
			data_type TEXT, nullable INTEGER, unique_flag INTEGER, primary_key INTEGER,
			default_value TEXT, constraints TEXT, updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (name, table_name)
		)`,
		`CREATE TABLE IF NOT EXISTS indexes (
			name TEXT NOT NULL, table_name TEXT NOT NULL,
			type TEXT, columns TEXT, updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (name, table_name)
		)`,
		`CREATE TABLE IF NOT EXISTS constraints_tbl (
			name TEXT NOT NULL, table_name TEXT NOT NULL,
			type TEXT, definition TEXT, updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (name, table_name)
		)`,
		`CREATE TABLE IF NOT EXISTS call_edges (
			source_project TEXT NOT NULL, source_class TEXT NOT NULL, source_method TEXT NOT NULL,
			call_order INTEGER NOT NULL,
			target_kind TEXT NOT NULL, target_class TEXT, target_method TEXT, target_sql_id TEXT,
			target_project TEXT, target_package TEXT, line_number INTEGER, return_type TEXT,
			PRIMARY KEY (source_project, source_class, source_method, call_order)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_call_edges_source ON call_edges(source_project, source_class, source_method)`,
		`CREATE TABLE IF NOT EXISTS depends_on_edges (
			project TEXT NOT NULL, source_bean TEXT NOT NULL, target_bean TEXT NOT NULL,
			injection_type TEXT, field_name TEXT, method_name TEXT, parameter_name TEXT,
			PRIMARY KEY (project, source_bean, target_bean, injection_type, field_name, method_name, parameter_name)
		)`,
		`CREATE TABLE IF NOT EXISTS mapper_sql_links (
			project TEXT NOT NULL, mapper_name TEXT NOT NULL, sql_id TEXT NOT NULL,
			PRIMARY KEY (project, mapper_name, sql_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return &errs.IOError{Op: "create schema", Path: s.path, Wrapped: err}
		}
	}
	return nil
}

func marshalJSON(v interface{}) string {
	if v == nil {
		return "[]"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// AddPackage MERGEs the (name, project) Package node.
func (s *Store) AddPackage(p model.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT OR REPLACE INTO packages (name, project) VALUES (?, ?)`, p.Name, p.Project)
	return wrapWrite(err, "add package")
}

// AddClass MERGEs the Class node and, per §4.2, MERGEs target-class stubs
// for EXTENDS/IMPLEMENTS before the structural edges exist implicitly via
// the superclass/interfaces columns.
func (s *Store) AddClass(c model.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return wrapWrite(err, "begin add class")
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO classes
		(name, project, file_path, type, package_name, superclass, interfaces, imports, source, annotations, stub)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT (name, project) DO UPDATE SET
			file_path = excluded.file_path, type = excluded.type, package_name = excluded.package_name,
			superclass = excluded.superclass, interfaces = excluded.interfaces, imports = excluded.imports,
			source = excluded.source, annotations = excluded.annotations, stub = 0,
			updated_at = CURRENT_TIMESTAMP`,
		c.Name, c.Project, c.FilePath, string(c.Type), c.Package, c.Superclass,
		marshalJSON(c.Interfaces), marshalJSON(c.Imports), c.Source, marshalJSON(c.Annotation))
	if err != nil {
		return wrapWrite(err, "add class")
	}

	if c.Superclass != "" {
		if err := mergeStubClass(tx, c.Superclass, c.Project); err != nil {
			return err
		}
	}
	for _, iface := range c.Interfaces {
		if err := mergeStubClass(tx, iface, c.Project); err != nil {
			return err
		}
	}
	return wrapWrite(tx.Commit(), "commit add class")
}

func mergeStubClass(tx *sql.Tx, name, project string) error {
	_, err := tx.Exec(`INSERT OR IGNORE INTO classes (name, project, stub) VALUES (?, ?, 1)`, name, project)
	return wrapWrite(err, "merge stub class")
}

// AddMethod MERGEs the Method node; this is also the HAS_METHOD edge
// target, satisfied implicitly by class_name (I1).
func (s *Store) AddMethod(m model.Method) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO methods
		(class_name, name, project, return_type, parameters, modifiers, annotations, source, lombok_synthesized, stub)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT (class_name, name, project) DO UPDATE SET
			return_type = excluded.return_type, parameters = excluded.parameters, modifiers = excluded.modifiers,
			annotations = excluded.annotations, source = excluded.source,
			lombok_synthesized = excluded.lombok_synthesized, stub = 0, updated_at = CURRENT_TIMESTAMP`,
		m.ClassName, m.Name, m.Project, m.ReturnType, marshalJSON(m.Parameters),
		marshalJSON(m.Modifiers), marshalJSON(m.Annotation), m.Source, boolToInt(m.LombokSynthesized))
	return wrapWrite(err, "add method")
}

// AddField MERGEs the Field node.
func (s *Store) AddField(f model.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT OR REPLACE INTO fields
		(class_name, name, project, type, modifiers, annotations, initial_value)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ClassName, f.Name, f.Project, f.Type, marshalJSON(f.Modifiers), marshalJSON(f.Annotation), f.InitialValue)
	return wrapWrite(err, "add field")
}

// AddBean MERGEs the Bean node.
func (s *Store) AddBean(b model.Bean) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT OR REPLACE INTO beans (name, project, type, scope, class_name)
		VALUES (?, ?, ?, ?, ?)`, b.Name, b.Project, string(b.Type), b.Scope, b.ClassName)
	return wrapWrite(err, "add bean")
}

// AddDependsOn MERGEs a Bean->Bean DEPENDS_ON edge.
func (s *Store) AddDependsOn(d model.DependsOnEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT OR REPLACE INTO depends_on_edges
		(project, source_bean, target_bean, injection_type, field_name, method_name, parameter_name)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Project, d.SourceBean, d.TargetBean, string(d.InjectionType), d.FieldName, d.MethodName, d.ParameterName)
	return wrapWrite(err, "add depends_on edge")
}

// AddEndpoint MERGEs the Endpoint node.
func (s *Store) AddEndpoint(e model.Endpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT OR REPLACE INTO endpoints
		(path, http_method, project, controller_class, handler_method, full_path, parameters)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Path, e.HTTPMethod, e.Project, e.ControllerClass, e.HandlerMethod, e.FullPath, marshalJSON(e.Parameters))
	return wrapWrite(err, "add endpoint")
}

// AddMapper MERGEs the MyBatisMapper node.
func (s *Store) AddMapper(m model.Mapper) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT OR REPLACE INTO mappers (name, project, type, namespace, file_path)
		VALUES (?, ?, ?, ?, ?)`, m.Name, m.Project, string(m.Type), m.Namespace, m.FilePath)
	return wrapWrite(err, "add mapper")
}

// AddSqlStatement MERGEs the SqlStatement node (I2's predecessor is the
// mapper_name column; LinkMapperStatements below materializes the
// HAS_SQL_STATEMENT edge explicitly).
func (s *Store) AddSqlStatement(stmt model.SqlStatement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	analysisJSON, err := json.Marshal(stmt.Analysis)
	if err != nil {
		analysisJSON = []byte("{}")
	}
	_, err = s.db.Exec(`INSERT INTO sql_statements
		(id, mapper_name, project, sql_type, sql_content, parameter_type, result_type, result_map, tables, columns, complexity, analysis)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id, mapper_name, project) DO UPDATE SET
			sql_type = excluded.sql_type, sql_content = excluded.sql_content, parameter_type = excluded.parameter_type,
			result_type = excluded.result_type, result_map = excluded.result_map, tables = excluded.tables,
			columns = excluded.columns, complexity = excluded.complexity, analysis = excluded.analysis,
			updated_at = CURRENT_TIMESTAMP`,
		stmt.ID, stmt.MapperName, stmt.Project, string(stmt.SQLType), stmt.SQLContent, stmt.ParameterType,
		stmt.ResultType, stmt.ResultMap, model.EncodeTables(stmt.Tables), marshalJSON(stmt.Columns), stmt.Complexity, string(analysisJSON))
	return wrapWrite(err, "add sql statement")
}

// AddDatabase MERGEs the project-agnostic Database node (I6).
func (s *Store) AddDatabase(d model.Database) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT OR REPLACE INTO databases (name, version, environment) VALUES (?, ?, ?)`,
		d.Name, d.Version, d.Environment)
	return wrapWrite(err, "add database")
}

// AddTable MERGEs the project-agnostic Table node (I6: shared across projects).
func (s *Store) AddTable(t model.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT OR REPLACE INTO db_tables (name, schema_name, comment) VALUES (?, ?, ?)`,
		t.Name, t.Schema, t.Comment)
	return wrapWrite(err, "add table")
}

// AddColumn MERGEs the Column node (HAS_COLUMN edge implicit via table_name).
func (s *Store) AddColumn(c model.Column) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT OR REPLACE INTO columns
		(name, table_name, data_type, nullable, unique_flag, primary_key, default_value, constraints)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.TableName, c.DataType, boolToInt(c.Nullable), boolToInt(c.Unique), boolToInt(c.PrimaryKey),
		c.DefaultValue, marshalJSON(c.Constraints))
	return wrapWrite(err, "add column")
}

// AddIndex MERGEs the Index node (INCLUDES edges to its columns are
// represented by the columns JSON array rather than a join table).
func (s *Store) AddIndex(idx model.Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT OR REPLACE INTO indexes (name, table_name, type, columns) VALUES (?, ?, ?, ?)`,
		idx.Name, idx.TableName, idx.Type, marshalJSON(idx.Columns))
	return wrapWrite(err, "add index")
}

// AddConstraint MERGEs the Constraint node.
func (s *Store) AddConstraint(c model.Constraint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT OR REPLACE INTO constraints_tbl (name, table_name, type, definition) VALUES (?, ?, ?, ?)`,
		c.Name, c.TableName, c.Type, c.Definition)
	return wrapWrite(err, "add constraint")
}

// AddCallEdge MERGEs a CALLS edge, first merging a target Method stub
// (per §4.2) so the call is resolvable even if the callee class has not
// yet been ingested. External edges (TargetProject == "") skip the stub
// merge (I4).
func (s *Store) AddCallEdge(e model.CallEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return wrapWrite(err, "begin add call edge")
	}
	defer tx.Rollback()

	if e.TargetKind == model.TargetMethodKind && e.TargetClass != "" && !e.IsExternal() {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO classes (name, project, stub) VALUES (?, ?, 1)`,
			e.TargetClass, e.TargetProject); err != nil {
			return wrapWrite(err, "merge stub target class")
		}
		if _, err := tx.Exec(`INSERT OR IGNORE INTO methods (class_name, name, project, stub) VALUES (?, ?, ?, 1)`,
			e.TargetClass, e.TargetMethod, e.TargetProject); err != nil {
			return wrapWrite(err, "merge stub target method")
		}
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO call_edges
		(source_project, source_class, source_method, call_order, target_kind, target_class, target_method,
		 target_sql_id, target_project, target_package, line_number, return_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SourceProject, e.SourceClass, e.SourceMethod, e.CallOrder, string(e.TargetKind), e.TargetClass,
		e.TargetMethod, e.TargetSQLID, e.TargetProject, e.TargetPackage, e.LineNumber, e.ReturnType)
	if err != nil {
		return wrapWrite(err, "add call edge")
	}
	return wrapWrite(tx.Commit(), "commit add call edge")
}

// LinkMapperStatements materializes the HAS_SQL_STATEMENT edge for every
// (mapper_name, project) pair with ingested SqlStatement rows, per §4.2's
// "Mapper↔SQL linkage" post-ingest pass.
func (s *Store) LinkMapperStatements(project string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`INSERT OR REPLACE INTO mapper_sql_links (project, mapper_name, sql_id)
		SELECT st.project, st.mapper_name, st.id
		FROM sql_statements st
		JOIN mappers mp ON mp.name = st.mapper_name AND mp.project = st.project
		WHERE st.project = ?`, project)
	if err != nil {
		return 0, wrapWrite(err, "link mapper statements")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// LinkMethodSQLCalls implements §4.2's post-hoc Method↔SQL linkage: for
// every Repository/Mapper class's method whose name matches a
// SqlStatement id owned by a mapper of the same name, MERGE a
// Method-[:CALLS]->SqlStatement edge.
func (s *Store) LinkMethodSQLCalls(project string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT m.class_name, m.name, st.id, st.mapper_name
		FROM methods m
		JOIN sql_statements st ON st.project = m.project AND st.mapper_name = m.class_name AND st.id = m.name
		WHERE m.project = ?`, project)
	if err != nil {
		return 0, wrapWrite(err, "query method sql candidates")
	}
	defer rows.Close()

	type pair struct{ class, method, sqlID, mapper string }
	var pairs []pair
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.class, &p.method, &p.sqlID, &p.mapper); err != nil {
			continue
		}
		pairs = append(pairs, p)
	}

	count := 0
	for _, p := range pairs {
		var maxOrder sql.NullInt64
		if err := s.db.QueryRow(`SELECT MAX(call_order) FROM call_edges WHERE source_project = ? AND source_class = ? AND source_method = ?`,
			project, p.class, p.method).Scan(&maxOrder); err != nil {
			continue
		}
		nextOrder := 0
		if maxOrder.Valid {
			nextOrder = int(maxOrder.Int64) + 1
		}
		_, err := s.db.Exec(`INSERT OR REPLACE INTO call_edges
			(source_project, source_class, source_method, call_order, target_kind, target_sql_id, target_project)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			project, p.class, p.method, nextOrder, string(model.TargetSQL), p.sqlID, project)
		if err == nil {
			count++
		}
	}
	return count, nil
}

// DeleteClassAndRelated implements I7: a class re-analysis cascade.
// Methods, Fields, and class-scoped derived nodes (Beans, Endpoints,
// Mappers, SqlStatements) are removed before the Class row itself.
// Non-owned edges pointing at the class (e.g. CALLS from other classes)
// are left untouched — they re-resolve against the re-ingested class via
// MERGE.
func (s *Store) DeleteClassAndRelated(className, project string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return wrapWrite(err, "begin delete class")
	}
	defer tx.Rollback()

	stmts := []struct {
		query string
		args  []interface{}
	}{
		{`DELETE FROM call_edges WHERE source_project = ? AND source_class = ?`, []interface{}{project, className}},
		{`DELETE FROM methods WHERE project = ? AND class_name = ?`, []interface{}{project, className}},
		{`DELETE FROM fields WHERE project = ? AND class_name = ?`, []interface{}{project, className}},
		{`DELETE FROM beans WHERE project = ? AND class_name = ?`, []interface{}{project, className}},
		{`DELETE FROM endpoints WHERE project = ? AND controller_class = ?`, []interface{}{project, className}},
		{`DELETE FROM mappers WHERE project = ? AND name = ?`, []interface{}{project, className}},
		{`DELETE FROM sql_statements WHERE project = ? AND mapper_name = ?`, []interface{}{project, className}},
		{`DELETE FROM classes WHERE project = ? AND name = ?`, []interface{}{project, className}},
	}
	for _, st := range stmts {
		if _, err := tx.Exec(st.query, st.args...); err != nil {
			return wrapWrite(err, "delete class cascade")
		}
	}
	return wrapWrite(tx.Commit(), "commit delete class")
}

// Clean wipes graph data. javaObjects wipes the Java-layer labels
// (packages/classes/methods/fields/beans/endpoints/mappers/sql/edges);
// dbObjects wipes the DB-layer labels (databases/tables/columns/indexes/
// constraints). Both true (or both false) wipes everything, per §4.2's
// "Global cleanup" flag combination rule.
func (s *Store) Clean(javaObjects, dbObjects bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	javaTables := []string{"call_edges", "depends_on_edges", "mapper_sql_links", "sql_statements",
		"mappers", "endpoints", "beans", "fields", "methods", "classes", "packages"}
	dbTables := []string{"constraints_tbl", "indexes", "columns", "db_tables", "databases"}

	var targets []string
	switch {
	case javaObjects && !dbObjects:
		targets = javaTables
	case dbObjects && !javaObjects:
		targets = dbTables
	default:
		targets = append(append([]string{}, javaTables...), dbTables...)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return wrapWrite(err, "begin clean")
	}
	defer tx.Rollback()
	for _, t := range targets {
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", t)); err != nil {
			return wrapWrite(err, "clean "+t)
		}
	}
	return wrapWrite(tx.Commit(), "commit clean")
}

// Counts returns a row count per table, used by the CLI's `clean`
// summary and by P4-style count-invariant tests.
func (s *Store) Counts() (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tables := []string{"packages", "classes", "methods", "fields", "beans", "endpoints",
		"mappers", "sql_statements", "databases", "db_tables", "columns", "indexes",
		"constraints_tbl", "call_edges", "depends_on_edges"}
	counts := make(map[string]int64, len(tables))
	for _, t := range tables {
		var n int64
		if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&n); err != nil {
			continue
		}
		counts[t] = n
	}
	return counts, nil
}

func wrapWrite(err error, op string) error {
	if err == nil {
		return nil
	}
	return &errs.IOError{Op: op, Path: "graph", Wrapped: err}
}

// MethodCall is one outgoing CALLS edge to another Method, as read back
// for call-chain traversal.
type MethodCall struct {
	TargetClass, TargetMethod, TargetProject, TargetPackage, ReturnType string
	CallOrder, LineNumber                                              int
}

// MethodCalls returns the outgoing method-kind CALLS edges of
// (class, method, project), ordered by (call_order, line_number,
// target_method) per C7 query 1.
func (s *Store) MethodCalls(class, method, project string) ([]MethodCall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT target_class, target_method, target_project, target_package, return_type, call_order, line_number
		FROM call_edges
		WHERE source_project = ? AND source_class = ? AND source_method = ? AND target_kind = ?
		ORDER BY call_order, line_number, target_method`,
		project, class, method, string(model.TargetMethodKind))
	if err != nil {
		return nil, wrapRead(err, "query method calls")
	}
	defer rows.Close()

	var out []MethodCall
	for rows.Next() {
		var mc MethodCall
		if err := rows.Scan(&mc.TargetClass, &mc.TargetMethod, &mc.TargetProject, &mc.TargetPackage,
			&mc.ReturnType, &mc.CallOrder, &mc.LineNumber); err != nil {
			return nil, wrapRead(err, "scan method call")
		}
		out = append(out, mc)
	}
	return out, nil
}

// SQLCall is a resolved (method)-[:CALLS]->(:SqlStatement) edge, joined
// with the statement's own properties.
type SQLCall struct {
	SQLID, MapperName            string
	SQLType                      model.SQLType
	ResultMap, ResultType        string
	Tables                       []model.TableRef
	CallOrder, LineNumber        int
}

// SQLCallsForMethod implements C7 query 2: direct CALLS->SqlStatement
// edges first; if none exist, a fallback query matches any SqlStatement
// whose id equals the method name and whose mapper_name equals the FQN
// or simple name of the owning class, recovering the edge in corpora
// where the method->SQL linkage pass hasn't run.
func (s *Store) SQLCallsForMethod(class, method, project, classPackage string) ([]SQLCall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT st.id, st.mapper_name, st.sql_type, st.result_map, st.result_type, st.tables,
		       ce.call_order, ce.line_number
		FROM call_edges ce
		JOIN sql_statements st ON st.id = ce.target_sql_id AND st.project = ce.target_project
		WHERE ce.source_project = ? AND ce.source_class = ? AND ce.source_method = ? AND ce.target_kind = ?
		ORDER BY ce.call_order, ce.line_number`,
		project, class, method, string(model.TargetSQL))
	if err != nil {
		return nil, wrapRead(err, "query sql calls")
	}
	calls, err := scanSQLCalls(rows)
	if err != nil {
		return nil, err
	}
	if len(calls) > 0 {
		return calls, nil
	}

	fqn := classPackage + "." + class
	rows, err = s.db.Query(`
		SELECT id, mapper_name, sql_type, result_map, result_type, tables, 0, 0
		FROM sql_statements
		WHERE project = ? AND id = ? AND (mapper_name = ? OR mapper_name = ?)`,
		project, method, fqn, class)
	if err != nil {
		return nil, wrapRead(err, "query fallback sql calls")
	}
	return scanSQLCalls(rows)
}

func scanSQLCalls(rows *sql.Rows) ([]SQLCall, error) {
	defer rows.Close()
	var out []SQLCall
	for rows.Next() {
		var c SQLCall
		var sqlType, tablesJSON string
		if err := rows.Scan(&c.SQLID, &c.MapperName, &sqlType, &c.ResultMap, &c.ResultType, &tablesJSON,
			&c.CallOrder, &c.LineNumber); err != nil {
			return nil, wrapRead(err, "scan sql call")
		}
		c.SQLType = model.SQLType(sqlType)
		c.Tables = model.DecodeTables(tablesJSON)
		out = append(out, c)
	}
	return out, nil
}

// TableSchema returns the Schema of a Table node by name, used by the
// call-chain fetcher's per-run schema cache.
func (s *Store) TableSchema(name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var schema string
	err := s.db.QueryRow(`SELECT schema_name FROM db_tables WHERE name = ?`, name).Scan(&schema)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapRead(err, "query table schema")
	}
	return schema, true, nil
}

// ClassesByName returns every ingested Class row sharing a name,
// regardless of project, used by impact traversal's table/repository
// resolution.
func (s *Store) ClassesByName(name string) ([]model.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT name, project, package_name, type FROM classes WHERE name = ?`, name)
	if err != nil {
		return nil, wrapRead(err, "query classes by name")
	}
	defer rows.Close()
	var out []model.Class
	for rows.Next() {
		var c model.Class
		var classType string
		if err := rows.Scan(&c.Name, &c.Project, &c.Package, &classType); err != nil {
			return nil, wrapRead(err, "scan class")
		}
		c.Type = model.ClassType(classType)
		out = append(out, c)
	}
	return out, nil
}

// CallersOf returns every (source_class, source_method) pair with a
// method-kind CALLS edge to (class, method) within project, used by
// reverse impact traversal.
func (s *Store) CallersOf(class, method, project string) ([]struct{ Class, Method string }, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`
		SELECT source_class, source_method FROM call_edges
		WHERE source_project = ? AND target_class = ? AND target_method = ? AND target_kind = ?`,
		project, class, method, string(model.TargetMethodKind))
	if err != nil {
		return nil, wrapRead(err, "query callers")
	}
	defer rows.Close()
	var out []struct{ Class, Method string }
	for rows.Next() {
		var c struct{ Class, Method string }
		if err := rows.Scan(&c.Class, &c.Method); err != nil {
			return nil, wrapRead(err, "scan caller")
		}
		out = append(out, c)
	}
	return out, nil
}

// SQLStatementsReferencingTable returns every SqlStatement whose tables
// property case-insensitively contains table, per C10's table-impact entry.
func (s *Store) SQLStatementsReferencingTable(table, project string) ([]model.SqlStatement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query := `SELECT id, mapper_name, project, sql_type, sql_content, complexity, tables FROM sql_statements WHERE tables LIKE '%' || ? || '%'`
	args := []interface{}{table}
	if project != "" {
		query += ` AND project = ?`
		args = append(args, project)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapRead(err, "query sql statements by table")
	}
	defer rows.Close()
	var out []model.SqlStatement
	for rows.Next() {
		var st model.SqlStatement
		var sqlType, tablesJSON string
		if err := rows.Scan(&st.ID, &st.MapperName, &st.Project, &sqlType, &st.SQLContent, &st.Complexity, &tablesJSON); err != nil {
			return nil, wrapRead(err, "scan sql statement")
		}
		st.SQLType = model.SQLType(sqlType)
		st.Tables = model.DecodeTables(tablesJSON)
		out = append(out, st)
	}
	return out, nil
}

// CallersOfSQL returns every (source_class, source_method) pair with a
// CALLS edge to the SqlStatement identified by sqlID within project, used
// to anchor table-impact traversal at the owning mapper method.
func (s *Store) CallersOfSQL(sqlID, project string) ([]struct{ Class, Method string }, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`
		SELECT source_class, source_method FROM call_edges
		WHERE source_project = ? AND target_sql_id = ? AND target_kind = ?`,
		project, sqlID, string(model.TargetSQL))
	if err != nil {
		return nil, wrapRead(err, "query sql callers")
	}
	defer rows.Close()
	var out []struct{ Class, Method string }
	for rows.Next() {
		var c struct{ Class, Method string }
		if err := rows.Scan(&c.Class, &c.Method); err != nil {
			return nil, wrapRead(err, "scan sql caller")
		}
		out = append(out, c)
	}
	return out, nil
}

// MethodExists reports whether class has a declared method of this name
// within project, used by method-impact's single-method target resolution.
func (s *Store) MethodExists(class, method, project string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM methods WHERE class_name = ? AND name = ? AND project = ?`,
		class, method, project).Scan(&n)
	if err != nil {
		return false, wrapRead(err, "query method exists")
	}
	return n > 0, nil
}

// MapperOwnerClasses returns classes tagged as Repository/Mapper (by
// class-name or package-name heuristics) owning a mapper_name. Table-impact
// traversal does not call it; it anchors at the mapper method through
// CallersOfSQL.
func (s *Store) MapperOwnerClasses(mapperName, project string) ([]model.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`
		SELECT name, project, package_name, type FROM classes
		WHERE (name = ? OR name LIKE '%Mapper' OR name LIKE '%Repository' OR package_name LIKE '%mapper%' OR package_name LIKE '%repository%')
		  AND project = ?`, mapperName, project)
	if err != nil {
		return nil, wrapRead(err, "query mapper owner classes")
	}
	defer rows.Close()
	var out []model.Class
	for rows.Next() {
		var c model.Class
		var classType string
		if err := rows.Scan(&c.Name, &c.Project, &c.Package, &classType); err != nil {
			return nil, wrapRead(err, "scan class")
		}
		c.Type = model.ClassType(classType)
		out = append(out, c)
	}
	return out, nil
}

// PublicMethodsOf returns every method belonging to class within project
// whose modifier set includes "public", used when a method-impact
// request omits the method name.
func (s *Store) PublicMethodsOf(class, project string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT name, modifiers FROM methods WHERE class_name = ? AND project = ?`, class, project)
	if err != nil {
		return nil, wrapRead(err, "query public methods")
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name, modifiersJSON string
		if err := rows.Scan(&name, &modifiersJSON); err != nil {
			return nil, wrapRead(err, "scan method")
		}
		var mods []string
		_ = json.Unmarshal([]byte(modifiersJSON), &mods)
		for _, m := range mods {
			if m == "public" {
				out = append(out, name)
				break
			}
		}
	}
	return out, nil
}

// MethodsOf returns every declared method name belonging to class within
// project, regardless of access modifier, used by circular-reference
// detection to enumerate candidate cycle roots.
func (s *Store) MethodsOf(class, project string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT name FROM methods WHERE class_name = ? AND project = ?`, class, project)
	if err != nil {
		return nil, wrapRead(err, "query methods of class")
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, wrapRead(err, "scan method name")
		}
		out = append(out, name)
	}
	return out, nil
}

// TestClassFor probes for a test class under the {Class}Test |
// {Class}Tests | Test{Class} naming conventions and reports its name and
// method count, per C10's test-scope identification.
func (s *Store) TestClassFor(class, project string) (testClass string, found bool, methodCount int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidates := []string{class + "Test", class + "Tests", "Test" + class}
	for _, cand := range candidates {
		var n int
		row := s.db.QueryRow(`SELECT COUNT(*) FROM classes WHERE name = ? AND project = ?`, cand, project)
		if err := row.Scan(&n); err != nil {
			return "", false, 0, wrapRead(err, "probe test class")
		}
		if n > 0 {
			var methods int
			_ = s.db.QueryRow(`SELECT COUNT(*) FROM methods WHERE class_name = ? AND project = ?`, cand, project).Scan(&methods)
			return cand, true, methods, nil
		}
	}
	return "", false, 0, nil
}

// ClassForEnrichment is one row returned by ClassesNeedingAIDescription.
type ClassForEnrichment struct {
	Name, Project, Source string
}

// MethodForEnrichment is one row returned by MethodsNeedingAIDescription.
type MethodForEnrichment struct {
	ClassName, Name, Project, Source string
}

// SQLForEnrichment is one row returned by SQLStatementsNeedingAIDescription.
type SQLForEnrichment struct {
	ID, MapperName, Project, SQLContent string
}

// ClassesNeedingAIDescription returns every Class in project with non-empty
// source and an empty ai_description, ordered by name. limit <= 0 means no
// cap, per internal/ai's enrichment-candidate selection.
func (s *Store) ClassesNeedingAIDescription(project string, limit int) ([]ClassForEnrichment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query := `SELECT name, project, source FROM classes
		WHERE project = ? AND ai_description = '' AND source <> '' ORDER BY name`
	args := []interface{}{project}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapRead(err, "query classes needing enrichment")
	}
	defer rows.Close()
	var out []ClassForEnrichment
	for rows.Next() {
		var c ClassForEnrichment
		if err := rows.Scan(&c.Name, &c.Project, &c.Source); err != nil {
			return nil, wrapRead(err, "scan class for enrichment")
		}
		out = append(out, c)
	}
	return out, nil
}

// MethodsNeedingAIDescription mirrors ClassesNeedingAIDescription for
// Method nodes.
func (s *Store) MethodsNeedingAIDescription(project string, limit int) ([]MethodForEnrichment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query := `SELECT class_name, name, project, source FROM methods
		WHERE project = ? AND ai_description = '' AND source <> '' ORDER BY class_name, name`
	args := []interface{}{project}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapRead(err, "query methods needing enrichment")
	}
	defer rows.Close()
	var out []MethodForEnrichment
	for rows.Next() {
		var m MethodForEnrichment
		if err := rows.Scan(&m.ClassName, &m.Name, &m.Project, &m.Source); err != nil {
			return nil, wrapRead(err, "scan method for enrichment")
		}
		out = append(out, m)
	}
	return out, nil
}

// SQLStatementsNeedingAIDescription mirrors ClassesNeedingAIDescription for
// SqlStatement nodes.
func (s *Store) SQLStatementsNeedingAIDescription(project string, limit int) ([]SQLForEnrichment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query := `SELECT id, mapper_name, project, sql_content FROM sql_statements
		WHERE project = ? AND ai_description = '' AND sql_content <> '' ORDER BY mapper_name, id`
	args := []interface{}{project}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapRead(err, "query sql statements needing enrichment")
	}
	defer rows.Close()
	var out []SQLForEnrichment
	for rows.Next() {
		var st SQLForEnrichment
		if err := rows.Scan(&st.ID, &st.MapperName, &st.Project, &st.SQLContent); err != nil {
			return nil, wrapRead(err, "scan sql statement for enrichment")
		}
		out = append(out, st)
	}
	return out, nil
}

// UpdateClassAIDescription writes the enrichment text for one Class node.
func (s *Store) UpdateClassAIDescription(name, project, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`UPDATE classes SET ai_description = ? WHERE name = ? AND project = ?`, description, name, project)
	return wrapWrite(err, "update class ai description")
}

// UpdateMethodAIDescription writes the enrichment text for one Method node.
func (s *Store) UpdateMethodAIDescription(class, method, project, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`UPDATE methods SET ai_description = ? WHERE class_name = ? AND name = ? AND project = ?`,
		description, class, method, project)
	return wrapWrite(err, "update method ai description")
}

// UpdateSQLAIDescription writes the enrichment text for one SqlStatement node.
func (s *Store) UpdateSQLAIDescription(id, mapperName, project, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`UPDATE sql_statements SET ai_description = ? WHERE id = ? AND mapper_name = ? AND project = ?`,
		description, id, mapperName, project)
	return wrapWrite(err, "update sql ai description")
}

func wrapRead(err error, op string) error {
	if err == nil {
		return nil
	}
	return &errs.IOError{Op: op, Path: "graph", Wrapped: err}
}
