package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/javagraph/javagraph/internal/assemble"
	"github.com/javagraph/javagraph/internal/errs"
	"github.com/javagraph/javagraph/internal/extract/ddl"
	extractjava "github.com/javagraph/javagraph/internal/extract/java"
	"github.com/javagraph/javagraph/internal/extract/mybatis"
	"github.com/javagraph/javagraph/internal/graph"
	"github.com/javagraph/javagraph/internal/logging"
	"github.com/javagraph/javagraph/internal/model"
)

var (
	analyzeJavaSourceFolder string
	analyzeDBScriptFolder   string
	analyzeProjectName      string
	analyzeApplicationName  string
	analyzeClean            bool
	analyzeDryRun           bool
	analyzeJavaObject       bool
	analyzeDBObject         bool
	analyzeAllObjects       bool
	analyzeClassName        string
	analyzeUpdate           bool
	analyzeSkipAI           bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the C1-C6 ingestion pipeline over a Java/MyBatis/DDL codebase",
	RunE: func(cmd *cobra.Command, args []string) error {
		javaSrc := analyzeJavaSourceFolder
		if javaSrc == "" {
			javaSrc = appCfg.JavaSourceFolder
		}
		if javaSrc == "" {
			javaSrc, _ = os.Getwd()
		}
		dbScripts := analyzeDBScriptFolder
		if dbScripts == "" {
			dbScripts = appCfg.DBScriptFolder
		}
		project := analyzeProjectName
		if project == "" {
			project = appCfg.ProjectName
		}

		if analyzeClassName != "" && (analyzeJavaObject && analyzeDBObject) {
			return &errs.ConfigError{Message: "--class-name cannot be combined with a full --java-object --db-object clean"}
		}

		log := logging.Get(logging.CategoryCLI)
		store, err := graph.Open(graphPath())
		if err != nil {
			return &errs.IOError{Op: "open graph", Path: graphPath(), Wrapped: err}
		}
		defer store.Close()

		if analyzeAllObjects || (analyzeJavaObject && analyzeDBObject) {
			if err := store.Clean(true, true); err != nil {
				return err
			}
			log.Info("wiped entire graph before re-analysis")
		} else if analyzeJavaObject {
			if err := store.Clean(true, false); err != nil {
				return err
			}
		} else if analyzeDBObject {
			if err := store.Clean(false, true); err != nil {
				return err
			}
		} else if analyzeClean && analyzeClassName != "" {
			if err := store.DeleteClassAndRelated(analyzeClassName, project); err != nil {
				return err
			}
			log.Info("deleted class %s and its descendants before re-ingesting", analyzeClassName)
		}

		var allClasses []model.Class
		var allMethods []model.Method
		var allFields []model.Field
		var allMapperStmts []model.SqlStatement
		var allMappers []model.Mapper

		if javaSrc != "" {
			if _, err := os.Stat(javaSrc); err != nil {
				return &errs.IOError{Op: "stat", Path: javaSrc, Wrapped: err}
			}

			parser := extractjava.New()
			defer parser.Close()
			results := parser.ScanDirectory(javaSrc, project)

			callsByMethod := map[string][]extractjava.MethodCall{}
			for _, fr := range results {
				allClasses = append(allClasses, fr.Classes...)
				allMethods = append(allMethods, fr.Methods...)
				allFields = append(allFields, fr.Fields...)
				for _, c := range fr.Calls {
					key := c.SourceClass + "." + c.SourceMethod
					callsByMethod[key] = append(callsByMethod[key], c)
				}
			}
			log.Info("parsed %d java files: %d classes, %d methods, %d fields", len(results), len(allClasses), len(allMethods), len(allFields))

			mappers, stmts := mybatis.ScanDirectory(javaSrc)
			allMappers = append(allMappers, mappers...)
			allMapperStmts = append(allMapperStmts, stmts...)
			log.Info("parsed %d mybatis mappers, %d sql statements", len(mappers), len(stmts))

			asm := assemble.Assemble(project, allClasses, allMethods, allFields)
			asm.Statements = assemble.WireSQLTables(append(asm.Statements, allMapperStmts...))
			allMappers = append(allMappers, asm.Mappers...)
			asm.Mappers = allMappers

			if analyzeDryRun {
				fmt.Printf("dry run: would write %d classes, %d methods, %d fields, %d beans, %d endpoints, %d mappers, %d sql statements\n",
					len(allClasses), len(allMethods), len(allFields), len(asm.Beans), len(asm.Endpoints), len(allMappers), len(asm.Statements))
				return nil
			}

			if err := writeJavaFacts(store, project, allClasses, allMethods, allFields, asm, callsByMethod); err != nil {
				return err
			}
		}

		if dbScripts != "" {
			if _, err := os.Stat(dbScripts); err != nil {
				return &errs.IOError{Op: "stat", Path: dbScripts, Wrapped: err}
			}
			results := ddl.ScanDirectory(dbScripts)
			if analyzeDryRun {
				fmt.Printf("dry run: would write %d DDL results\n", len(results))
				return nil
			}
			if err := writeDBFacts(store, results); err != nil {
				return err
			}
			log.Info("parsed %d DDL scripts", len(results))
		}

		if n, err := store.LinkMapperStatements(project); err != nil {
			return err
		} else if n > 0 {
			log.Info("linked %d mapper->sql statement edges", n)
		}
		if n, err := store.LinkMethodSQLCalls(project); err != nil {
			return err
		} else if n > 0 {
			log.Info("linked %d method->sql call edges", n)
		}

		if analyzeApplicationName != "" {
			log.Debug("application name %s recorded for project %s", analyzeApplicationName, project)
		}

		if !analyzeSkipAI && !appCfg.AI.SkipAnalysis {
			fmt.Println("analysis complete. run `javagraph ai-enrich` to add AI descriptions.")
		}
		return nil
	},
}

func writeJavaFacts(store *graph.Store, project string, classes []model.Class, methods []model.Method, fields []model.Field, asm assemble.Result, callsByMethod map[string][]extractjava.MethodCall) error {
	packages := map[string]bool{}
	for _, c := range classes {
		if c.Package != "" && !packages[c.Package] {
			packages[c.Package] = true
			if err := store.AddPackage(model.Package{Name: c.Package, Project: project}); err != nil {
				return err
			}
		}
	}
	for _, c := range classes {
		if err := store.AddClass(c); err != nil {
			return err
		}
	}
	for _, m := range methods {
		if err := store.AddMethod(m); err != nil {
			return err
		}
	}
	for _, f := range fields {
		if err := store.AddField(f); err != nil {
			return err
		}
	}
	for _, b := range asm.Beans {
		if err := store.AddBean(b); err != nil {
			return err
		}
	}
	for _, d := range asm.Dependencies {
		if err := store.AddDependsOn(d); err != nil {
			return err
		}
	}
	for _, e := range asm.Endpoints {
		if err := store.AddEndpoint(e); err != nil {
			return err
		}
	}
	for _, m := range asm.Mappers {
		if err := store.AddMapper(m); err != nil {
			return err
		}
	}
	for _, s := range asm.Statements {
		if err := store.AddSqlStatement(s); err != nil {
			return err
		}
	}
	knownClass := map[string]bool{}
	for _, c := range classes {
		knownClass[c.Name] = true
	}

	for key, calls := range callsByMethod {
		_ = key
		for _, c := range extractjava.SortCalls(calls) {
			targetProject := project
			if !knownClass[c.TargetClass] {
				targetProject = ""
			}
			edge := model.CallEdge{
				SourceProject: project, SourceClass: c.SourceClass, SourceMethod: c.SourceMethod,
				TargetKind: model.TargetMethodKind, TargetClass: c.TargetClass, TargetMethod: c.TargetMethod,
				TargetProject: targetProject, TargetPackage: c.TargetPackage,
				CallOrder: c.CallOrder, LineNumber: c.LineNumber,
			}
			if err := store.AddCallEdge(edge); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeDBFacts(store *graph.Store, results []ddl.Result) error {
	for _, r := range results {
		if err := store.AddDatabase(r.Database); err != nil {
			return err
		}
		for _, t := range r.Tables {
			if err := store.AddTable(t); err != nil {
				return err
			}
		}
		for _, c := range r.Columns {
			if err := store.AddColumn(c); err != nil {
				return err
			}
		}
		for _, idx := range r.Indexes {
			if err := store.AddIndex(idx); err != nil {
				return err
			}
		}
		for _, c := range r.Constraints {
			if err := store.AddConstraint(c); err != nil {
				return err
			}
		}
	}
	return nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeJavaSourceFolder, "java-source-folder", "", "Directory to scan for .java and MyBatis XML files (default: cwd or config)")
	analyzeCmd.Flags().StringVar(&analyzeDBScriptFolder, "db-script-folder", "", "Directory to scan for DDL .sql scripts")
	analyzeCmd.Flags().StringVar(&analyzeProjectName, "project-name", "", "Project scope for ingested nodes (default: config project_name)")
	analyzeCmd.Flags().StringVar(&analyzeApplicationName, "application-name", "", "Application name recorded alongside the project")
	analyzeCmd.Flags().BoolVar(&analyzeClean, "clean", false, "Delete the targeted class and its descendants before re-ingesting")
	analyzeCmd.Flags().BoolVar(&analyzeDryRun, "dry-run", false, "Parse and report counts without writing to the graph")
	analyzeCmd.Flags().BoolVar(&analyzeJavaObject, "java-object", false, "Wipe Java-layer labels before analyzing")
	analyzeCmd.Flags().BoolVar(&analyzeDBObject, "db-object", false, "Wipe DB-layer labels before analyzing")
	analyzeCmd.Flags().BoolVar(&analyzeAllObjects, "all-objects", false, "Wipe the entire graph before analyzing")
	analyzeCmd.Flags().StringVar(&analyzeClassName, "class-name", "", "Limit --clean to a single class")
	analyzeCmd.Flags().BoolVar(&analyzeUpdate, "update", false, "Re-analyze in place rather than fail on existing nodes (MERGE is idempotent either way)")
	analyzeCmd.Flags().BoolVar(&analyzeSkipAI, "skip-ai", false, "Skip the post-analyze AI enrichment hint")
}
