// Package java implements the C2 Java source parser: a tree-sitter AST
// walk over .java files producing Class, Method, Field, Annotation and
// MethodCall entities with call-order preservation and Lombok synthesis.
package java

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/javagraph/javagraph/internal/errs"
	"github.com/javagraph/javagraph/internal/logging"
	"github.com/javagraph/javagraph/internal/model"
)

// streamMethods are purely functional-streaming calls suppressed from the
// call graph to reduce diagram noise (spec.md §4.1).
var streamMethods = map[string]bool{
	"collect": true, "map": true, "filter": true, "forEach": true,
	"stream": true, "reduce": true, "findFirst": true, "findAny": true,
	"anyMatch": true, "allMatch": true, "noneMatch": true, "count": true,
	"distinct": true, "sorted": true, "limit": true, "skip": true,
	"peek": true, "flatMap": true, "toArray": true,
}

// MethodCall is one resolved or unresolved method invocation inside a
// method body, in textual occurrence order.
type MethodCall struct {
	SourceClass   string
	SourceMethod  string
	TargetClass   string
	TargetMethod  string
	TargetPackage string
	CallOrder     int
	LineNumber    int
}

// FileResult is everything extracted from one .java file.
type FileResult struct {
	PackageName string
	Imports     []string
	Classes     []model.Class
	Methods     []model.Method
	Fields      []model.Field
	Calls       []MethodCall
}

// Parser wraps one tree-sitter parser instance configured for Java.
type Parser struct {
	ts *sitter.Parser
}

// New creates a Parser. Callers must call Close when done.
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return &Parser{ts: p}
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() { p.ts.Close() }

// ScanDirectory walks dir recursively, parsing every .java file found.
// Parse failures are logged and skipped (§7 ParseError policy).
func (p *Parser) ScanDirectory(dir, project string) []FileResult {
	log := logging.Get(logging.CategoryExtractJava)
	var results []FileResult

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".java") {
			return nil
		}
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			log.Warn("skipping %s: %v", path, rerr)
			return nil
		}
		res, perr := p.ParseFile(path, project, data)
		if perr != nil {
			log.Warn("parse error in %s: %v", path, perr)
			return nil
		}
		results = append(results, res)
		return nil
	})
	if err != nil {
		log.Warn("walk of %s stopped early: %v", dir, err)
	}
	return results
}

// ParseFile parses one Java source file's bytes.
func (p *Parser) ParseFile(path, project string, content []byte) (FileResult, error) {
	tree, err := p.ts.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return FileResult{}, &errs.ParseError{File: path, Message: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		return FileResult{}, &errs.ParseError{File: path, Message: "syntax error in source"}
	}

	w := &walker{src: content, path: path, project: project}
	w.walkFile(root)
	return FileResult{
		PackageName: w.packageName,
		Imports:     w.imports,
		Classes:     w.classes,
		Methods:     w.methods,
		Fields:      w.fields,
		Calls:       w.calls,
	}, nil
}

type walker struct {
	src     []byte
	path    string
	project string

	packageName string
	imports     []string // FQNs
	classes     []model.Class
	methods     []model.Method
	fields      []model.Field
	calls       []MethodCall
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(w.src)
}

// walkFile handles the top-level program node: package/import declarations
// and every class/interface/enum declaration in the file.
func (w *walker) walkFile(root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		switch n.Type() {
		case "package_declaration":
			w.packageName = w.scopedName(n)
		case "import_declaration":
			if imp := w.importName(n); imp != "" {
				w.imports = append(w.imports, imp)
			}
		case "class_declaration", "interface_declaration", "enum_declaration":
			w.walkType(n, "")
		}
	}
}

// scopedName extracts a dotted identifier (package name, import path) from
// its scoped_identifier/identifier child.
func (w *walker) scopedName(n *sitter.Node) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
			return w.text(c)
		}
	}
	return ""
}

func (w *walker) importName(n *sitter.Node) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
			return w.text(c)
		}
		if c.Type() == "asterisk" {
			continue
		}
	}
	return ""
}

func (w *walker) importShortNameMap() map[string]string {
	m := make(map[string]string, len(w.imports))
	for _, imp := range w.imports {
		idx := strings.LastIndex(imp, ".")
		if idx < 0 {
			continue
		}
		m[imp[idx+1:]] = imp
	}
	return m
}

// walkType handles one class/interface/enum declaration, including nested
// types (outerPrefix carries the enclosing class name for qualified names,
// though javagraph keys classes by simple name per spec.md §3).
func (w *walker) walkType(n *sitter.Node, outerPrefix string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	className := w.text(nameNode)

	classType := model.ClassTypeClass
	switch n.Type() {
	case "interface_declaration":
		classType = model.ClassTypeInterface
	case "enum_declaration":
		classType = model.ClassTypeEnum
	}

	anns := w.annotationsFromModifiers(n.ChildByFieldName("modifiers"))
	if anns == nil {
		anns = w.annotationsFromModifiers(n.Child(0))
	}

	superclass := ""
	var interfaces []string
	if sc := n.ChildByFieldName("superclass"); sc != nil {
		superclass = w.firstTypeText(sc)
	}
	if ifaces := n.ChildByFieldName("interfaces"); ifaces != nil {
		interfaces = w.typeList(ifaces)
	}
	// interface_declaration uses "extends_interfaces" for its own supertypes.
	if ext := n.ChildByFieldName("extends_interfaces"); ext != nil {
		interfaces = append(interfaces, w.typeList(ext)...)
	}

	w.classes = append(w.classes, model.Class{
		Name:       className,
		Project:    w.project,
		FilePath:   w.path,
		Type:       classType,
		Package:    w.packageName,
		Superclass: superclass,
		Interfaces: interfaces,
		Imports:    w.imports,
		Source:     w.text(n),
		Annotation: anns,
	})

	if hasAnnotation(anns, "Data") {
		w.methods = append(w.methods, synthesizeLombokData(className, w.project, w.classFields(n))...)
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	localVars := map[string]string{}
	fieldTypes := map[string]string{}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "field_declaration":
			for _, f := range w.fieldDeclarations(member, className) {
				w.fields = append(w.fields, f)
				fieldTypes[f.Name] = f.Type
			}
		case "class_declaration", "interface_declaration", "enum_declaration":
			w.walkType(member, className)
		}
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "method_declaration", "constructor_declaration":
			w.walkMethod(member, className, fieldTypes, localVars)
		}
	}
}

func (w *walker) classFields(typeNode *sitter.Node) []model.Field {
	body := typeNode.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var out []model.Field
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() == "field_declaration" {
			out = append(out, w.fieldDeclarations(member, w.text(typeNode.ChildByFieldName("name")))...)
		}
	}
	return out
}

func (w *walker) fieldDeclarations(n *sitter.Node, className string) []model.Field {
	typeNode := n.ChildByFieldName("type")
	fieldType := w.text(typeNode)
	mods, anns := w.modifiersAndAnnotations(n.ChildByFieldName("modifiers"))

	var out []model.Field
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "variable_declarator" {
			continue
		}
		nameNode := c.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		initial := ""
		if v := c.ChildByFieldName("value"); v != nil {
			initial = w.text(v)
		}
		out = append(out, model.Field{
			ClassName:    className,
			Name:         w.text(nameNode),
			Project:      w.project,
			Type:         fieldType,
			Modifiers:    mods,
			Annotation:   anns,
			InitialValue: initial,
		})
	}
	return out
}

func (w *walker) walkMethod(n *sitter.Node, className string, fieldTypes, outerLocals map[string]string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	methodName := w.text(nameNode)

	returnType := ""
	if rt := n.ChildByFieldName("type"); rt != nil {
		returnType = w.text(rt)
	} else if n.Type() == "constructor_declaration" {
		returnType = className
	}

	mods, anns := w.modifiersAndAnnotations(n.ChildByFieldName("modifiers"))

	paramTypes := map[string]string{}
	var params []model.Parameter
	if pn := n.ChildByFieldName("parameters"); pn != nil {
		for i := 0; i < int(pn.NamedChildCount()); i++ {
			p := pn.NamedChild(i)
			if p.Type() != "formal_parameter" && p.Type() != "spread_parameter" {
				continue
			}
			pNameNode := p.ChildByFieldName("name")
			pTypeNode := p.ChildByFieldName("type")
			pName, pType := w.text(pNameNode), w.text(pTypeNode)
			params = append(params, model.Parameter{Name: pName, Type: pType})
			if pName != "" {
				paramTypes[pName] = pType
			}
		}
	}

	w.methods = append(w.methods, model.Method{
		ClassName:  className,
		Name:       methodName,
		Project:    w.project,
		ReturnType: returnType,
		Parameters: params,
		Modifiers:  mods,
		Annotation: anns,
		Source:     w.text(n),
	})

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}

	localVars := map[string]string{}
	for k, v := range outerLocals {
		localVars[k] = v
	}
	imports := w.importShortNameMap()

	r := &callResolver{
		w: w, className: className, methodName: methodName,
		fieldTypes: fieldTypes, paramTypes: paramTypes, localVars: localVars,
		imports: imports, packageName: w.packageName,
	}
	r.walk(body)
}

// callResolver collects method invocations inside one method body in
// textual occurrence order and resolves each target class.
type callResolver struct {
	w           *walker
	className   string
	methodName  string
	fieldTypes  map[string]string
	paramTypes  map[string]string
	localVars   map[string]string
	imports     map[string]string
	packageName string
	order       int
}

func (r *callResolver) walk(n *sitter.Node) {
	switch n.Type() {
	case "local_variable_declaration":
		r.recordLocalVar(n)
	case "method_invocation":
		r.recordCall(n)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		r.walk(n.Child(i))
	}
}

func (r *callResolver) recordLocalVar(n *sitter.Node) {
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	typ := r.w.text(typeNode)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "variable_declarator" {
			continue
		}
		if nameNode := c.ChildByFieldName("name"); nameNode != nil {
			r.localVars[r.w.text(nameNode)] = typ
		}
	}
}

func (r *callResolver) recordCall(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	methodName := r.w.text(nameNode)
	if streamMethods[methodName] {
		return
	}

	qualifier := n.ChildByFieldName("object")
	targetClass, targetPackage := r.resolveTarget(qualifier)

	call := MethodCall{
		SourceClass:   r.className,
		SourceMethod:  r.methodName,
		TargetClass:   targetClass,
		TargetMethod:  methodName,
		TargetPackage: targetPackage,
		CallOrder:     r.order,
		LineNumber:    int(n.StartPoint().Row) + 1,
	}
	r.order++
	r.w.calls = append(r.w.calls, call)
}

// resolveTarget implements spec.md §4.1's priority chain: (a) local
// variable types, (b) field types, (c) parameter types, (d) imports,
// (e) same-package fallback, (f) System.out special case. An unresolved
// qualifier keeps its literal text as the target class with no package.
func (r *callResolver) resolveTarget(qualifier *sitter.Node) (class, pkg string) {
	if qualifier == nil {
		// No qualifier: call on `this` — same class.
		return r.className, r.packageName
	}

	qualText := r.w.text(qualifier)
	if qualifier.Type() == "field_access" || strings.Contains(qualText, ".") {
		if qualText == "System.out" || qualText == "System.err" {
			return "PrintStream", "java.io"
		}
	}
	if qualText == "this" {
		return r.className, r.packageName
	}
	if qualText == "super" {
		return "", ""
	}

	if t, ok := r.localVars[qualText]; ok {
		return simpleType(t), r.packageForType(simpleType(t))
	}
	if t, ok := r.fieldTypes[qualText]; ok {
		return simpleType(t), r.packageForType(simpleType(t))
	}
	if t, ok := r.paramTypes[qualText]; ok {
		return simpleType(t), r.packageForType(simpleType(t))
	}
	if fqn, ok := r.imports[qualText]; ok {
		idx := strings.LastIndex(fqn, ".")
		if idx >= 0 {
			return qualText, fqn[:idx]
		}
		return qualText, ""
	}
	// Same-package fallback: assume the qualifier names a sibling class.
	if isTypeLikeIdentifier(qualText) {
		return qualText, r.packageName
	}
	return qualText, ""
}

func (r *callResolver) packageForType(simple string) string {
	if fqn, ok := r.imports[simple]; ok {
		idx := strings.LastIndex(fqn, ".")
		if idx >= 0 {
			return fqn[:idx]
		}
	}
	return r.packageName
}

func isTypeLikeIdentifier(s string) bool {
	if s == "" {
		return false
	}
	return s[0] >= 'A' && s[0] <= 'Z'
}

// simpleType strips generic parameters and array brackets: List<Order> -> List.
func simpleType(t string) string {
	if idx := strings.IndexByte(t, '<'); idx >= 0 {
		t = t[:idx]
	}
	return strings.TrimSuffix(strings.TrimSpace(t), "[]")
}

func (w *walker) modifiersAndAnnotations(n *sitter.Node) ([]string, []model.Annotation) {
	if n == nil {
		return nil, nil
	}
	var mods []string
	var anns []model.Annotation
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "marker_annotation", "annotation":
			anns = append(anns, w.parseAnnotation(c))
		default:
			mods = append(mods, w.text(c))
		}
	}
	return mods, anns
}

func (w *walker) annotationsFromModifiers(n *sitter.Node) []model.Annotation {
	_, anns := w.modifiersAndAnnotations(n)
	return anns
}

func (w *walker) parseAnnotation(n *sitter.Node) model.Annotation {
	nameNode := n.ChildByFieldName("name")
	name := w.text(nameNode)
	args := map[string]string{}
	if argsNode := n.ChildByFieldName("arguments"); argsNode != nil {
		for i := 0; i < int(argsNode.NamedChildCount()); i++ {
			pair := argsNode.NamedChild(i)
			if pair.Type() == "element_value_pair" {
				k := w.text(pair.ChildByFieldName("key"))
				v := w.text(pair.ChildByFieldName("value"))
				args[k] = strings.Trim(v, `"`)
			} else {
				// single-element annotation, e.g. @RequestMapping("/orders")
				args["value"] = strings.Trim(w.text(pair), `"`)
			}
		}
	}
	if len(args) == 0 {
		args = nil
	}
	return newAnnotation(name, args)
}

func (w *walker) firstTypeText(n *sitter.Node) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		return w.text(n.NamedChild(i))
	}
	return w.text(n)
}

func (w *walker) typeList(n *sitter.Node) []string {
	var out []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "type_list" {
			for j := 0; j < int(c.NamedChildCount()); j++ {
				out = append(out, w.text(c.NamedChild(j)))
			}
			continue
		}
		out = append(out, w.text(c))
	}
	return out
}

// SortCalls orders a flat call list by (call_order, line_number,
// target_method) for C7 callchain consumption, per spec.md's C7 ordering
// rule.
func SortCalls(calls []MethodCall) []MethodCall {
	out := make([]MethodCall, len(calls))
	copy(out, calls)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CallOrder != out[j].CallOrder {
			return out[i].CallOrder < out[j].CallOrder
		}
		if out[i].LineNumber != out[j].LineNumber {
			return out[i].LineNumber < out[j].LineNumber
		}
		return out[i].TargetMethod < out[j].TargetMethod
	})
	return out
}

// DebugDescribe renders a one-line human-readable summary, used by the
// CLI's verify-call-order command.
func DebugDescribe(c MethodCall) string {
	target := c.TargetClass
	if target == "" {
		target = "?"
	}
	return fmt.Sprintf("%s.%s -> %s.%s [order=%d line=%d]", c.SourceClass, c.SourceMethod, target, c.TargetMethod, c.CallOrder, c.LineNumber)
}
