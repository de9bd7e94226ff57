// Package mybatis implements the C3 MyBatis XML mapper parser: it reads
// *Mapper.xml / *Dao.xml files and yields a Mapper plus its SqlStatements,
// deferring table/column extraction to internal/extract/sql.
package mybatis

import (
	"encoding/xml"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/javagraph/javagraph/internal/errs"
	"github.com/javagraph/javagraph/internal/logging"
	"github.com/javagraph/javagraph/internal/model"
)

// rawElement mirrors enough of the MyBatis mapper XML shape to walk any
// select/insert/update/delete/resultMap child regardless of nesting from
// dynamic-SQL tags (<if>, <choose>, <foreach>, ...), which are treated as
// opaque text per spec.md §4.1.
type rawElement struct {
	XMLName  xml.Name
	Attrs    []xml.Attr   `xml:",any,attr"`
	Content  []byte       `xml:",innerxml"`
	Children []rawElement `xml:",any"`
}

func (e rawElement) attr(name string) string {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// ScanDirectory walks dir for *Mapper.xml / *Dao.xml files and parses each.
// Per §7, a malformed file is logged and skipped, never fatal.
func ScanDirectory(dir string) ([]model.Mapper, []model.SqlStatement) {
	var mappers []model.Mapper
	var statements []model.SqlStatement

	log := logging.Get(logging.CategoryExtractXML)
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, "Mapper.xml") && !strings.HasSuffix(name, "Dao.xml") {
			return nil
		}
		mapper, stmts, perr := ParseFile(path)
		if perr != nil {
			log.Warn("skipping %s: %v", path, perr)
			return nil
		}
		mappers = append(mappers, mapper)
		statements = append(statements, stmts...)
		return nil
	})
	return mappers, statements
}

// ParseFile parses a single MyBatis mapper XML file.
func ParseFile(path string) (model.Mapper, []model.SqlStatement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Mapper{}, nil, &errs.IOError{Op: "read", Path: path, Wrapped: err}
	}
	return Parse(data, path)
}

// Parse parses MyBatis mapper XML content already in memory.
func Parse(data []byte, path string) (model.Mapper, []model.SqlStatement, error) {
	var root rawElement
	if err := xml.Unmarshal(data, &root); err != nil {
		return model.Mapper{}, nil, &errs.ParseError{File: path, Message: err.Error()}
	}

	namespace := root.attr("namespace")
	mapperName := namespace
	if idx := strings.LastIndex(namespace, "."); idx >= 0 {
		mapperName = namespace[idx+1:]
	}
	if mapperName == "" {
		mapperName = strings.TrimSuffix(filepath.Base(path), ".xml")
	}

	mapper := model.Mapper{
		Name:      mapperName,
		Type:      model.MapperXML,
		Namespace: namespace,
		FilePath:  path,
	}

	var statements []model.SqlStatement
	for _, child := range root.Children {
		tag := strings.ToLower(child.XMLName.Local)
		var sqlType model.SQLType
		switch tag {
		case "select":
			sqlType = model.SQLSelect
		case "insert":
			sqlType = model.SQLInsert
		case "update":
			sqlType = model.SQLUpdate
		case "delete":
			sqlType = model.SQLDelete
		default:
			continue
		}

		id := child.attr("id")
		if id == "" {
			continue
		}

		statements = append(statements, model.SqlStatement{
			ID:            id,
			MapperName:    mapperName,
			SQLType:       sqlType,
			SQLContent:    extractText(child),
			ParameterType: child.attr("parameterType"),
			ResultType:    child.attr("resultType"),
			ResultMap:     child.attr("resultMap"),
		})
	}

	return mapper, statements, nil
}

// extractText concatenates an element's direct text with the text of every
// descendant, the same tolerant strategy the upstream extractor uses to
// treat dynamic-SQL child tags (<if>, <foreach>, ...) as opaque text.
func extractText(e rawElement) string {
	var b strings.Builder
	collectText(e.Content, &b)
	return strings.TrimSpace(b.String())
}

// collectText strips XML tags from raw inner-XML bytes, keeping character
// data (including CDATA payloads) in document order.
func collectText(innerXML []byte, b *strings.Builder) {
	dec := xml.NewDecoder(strings.NewReader("<root>" + string(innerXML) + "</root>"))
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
			b.WriteByte(' ')
		}
	}
}

// ResultMapProperty is one <result property column jdbcType> child.
type ResultMapProperty struct {
	Property string
	Column   string
	JDBCType string
}

// ResultMap is a parsed <resultMap id type> element.
type ResultMap struct {
	ID         string
	Type       string
	Properties []ResultMapProperty
}

// ParseResultMaps extracts all <resultMap> elements from mapper XML content.
func ParseResultMaps(data []byte) ([]ResultMap, error) {
	var root rawElement
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	var out []ResultMap
	for _, child := range root.Children {
		if strings.ToLower(child.XMLName.Local) != "resultmap" {
			continue
		}
		rm := ResultMap{ID: child.attr("id"), Type: child.attr("type")}
		for _, prop := range child.Children {
			if strings.ToLower(prop.XMLName.Local) != "result" {
				continue
			}
			rm.Properties = append(rm.Properties, ResultMapProperty{
				Property: prop.attr("property"),
				Column:   prop.attr("column"),
				JDBCType: prop.attr("jdbcType"),
			})
		}
		out = append(out, rm)
	}
	return out, nil
}
