package java

import (
	"strings"

	"github.com/javagraph/javagraph/internal/model"
)

// synthesizeLombokData manufactures the Method nodes a @Data-annotated
// class gains at compile time: a getter per field, a setter per non-final
// field, plus
// equals/hashCode/toString. These carry LombokSynthesized=true and empty
// source, per spec.md §4.1.
func synthesizeLombokData(className, project string, fields []model.Field) []model.Method {
	var out []model.Method
	for _, f := range fields {
		out = append(out, model.Method{
			ClassName:         className,
			Name:              getterName(f),
			Project:           project,
			ReturnType:        f.Type,
			LombokSynthesized: true,
		})
		if !hasModifier(f.Modifiers, "final") {
			out = append(out, model.Method{
				ClassName:         className,
				Name:              "set" + capitalize(f.Name),
				Project:           project,
				ReturnType:        "void",
				Parameters:        []model.Parameter{{Name: f.Name, Type: f.Type}},
				LombokSynthesized: true,
			})
		}
	}
	out = append(out,
		model.Method{ClassName: className, Name: "equals", Project: project, ReturnType: "boolean",
			Parameters: []model.Parameter{{Name: "o", Type: "Object"}}, LombokSynthesized: true},
		model.Method{ClassName: className, Name: "hashCode", Project: project, ReturnType: "int", LombokSynthesized: true},
		model.Method{ClassName: className, Name: "toString", Project: project, ReturnType: "String", LombokSynthesized: true},
	)
	return out
}

func getterName(f model.Field) string {
	if f.Type == "boolean" {
		return "is" + capitalize(f.Name)
	}
	return "get" + capitalize(f.Name)
}

func hasModifier(mods []string, name string) bool {
	for _, m := range mods {
		if m == name {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
