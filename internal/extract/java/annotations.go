package java

import "github.com/javagraph/javagraph/internal/model"

// Annotation category sets, the taxonomy referenced by spec.md §4.1
// ("component, injection, web, jpa, test, security, validation, mybatis,
// other"). Names are grounded on the upstream classifier's
// classify_springboot_annotation tables.
var (
	componentAnnotations = set(
		"Component", "Service", "Repository", "Controller",
		"RestController", "Configuration", "Bean",
	)
	injectionAnnotations = set(
		"Autowired", "Resource", "Value", "Qualifier", "Primary",
	)
	webAnnotations = set(
		"RequestMapping", "GetMapping", "PostMapping", "PutMapping",
		"DeleteMapping", "PatchMapping", "RequestParam", "PathVariable",
		"RequestBody", "ResponseBody", "ResponseStatus",
	)
	jpaAnnotations = set(
		"Entity", "Table", "MappedSuperclass", "Embeddable", "Embedded",
		"Id", "GeneratedValue", "SequenceGenerator", "TableGenerator",
		"Column", "Basic", "Transient", "Enumerated", "Temporal", "Lob",
		"OneToOne", "OneToMany", "ManyToOne", "ManyToMany",
		"JoinColumn", "JoinColumns", "JoinTable", "PrimaryKeyJoinColumn", "PrimaryKeyJoinColumns",
		"ElementCollection", "CollectionTable", "OrderBy", "OrderColumn",
		"MapKey", "MapKeyClass", "MapKeyColumn", "MapKeyJoinColumn", "MapKeyJoinColumns",
		"MapKeyTemporal", "MapKeyEnumerated",
		"Inheritance", "DiscriminatorColumn", "DiscriminatorValue",
		"SecondaryTable", "SecondaryTables", "AttributeOverride", "AttributeOverrides",
		"AssociationOverride", "AssociationOverrides",
		"NamedQuery", "NamedQueries", "NamedNativeQuery", "NamedNativeQueries",
		"SqlResultSetMapping", "SqlResultSetMappings", "ConstructorResult", "ColumnResult",
		"FieldResult", "EntityResult", "EntityResults",
		"Cacheable", "Version", "Access",
		"UniqueConstraint", "Index", "ForeignKey",
	)
	testAnnotations = set(
		"Test", "SpringBootTest", "DataJpaTest", "WebMvcTest",
		"MockBean", "SpyBean", "TestPropertySource",
	)
	securityAnnotations = set(
		"PreAuthorize", "PostAuthorize", "Secured", "RolesAllowed",
		"EnableWebSecurity", "EnableGlobalMethodSecurity",
	)
	validationAnnotations = set(
		"Valid", "NotNull", "NotBlank", "NotEmpty", "Size", "Min", "Max",
		"Pattern", "Email", "AssertTrue", "AssertFalse",
	)
	mybatisAnnotations = set(
		"Mapper", "Select", "Insert", "Update", "Delete", "SelectProvider",
		"InsertProvider", "UpdateProvider", "DeleteProvider", "Results",
		"Result", "One", "Many", "Options", "SelectKey",
	)
)

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// classifyAnnotation assigns a category to a bare (no leading @) annotation
// name, per spec.md §4.1 / §9's taxonomy.
func classifyAnnotation(name string) string {
	switch {
	case componentAnnotations[name]:
		return "component"
	case injectionAnnotations[name]:
		return "injection"
	case webAnnotations[name]:
		return "web"
	case jpaAnnotations[name]:
		return "jpa"
	case testAnnotations[name]:
		return "test"
	case securityAnnotations[name]:
		return "security"
	case validationAnnotations[name]:
		return "validation"
	case mybatisAnnotations[name]:
		return "mybatis"
	default:
		return "other"
	}
}

func newAnnotation(name string, args map[string]string) model.Annotation {
	return model.Annotation{Name: name, Category: classifyAnnotation(name), Args: args}
}

func hasAnnotation(anns []model.Annotation, name string) bool {
	for _, a := range anns {
		if a.Name == name {
			return true
		}
	}
	return false
}

func findAnnotation(anns []model.Annotation, name string) (model.Annotation, bool) {
	for _, a := range anns {
		if a.Name == name {
			return a, true
		}
	}
	return model.Annotation{}, false
}
