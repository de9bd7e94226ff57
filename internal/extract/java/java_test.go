package java

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalCallSample = `
package com.example;

public class Main {
    public void main() {
        Greeter g = new Greeter();
        g.sayHello();
    }
}

class Greeter {
    void sayHello() {
    }
}
`

const annotatedControllerSample = `
package com.example.orders;

import com.example.orders.service.OrderService;
import org.springframework.beans.factory.annotation.Autowired;

@RestController
@RequestMapping("/api/orders")
public class OrderController {

    @Autowired
    private OrderService orderService;

    @GetMapping("/{id}")
    public Order getOrder(@PathVariable Long id) {
        return orderService.findById(id);
    }
}
`

const dataClassSample = `
package com.example.orders.model;

@Data
public class Order {
    private Long id;
    private String status;
}
`

const streamFilterSample = `
package com.example.orders;

import java.util.List;

public class OrderStats {
    public long countActive(List<Order> orders) {
        return orders.stream().filter(o -> o.isActive()).count();
    }
}
`

func TestParseFile_MinimalCallOrder(t *testing.T) {
	p := New()
	defer p.Close()

	res, err := p.ParseFile("Main.java", "demo", []byte(minimalCallSample))
	require.NoError(t, err)
	assert.Equal(t, "com.example", res.PackageName)

	var classNames []string
	for _, c := range res.Classes {
		classNames = append(classNames, c.Name)
	}
	assert.Contains(t, classNames, "Main")
	assert.Contains(t, classNames, "Greeter")

	require.NotEmpty(t, res.Calls)
	call := res.Calls[0]
	assert.Equal(t, "Main", call.SourceClass)
	assert.Equal(t, "main", call.SourceMethod)
	assert.Equal(t, "Greeter", call.TargetClass)
	assert.Equal(t, "sayHello", call.TargetMethod)
	assert.Equal(t, 0, call.CallOrder)
}

func TestParseFile_AnnotationCategoriesAndInjectionResolution(t *testing.T) {
	p := New()
	defer p.Close()

	res, err := p.ParseFile("OrderController.java", "demo", []byte(annotatedControllerSample))
	require.NoError(t, err)
	require.Len(t, res.Classes, 1)

	ctrl := res.Classes[0]
	ann, ok := findAnnotation(ctrl.Annotation, "RestController")
	require.True(t, ok)
	assert.Equal(t, "component", ann.Category)

	mapping, ok := findAnnotation(ctrl.Annotation, "RequestMapping")
	require.True(t, ok)
	assert.Equal(t, "web", mapping.Category)
	assert.Equal(t, "/api/orders", mapping.Args["value"])

	require.Len(t, res.Fields, 1)
	assert.Equal(t, "OrderService", res.Fields[0].Type)
	fieldAnn, ok := findAnnotation(res.Fields[0].Annotation, "Autowired")
	require.True(t, ok)
	assert.Equal(t, "injection", fieldAnn.Category)

	var getOrder *MethodCall
	for i, c := range res.Calls {
		if c.TargetMethod == "findById" {
			getOrder = &res.Calls[i]
		}
	}
	require.NotNil(t, getOrder)
	assert.Equal(t, "OrderService", getOrder.TargetClass)
}

func TestParseFile_LombokDataSynthesis(t *testing.T) {
	p := New()
	defer p.Close()

	res, err := p.ParseFile("Order.java", "demo", []byte(dataClassSample))
	require.NoError(t, err)

	byName := make(map[string]bool)
	for _, m := range res.Methods {
		byName[m.Name] = m.LombokSynthesized
	}
	assert.True(t, byName["getId"])
	assert.True(t, byName["setId"])
	assert.True(t, byName["getStatus"])
	assert.True(t, byName["setStatus"])
	assert.True(t, byName["equals"])
	assert.True(t, byName["hashCode"])
	assert.True(t, byName["toString"])
}

func TestParseFile_StreamMethodsSuppressed(t *testing.T) {
	p := New()
	defer p.Close()

	res, err := p.ParseFile("OrderStats.java", "demo", []byte(streamFilterSample))
	require.NoError(t, err)
	for _, c := range res.Calls {
		assert.NotEqual(t, "stream", c.TargetMethod)
		assert.NotEqual(t, "filter", c.TargetMethod)
		assert.NotEqual(t, "count", c.TargetMethod)
	}
}

func TestParseFile_MalformedSourceReturnsParseError(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.ParseFile("Broken.java", "demo", []byte("public class {{{ broken"))
	require.Error(t, err)
}

func TestSortCalls_OrdersByCallOrderThenLineThenTarget(t *testing.T) {
	calls := []MethodCall{
		{CallOrder: 1, LineNumber: 5, TargetMethod: "b"},
		{CallOrder: 0, LineNumber: 2, TargetMethod: "z"},
		{CallOrder: 0, LineNumber: 1, TargetMethod: "a"},
	}
	sorted := SortCalls(calls)
	require.Len(t, sorted, 3)
	assert.Equal(t, "a", sorted[0].TargetMethod)
	assert.Equal(t, "z", sorted[1].TargetMethod)
	assert.Equal(t, "b", sorted[2].TargetMethod)
}
