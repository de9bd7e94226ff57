package diagram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javagraph/javagraph/internal/callchain"
)

func TestBuildActivation_LinearChainProducesBalancedReturns(t *testing.T) {
	events := []callchain.Event{
		{Kind: callchain.EventMethod, SourceClass: "OrderController", SourceMethod: "getOrder",
			TargetClass: "OrderService", TargetMethod: "findOrder", ReturnType: "Order"},
		{Kind: callchain.EventMethod, SourceClass: "OrderService", SourceMethod: "findOrder",
			TargetClass: "OrderMapper", TargetMethod: "findById", ReturnType: "Order"},
	}

	flow := BuildActivation(events, "OrderController", "getOrder", "Order")
	violation := ValidateLIFO(flow, "OrderController", "getOrder")
	assert.Empty(t, violation)

	var calls, returns int
	for _, fe := range flow {
		switch fe.Type {
		case FlowCall:
			calls++
		case FlowReturn:
			returns++
		}
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, returns)
}

func TestBuildActivation_SiblingCallsAtSameDepthPopToCorrectFrame(t *testing.T) {
	events := []callchain.Event{
		{Kind: callchain.EventMethod, SourceClass: "Controller", SourceMethod: "handle",
			TargetClass: "ServiceA", TargetMethod: "a", ReturnType: "void"},
		{Kind: callchain.EventMethod, SourceClass: "ServiceA", SourceMethod: "a",
			TargetClass: "Repo", TargetMethod: "find", ReturnType: "Entity"},
		// next call's source is Controller.handle again, not ServiceA.a or Repo.find:
		// both open frames must be popped as returns before this call.
		{Kind: callchain.EventMethod, SourceClass: "Controller", SourceMethod: "handle",
			TargetClass: "ServiceB", TargetMethod: "b", ReturnType: "void"},
	}

	flow := BuildActivation(events, "Controller", "handle", "void")
	assert.Empty(t, ValidateLIFO(flow, "Controller", "handle"))

	// Expect: call A, call Repo, return Repo, return A, call B, return B, return (root finalize, none left)
	var typesAndTargets []string
	for _, fe := range flow {
		if fe.Type == FlowCall {
			typesAndTargets = append(typesAndTargets, "call:"+fe.Call.TargetClass)
		} else {
			typesAndTargets = append(typesAndTargets, "return:"+fe.Source)
		}
	}
	require.True(t, len(typesAndTargets) >= 5)
	assert.Equal(t, "call:ServiceA", typesAndTargets[0])
	assert.Equal(t, "call:Repo", typesAndTargets[1])
	assert.Equal(t, "return:Repo", typesAndTargets[2])
	assert.Equal(t, "return:ServiceA", typesAndTargets[3])
	assert.Equal(t, "call:ServiceB", typesAndTargets[4])
}

func TestBuildActivation_UnresolvedSourceFallsBackToRoot(t *testing.T) {
	events := []callchain.Event{
		{Kind: callchain.EventMethod, SourceClass: "Unknown", SourceMethod: "ghost",
			TargetClass: "ServiceA", TargetMethod: "a", ReturnType: "void"},
	}

	flow := BuildActivation(events, "Controller", "handle", "void")
	assert.Empty(t, ValidateLIFO(flow, "Controller", "handle"))
}

func TestIsExternalLibraryCall_PackagePrefixesAndInertExceptions(t *testing.T) {
	assert.True(t, IsExternalLibraryCall("org.springframework.web"))
	assert.True(t, IsExternalLibraryCall("java.util"))
	assert.False(t, IsExternalLibraryCall("com.example.service"))
	assert.False(t, shouldActivate("Logger", "java.util.logging"))
	assert.False(t, shouldActivate("String", "java.lang"))
}

func TestRenderMermaid_ProducesFencedSequenceDiagramWithClientBracket(t *testing.T) {
	events := []callchain.Event{
		{Kind: callchain.EventMethod, SourceClass: "OrderController", SourceMethod: "getOrder",
			TargetClass: "OrderService", TargetMethod: "findOrder", ReturnType: "Order"},
		{Kind: callchain.EventSQL, SourceClass: "OrderService", SourceMethod: "findOrder",
			TargetClass: "SQL", TargetMethod: "findById", MapperName: "OrderMapper",
			SQLType: "SELECT", ReturnType: "Order"},
		{Kind: callchain.EventTable, SourceClass: "OrderService", SourceMethod: "findOrder",
			TargetClass: "orders", TableSchema: "public"},
	}
	flow := BuildActivation(events, "OrderController", "getOrder", "Order")

	out := RenderMermaid(flow, "OrderController", "getOrder", "Order", "getOrder sequence")
	assert.True(t, strings.HasPrefix(out, "```mermaid\n"))
	assert.Contains(t, out, "sequenceDiagram")
	assert.Contains(t, out, "title: getOrder sequence")
	assert.Contains(t, out, "actor Client")
	assert.Contains(t, out, "Client->>OrderController: getOrder()")
	assert.Contains(t, out, "🔍 findById")
	assert.Contains(t, out, "🗄️")
	assert.Contains(t, out, "Table : orders<br/>(Schema : public)")
	assert.True(t, strings.HasSuffix(strings.TrimRight(out, "\n"), "```"))
}

func TestRenderPlantUML_StartsAndEndsWithUMLMarkers(t *testing.T) {
	events := []callchain.Event{
		{Kind: callchain.EventMethod, SourceClass: "OrderController", SourceMethod: "getOrder",
			TargetClass: "OrderService", TargetMethod: "findOrder", ReturnType: "Order"},
	}
	flow := BuildActivation(events, "OrderController", "getOrder", "Order")

	out := RenderPlantUML(flow, "OrderController", "getOrder", "Order", "getOrder sequence")
	assert.True(t, strings.HasPrefix(out, "@startuml\n"))
	assert.True(t, strings.HasSuffix(out, "@enduml\n"))
}
