// Package diagram implements C9: the activation-aware sequence-diagram
// renderer. BuildActivation turns an ordered call-event stream into a
// {call, return} stream with correct LIFO activate/deactivate nesting;
// RenderMermaid and RenderPlantUML turn that stream into diagram text.
package diagram

import (
	"fmt"
	"strings"

	"github.com/javagraph/javagraph/internal/callchain"
)

// FlowEventType distinguishes a call frame push from a return pop.
type FlowEventType string

const (
	FlowCall   FlowEventType = "call"
	FlowReturn FlowEventType = "return"
)

// FlowEvent is one entry of the activation-aware event stream.
type FlowEvent struct {
	Type       FlowEventType
	Call       *callchain.Event // set when Type == FlowCall
	Source     string           // set when Type == FlowReturn
	Target     string           // set when Type == FlowReturn
	ReturnType string           // set when Type == FlowReturn
}

type activationFrame struct {
	class, method string
	returnType    string
}

// BuildActivation runs the stack-discipline algorithm from spec.md §4.3:
// every call event is matched against the current activation stack by
// (source_class, source_method), scanning from the top; any frames above
// the match point are popped and emitted as returns before the new call
// is pushed. At the end, every remaining frame above the root is popped.
// This guarantees every call has a matching return, returns are emitted
// in strict LIFO order, and the final stack is exactly the root frame.
func BuildActivation(events []callchain.Event, mainClass, topMethod, topReturnType string) []FlowEvent {
	stack := []activationFrame{{class: mainClass, method: topMethod, returnType: topReturnType}}
	var flow []FlowEvent

	popTo := func(keepAbove int) {
		for len(stack) > keepAbove {
			ended := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			target := mainClass
			if len(stack) > 0 {
				target = stack[len(stack)-1].class
			}
			flow = append(flow, FlowEvent{Type: FlowReturn, Source: ended.class, Target: target, ReturnType: ended.returnType})
		}
	}

	for _, e := range events {
		if e.TargetClass == "" {
			continue
		}

		// Table events are leaf annotations attached to whichever frame is
		// currently open: they never open their own activation and so need
		// no matching return.
		if e.Kind == callchain.EventTable {
			event := e
			flow = append(flow, FlowEvent{Type: FlowCall, Call: &event})
			continue
		}

		if e.TargetMethod == "" {
			continue
		}

		sourceAt := -1
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].class == e.SourceClass && stack[i].method == e.SourceMethod {
				sourceAt = i
				break
			}
		}
		if sourceAt == -1 {
			popTo(1)
		} else {
			popTo(sourceAt + 1)
		}

		event := e
		flow = append(flow, FlowEvent{Type: FlowCall, Call: &event})
		stack = append(stack, activationFrame{class: e.TargetClass, method: e.TargetMethod, returnType: orVoid(e.ReturnType)})
	}

	popTo(1)
	return flow
}

func orVoid(s string) string {
	if strings.TrimSpace(s) == "" {
		return "void"
	}
	return s
}

var externalPackagePrefixes = []string{"java.", "javax.", "jakarta.", "org.springframework", "org.apache"}
var inertExternalClasses = map[string]bool{"String": true, "Logger": true, "System": true}

// IsExternalLibraryCall reports whether a call targets a well-known
// external library package, per spec.md §4.3's activation-gating rule.
func IsExternalLibraryCall(targetPackage string) bool {
	for _, prefix := range externalPackagePrefixes {
		if strings.HasPrefix(targetPackage, prefix) {
			return true
		}
	}
	return false
}

// shouldActivate reports whether a call target should receive an
// activate/deactivate bracket: external-library calls only activate when
// the target class is not in the small inert-class set.
func shouldActivate(targetClass, targetPackage string) bool {
	if !IsExternalLibraryCall(targetPackage) {
		return true
	}
	return !inertExternalClasses[targetClass]
}

func sqlGlyph(isWrite bool) string {
	if isWrite {
		return "✏️"
	}
	return "🔍"
}

func isWriteSQL(e *callchain.Event) bool {
	switch e.SQLType {
	case "INSERT", "UPDATE", "DELETE":
		return true
	default:
		return false
	}
}

// participantOrder collects participant identifiers in first-appearance
// order: Client, then the main class, then every other class/SQL/table
// participant encountered while walking the flow.
func participantOrder(flow []FlowEvent, mainClass string) []string {
	order := []string{"Client", mainClass}
	seen := map[string]bool{"Client": true, mainClass: true}
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			order = append(order, p)
		}
	}
	for _, fe := range flow {
		if fe.Type != FlowCall {
			continue
		}
		add(fe.Call.SourceClass)
		add(fe.Call.TargetClass)
	}
	return order
}

func participantLabel(p string, flow []FlowEvent) string {
	if p == "SQL" {
		for _, fe := range flow {
			if fe.Type == FlowCall && fe.Call.TargetClass == "SQL" {
				return fmt.Sprintf("%s<br/>(%s)", fe.Call.MapperName, fe.Call.MapperName)
			}
		}
		return "SQL statement"
	}
	for _, fe := range flow {
		if fe.Type == FlowCall && fe.Call.Kind == callchain.EventTable && fe.Call.TargetClass == p {
			return fmt.Sprintf("Table : %s<br/>(Schema : %s)", p, fe.Call.TableSchema)
		}
	}
	return p
}

// RenderMermaid renders the activation-aware flow as a Mermaid
// sequenceDiagram fenced in a Markdown code block, per spec.md §6's
// output-format contract.
func RenderMermaid(flow []FlowEvent, mainClass, topMethod, topReturnType, title string) string {
	var b strings.Builder
	b.WriteString("```mermaid\n")
	b.WriteString(fmt.Sprintf("title: %s\n", title))
	b.WriteString("sequenceDiagram\n")

	for _, p := range participantOrder(flow, mainClass) {
		if p == "Client" {
			b.WriteString("    actor Client\n")
			continue
		}
		b.WriteString(fmt.Sprintf("    participant %s as %s\n", sanitizeID(p), participantLabel(p, flow)))
	}

	b.WriteString(fmt.Sprintf("    Client->>%s: %s()\n", sanitizeID(mainClass), topMethod))
	b.WriteString(fmt.Sprintf("    activate %s\n", sanitizeID(mainClass)))

	for _, fe := range flow {
		switch fe.Type {
		case FlowCall:
			c := fe.Call
			label := callLabel(c)
			b.WriteString(fmt.Sprintf("    %s->>%s: %s\n", sanitizeID(c.SourceClass), sanitizeID(c.TargetClass), label))
			if shouldActivate(c.TargetClass, c.TargetPackage) {
				b.WriteString(fmt.Sprintf("    activate %s\n", sanitizeID(c.TargetClass)))
			}
		case FlowReturn:
			b.WriteString(fmt.Sprintf("    %s-->>%s: return (%s)\n", sanitizeID(fe.Source), sanitizeID(fe.Target), fe.ReturnType))
			b.WriteString(fmt.Sprintf("    deactivate %s\n", sanitizeID(fe.Source)))
		}
	}

	b.WriteString(fmt.Sprintf("    %s-->>Client: return (%s)\n", sanitizeID(mainClass), topReturnType))
	b.WriteString(fmt.Sprintf("    deactivate %s\n", sanitizeID(mainClass)))
	b.WriteString("```\n")
	return b.String()
}

// RenderPlantUML renders the same activation-aware flow as a PlantUML
// sequence diagram.
func RenderPlantUML(flow []FlowEvent, mainClass, topMethod, topReturnType, title string) string {
	var b strings.Builder
	b.WriteString("@startuml\n")
	b.WriteString(fmt.Sprintf("title %s\n", title))
	b.WriteString("actor Client\n")

	for _, p := range participantOrder(flow, mainClass) {
		if p == "Client" {
			continue
		}
		b.WriteString(fmt.Sprintf("participant \"%s\" as %s\n", participantLabel(p, flow), sanitizeID(p)))
	}

	b.WriteString(fmt.Sprintf("Client -> %s : %s()\n", sanitizeID(mainClass), topMethod))
	b.WriteString(fmt.Sprintf("activate %s\n", sanitizeID(mainClass)))

	for _, fe := range flow {
		switch fe.Type {
		case FlowCall:
			c := fe.Call
			label := callLabel(c)
			b.WriteString(fmt.Sprintf("%s -> %s : %s\n", sanitizeID(c.SourceClass), sanitizeID(c.TargetClass), label))
			if shouldActivate(c.TargetClass, c.TargetPackage) {
				b.WriteString(fmt.Sprintf("activate %s\n", sanitizeID(c.TargetClass)))
			}
		case FlowReturn:
			b.WriteString(fmt.Sprintf("%s --> %s : return (%s)\n", sanitizeID(fe.Source), sanitizeID(fe.Target), fe.ReturnType))
			b.WriteString(fmt.Sprintf("deactivate %s\n", sanitizeID(fe.Source)))
		}
	}

	b.WriteString(fmt.Sprintf("%s --> Client : return (%s)\n", sanitizeID(mainClass), topReturnType))
	b.WriteString(fmt.Sprintf("deactivate %s\n", sanitizeID(mainClass)))
	b.WriteString("@enduml\n")
	return b.String()
}

func callLabel(c *callchain.Event) string {
	switch c.Kind {
	case callchain.EventSQL:
		return sqlGlyph(isWriteSQL(c)) + " " + c.TargetMethod
	case callchain.EventTable:
		return strings.TrimSpace("🗄️ " + c.TargetMethod)
	default:
		return c.TargetMethod + "()"
	}
}

func sanitizeID(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// ValidateLIFO is a property-testing helper: it replays flow and asserts
// every return pairs with a previously opened call and that the stack
// ends at exactly the root frame. Returns a non-empty violation message
// on failure, per spec.md §8's call that this invariant be checked.
func ValidateLIFO(flow []FlowEvent, mainClass, topMethod string) string {
	stack := []string{mainClass + "." + topMethod}
	for _, fe := range flow {
		switch fe.Type {
		case FlowCall:
			if fe.Call.Kind == callchain.EventTable {
				continue
			}
			stack = append(stack, fe.Call.TargetClass+"."+fe.Call.TargetMethod)
		case FlowReturn:
			if len(stack) <= 1 {
				return "return with empty stack"
			}
			top := stack[len(stack)-1]
			if !strings.HasPrefix(top, fe.Source+".") {
				return fmt.Sprintf("return source %q does not match top of stack %q", fe.Source, top)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) != 1 {
		return fmt.Sprintf("stack did not unwind to root: %v", stack)
	}
	return ""
}
