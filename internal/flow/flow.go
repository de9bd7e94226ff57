// Package flow implements C8: partitioning a call-chain event stream
// into per-top-method flows and applying the final correctness filter
// before the events reach the activation-aware renderer.
package flow

import "github.com/javagraph/javagraph/internal/callchain"

var lombokMethods = map[string]bool{"equals": true, "hashCode": true, "toString": true}

// knownBadMappings are (source_class, target_method) pairs the original
// extraction corpus mis-resolves; they are dropped as rendering noise
// rather than fixed at the extraction layer.
var knownBadMappings = map[[2]string]bool{
	{"UserController", "format"}: true,
}

// Flow is one top-method's filtered, ordered event slice.
type Flow struct {
	TopMethod string
	Events    []callchain.Event
}

// Build partitions events by TopMethod, keeps only the flow named by
// focusMethod (if non-empty), and drops events that fail the final
// correctness filter: a method event whose (source_class, target_method)
// is a known-bad mapping, or a Lombok-synthesized intra-class call
// (equals/hashCode/toString where source_class == target_class).
func Build(events []callchain.Event, focusMethod string) []Flow {
	order := make([]string, 0)
	byTop := make(map[string][]callchain.Event)
	for _, e := range events {
		if focusMethod != "" && e.TopMethod != focusMethod {
			continue
		}
		if shouldFilter(e) {
			continue
		}
		if _, seen := byTop[e.TopMethod]; !seen {
			order = append(order, e.TopMethod)
		}
		byTop[e.TopMethod] = append(byTop[e.TopMethod], e)
	}

	flows := make([]Flow, 0, len(order))
	for _, top := range order {
		flows = append(flows, Flow{TopMethod: top, Events: byTop[top]})
	}
	return flows
}

func shouldFilter(e callchain.Event) bool {
	if e.Kind != callchain.EventMethod {
		return false
	}
	if lombokMethods[e.TargetMethod] && e.SourceClass == e.TargetClass {
		return true
	}
	return knownBadMappings[[2]string{e.SourceClass, e.TargetMethod}]
}
