package observability

import "github.com/aretw0/flowpath/pkg/flow"

// Aggregate combines several hook sets into one that calls each in order.
func Aggregate(hooks ...flow.Hooks) flow.Hooks {
	var queries []func(flow.QueryEvent)
	var props []func(flow.PropagationEvent)
	for _, h := range hooks {
		if h.OnQuery != nil {
			queries = append(queries, h.OnQuery)
		}
		if h.OnPropagation != nil {
			props = append(props, h.OnPropagation)
		}
	}

	var out flow.Hooks
	if len(queries) > 0 {
		out.OnQuery = func(ev flow.QueryEvent) {
			for _, fn := range queries {
				fn(ev)
			}
		}
	}
	if len(props) > 0 {
		out.OnPropagation = func(ev flow.PropagationEvent) {
			for _, fn := range props {
				fn(ev)
			}
		}
	}
	return out
}
