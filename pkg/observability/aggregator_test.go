package observability

import (
	"testing"

	"github.com/aretw0/flowpath/pkg/dsl"
	"github.com/aretw0/flowpath/pkg/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type observer struct {
	mock.Mock
}

func (o *observer) OnQuery(ev flow.QueryEvent)             { o.Called(ev) }
func (o *observer) OnPropagation(ev flow.PropagationEvent) { o.Called(ev) }

func (o *observer) hooks() flow.Hooks {
	return flow.Hooks{OnQuery: o.OnQuery, OnPropagation: o.OnPropagation}
}

func TestAggregate_CallsEveryObserver(t *testing.T) {
	first, second := &observer{}, &observer{}
	for _, o := range []*observer{first, second} {
		o.On("OnQuery", mock.MatchedBy(func(ev flow.QueryEvent) bool {
			return ev.Kind == "time" && ev.To == "C" && ev.Found
		})).Once()
		o.On("OnPropagation", mock.MatchedBy(func(ev flow.PropagationEvent) bool {
			return ev.Target == "C" && ev.Sources == 1
		})).Once()
	}

	net, _, err := dsl.Decode("A:1 > B:2 > C:3", flow.WithHooks(Aggregate(first.hooks(), flow.Hooks{}, second.hooks())))
	require.NoError(t, err)
	_, found, err := net.TimeFrom("C", map[string]float64{"A": 1})
	require.NoError(t, err)
	require.True(t, found)

	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestAggregate_Empty(t *testing.T) {
	hooks := Aggregate(flow.Hooks{})

	assert.Nil(t, hooks.OnQuery)
	assert.Nil(t, hooks.OnPropagation)
}
