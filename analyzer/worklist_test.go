package analyzer

import (
	"testing"

	"github.com/redneckbeard/rbprof/ir"
	"github.com/stretchr/testify/assert"
)

func TestWorklistOrder(t *testing.T) {
	first := ir.NewBuilder(ir.TopBody, "first", "test.rb").PutNil().Leave().MustBuild()
	second := ir.NewBuilder(ir.MethodBody, "second", "test.rb").PutNil().Leave().MustBuild()
	a := ExecutionPoint{Ctx: Context{Body: first}}
	b := ExecutionPoint{Ctx: Context{Body: second}}

	w := newWorklist()
	w.push(b.Jump(1))
	w.push(a.Jump(1))
	w.push(b)
	w.push(a)
	w.push(a)
	assert.Equal(t, 4, w.Len(), "duplicates are dropped while queued")

	var got []ExecutionPoint
	for {
		ep, ok := w.pop()
		if !ok {
			break
		}
		got = append(got, ep)
	}
	assert.Equal(t, []ExecutionPoint{a, a.Jump(1), b, b.Jump(1)}, got)

	w.push(a)
	assert.Equal(t, 1, w.Len(), "a popped point can be queued again")
}
