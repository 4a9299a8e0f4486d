package analyzer

import "container/heap"

// worklist hands out pending execution points ordered by body and program
// counter, so that a join point is stepped after the points that reach it
// within the same body.
type worklist struct {
	items  workItems
	queued map[ExecutionPoint]bool
	seq    int
}

type workItem struct {
	ep     ExecutionPoint
	bodyID int
	seq    int
}

type workItems []workItem

func (w workItems) Len() int { return len(w) }

func (w workItems) Less(i, j int) bool {
	a, b := w[i], w[j]
	if a.bodyID != b.bodyID {
		return a.bodyID < b.bodyID
	}
	if a.ep.PC != b.ep.PC {
		return a.ep.PC < b.ep.PC
	}
	return a.seq < b.seq
}

func (w workItems) Swap(i, j int)       { w[i], w[j] = w[j], w[i] }
func (w *workItems) Push(x interface{}) { *w = append(*w, x.(workItem)) }

func (w *workItems) Pop() interface{} {
	old := *w
	n := len(old)
	item := old[n-1]
	*w = old[:n-1]
	return item
}

func newWorklist() *worklist {
	return &worklist{queued: map[ExecutionPoint]bool{}}
}

func (w *worklist) push(ep ExecutionPoint) {
	if w.queued[ep] {
		return
	}
	w.queued[ep] = true
	w.seq++
	id := 0
	if ep.Ctx.Body != nil {
		id = ep.Ctx.Body.ID
	}
	heap.Push(&w.items, workItem{ep: ep, bodyID: id, seq: w.seq})
}

func (w *worklist) pop() (ExecutionPoint, bool) {
	if len(w.items) == 0 {
		return ExecutionPoint{}, false
	}
	item := heap.Pop(&w.items).(workItem)
	delete(w.queued, item.ep)
	return item.ep, true
}

func (w *worklist) Len() int { return len(w.items) }
