package types

// Block is implemented by the analyzer's closure representation. Its key
// must identify the closure body together with the point it was created at.
type Block interface {
	Key() string
	String() string
}

type Proc struct {
	Block Block
}

func (t Proc) Key() string    { return "P(" + t.Block.Key() + ")" }
func (t Proc) String() string { return "Proc" }
