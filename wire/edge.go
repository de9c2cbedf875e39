package wire

// EdgeKind selects which transition of a 1-bit signal a trigger fires on.
type EdgeKind int

// The three trigger edges a Conditional/Sequential block may specify.
const (
	Posedge EdgeKind = iota
	Negedge
	EitherEdge
)

// OnEdge registers fn against the requested edge kind.
func (s *Sig) OnEdge(kind EdgeKind, fn func(Change)) {
	switch kind {
	case Posedge:
		s.OnPosedge(fn)
	case Negedge:
		s.OnNegedge(fn)
	case EitherEdge:
		s.OnPosedge(fn)
		s.OnNegedge(fn)
	default:
		panic("wire: unknown edge kind")
	}
}
