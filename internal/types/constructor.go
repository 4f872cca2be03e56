package types

// Constructor is the head of a type: a class, a type parameter, a builtin
// or an error marker. Implementations are compared by identity.
type Constructor interface {
	DebugName() string
	Parameters() []Parameter
	Supertypes() []*Type
	IsFinal() bool
}

// Parameter is a type parameter. It is its own constructor: the type T
// has the parameter T as head.
type Parameter interface {
	Constructor
	Variance() Variance
	Index() int
}

// errorConstructor heads an error type. Every error type gets its own
// constructor so unrelated errors are never equal by identity.
type errorConstructor struct {
	msg string
}

func (c *errorConstructor) DebugName() string       { return "[error: " + c.msg + "]" }
func (c *errorConstructor) Parameters() []Parameter { return nil }
func (c *errorConstructor) Supertypes() []*Type     { return nil }
func (c *errorConstructor) IsFinal() bool           { return true }

// NewErrorType returns a fresh error type. Error types stand in for
// unresolved references and broken supertype edges.
func NewErrorType(msg string) *Type {
	return &Type{ctor: &errorConstructor{msg: msg}, err: msg}
}

// ParameterTypes returns the type of each parameter, in order. This is
// the argument list of a class's default type.
func ParameterTypes(params []Parameter) []Projection {
	if len(params) == 0 {
		return nil
	}
	out := make([]Projection, len(params))
	for i, p := range params {
		out[i] = Invariantly(New(p, nil, false))
	}
	return out
}
