package model

// Assign is a module-level `name = value` statement.
type Assign struct {
	Common
	Value Value
}

func (*Assign) Kind() Kind { return KindAssign }

func (a *Assign) Code() string {
	return a.Name + " = " + render(a.Value)
}

// AnnAssign is an annotated assignment, `name: T` or `name: T = value`.
// Class attributes are AnnAssigns.
type AnnAssign struct {
	Common
	Annotation Annotation
	Value      Value
}

func (*AnnAssign) Kind() Kind { return KindAnnAssign }

func (a *AnnAssign) Code() string {
	code := a.Name + ": " + render(a.Annotation)
	if !IsMissing(a.Value) {
		code += " = " + a.Value.String()
	}
	return code
}
