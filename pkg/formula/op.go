package formula

// Op is a primitive operator.
type Op int

// Operators.
const (
	OpNone Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

var opSymbols = map[string]Op{
	"+":  OpAdd,
	"-":  OpSub,
	"*":  OpMul,
	"/":  OpDiv,
	"%":  OpMod,
	"=":  OpEq,
	"==": OpEq,
	"!=": OpNe,
	"<>": OpNe,
	"<":  OpLt,
	"<=": OpLe,
	">":  OpGt,
	">=": OpGe,
	"&&": OpAnd,
	"||": OpOr,
}

var opNames = map[Op]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpMod: "%",
	OpEq:  "=",
	OpNe:  "!=",
	OpLt:  "<",
	OpLe:  "<=",
	OpGt:  ">",
	OpGe:  ">=",
	OpAnd: "&&",
	OpOr:  "||",
}

// LookupOp returns the operator spelled s.
func LookupOp(s string) (Op, bool) {
	op, ok := opSymbols[s]
	return op, ok
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "?"
}

// IsAdditive reports whether o is + or -.
func (o Op) IsAdditive() bool { return o == OpAdd || o == OpSub }

// IsMultiplicative reports whether o is *, / or %.
func (o Op) IsMultiplicative() bool { return o == OpMul || o == OpDiv || o == OpMod }

// IsArithmetic reports whether o is additive or multiplicative.
func (o Op) IsArithmetic() bool { return o.IsAdditive() || o.IsMultiplicative() }

// IsComparison reports whether o compares its operands.
func (o Op) IsComparison() bool { return o >= OpEq && o <= OpGe }

// IsLogical reports whether o is && or ||.
func (o Op) IsLogical() bool { return o == OpAnd || o == OpOr }
