// Package eql parses the entity query language, a small textual syntax for
// building component filters at runtime. The grammar supports CONTAINS(...),
// EXACT(...), ALL(), negation with !, grouping with parentheses, and the
// binary operators & and |.
package eql

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/rotisserie/eris"

	"github.com/glasswing-games/aether/filter"
	"github.com/glasswing-games/aether/types"
)

// Resolver maps a component name from query text to a registered component.
type Resolver func(name string) (types.Component, error)

type eqlOperator int

const (
	opAnd eqlOperator = iota
	opOr
)

var operatorMap = map[string]eqlOperator{"&": opAnd, "|": opOr}

// Capture tells the parser how to turn an operator token into the operator type.
func (o *eqlOperator) Capture(s []string) error {
	if len(s) == 0 {
		return eris.New("invalid operator")
	}
	operator, ok := operatorMap[s[0]]
	if !ok {
		return eris.New("invalid operator")
	}
	*o = operator
	return nil
}

type eqlComponent struct {
	Name string `parser:"@Ident"`
}

type eqlAll struct{}

func (a *eqlAll) Capture(values []string) error {
	if values[0] == "ALL" && values[1] == "(" && values[2] == ")" {
		*a = eqlAll{}
	}
	return nil
}

type eqlNot struct {
	SubExpression *eqlValue `parser:"\"!\" @@"`
}

type eqlExact struct {
	Components []*eqlComponent `parser:"\"EXACT\"\"(\" (@@\",\")* @@ \")\""`
}

type eqlContains struct {
	Components []*eqlComponent `parser:"\"CONTAINS\" \"(\" (@@\",\")* @@ \")\""`
}

type eqlValue struct {
	All           *eqlAll      `parser:"@(\"ALL\" \"(\" \")\")"`
	Exact         *eqlExact    `parser:"| @@"`
	Contains      *eqlContains `parser:"| @@"`
	Not           *eqlNot      `parser:"| @@"`
	Subexpression *eqlTerm     `parser:"| \"(\" @@ \")\""`
}

type eqlFactor struct {
	Base *eqlValue `parser:"@@"`
}

type eqlOpFactor struct {
	Operator eqlOperator `parser:"@(\"&\" | \"|\")"`
	Factor   *eqlFactor  `parser:"@@"`
}

type eqlTerm struct {
	Left  *eqlFactor     `parser:"@@"`
	Right []*eqlOpFactor `parser:"@@*"`
}

// Display

func (o eqlOperator) String() string {
	switch o {
	case opAnd:
		return "&"
	case opOr:
		return "|"
	}
	panic("unsupported operator")
}

func (a *eqlAll) String() string {
	return "ALL()"
}

func (e *eqlExact) String() string {
	parameters := ""
	for i, comp := range e.Components {
		parameters += comp.Name
		if i < len(e.Components)-1 {
			parameters += ", "
		}
	}
	return "EXACT(" + parameters + ")"
}

func (e *eqlContains) String() string {
	parameters := ""
	for i, comp := range e.Components {
		parameters += comp.Name
		if i < len(e.Components)-1 {
			parameters += ", "
		}
	}
	return "CONTAINS(" + parameters + ")"
}

func (v *eqlValue) String() string {
	//nolint: gocritic,nestif // its ok.
	if v.Exact != nil {
		return v.Exact.String()
	} else if v.Contains != nil {
		return v.Contains.String()
	} else if v.All != nil {
		return v.All.String()
	} else if v.Not != nil {
		return "!(" + v.Not.SubExpression.String() + ")"
	} else if v.Subexpression != nil {
		return "(" + v.Subexpression.String() + ")"
	} else {
		panic("logic error displaying EQL ast. Check the code in eql.go")
	}
}

func (f *eqlFactor) String() string {
	out := f.Base.String()
	return out
}

func (o *eqlOpFactor) String() string {
	return fmt.Sprintf("%s %s", o.Operator, o.Factor)
}

func (t *eqlTerm) String() string {
	out := []string{t.Left.String()}
	for _, r := range t.Right {
		out = append(out, r.String())
	}
	return strings.Join(out, " ")
}

var internalEQLParser = participle.MustBuild[eqlTerm]()

// TODO: the AST sum type is represented as a product type, so multiple fields
// could in principle be filled out. The parser prevents it today but the
// conversion should eventually verify only one field is set.
func valueToComponentFilter(value *eqlValue, resolve Resolver) (filter.ComponentFilter, error) {
	if value.Not != nil { //nolint:gocritic,nestif // its fine.
		resultFilter, err := valueToComponentFilter(value.Not.SubExpression, resolve)
		if err != nil {
			return nil, err
		}
		return filter.Not(resultFilter), nil
	} else if value.Exact != nil {
		if len(value.Exact.Components) == 0 {
			return nil, eris.New("EXACT cannot have zero parameters")
		}
		components := make([]types.Component, 0, len(value.Exact.Components))
		for _, componentName := range value.Exact.Components {
			comp, err := resolve(componentName.Name)
			if err != nil {
				return nil, eris.Wrap(err, "")
			}
			components = append(components, comp)
		}
		return filter.Exact(components...), nil
	} else if value.All != nil {
		return filter.All(), nil
	} else if value.Contains != nil {
		if len(value.Contains.Components) == 0 {
			return nil, eris.New("CONTAINS cannot have zero parameters")
		}
		components := make([]types.Component, 0, len(value.Contains.Components))
		for _, componentName := range value.Contains.Components {
			comp, err := resolve(componentName.Name)
			if err != nil {
				return nil, eris.Wrap(err, "")
			}
			components = append(components, comp)
		}
		return filter.Contains(components...), nil
	} else if value.Subexpression != nil {
		return termToComponentFilter(value.Subexpression, resolve)
	} else {
		return nil, eris.New("unknown error during conversion from EQL AST to ComponentFilter")
	}
}

func factorToComponentFilter(factor *eqlFactor, resolve Resolver) (filter.ComponentFilter, error) {
	return valueToComponentFilter(factor.Base, resolve)
}

func opFactorToComponentFilter(
	opFactor *eqlOpFactor,
	resolve Resolver,
) (*eqlOperator, filter.ComponentFilter, error) {
	resultFilter, err := factorToComponentFilter(opFactor.Factor, resolve)
	if err != nil {
		return nil, nil, err
	}
	return &opFactor.Operator, resultFilter, nil
}

func termToComponentFilter(term *eqlTerm, resolve Resolver) (filter.ComponentFilter, error) {
	if term.Left == nil {
		return nil, eris.New("not enough values in expression")
	}
	acc, err := factorToComponentFilter(term.Left, resolve)
	if err != nil {
		return nil, err
	}
	for _, opFactor := range term.Right {
		operator, resultFilter, err := opFactorToComponentFilter(opFactor, resolve)
		if err != nil {
			return nil, err
		}
		switch *operator {
		case opAnd:
			acc = filter.And(acc, resultFilter)
		case opOr:
			acc = filter.Or(acc, resultFilter)
		default:
			return nil, eris.New("invalid operator")
		}
	}
	return acc, nil
}

// Parse converts query text into a component filter, resolving component
// names through the given resolver.
func Parse(eqlText string, resolve Resolver) (filter.ComponentFilter, error) {
	term, err := internalEQLParser.ParseString("", eqlText)
	if err != nil {
		return nil, eris.Wrap(err, "")
	}
	resultFilter, err := termToComponentFilter(term, resolve)
	if err != nil {
		return nil, err
	}
	return resultFilter, nil
}
