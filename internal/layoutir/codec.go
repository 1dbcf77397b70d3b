package layoutir

import (
	"encoding/json"
	"math/bits"

	"github.com/pkg/errors"

	"go.chainabi.dev/abi/internal/u128"
)

// wireLayoutIr, wireTypeIr, and wireNode are the JSON-tagged mirrors of
// LayoutIr/TypeIr/IrNode used only at the codec boundary (spec §6.2): the
// in-memory tree stays a closed Go interface, but the wire form needs an
// explicit "kind" discriminator plus string-encoded u128 values.
type wireLayoutIr struct {
	Version uint64        `json:"version"`
	Types   []wireTypeIr  `json:"types"`
}

type wireTypeIr struct {
	TypeName   string            `json:"typeName"`
	Alignment  uint64            `json:"alignment"`
	Root       *wireNode         `json:"root"`
	Parameters []wireIrParameter `json:"parameters"`
}

type wireIrParameter struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Derived     bool   `json:"derived"`
}

type wireNode struct {
	Kind string `json:"kind"`

	Value json.RawMessage `json:"value,omitempty"` // Const: decimal string or number.

	Path      string `json:"path,omitempty"`      // FieldRef
	Parameter string `json:"parameter,omitempty"` // FieldRef

	Left  *wireNode `json:"left,omitempty"`  // AddChecked, MulChecked
	Right *wireNode `json:"right,omitempty"` // AddChecked, MulChecked

	Alignment uint64    `json:"alignment,omitempty"` // AlignUp
	Node      *wireNode `json:"node,omitempty"`      // AlignUp

	TypeName  string          `json:"typeName,omitempty"`  // CallNested
	Arguments []wireArgument  `json:"arguments,omitempty"` // CallNested

	Tag     string          `json:"tag,omitempty"`     // Switch
	Cases   []wireSwitchCase `json:"cases,omitempty"`   // Switch
	Default *wireNode       `json:"default,omitempty"` // Switch
}

type wireArgument struct {
	ParameterName string    `json:"parameterName"`
	Value         *wireNode `json:"value"`
}

type wireSwitchCase struct {
	TagValue uint64    `json:"tagValue"`
	Node     *wireNode `json:"node"`
}

// MarshalJSON encodes l per spec §6.2's JSON shape.
func (l *LayoutIr) MarshalJSON() ([]byte, error) {
	w := wireLayoutIr{Version: l.Version, Types: make([]wireTypeIr, len(l.Types))}
	for i, t := range l.Types {
		params := make([]wireIrParameter, len(t.Parameters))
		for j, p := range t.Parameters {
			params[j] = wireIrParameter{Name: p.Name, Description: p.Description, Derived: p.Derived}
		}
		w.Types[i] = wireTypeIr{
			TypeName:   t.TypeName,
			Alignment:  t.Alignment,
			Root:       toWire(t.Root),
			Parameters: params,
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes l from spec §6.2's JSON shape.
func (l *LayoutIr) UnmarshalJSON(data []byte) error {
	var w wireLayoutIr
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	l.Version = w.Version
	l.Types = make([]TypeIr, len(w.Types))
	for i, t := range w.Types {
		root, err := fromWire(t.Root)
		if err != nil {
			return errors.Wrapf(err, "type %q", t.TypeName)
		}
		params := make([]IrParameter, len(t.Parameters))
		for j, p := range t.Parameters {
			params[j] = IrParameter{Name: p.Name, Description: p.Description, Derived: p.Derived}
		}
		l.Types[i] = TypeIr{TypeName: t.TypeName, Alignment: t.Alignment, Root: root, Parameters: params}
	}
	return nil
}

func toWire(n IrNode) *wireNode {
	switch v := n.(type) {
	case nil:
		return nil
	case *Const:
		return &wireNode{Kind: "Const", Value: marshalU128(v.Value)}
	case *ZeroSize:
		return &wireNode{Kind: "ZeroSize"}
	case *FieldRef:
		return &wireNode{Kind: "FieldRef", Path: v.Path, Parameter: v.Parameter}
	case *AddChecked:
		return &wireNode{Kind: "AddChecked", Left: toWire(v.Left), Right: toWire(v.Right)}
	case *MulChecked:
		return &wireNode{Kind: "MulChecked", Left: toWire(v.Left), Right: toWire(v.Right)}
	case *AlignUp:
		return &wireNode{Kind: "AlignUp", Alignment: v.Alignment, Node: toWire(v.Node)}
	case *CallNested:
		args := make([]wireArgument, len(v.Arguments))
		for i, a := range v.Arguments {
			args[i] = wireArgument{ParameterName: a.ParameterName, Value: toWire(a.Value)}
		}
		return &wireNode{Kind: "CallNested", TypeName: v.TypeName, Arguments: args}
	case *Switch:
		cases := make([]wireSwitchCase, len(v.Cases))
		for i, c := range v.Cases {
			cases[i] = wireSwitchCase{TagValue: c.TagValue, Node: toWire(c.Node)}
		}
		return &wireNode{Kind: "Switch", Tag: v.Tag, Cases: cases, Default: toWire(v.Default)}
	default:
		return nil
	}
}

func fromWire(w *wireNode) (IrNode, error) {
	if w == nil {
		return nil, nil
	}
	switch w.Kind {
	case "Const":
		v, err := unmarshalU128(w.Value)
		if err != nil {
			return nil, err
		}
		return &Const{Value: v}, nil
	case "ZeroSize":
		return &ZeroSize{}, nil
	case "FieldRef":
		return &FieldRef{Path: w.Path, Parameter: w.Parameter}, nil
	case "AddChecked":
		l, err := fromWire(w.Left)
		if err != nil {
			return nil, err
		}
		r, err := fromWire(w.Right)
		if err != nil {
			return nil, err
		}
		return &AddChecked{Left: l, Right: r}, nil
	case "MulChecked":
		l, err := fromWire(w.Left)
		if err != nil {
			return nil, err
		}
		r, err := fromWire(w.Right)
		if err != nil {
			return nil, err
		}
		return &MulChecked{Left: l, Right: r}, nil
	case "AlignUp":
		n, err := fromWire(w.Node)
		if err != nil {
			return nil, err
		}
		return &AlignUp{Alignment: w.Alignment, Node: n}, nil
	case "CallNested":
		args := make([]IrArgument, len(w.Arguments))
		for i, a := range w.Arguments {
			v, err := fromWire(a.Value)
			if err != nil {
				return nil, err
			}
			args[i] = IrArgument{ParameterName: a.ParameterName, Value: v}
		}
		return &CallNested{TypeName: w.TypeName, Arguments: args}, nil
	case "Switch":
		cases := make([]SwitchCase, len(w.Cases))
		for i, c := range w.Cases {
			n, err := fromWire(c.Node)
			if err != nil {
				return nil, err
			}
			cases[i] = SwitchCase{TagValue: c.TagValue, Node: n}
		}
		def, err := fromWire(w.Default)
		if err != nil {
			return nil, err
		}
		return &Switch{Tag: w.Tag, Cases: cases, Default: def}, nil
	default:
		return nil, errors.Errorf("layoutir: unknown wire node kind %q", w.Kind)
	}
}

// marshalU128 renders v as a JSON number when it fits a float64 mantissa
// without loss (spec: "safe-integer range"), otherwise as a decimal string.
func marshalU128(v u128.U128) json.RawMessage {
	const maxSafeInteger = uint64(1)<<53 - 1
	if v.Hi == 0 && v.Lo <= maxSafeInteger {
		b, _ := json.Marshal(v.Lo)
		return b
	}
	b, _ := json.Marshal(v.String())
	return b
}

func unmarshalU128(raw json.RawMessage) (u128.U128, error) {
	if len(raw) == 0 {
		return u128.U128{}, errors.New("layoutir: missing Const.value")
	}
	var asNumber uint64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return u128.From(asNumber), nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err != nil {
		return u128.U128{}, errors.Wrap(err, "layoutir: Const.value is neither a number nor a string")
	}
	return parseDecimalU128(asString)
}

func parseDecimalU128(s string) (u128.U128, error) {
	v := u128.U128{}
	for _, c := range s {
		if c < '0' || c > '9' {
			return u128.U128{}, errors.Errorf("layoutir: invalid decimal digit %q in %q", c, s)
		}
		loHi, loLo := bits.Mul64(v.Lo, 10)
		newLo, carry := bits.Add64(loLo, uint64(c-'0'), 0)
		newHi := v.Hi*10 + loHi + carry
		v = u128.U128{Hi: newHi, Lo: newLo}
	}
	return v, nil
}
