package layoutir

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"go.chainabi.dev/abi/internal/u128"
)

// binaryMinorVersion advances whenever the tag/value stream's shape
// changes, independent of schemaVersion (which tracks the logical IR, not
// its wire encodings).
const binaryMinorVersion = 1

type nodeTag byte

const (
	tagConst nodeTag = iota + 1
	tagZeroSize
	tagFieldRef
	tagAddChecked
	tagMulChecked
	tagAlignUp
	tagCallNested
	tagSwitch
)

// EncodeBinary writes l in the length-prefixed tag/value binary shape
// described in spec §6.2. There is no third-party length-prefixed framing
// library in the example pack for a bespoke node format like this one, so
// encoding/binary is used directly, the same primitive the standard
// library's own wire-format codecs (e.g. encoding/gob) build on.
func (l *LayoutIr) EncodeBinary() ([]byte, error) {
	var buf bytes.Buffer
	writeUvarint(&buf, binaryMinorVersion)
	writeUvarint(&buf, l.Version)
	writeUvarint(&buf, uint64(len(l.Types)))
	for _, t := range l.Types {
		writeString(&buf, t.TypeName)
		writeUvarint(&buf, t.Alignment)
		if err := encodeNode(&buf, t.Root); err != nil {
			return nil, errors.Wrapf(err, "type %q", t.TypeName)
		}
		writeUvarint(&buf, uint64(len(t.Parameters)))
		for _, p := range t.Parameters {
			writeString(&buf, p.Name)
			writeString(&buf, p.Description)
			writeBool(&buf, p.Derived)
		}
	}
	return buf.Bytes(), nil
}

// DecodeBinary parses the shape written by EncodeBinary.
func DecodeBinary(data []byte) (*LayoutIr, error) {
	r := bytes.NewReader(data)
	minor, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, errors.Wrap(err, "layoutir: reading minor version")
	}
	if minor != binaryMinorVersion {
		return nil, errors.Errorf("layoutir: unsupported binary minor version %d", minor)
	}
	version, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	out := &LayoutIr{Version: version, Types: make([]TypeIr, count)}
	for i := range out.Types {
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		align, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		root, err := decodeNode(r)
		if err != nil {
			return nil, errors.Wrapf(err, "type %q", name)
		}
		pc, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		params := make([]IrParameter, pc)
		for j := range params {
			pname, err := readString(r)
			if err != nil {
				return nil, err
			}
			desc, err := readString(r)
			if err != nil {
				return nil, err
			}
			derived, err := readBool(r)
			if err != nil {
				return nil, err
			}
			params[j] = IrParameter{Name: pname, Description: desc, Derived: derived}
		}
		out.Types[i] = TypeIr{TypeName: name, Alignment: align, Root: root, Parameters: params}
	}
	return out, nil
}

func encodeNode(buf *bytes.Buffer, n IrNode) error {
	switch v := n.(type) {
	case nil:
		buf.WriteByte(0)
		return nil
	case *Const:
		buf.WriteByte(byte(tagConst))
		writeUvarint(buf, v.Value.Hi)
		writeUvarint(buf, v.Value.Lo)
		return nil
	case *ZeroSize:
		buf.WriteByte(byte(tagZeroSize))
		return nil
	case *FieldRef:
		buf.WriteByte(byte(tagFieldRef))
		writeString(buf, v.Path)
		writeString(buf, v.Parameter)
		return nil
	case *AddChecked:
		buf.WriteByte(byte(tagAddChecked))
		if err := encodeNode(buf, v.Left); err != nil {
			return err
		}
		return encodeNode(buf, v.Right)
	case *MulChecked:
		buf.WriteByte(byte(tagMulChecked))
		if err := encodeNode(buf, v.Left); err != nil {
			return err
		}
		return encodeNode(buf, v.Right)
	case *AlignUp:
		buf.WriteByte(byte(tagAlignUp))
		writeUvarint(buf, v.Alignment)
		return encodeNode(buf, v.Node)
	case *CallNested:
		buf.WriteByte(byte(tagCallNested))
		writeString(buf, v.TypeName)
		writeUvarint(buf, uint64(len(v.Arguments)))
		for _, a := range v.Arguments {
			writeString(buf, a.ParameterName)
			if err := encodeNode(buf, a.Value); err != nil {
				return err
			}
		}
		return nil
	case *Switch:
		buf.WriteByte(byte(tagSwitch))
		writeString(buf, v.Tag)
		writeUvarint(buf, uint64(len(v.Cases)))
		for _, c := range v.Cases {
			writeUvarint(buf, c.TagValue)
			if err := encodeNode(buf, c.Node); err != nil {
				return err
			}
		}
		return encodeNode(buf, v.Default)
	default:
		return errors.Errorf("layoutir: unknown node type %T", n)
	}
}

func decodeNode(r *bytes.Reader) (IrNode, error) {
	tagByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch nodeTag(tagByte) {
	case 0:
		return nil, nil
	case tagConst:
		hi, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		lo, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		return &Const{Value: u128.U128{Hi: hi, Lo: lo}}, nil
	case tagZeroSize:
		return &ZeroSize{}, nil
	case tagFieldRef:
		path, err := readString(r)
		if err != nil {
			return nil, err
		}
		param, err := readString(r)
		if err != nil {
			return nil, err
		}
		return &FieldRef{Path: path, Parameter: param}, nil
	case tagAddChecked:
		l, err := decodeNode(r)
		if err != nil {
			return nil, err
		}
		rr, err := decodeNode(r)
		if err != nil {
			return nil, err
		}
		return &AddChecked{Left: l, Right: rr}, nil
	case tagMulChecked:
		l, err := decodeNode(r)
		if err != nil {
			return nil, err
		}
		rr, err := decodeNode(r)
		if err != nil {
			return nil, err
		}
		return &MulChecked{Left: l, Right: rr}, nil
	case tagAlignUp:
		align, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		node, err := decodeNode(r)
		if err != nil {
			return nil, err
		}
		return &AlignUp{Alignment: align, Node: node}, nil
	case tagCallNested:
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		count, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		args := make([]IrArgument, count)
		for i := range args {
			pname, err := readString(r)
			if err != nil {
				return nil, err
			}
			v, err := decodeNode(r)
			if err != nil {
				return nil, err
			}
			args[i] = IrArgument{ParameterName: pname, Value: v}
		}
		return &CallNested{TypeName: name, Arguments: args}, nil
	case tagSwitch:
		tag, err := readString(r)
		if err != nil {
			return nil, err
		}
		count, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		cases := make([]SwitchCase, count)
		for i := range cases {
			v, err := binary.ReadUvarint(r)
			if err != nil {
				return nil, err
			}
			node, err := decodeNode(r)
			if err != nil {
				return nil, err
			}
			cases[i] = SwitchCase{TagValue: v, Node: node}
		}
		def, err := decodeNode(r)
		if err != nil {
			return nil, err
		}
		return &Switch{Tag: tag, Cases: cases, Default: def}, nil
	default:
		return nil, errors.Errorf("layoutir: unknown binary node tag %d", tagByte)
	}
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

func writeBool(buf *bytes.Buffer, b bool) {
	if b {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func readString(r *bytes.Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return "", err
	}
	return string(out), nil
}

func readBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}
