package wellknown

import (
	"math/big"

	"go.chainabi.dev/abi/internal/value"
)

// base58Alphabet is the Bitcoin/Solana alphabet. No base58 library appears
// anywhere in the example pack, so this is hand-rolled on math/big, which
// is the standard library's own arbitrary-precision integer type — the
// natural primitive for the repeated divide-by-58 this encoding needs.
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

func base58Encode(data []byte) string {
	zero := big.NewInt(0)
	base := big.NewInt(58)
	mod := new(big.Int)
	x := new(big.Int).SetBytes(data)

	var out []byte
	for x.Cmp(zero) > 0 {
		x.DivMod(x, base, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}
	for _, b := range data {
		if b != 0 {
			break
		}
		out = append(out, base58Alphabet[0])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

// NewPubkeyEnricher returns an Enricher that, for values of typeName,
// base58-encodes the byte array field named fieldName and adds it as an
// "address" key — the canonical example from spec §4.8 of a well-known
// type adding an encoded address string for a 32-byte public-key struct.
func NewPubkeyEnricher(typeName, fieldName string) Enricher {
	return func(tn string, rv value.ReflectedValue) (Decision, bool) {
		if tn != typeName {
			return Decision{}, false
		}
		st, ok := rv.Value.(*value.Struct)
		if !ok {
			return Decision{}, false
		}
		for _, f := range st.Fields {
			if f.Name != fieldName {
				continue
			}
			arr, ok := f.Value.(*value.Array)
			if !ok {
				return Decision{}, false
			}
			raw := make([]byte, 0, len(arr.Elements))
			for _, el := range arr.Elements {
				p, ok := el.(*value.Primitive)
				if !ok {
					return Decision{}, false
				}
				raw = append(raw, byte(p.Value.Raw))
			}
			return Decision{ExtraKeys: map[string]any{"address": base58Encode(raw)}}, true
		}
		return Decision{}, false
	}
}
