package script

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

// Build emits the service output script prefix described in §4.2: an OP_N
// selecting op, the op's argument pushes in order, enough OP_DROP/OP_2DROP
// to clear them, followed by destScript (an ordinary P2PKH to the
// controlling alias).
func Build(op Op, vvch [][]byte, destScript []byte) ([]byte, error) {
	code, ok := baseOpcode[op]
	if !ok {
		return nil, fmt.Errorf("script: unknown op %d", op)
	}
	if len(vvch) != Arity(op) {
		return nil, fmt.Errorf("script: op %d wants %d pushes, got %d", op, Arity(op), len(vvch))
	}

	b := txscript.NewScriptBuilder()
	b.AddOp(code)
	for _, v := range vvch {
		b.AddData(v)
	}
	remaining := len(vvch)
	for remaining > 0 {
		if remaining >= 2 {
			b.AddOp(txscript.OP_2DROP)
			remaining -= 2
		} else {
			b.AddOp(txscript.OP_DROP)
			remaining--
		}
	}
	prefix, err := b.Script()
	if err != nil {
		return nil, fmt.Errorf("script: build prefix: %w", err)
	}
	return append(prefix, destScript...), nil
}

// Parse decodes a service output script: pulls pushes until the first
// OP_DROP/OP_2DROP/OP_NOP, then rewinds the cursor to the start of the
// destination script (§4.2 "remove prefix").
func Parse(scriptPubKey []byte) (op Op, vvch [][]byte, destScript []byte, err error) {
	tokenizer := txscript.MakeScriptTokenizer(0, scriptPubKey)
	if !tokenizer.Next() {
		return OpUnknown, nil, nil, fmt.Errorf("script: empty script")
	}
	opc := tokenizer.Opcode()
	var ok bool
	if op, ok = opcodeToOp[opc]; !ok {
		return OpUnknown, nil, nil, fmt.Errorf("script: opcode 0x%02x is not a service op", opc)
	}

	want := Arity(op)
	vvch = make([][]byte, 0, want)
	for len(vvch) < want {
		if !tokenizer.Next() {
			return OpUnknown, nil, nil, fmt.Errorf("script: truncated service script, want %d pushes got %d", want, len(vvch))
		}
		vvch = append(vvch, tokenizer.Data())
	}

	for i := 0; i < ceilHalf(want); i++ {
		if !tokenizer.Next() {
			return OpUnknown, nil, nil, fmt.Errorf("script: missing drop opcode after pushes")
		}
		switch tokenizer.Opcode() {
		case txscript.OP_DROP, txscript.OP_2DROP, txscript.OP_NOP:
		default:
			return OpUnknown, nil, nil, fmt.Errorf("script: expected drop opcode, got 0x%02x", tokenizer.Opcode())
		}
	}

	destScript = scriptPubKey[tokenizer.ByteIndex():]
	return op, vvch, destScript, nil
}

func ceilHalf(n int) int {
	return (n + 1) / 2
}
