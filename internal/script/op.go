// Package script builds and parses the service-output script prefix
// described in §4.2/§6, on top of btcsuite/btcd/txscript.
package script

// Op identifies the service operation encoded in a transaction's service
// output, §6's arity table.
type Op int

const (
	OpUnknown Op = iota
	AliasActivate
	AliasUpdate
	OfferActivate
	OfferUpdate
	OfferAccept
	CertActivate
	CertUpdate
	CertTransfer
	EscrowActivate
	EscrowRelease
	EscrowRefund
	EscrowComplete
	MessageActivate
)

// base opcode values used as the leading OP_N push that selects the op,
// §4.2. These occupy the small-integer opcode space (OP_1..OP_16) the way
// the original reserves SYSCOIN_TX_VERSION op ranges; kept as a dense
// consensus table rather than deriving from txscript's OP_1 offset so the
// mapping is explicit and reviewable in one place.
var baseOpcode = map[Op]byte{
	AliasActivate:    0x51, // OP_1
	AliasUpdate:      0x52, // OP_2
	OfferActivate:    0x53, // OP_3
	OfferUpdate:      0x54, // OP_4
	OfferAccept:      0x55, // OP_5
	CertActivate:     0x56, // OP_6
	CertUpdate:       0x57, // OP_7
	CertTransfer:     0x58, // OP_8
	EscrowActivate:   0x59, // OP_9
	EscrowRelease:    0x5a, // OP_10
	EscrowRefund:     0x5b, // OP_11
	EscrowComplete:   0x5c, // OP_12
	MessageActivate:  0x5d, // OP_13
}

var opcodeToOp = func() map[byte]Op {
	m := make(map[byte]Op, len(baseOpcode))
	for op, code := range baseOpcode {
		m[code] = op
	}
	return m
}()

// Arity returns the number of pushed arguments for op, the consensus
// constant from §6's table.
func Arity(op Op) int {
	switch op {
	case AliasActivate, AliasUpdate:
		return 3
	case OfferActivate, OfferUpdate:
		return 2
	case OfferAccept:
		return 4
	case CertActivate, CertUpdate, CertTransfer:
		return 2
	case EscrowActivate, EscrowRelease, EscrowRefund, EscrowComplete:
		return 3
	case MessageActivate:
		return 2
	default:
		return 0
	}
}

var opNames = map[Op]string{
	AliasActivate:   "alias_activate",
	AliasUpdate:     "alias_update",
	OfferActivate:   "offer_activate",
	OfferUpdate:     "offer_update",
	OfferAccept:     "offer_accept",
	CertActivate:    "cert_activate",
	CertUpdate:      "cert_update",
	CertTransfer:    "cert_transfer",
	EscrowActivate:  "escrow_activate",
	EscrowRelease:   "escrow_release",
	EscrowRefund:    "escrow_refund",
	EscrowComplete:  "escrow_complete",
	MessageActivate: "message_activate",
}

// String renders op's name for logging and realtime event payloads.
func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "unknown"
}
