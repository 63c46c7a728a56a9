// Package features builds the deterministic 71-dim feature vector and its
// companion derived values (board-texture bitfield, flop archetype,
// position bucket, action sequence, action hash) consumed by the vector
// retriever (spec C2). Grounded on the teacher's BucketMapper.HoleBucket,
// which reduces heterogeneous hand state into a fixed numeric bucket the
// same way this package reduces snapshot state into a fixed vector.
package features

import (
	"hash/fnv"
	"strings"

	"github.com/railbird/solver-enrichment/internal/actions"
	"github.com/railbird/solver-enrichment/internal/boardtex"
	"github.com/railbird/solver-enrichment/internal/cards"
)

// Street is the betting round a snapshot belongs to.
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
)

func (s Street) String() string {
	switch s {
	case Preflop:
		return "PREFLOP"
	case Flop:
		return "FLOP"
	case Turn:
		return "TURN"
	case River:
		return "RIVER"
	default:
		return "UNKNOWN"
	}
}

// PotType classifies a hand by preflop raise count.
type PotType int

const (
	SinglyRaisedPot PotType = iota
	ThreeBetPot
	FourBetPot
	OtherPot
)

func (p PotType) String() string {
	switch p {
	case SinglyRaisedPot:
		return "SRP"
	case ThreeBetPot:
		return "3BP"
	case FourBetPot:
		return "4BP"
	default:
		return "OTHER"
	}
}

// Seat is a named preflop position.
type Seat int

const (
	EP Seat = iota
	MP
	CO
	BTN
	SB
	BB
)

// PositionBucket is the coarse {EARLY, LATE, BLIND} grouping a Seat maps
// into, per the fixed table in spec §4.2 item 4.
type PositionBucket int

const (
	Early PositionBucket = iota
	Late
	Blind
)

func (b PositionBucket) String() string {
	switch b {
	case Early:
		return "EARLY"
	case Late:
		return "LATE"
	case Blind:
		return "BLIND"
	default:
		return "UNKNOWN"
	}
}

// seatBuckets is the fixed seat -> position-bucket table.
var seatBuckets = map[Seat]PositionBucket{
	EP:  Early,
	MP:  Early,
	CO:  Late,
	BTN: Late,
	SB:  Blind,
	BB:  Blind,
}

// BucketFor returns the position bucket for a seat.
func BucketFor(seat Seat) PositionBucket {
	if b, ok := seatBuckets[seat]; ok {
		return b
	}
	return Early
}

var seatNames = map[string]Seat{"EP": EP, "MP": MP, "CO": CO, "BTN": BTN, "SB": SB, "BB": BB}

// ParseSeat maps a seat label (as carried on a shard's NodeAnalysis) back
// to a Seat. Used when reconstructing a feature vector from a decoded
// node rather than a live snapshot (spec §4.5 step 6 RIVER local search).
func ParseSeat(s string) (Seat, bool) {
	seat, ok := seatNames[strings.ToUpper(s)]
	return seat, ok
}

// ParsePotType maps a pot-type label back to a PotType.
func ParsePotType(s string) PotType {
	switch strings.ToUpper(s) {
	case "SRP":
		return SinglyRaisedPot
	case "3BP":
		return ThreeBetPot
	case "4BP":
		return FourBetPot
	default:
		return OtherPot
	}
}

// ParseStreet maps a street label back to a Street.
func ParseStreet(s string) Street {
	switch strings.ToUpper(s) {
	case "PREFLOP":
		return Preflop
	case "FLOP":
		return Flop
	case "TURN":
		return Turn
	case "RIVER":
		return River
	default:
		return Preflop
	}
}

// Dim is the fixed length of the feature vector (spec §3 FeatureVector).
const Dim = 71

// Layout of the 71-dim vector. Indices are half-open ranges [start, end).
//
//	[0,3)   oop position bucket one-hot {EARLY, LATE, BLIND}
//	[3,6)   ip position bucket one-hot {EARLY, LATE, BLIND}
//	[6,10)  street one-hot {PREFLOP, FLOP, TURN, RIVER}
//	[10,14) pot-type one-hot {SRP, 3BP, 4BP, OTHER}
//	[14,15) stackBB normalized (stackBB/200, clipped to [0,1])
//	[15,16) potBB normalized (potBB/200, clipped to [0,1])
//	[16,24) board-texture bitfield, one slot per bit (spec §4.2 item 2)
//	[24,39) flop archetype: 5 board-card slots x 3 rank classes {L,M,H}
//	[39,55) action-sequence hash bucket one-hot (16 buckets)
//	[55,71) padding, always zero
const (
	idxOOPBucket    = 0
	idxIPBucket     = 3
	idxStreet       = 6
	idxPotType      = 10
	idxStackBB      = 14
	idxPotBB        = 15
	idxTexture      = 16
	idxFlopArch     = 24
	idxActionBucket = 39
	layoutEnd       = 55

	maxBoardSlots     = 5
	rankClassesPerCard = 3
	actionHashBuckets = 16
)

// Input bundles everything the feature builder needs from a snapshot.
type Input struct {
	OOPBucket    PositionBucket
	IPBucket     PositionBucket
	Street       Street
	PotType      PotType
	StackBB      float64
	PotBB        float64
	Board        cards.Hand
	ActionHistory []actions.Action
}

// Vector is the fixed-length 71-float feature vector.
type Vector [Dim]float64

// Build computes the deterministic 71-dim vector from snapshot input (spec
// §4.2 item 1). Pure function: identical input produces byte-identical
// output, per the determinism invariant in spec §8.
func Build(in Input) Vector {
	var v Vector

	setOneHot(v[:], idxOOPBucket, 3, int(in.OOPBucket))
	setOneHot(v[:], idxIPBucket, 3, int(in.IPBucket))
	setOneHot(v[:], idxStreet, 4, int(in.Street))
	setOneHot(v[:], idxPotType, 4, int(in.PotType))

	v[idxStackBB] = clip01(in.StackBB / 200.0)
	v[idxPotBB] = clip01(in.PotBB / 200.0)

	tbits := boardtex.AnalyzeBits(in.Board)
	for i := 0; i < 8; i++ {
		if tbits&(1<<uint(i)) != 0 {
			v[idxTexture+i] = 1
		}
	}

	boardCards := in.Board.Cards()
	for slot := 0; slot < maxBoardSlots && slot < len(boardCards); slot++ {
		class := rankClassIndex(boardCards[slot].Rank())
		v[idxFlopArch+slot*rankClassesPerCard+class] = 1
	}

	seq := actions.EncodeSequence(in.ActionHistory)
	bucket := ActionHashBucket(seq, in.PotBB)
	setOneHot(v[:], idxActionBucket, actionHashBuckets, bucket)

	return v
}

func rankClassIndex(r cards.Rank) int {
	switch {
	case r <= cards.Five:
		return 0 // L
	case r <= cards.Nine:
		return 1 // M
	default:
		return 2 // H
	}
}

func setOneHot(v []float64, base, width, index int) {
	if index < 0 || index >= width {
		return
	}
	v[base+index] = 1
}

func clip01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}

// ActionHash computes the 32-bit stable hash of canonicalized action
// history joined with pot (spec §4.2 item 6), via FNV-1a.
func ActionHash(seq actions.Sequence, potBB float64) uint32 {
	h := fnv.New32a()
	var sb strings.Builder
	sb.WriteString(string(seq))
	sb.WriteByte('|')
	sb.WriteString(formatPot(potBB))
	_, _ = h.Write([]byte(sb.String()))
	return h.Sum32()
}

// ActionHashBucket folds the 32-bit action hash into one of 16 buckets for
// the one-hot slot in the feature vector.
func ActionHashBucket(seq actions.Sequence, potBB float64) int {
	return int(ActionHash(seq, potBB) % actionHashBuckets)
}

func formatPot(potBB float64) string {
	// Two-decimal canonical form keeps the hash stable across float
	// formatting differences between producers.
	whole := int64(potBB * 100)
	return itoa(whole)
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
