package shardstore

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// schemaVersion is the binary shard format version this decoder
// understands. Bump alongside the indexer when the wire record shape
// changes; old versions are rejected rather than guessed at (spec §6).
const schemaVersion uint32 = 1

// wireNode is the on-the-wire JSON shape of one record. Field names are
// kept short and stable since they round-trip through every shard ever
// written at this version.
type wireNode struct {
	NodeID          string              `json:"node_id"`
	NodeIdentifier  string              `json:"node_identifier,omitempty"`
	Street          string              `json:"street"`
	Board           string              `json:"board"`
	GameType        string              `json:"game_type"`
	PotType         string              `json:"pot_type"`
	PositionsOOP    string              `json:"positions_oop"`
	PositionsIP     string              `json:"positions_ip"`
	EffStack        float64             `json:"eff_stack"`
	Pot             float64             `json:"pot"`
	StackOOP        float64             `json:"stack_oop"`
	StackIP         float64             `json:"stack_ip"`
	NextToAct       string              `json:"next_to_act"`
	ActionHistory   []string            `json:"action_history"`
	RangeStatsOOP   string              `json:"range_stats_oop"`
	RangeStatsIP    string              `json:"range_stats_ip"`
	ActionsOOP      []ActionFrequency   `json:"actions_oop"`
	ActionsIP       []ActionFrequency   `json:"actions_ip"`
	ComboData       []ComboEntry        `json:"combo_data,omitempty"`
	S3Bucket        string              `json:"s3_bucket,omitempty"`
	S3Key           string              `json:"s3_key,omitempty"`
	OptimalStrategy *OptimalStrategyBlob `json:"optimal_strategy,omitempty"`
	IsTerminal      bool                `json:"is_terminal,omitempty"`
}

func toWire(n NodeAnalysis) wireNode {
	return wireNode{
		NodeID:          n.NodeID,
		NodeIdentifier:  n.NodeIdentifier,
		Street:          string(n.Street),
		Board:           n.Board,
		GameType:        n.GameType,
		PotType:         n.PotType,
		PositionsOOP:    n.Positions.OOP,
		PositionsIP:     n.Positions.IP,
		EffStack:        n.EffStack,
		Pot:             n.Pot,
		StackOOP:        n.StackOOP,
		StackIP:         n.StackIP,
		NextToAct:       n.NextToAct,
		ActionHistory:   n.ActionHistory,
		RangeStatsOOP:   n.RangeStatsOOP,
		RangeStatsIP:    n.RangeStatsIP,
		ActionsOOP:      n.ActionsOOP,
		ActionsIP:       n.ActionsIP,
		ComboData:       n.ComboData,
		S3Bucket:        n.S3Bucket,
		S3Key:           n.S3Key,
		OptimalStrategy: n.OptimalStrategy,
		IsTerminal:      n.IsTerminal,
	}
}

func fromWire(w wireNode) NodeAnalysis {
	return NodeAnalysis{
		NodeID:          w.NodeID,
		NodeIdentifier:  w.NodeIdentifier,
		Street:          Street(w.Street),
		Board:           w.Board,
		GameType:        w.GameType,
		PotType:         w.PotType,
		Positions:       Positions{OOP: w.PositionsOOP, IP: w.PositionsIP},
		EffStack:        w.EffStack,
		Pot:             w.Pot,
		StackOOP:        w.StackOOP,
		StackIP:         w.StackIP,
		NextToAct:       w.NextToAct,
		ActionHistory:   w.ActionHistory,
		RangeStatsOOP:   w.RangeStatsOOP,
		RangeStatsIP:    w.RangeStatsIP,
		ActionsOOP:      w.ActionsOOP,
		ActionsIP:       w.ActionsIP,
		ComboData:       w.ComboData,
		S3Bucket:        w.S3Bucket,
		S3Key:           w.S3Key,
		OptimalStrategy: w.OptimalStrategy,
		IsTerminal:      w.IsTerminal,
	}
}

// EncodeShard serializes nodes into the uncompressed shard payload: a
// 4-byte version header followed by length-prefixed JSON records. Used by
// tests and local fixture generation; production shards are written by the
// indexer.
func EncodeShard(nodes []NodeAnalysis) ([]byte, error) {
	var buf bytes.Buffer
	var versionBytes [4]byte
	binary.BigEndian.PutUint32(versionBytes[:], schemaVersion)
	buf.Write(versionBytes[:])

	for _, n := range nodes {
		body, err := json.Marshal(toWire(n))
		if err != nil {
			return nil, fmt.Errorf("shardstore: encode node %s: %w", n.NodeID, err)
		}
		var lenBytes [4]byte
		binary.BigEndian.PutUint32(lenBytes[:], uint32(len(body)))
		buf.Write(lenBytes[:])
		buf.Write(body)
	}
	return buf.Bytes(), nil
}

// decodeRecords parses the uncompressed shard payload into NodeAnalysis
// records, rejecting any version other than schemaVersion.
func decodeRecords(payload []byte) ([]NodeAnalysis, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("shardstore: payload too short for version header (%d bytes)", len(payload))
	}
	version := binary.BigEndian.Uint32(payload[:4])
	if version != schemaVersion {
		return nil, fmt.Errorf("shardstore: unsupported schema version %d (want %d)", version, schemaVersion)
	}

	offset := 4
	var out []NodeAnalysis
	for offset < len(payload) {
		if offset+4 > len(payload) {
			return nil, fmt.Errorf("shardstore: truncated record length at offset %d", offset)
		}
		recLen := int(binary.BigEndian.Uint32(payload[offset : offset+4]))
		offset += 4
		if offset+recLen > len(payload) {
			return nil, fmt.Errorf("shardstore: truncated record body at offset %d (want %d bytes)", offset, recLen)
		}
		var w wireNode
		if err := json.Unmarshal(payload[offset:offset+recLen], &w); err != nil {
			return nil, fmt.Errorf("shardstore: decode record at offset %d: %w", offset, err)
		}
		out = append(out, fromWire(w))
		offset += recLen
	}
	return out, nil
}

// DecodeShard zstd-decompresses a shard blob and decodes its records. Used
// by the Store on a cache miss once the raw bytes have been fetched.
func DecodeShard(compressed []byte) ([]NodeAnalysis, error) {
	dec, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("shardstore: open zstd frame: %w", err)
	}
	defer dec.Close()

	payload, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("shardstore: decompress: %w", err)
	}
	return decodeRecords(payload)
}

// EncodeShardCompressed is the inverse of DecodeShard, used by test
// fixtures that need a realistic compressed blob.
func EncodeShardCompressed(nodes []NodeAnalysis) ([]byte, error) {
	raw, err := EncodeShard(nodes)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("shardstore: open zstd writer: %w", err)
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return nil, fmt.Errorf("shardstore: compress: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("shardstore: close zstd writer: %w", err)
	}
	return buf.Bytes(), nil
}
