// Command enrich is the pipeline's single CLI entrypoint: it loads a
// hand-history JSON file plus local JSON fixtures standing in for the
// three external stores, runs the enrichment pipeline over the
// hand, and prints one JSON record per snapshot to stdout. Grounded on
// every cmd/*/main.go in the teacher's kong.Parse(&cli) shape, closest to
// cmd/poker-odds/main.go's flag-struct-then-run layout, minus the
// lipgloss-rendered terminal output this spec has no use for.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/railbird/solver-enrichment/internal/actions"
	"github.com/railbird/solver-enrichment/internal/cards"
	"github.com/railbird/solver-enrichment/internal/config"
	"github.com/railbird/solver-enrichment/internal/features"
	"github.com/railbird/solver-enrichment/internal/logging"
	"github.com/railbird/solver-enrichment/internal/pipeline"
	"github.com/railbird/solver-enrichment/internal/retriever"
	"github.com/railbird/solver-enrichment/internal/shardstore"
	"github.com/railbird/solver-enrichment/internal/snapshot"
	"github.com/railbird/solver-enrichment/internal/solverblock"
	"github.com/railbird/solver-enrichment/internal/store"
)

// CLI is the flag surface for one enrichment run.
type CLI struct {
	Hand        string `arg:"" help:"Path to a hand-history JSON file."`
	Config      string `help:"Path to an HCL pipeline config file." default:"pipeline.hcl"`
	VectorIndex string `help:"Path to a JSON vector-index fixture (array of indexRecord)." default:""`
	DocStore    string `help:"Path to a JSON doc-store fixture (array of shardstore.NodeAnalysis, FLOP only)." default:""`
	ShardDir    string `help:"Local directory serving as the object store (bucket/key -> compressed shard file)." default:"shards"`
	LogLevel    string `help:"Set the log level." enum:"debug,info,warn,error" default:"info"`
	Structured  bool   `help:"Emit logs as JSON instead of a terminal-friendly line format." default:"false"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("enrich"),
		kong.Description("Enrich a played poker hand with GTO solver snapshots"),
		kong.UsageOnError(),
	)

	logger := buildLogger(cli)
	level, err := log.ParseLevel(cli.LogLevel)
	if err == nil {
		logger.SetLevel(level)
	}

	ctx := setupSignalHandler()

	if err := run(ctx, cli, logger); err != nil {
		logger.Error("enrichment failed", "error", err)
		kctx.Exit(1)
	}
}

func buildLogger(cli CLI) *log.Logger {
	if cli.Structured {
		return logging.NewStructured(cli.LogLevel == "debug")
	}
	return logging.New(cli.LogLevel == "debug")
}

// setupSignalHandler cancels the run's context on SIGINT/SIGTERM.
func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()
	return ctx
}

func run(ctx context.Context, cli CLI, logger *log.Logger) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	hand, err := loadHand(cli.Hand)
	if err != nil {
		return fmt.Errorf("load hand: %w", err)
	}

	idx := store.NewInMemoryVectorIndex()
	if cli.VectorIndex != "" {
		if err := loadVectorIndex(cli.VectorIndex, idx); err != nil {
			return fmt.Errorf("load vector index fixture: %w", err)
		}
	}

	docs := store.NewInMemoryDocStore()
	if cli.DocStore != "" {
		if err := loadDocStore(cli.DocStore, docs); err != nil {
			return fmt.Errorf("load doc store fixture: %w", err)
		}
	}

	objectStore := store.NewLocalObjectStore(cli.ShardDir)
	shards, err := shardstore.New(objectStore, cfg.ShardStoreMaxShards())
	if err != nil {
		return fmt.Errorf("build shard store: %w", err)
	}

	r := retriever.New(idx, cfg.ToRetrieverConfig())
	p := pipeline.New(shards, r, docs, pipeline.Config{TagConfig: cfg.ToTagConfig()})

	logger.Info("enriching hand", "game_type", hand.GameType, "hero_side", hand.HeroSide)

	results, err := p.Enrich(ctx, pipeline.HandInput{Record: hand})
	if err != nil {
		return fmt.Errorf("enrich: %w", err)
	}

	logger.Info("enrichment complete", "snapshots", len(results))

	return printResults(results)
}

// handJSON is the on-disk shape of a played hand. It mirrors
// snapshot.HandRecord field-for-field, substituting plain strings for the
// card/seat/pot-type/side types that parse them.
type handJSON struct {
	GameType   string                  `json:"gameType"`
	SmallBB    float64                 `json:"smallBlindBB"`
	BigBB      float64                 `json:"bigBlindBB"`
	HeroSide   string                  `json:"heroSide"`
	HeroCards  [2]string               `json:"heroCards"`
	OOPSeat    string                  `json:"oopSeat"`
	IPSeat     string                  `json:"ipSeat"`
	StartStack float64                 `json:"startStackBB"`
	PreflopPot float64                 `json:"preflopPotBB"`
	Board      string                  `json:"board"`
	PotType    string                  `json:"potType"`
	Streets    map[string][]actionJSON `json:"streetActions"`
}

type actionJSON struct {
	Side   string `json:"side"`
	Action string `json:"action"`
}

var streetNames = map[string]features.Street{
	"FLOP":  features.Flop,
	"TURN":  features.Turn,
	"RIVER": features.River,
}

func loadHand(path string) (snapshot.HandRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return snapshot.HandRecord{}, err
	}
	var h handJSON
	if err := json.Unmarshal(raw, &h); err != nil {
		return snapshot.HandRecord{}, fmt.Errorf("parse hand JSON: %w", err)
	}

	hero0, hero1, err := cards.ParseHoleCards(h.HeroCards[0] + h.HeroCards[1])
	if err != nil {
		return snapshot.HandRecord{}, fmt.Errorf("parse hero cards: %w", err)
	}
	board, err := cards.ParseBoard(h.Board)
	if err != nil {
		return snapshot.HandRecord{}, fmt.Errorf("parse board: %w", err)
	}
	oopSeat, ok := features.ParseSeat(h.OOPSeat)
	if !ok {
		return snapshot.HandRecord{}, fmt.Errorf("unknown oop seat %q", h.OOPSeat)
	}
	ipSeat, ok := features.ParseSeat(h.IPSeat)
	if !ok {
		return snapshot.HandRecord{}, fmt.Errorf("unknown ip seat %q", h.IPSeat)
	}

	record := snapshot.HandRecord{
		GameType:   h.GameType,
		HeroSide:   snapshot.Side(h.HeroSide),
		HeroCards:  [2]cards.Card{hero0, hero1},
		Positions:  snapshot.Positions{OOP: oopSeat, IP: ipSeat},
		StartStack: h.StartStack,
		PreflopPot: h.PreflopPot,
		Board:      board,
		PotType:    features.ParsePotType(h.PotType),
	}
	record.Blinds.SmallBB = h.SmallBB
	record.Blinds.BigBB = h.BigBB

	if len(h.Streets) > 0 {
		record.StreetActions = make(map[features.Street][]snapshot.StreetAction, len(h.Streets))
		for name, actionsList := range h.Streets {
			street, ok := streetNames[name]
			if !ok {
				return snapshot.HandRecord{}, fmt.Errorf("unknown street %q", name)
			}
			parsed := make([]snapshot.StreetAction, len(actionsList))
			for i, a := range actionsList {
				parsed[i] = snapshot.StreetAction{
					Side:   snapshot.Side(a.Side),
					Action: actions.ParseActionToken(a.Action),
				}
			}
			record.StreetActions[street] = parsed
		}
	}

	return record, nil
}

// indexRecordJSON is one fixture entry loaded into the in-memory vector
// index: a 71-float vector plus the same filter/payload shape the real
// index stores.
type indexRecordJSON struct {
	Collection string                 `json:"collection"`
	ID         string                 `json:"id"`
	Vector     []float64              `json:"vector"`
	Filter     retriever.Filter       `json:"filter"`
	Meta       retriever.LeanNodeMeta `json:"meta"`
}

func loadVectorIndex(path string, idx *store.InMemoryVectorIndex) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var records []indexRecordJSON
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("parse vector index JSON: %w", err)
	}
	for _, rec := range records {
		if len(rec.Vector) != features.Dim {
			return fmt.Errorf("vector index record %q: expected %d-dim vector, got %d", rec.ID, features.Dim, len(rec.Vector))
		}
		var vec features.Vector
		copy(vec[:], rec.Vector)
		idx.Add(rec.Collection, rec.ID, vec, rec.Filter, rec.Meta)
	}
	return nil
}

func loadDocStore(path string, docs *store.InMemoryDocStore) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var nodes []shardstore.NodeAnalysis
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return fmt.Errorf("parse doc store JSON: %w", err)
	}
	for _, n := range nodes {
		docs.Put(n)
	}
	return nil
}

// outputRecord is the downstream contract's on-the-wire shape: one
// enriched record per snapshot, matching the downstream consumer's contract.
type outputRecord struct {
	Street    string                   `json:"street"`
	Board     []string                 `json:"board"`
	HeroCards []string                 `json:"heroCards"`
	PotBB     float64                  `json:"potBB"`
	Solver    *solverblock.SolverBlock `json:"solverBlock,omitempty"`
	Tags      []string                 `json:"tags,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

func printResults(results []pipeline.Result) error {
	out := make([]outputRecord, len(results))
	for i, res := range results {
		rec := outputRecord{
			Street: res.Snapshot.Street.String(),
			PotBB:  res.Snapshot.PotBB,
			Tags:   res.Tags,
			Solver: res.Block,
		}
		for _, c := range res.Snapshot.Board {
			rec.Board = append(rec.Board, c.String())
		}
		rec.HeroCards = []string{res.Snapshot.HeroCards[0].String(), res.Snapshot.HeroCards[1].String()}
		if res.Err != nil {
			rec.Error = res.Err.Error()
		}
		out[i] = rec
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
