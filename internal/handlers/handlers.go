// Package handlers implements the aircraft commands and the material
// selection callback on top of the storage backend and the host.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ubivismedia/aircraft/internal/cache"
	"github.com/ubivismedia/aircraft/internal/config"
	"github.com/ubivismedia/aircraft/internal/dispatcher"
	"github.com/ubivismedia/aircraft/internal/engine"
	"github.com/ubivismedia/aircraft/internal/layout"
	"github.com/ubivismedia/aircraft/internal/logging"
	"github.com/ubivismedia/aircraft/internal/parser"
	"github.com/ubivismedia/aircraft/internal/storage"
	"github.com/ubivismedia/aircraft/internal/util"
	"github.com/ubivismedia/aircraft/pkg/core"
	"github.com/ubivismedia/aircraft/pkg/host"
)

// Replies sent to the owner.
const (
	MenuTitle = "Select Aircraft Material"

	MsgInvalidNumber     = "Invalid number format for seats or rows!"
	MsgUnknownSubcommand = "Unknown subcommand! Use /aircraft design or /aircraft load"
	MsgAnchorFailed      = "Failed to create hangar world."
	MsgSelectPrompt      = "Select a material for your aircraft by clicking on an item in the menu."
	MsgNoPending         = "No aircraft is waiting for a material. Use /aircraft design first."
	MsgMenuExpired       = "This material menu has expired. Use the menu of your latest design."
	MsgNoAircraft        = "You have no aircraft."
	MsgSeated            = "You have taken a seat in the aircraft."
	MsgInternalError     = "An internal error occurred while processing your command."
)

// MsgTooLarge is sent when a seat grid would exceed layout.MaxGridBlocks.
var MsgTooLarge = fmt.Sprintf("Aircraft is too large! A seat grid may use at most %d blocks.", layout.MaxGridBlocks)

// Metrics receives build and reload measurements.
type Metrics interface {
	RecordBuild(b core.Build) error
	RecordReload(id core.StructureID, blocks int, took time.Duration) error
}

// MetricsGroup sends every measurement to each member.
type MetricsGroup []Metrics

func (g MetricsGroup) RecordBuild(b core.Build) error {
	var errs []error
	for _, m := range g {
		errs = append(errs, m.RecordBuild(b))
	}
	return errors.Join(errs...)
}

func (g MetricsGroup) RecordReload(id core.StructureID, blocks int, took time.Duration) error {
	var errs []error
	for _, m := range g {
		errs = append(errs, m.RecordReload(id, blocks, took))
	}
	return errors.Join(errs...)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Host       host.Host
	Store      storage.Backend
	Pending    *cache.PendingSelections
	Parser     *parser.Parser
	Metrics    Metrics
	Hangar     config.HangarConfig
	LogManager *logging.SlogManager
}

// Service runs one request at a time against the store and the host.
type Service struct {
	deps   Dependencies
	mu     sync.Mutex
	engine *engine.Engine
	log    *slog.Logger
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.Pending == nil {
		deps.Pending = cache.NewPendingSelections()
	}
	log := deps.LogManager.Logger().With("component", "handlers")
	if deps.Parser == nil {
		deps.Parser = parser.NewParser(log)
	}
	return &Service{
		deps:   deps,
		engine: engine.New(deps.Store, log),
		log:    log,
	}
}

// RegisterHandlers registers every subcommand with the dispatcher.
// Requests run synchronously so replies keep their order.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register("design", s.handleDesign, dispatcher.Logged())
	d.Register("load", s.handleLoad, dispatcher.Logged())
	d.Register("select", s.handleSelect, dispatcher.Logged())
	d.Register("info", s.handleInfo, dispatcher.Logged())
	d.Register("list", s.handleList, dispatcher.Logged())
	d.Register("sit", s.handleSit, dispatcher.Logged())
}

// Execute routes one command line from owner. A missing subcommand gets the
// usage line and an unknown one the unknown-subcommand reply; neither is an
// error. Store failures are returned after the owner is told the command
// failed.
func (s *Service) Execute(d *dispatcher.Dispatcher, owner, line string) error {
	cmd, args := parser.SplitCommand(line)
	if cmd == "" {
		s.Usage(owner)
		return nil
	}

	ctx := logging.WithRequest(context.Background(), logging.Request{Owner: owner, Command: cmd})
	_, err := d.Dispatch(dispatcher.Event{Command: cmd, Owner: owner, Args: args, Timestamp: time.Now(), Ctx: ctx})
	if errors.Is(err, dispatcher.ErrUnknownCommand) {
		s.deps.Host.Message(owner, MsgUnknownSubcommand)
		return nil
	}
	if err != nil {
		s.deps.Host.Message(owner, MsgInternalError)
		return err
	}
	return nil
}

func (s *Service) handleDesign(e dispatcher.Event) (any, error) {
	return nil, s.Design(e.Context(), e.Owner, e.Args)
}

func (s *Service) handleLoad(e dispatcher.Event) (any, error) {
	return nil, s.Load(e.Context(), e.Owner, e.Args)
}

func (s *Service) handleSelect(e dispatcher.Event) (any, error) {
	req, err := s.deps.Parser.ParseSelection(e.Args)
	if err != nil {
		s.reject(e.Owner, err)
		return nil, nil
	}
	return nil, s.SelectMaterial(e.Context(), e.Owner, req)
}

func (s *Service) handleInfo(e dispatcher.Event) (any, error) {
	return nil, s.Info(e.Context(), e.Owner, e.Args)
}

func (s *Service) handleList(e dispatcher.Event) (any, error) {
	return nil, s.List(e.Context(), e.Owner)
}

func (s *Service) handleSit(e dispatcher.Event) (any, error) {
	return nil, s.Sit(e.Context(), e.Owner, e.Args)
}

// reject turns a validation error into its single-line reply.
func (s *Service) reject(owner string, err error) {
	var ue *parser.UsageError
	switch {
	case errors.As(err, &ue):
		s.deps.Host.Message(owner, ue.Usage)
	case errors.Is(err, parser.ErrInvalidNumber):
		s.deps.Host.Message(owner, MsgInvalidNumber)
	case errors.Is(err, layout.ErrGridTooLarge):
		s.deps.Host.Message(owner, MsgTooLarge)
	case errors.Is(err, parser.ErrUnknownMaterial):
		s.deps.Host.Message(owner, fmt.Sprintf("Unknown material! Choose one of: %s", strings.Join(materialNames(core.SelectableMaterials), ", ")))
	default:
		s.deps.Host.Message(owner, err.Error())
	}
}

// Usage sends the general usage line.
func (s *Service) Usage(owner string) {
	s.deps.Host.Message(owner, parser.UsageGeneral)
}

// Design handles: design <name> <seatsPerRow> <rowCount>.
//
// The metadata row is written first with no material. The owner is then
// moved into their hangar, the seat grid is built there and recorded, and
// the material menu is opened. If the hangar cannot be created nothing is
// built or recorded.
func (s *Service) Design(ctx context.Context, owner string, args []string) error {
	req, err := s.deps.Parser.ParseDesign(args)
	if err != nil {
		s.reject(owner, err)
		return nil
	}
	ctx = logging.WithStructure(ctx, req.Name)
	if _, err := layout.GridBlocks(req.SeatsPerRow, req.RowCount); err != nil {
		s.log.DebugContext(ctx, "Rejected seat grid", "error", err)
		s.reject(owner, err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := core.StructureID{Owner: owner, Name: req.Name}
	st := core.Structure{StructureID: id, SeatsPerRow: req.SeatsPerRow, RowCount: req.RowCount}
	if err := s.deps.Store.UpsertStructure(&st); err != nil {
		return fmt.Errorf("design %s: %w", req.Name, err)
	}
	s.deps.Host.Message(owner, fmt.Sprintf("Creating and saving aircraft '%s' with %d seats per row and %d rows...",
		req.Name, req.SeatsPerRow, req.RowCount))

	anchor, err := s.deps.Host.CreateAnchor(owner)
	if err != nil {
		s.log.WarnContext(ctx, "Hangar creation failed", "error", err)
		s.deps.Host.Message(owner, MsgAnchorFailed)
		return nil
	}

	hc := s.deps.Hangar
	engine.Apply(anchor, layout.HangarPlatform(core.Position{Y: hc.PlatformY}, hc.Radius))
	if err := s.deps.Host.Teleport(owner, anchor, hc.Spawn); err != nil {
		return fmt.Errorf("teleport %s to %s: %w", owner, anchor.Name(), err)
	}
	s.deps.Host.Message(owner, fmt.Sprintf("Hangar '%s' created! You have been teleported to your personal hangar.", req.Name))

	origin := core.Position{Y: hc.DesignOriginY}
	placements, err := layout.Grid(origin, req.SeatsPerRow, req.RowCount)
	if err != nil {
		return fmt.Errorf("design %s: %w", req.Name, err)
	}
	sink := engine.NewRecordingSink(anchor, s.deps.Store, id)
	engine.Apply(sink, placements)
	if err := sink.Err(); err != nil {
		return fmt.Errorf("design %s: %w", req.Name, err)
	}

	build := core.Build{
		StructureID: id,
		Mode:        core.BuildModeGrid,
		Origin:      origin,
		Blocks:      sink.Count(),
		Params: map[string]any{
			"seatsPerRow": req.SeatsPerRow,
			"rowCount":    req.RowCount,
			"world":       anchor.Name(),
		},
	}
	if err := s.recordBuild(ctx, &build); err != nil {
		return fmt.Errorf("design %s: %w", req.Name, err)
	}

	pending := s.deps.Pending.Issue(id)
	if err := s.openMaterialMenu(owner, pending); err != nil {
		return fmt.Errorf("design %s: %w", req.Name, err)
	}

	s.log.InfoContext(ctx, "Aircraft designed",
		"seatsPerRow", req.SeatsPerRow, "rowCount", req.RowCount, "blocks", build.Blocks)
	return nil
}

// openMaterialMenu shows the fixed material menu, tagged with the pending
// token, and the prompt.
func (s *Service) openMaterialMenu(owner string, p cache.Pending) error {
	menu := host.Selection{ID: p.Token.String(), Title: MenuTitle, Options: core.SelectableMaterials}
	if err := s.deps.Host.OpenSelection(owner, menu); err != nil {
		return fmt.Errorf("open material menu: %w", err)
	}
	s.deps.Host.Message(owner, MsgSelectPrompt)
	return nil
}

// SelectMaterial is the selection callback. The owner's pending selection
// names the target; without one the most recent structure lacking a material
// is used. A click on a menu that a later design replaced is refused. The
// silhouette is then built five blocks above the owner. The pending
// selection is closed only once the material is stored.
func (s *Service) SelectMaterial(ctx context.Context, owner string, req parser.SelectionRequest) error {
	material := req.Material
	if !core.IsSelectable(material) {
		s.deps.Host.Message(owner, fmt.Sprintf("%s is not an aircraft material.", material.Pretty()))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var id core.StructureID
	pending, hasPending := s.deps.Pending.Peek(owner)
	switch {
	case hasPending && req.MenuID != "" && req.MenuID != pending.Token.String():
		s.log.DebugContext(ctx, "Replaced menu clicked", "menu", req.MenuID, "current", pending.Token.String())
		s.deps.Host.Message(owner, MsgMenuExpired)
		return nil
	case hasPending:
		id = pending.ID
	default:
		latest, found, err := s.deps.Store.FindLatestUnmaterialized(owner)
		if err != nil {
			return fmt.Errorf("select %s: %w", material, err)
		}
		if !found {
			s.deps.Host.Message(owner, MsgNoPending)
			return nil
		}
		id = latest
	}
	ctx = logging.WithStructure(ctx, id.Name)

	s.deps.Host.Message(owner, fmt.Sprintf("You selected %s as your aircraft material.", material.Pretty()))
	if err := s.deps.Store.SetMaterial(id, material); err != nil {
		return fmt.Errorf("select %s for %s: %w", material, id.Name, err)
	}
	if hasPending {
		s.deps.Pending.Complete(owner, pending.Token)
	}

	world, err := s.deps.Host.CurrentWorld(owner)
	if err != nil {
		return fmt.Errorf("select %s: %w", material, err)
	}
	pos, err := s.deps.Host.Position(owner)
	if err != nil {
		return fmt.Errorf("select %s: %w", material, err)
	}
	origin := pos.Add(0, s.deps.Hangar.SilhouetteLiftY, 0)
	placements := layout.Silhouette(origin, material)

	var blocks int
	if s.deps.Hangar.RecordSilhouette {
		sink := engine.NewRecordingSink(world, s.deps.Store, id)
		engine.Apply(sink, placements)
		if err := sink.Err(); err != nil {
			return fmt.Errorf("select %s for %s: %w", material, id.Name, err)
		}
		blocks = sink.Count()
	} else {
		sink := engine.NewCountingSink(world)
		engine.Apply(sink, placements)
		blocks = sink.Count()
	}

	build := core.Build{
		StructureID: id,
		Mode:        core.BuildModeSilhouette,
		Origin:      origin,
		Blocks:      blocks,
		Params: map[string]any{
			"material": string(material),
			"recorded": s.deps.Hangar.RecordSilhouette,
			"world":    world.Name(),
		},
	}
	if err := s.recordBuild(ctx, &build); err != nil {
		return fmt.Errorf("select %s for %s: %w", material, id.Name, err)
	}

	s.deps.Host.Message(owner, fmt.Sprintf("Your aircraft has been built using %s", material.Pretty()))
	attrs := []any{"material", material, "origin", origin.String(), "blocks", blocks}
	if hasPending {
		attrs = append(attrs, "waited", pending.Waited(time.Now()))
	}
	s.log.InfoContext(ctx, "Aircraft material selected", attrs...)
	return nil
}

// Load handles: load <name>. Every recorded block is replayed into the
// owner's current world; a name with no records loads zero blocks.
func (s *Service) Load(ctx context.Context, owner string, args []string) error {
	name, err := s.deps.Parser.ParseLoad(args)
	if err != nil {
		s.reject(owner, err)
		return nil
	}
	ctx = logging.WithStructure(ctx, name)

	s.mu.Lock()
	defer s.mu.Unlock()

	world, err := s.deps.Host.CurrentWorld(owner)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}

	start := time.Now()
	n, err := s.engine.Reload(ctx, owner, name, world)
	if err != nil {
		return fmt.Errorf("load %s after %d blocks: %w", name, n, err)
	}
	s.recordReload(ctx, core.StructureID{Owner: owner, Name: name}, n, time.Since(start))

	s.deps.Host.Message(owner, fmt.Sprintf("Aircraft '%s' loaded successfully.", name))
	return nil
}

// Info handles: info <name>.
func (s *Service) Info(ctx context.Context, owner string, args []string) error {
	name, err := s.deps.Parser.ParseInfo(args)
	if err != nil {
		s.reject(owner, err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := core.StructureID{Owner: owner, Name: name}
	st, err := s.deps.Store.GetStructure(id)
	if errors.Is(err, storage.ErrNotFound) {
		s.log.DebugContext(logging.WithStructure(ctx, name), "No such aircraft")
		s.deps.Host.Message(owner, fmt.Sprintf("No aircraft named '%s'.", name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("info %s: %w", name, err)
	}

	count, err := s.deps.Store.CountBlocks(owner, name)
	if err != nil {
		return fmt.Errorf("info %s: %w", name, err)
	}

	material := "no material selected"
	if st.HasMaterial() {
		material = "material " + st.Material.Pretty()
	}
	s.deps.Host.Message(owner, fmt.Sprintf("Aircraft '%s': %d seats per row, %d rows, %s, %d %s recorded.",
		name, st.SeatsPerRow, st.RowCount, material, count, util.Plural(int(count), "block")))

	last, err := s.deps.Store.LatestBuild(id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("info %s: %w", name, err)
	default:
		s.deps.Host.Message(owner, fmt.Sprintf("Last build: %s, %d %s at %s.",
			last.Mode, last.Blocks, util.Plural(last.Blocks, "block"), last.Origin))
	}
	return nil
}

// List handles: list.
func (s *Service) List(ctx context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	structures, err := s.deps.Store.ListStructures(owner)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	s.log.DebugContext(ctx, "Listing aircraft", "count", len(structures))
	if len(structures) == 0 {
		s.deps.Host.Message(owner, MsgNoAircraft)
		return nil
	}

	entries := make([]string, len(structures))
	for i, st := range structures {
		material := "no material"
		if st.HasMaterial() {
			material = st.Material.Pretty()
		}
		entries[i] = fmt.Sprintf("%s (%s)", st.Name, material)
	}
	s.deps.Host.Message(owner, "Your aircraft: "+strings.Join(entries, ", "))
	return nil
}

// Sit seats the owner on a stone slab at the given position of their
// current world. Other blocks are ignored.
func (s *Service) Sit(ctx context.Context, owner string, args []string) error {
	pos, err := s.deps.Parser.ParseSeat(args)
	if err != nil {
		s.reject(owner, err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	world, err := s.deps.Host.CurrentWorld(owner)
	if err != nil {
		return fmt.Errorf("sit: %w", err)
	}
	reader, ok := world.(host.BlockReader)
	if !ok || reader.Block(pos) != core.StoneSlab {
		s.log.DebugContext(ctx, "No seat at position", "world", world.Name(), "pos", pos.String())
		return nil
	}

	if err := s.deps.Host.Teleport(owner, world, pos); err != nil {
		return fmt.Errorf("sit: %w", err)
	}
	s.deps.Host.Message(owner, MsgSeated)
	return nil
}

func (s *Service) recordBuild(ctx context.Context, b *core.Build) error {
	if err := s.deps.Store.RecordBuild(b); err != nil {
		return err
	}
	if s.deps.Metrics != nil {
		if err := s.deps.Metrics.RecordBuild(*b); err != nil {
			s.log.DebugContext(ctx, "Build metric not written", "error", err)
		}
	}
	return nil
}

func (s *Service) recordReload(ctx context.Context, id core.StructureID, blocks int, took time.Duration) {
	if s.deps.Metrics == nil {
		return
	}
	if err := s.deps.Metrics.RecordReload(id, blocks, took); err != nil {
		s.log.DebugContext(ctx, "Reload metric not written", "error", err)
	}
}

func materialNames(ms []core.Material) []string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = string(m)
	}
	return names
}
