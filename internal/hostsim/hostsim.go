// Package hostsim is an in-memory game host: voxel worlds, player positions,
// chat output and menus. It backs the command-line front end and the
// end-to-end handler tests.
package hostsim

import (
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/ubivismedia/aircraft/internal/queue"
	"github.com/ubivismedia/aircraft/pkg/core"
	"github.com/ubivismedia/aircraft/pkg/host"
)

// DefaultWorld is the world players join.
const DefaultWorld = "world"

var (
	// ErrUnknownPlayer is returned for owners that never joined.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrForeignWorld is returned when teleporting into a world this host did not create.
	ErrForeignWorld = errors.New("world does not belong to this host")
	// ErrInvalidMaterial is returned when registering a malformed material name.
	ErrInvalidMaterial = errors.New("invalid material name")
)

// registry holds the block types a host knows beyond the built-in catalog.
type registry struct {
	mu    sync.RWMutex
	extra map[core.Material]struct{}
}

func (r *registry) has(m core.Material) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.extra[m]
	return ok
}

// World is a sparse voxel world. Positions never set read as AIR.
type World struct {
	name     string
	registry *registry

	mu     sync.RWMutex
	blocks map[core.Position]core.Material
	writes int
}

// NewWorld creates an empty world.
func NewWorld(name string) *World {
	return &World{
		name:   name,
		blocks: make(map[core.Position]core.Material),
	}
}

func (w *World) Name() string {
	return w.name
}

// SetBlock places material at pos. AIR clears the position.
func (w *World) SetBlock(pos core.Position, material core.Material) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes++
	if material == core.Air {
		delete(w.blocks, pos)
		return
	}
	w.blocks[pos] = material
}

// ResolveMaterial resolves name against the built-in catalog and the
// materials registered on the host that created w.
func (w *World) ResolveMaterial(name string) (core.Material, bool) {
	if m, ok := core.MatchMaterial(name); ok {
		return m, true
	}
	m, ok := core.NormalizeMaterial(name)
	if !ok || !w.registry.has(m) {
		return "", false
	}
	return m, true
}

// Block returns the material at pos.
func (w *World) Block(pos core.Position) core.Material {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if m, ok := w.blocks[pos]; ok {
		return m
	}
	return core.Air
}

// Len returns the number of non-AIR positions.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.blocks)
}

// Writes returns how many SetBlock calls the world has received.
func (w *World) Writes() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.writes
}

// Blocks returns a copy of every non-AIR position.
func (w *World) Blocks() map[core.Position]core.Material {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return maps.Clone(w.blocks)
}

// Clear removes every block.
func (w *World) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	clear(w.blocks)
}

// Message is one chat line sent to an owner.
type Message struct {
	Owner string
	Text  string
}

// Menu is a selection surface opened for an owner.
type Menu struct {
	Owner string
	host.Selection
}

type player struct {
	world *World
	pos   core.Position
}

// Host implements host.Host over in-memory worlds.
type Host struct {
	mu      sync.Mutex
	worlds  map[string]*World
	players map[string]*player
	menus   map[string]Menu
	known   *registry

	outbox  *queue.Queue[Message]
	opened  *queue.Queue[Menu]
	anchorF func(owner string) error
}

var (
	_ host.Host             = (*Host)(nil)
	_ host.MaterialResolver = (*World)(nil)
)

// New creates a host with a single empty DefaultWorld.
func New() *Host {
	h := &Host{
		worlds:  make(map[string]*World),
		players: make(map[string]*player),
		menus:   make(map[string]Menu),
		known:   &registry{extra: make(map[core.Material]struct{})},
		outbox:  queue.New[Message](),
		opened:  queue.New[Menu](),
	}
	h.worlds[DefaultWorld] = h.newWorld(DefaultWorld)
	return h
}

func (h *Host) newWorld(name string) *World {
	w := NewWorld(name)
	w.registry = h.known
	return w
}

// RegisterMaterials adds block types to the host's registry. Every world of
// the host resolves them on reload. Names are normalized; a malformed name
// fails the call and registers nothing.
func (h *Host) RegisterMaterials(names ...string) error {
	ms := make([]core.Material, 0, len(names))
	for _, name := range names {
		m, ok := core.NormalizeMaterial(name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidMaterial, name)
		}
		ms = append(ms, m)
	}
	h.known.mu.Lock()
	defer h.known.mu.Unlock()
	for _, m := range ms {
		h.known.extra[m] = struct{}{}
	}
	return nil
}

// AnchorName is the owner-scoped hangar world name.
func AnchorName(owner string) string {
	return "hangar_" + owner
}

// Join places owner in the default world at pos. Joining again moves the
// player back to the default world.
func (h *Host) Join(owner string, pos core.Position) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.players[owner] = &player{world: h.worlds[DefaultWorld], pos: pos}
}

// Move sets the owner's position inside their current world.
func (h *Host) Move(owner string, pos core.Position) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.players[owner]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, owner)
	}
	p.pos = pos
	return nil
}

// FailAnchors makes CreateAnchor return the error produced by f. A nil f
// restores normal behavior.
func (h *Host) FailAnchors(f func(owner string) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.anchorF = f
}

// World returns a world by name.
func (h *Host) World(name string) (*World, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.worlds[name]
	return w, ok
}

// Worlds returns the names of every world.
func (h *Host) Worlds() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.worlds))
	for name := range h.worlds {
		names = append(names, name)
	}
	return names
}

func (h *Host) CurrentWorld(owner string) (host.World, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.players[owner]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, owner)
	}
	return p.world, nil
}

func (h *Host) Position(owner string) (core.Position, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.players[owner]
	if !ok {
		return core.Position{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, owner)
	}
	return p.pos, nil
}

// CreateAnchor returns the owner's hangar world, creating it on first use.
func (h *Host) CreateAnchor(owner string) (host.World, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.anchorF != nil {
		if err := h.anchorF(owner); err != nil {
			return nil, err
		}
	}
	name := AnchorName(owner)
	w, ok := h.worlds[name]
	if !ok {
		w = h.newWorld(name)
		h.worlds[name] = w
	}
	return w, nil
}

func (h *Host) Teleport(owner string, world host.World, pos core.Position) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.players[owner]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, owner)
	}
	w, ok := h.worlds[world.Name()]
	if !ok || host.World(w) != world {
		return fmt.Errorf("%w: %s", ErrForeignWorld, world.Name())
	}
	p.world = w
	p.pos = pos
	return nil
}

// OpenSelection records the menu as the owner's open menu.
func (h *Host) OpenSelection(owner string, sel host.Selection) error {
	sel.Options = append([]core.Material(nil), sel.Options...)
	menu := Menu{Owner: owner, Selection: sel}
	h.mu.Lock()
	h.menus[owner] = menu
	h.mu.Unlock()
	h.opened.Push(menu)
	return nil
}

// OpenMenu returns the owner's currently open menu.
func (h *Host) OpenMenu(owner string) (Menu, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.menus[owner]
	return m, ok
}

// CloseMenu closes the owner's menu, as the engine does after a click.
func (h *Host) CloseMenu(owner string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.menus, owner)
}

func (h *Host) Message(owner, text string) {
	h.outbox.Push(Message{Owner: owner, Text: text})
}

// Messages drains every queued chat line.
func (h *Host) Messages() []Message {
	return h.outbox.Drain()
}

// MessagesFor drains the chat lines addressed to owner and returns their text.
func (h *Host) MessagesFor(owner string) []string {
	msgs := h.outbox.DrainFunc(func(m Message) bool { return m.Owner == owner })
	texts := make([]string, len(msgs))
	for i, m := range msgs {
		texts[i] = m.Text
	}
	return texts
}

// LastMessage returns the most recent chat line without draining.
func (h *Host) LastMessage() (Message, bool) {
	return h.outbox.Peek()
}

// OpenedMenus drains the menus opened since the last call.
func (h *Host) OpenedMenus() []Menu {
	return h.opened.Drain()
}
