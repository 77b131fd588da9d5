package actor

// HandlerKind classifies what a (state, event) lookup produces: one of
// {DoAction, GotoState, PushState, IgnoreEvent, DeferEvent, HaltEvent}.
type HandlerKind int

const (
	DoAction HandlerKind = iota
	GotoState
	PushState
	IgnoreEvent
	DeferEvent
	HaltEvent
)

// Handler is what a state declares for one event name.
type Handler struct {
	Kind   HandlerKind
	Target string // valid for GotoState, PushState
	Action func(a *Actor, e Event)
}

// StateDef is one state of a hierarchical state machine: entry/exit actions
// plus a lookup from event name to handler, and an optional default
// handler invoked when the inbox is empty.
//
// Handlers are registered once, by name, into a plain map built by
// StateBuilder — no reflection, no attribute scanning, no method-name
// convention.
type StateDef struct {
	Name     string
	OnEntry  func(a *Actor)
	OnExit   func(a *Actor)
	Handlers map[string]Handler
	Default  *Handler
}

func (s *StateDef) isDeferred(name string) bool {
	h, ok := s.Handlers[name]
	return ok && h.Kind == DeferEvent
}

// StateBuilder builds a StateDef with a fluent API.
type StateBuilder struct {
	def *StateDef
}

// NewState begins building the state named name.
func NewState(name string) *StateBuilder {
	return &StateBuilder{def: &StateDef{Name: name, Handlers: make(map[string]Handler)}}
}

// OnEntry registers the action run whenever this state is pushed onto the
// stack (by Goto or Push).
func (b *StateBuilder) OnEntry(fn func(a *Actor)) *StateBuilder {
	b.def.OnEntry = fn
	return b
}

// OnExit registers the action run whenever this state is popped off the
// stack by Goto. Calling Raise from within this action is an assertion
// failure.
func (b *StateBuilder) OnExit(fn func(a *Actor)) *StateBuilder {
	b.def.OnExit = fn
	return b
}

// OnEvent registers a DoAction handler: fn runs, and the state stack does
// not change unless fn itself calls Goto/Push/Raise/Halt.
func (b *StateBuilder) OnEvent(name string, fn func(a *Actor, e Event)) *StateBuilder {
	b.def.Handlers[name] = Handler{Kind: DoAction, Action: fn}
	return b
}

// GotoOn registers a GotoState handler for name: pop this state, push
// target.
func (b *StateBuilder) GotoOn(name, target string) *StateBuilder {
	b.def.Handlers[name] = Handler{Kind: GotoState, Target: target}
	return b
}

// PushOn registers a PushState handler for name: push target without
// popping this state.
func (b *StateBuilder) PushOn(name, target string) *StateBuilder {
	b.def.Handlers[name] = Handler{Kind: PushState, Target: target}
	return b
}

// IgnoreOn registers name as a no-op in this state.
func (b *StateBuilder) IgnoreOn(name string) *StateBuilder {
	b.def.Handlers[name] = Handler{Kind: IgnoreEvent}
	return b
}

// DeferOn declares name deferred while this state (or any state pushed
// above it) is on the stack: dequeue skips it until a state without the
// deferral is reached.
func (b *StateBuilder) DeferOn(name string) *StateBuilder {
	b.def.Handlers[name] = Handler{Kind: DeferEvent}
	return b
}

// HaltOn registers name as terminating the actor.
func (b *StateBuilder) HaltOn(name string) *StateBuilder {
	b.def.Handlers[name] = Handler{Kind: HaltEvent}
	return b
}

// WithDefault registers the handler invoked when the inbox is empty and no
// event is raised.
func (b *StateBuilder) WithDefault(fn func(a *Actor, e Event)) *StateBuilder {
	b.def.Default = &Handler{Kind: DoAction, Action: fn}
	return b
}

// Build finalizes the StateDef.
func (b *StateBuilder) Build() *StateDef {
	return b.def
}

// Machine is a named collection of states plus the name of the state the
// actor starts in, produced by MachineBuilder and shared (read-only, after
// Build) across every Actor instance created from it.
type Machine struct {
	States map[string]*StateDef
	Start  string
}

// MachineBuilder assembles a Machine from StateDefs.
type MachineBuilder struct {
	states map[string]*StateDef
	start  string
}

// NewMachine begins building a Machine whose initial state is start.
func NewMachine(start string) *MachineBuilder {
	return &MachineBuilder{states: make(map[string]*StateDef), start: start}
}

// AddState registers one state definition.
func (b *MachineBuilder) AddState(def *StateDef) *MachineBuilder {
	b.states[def.Name] = def
	return b
}

// Build finalizes the Machine.
func (b *MachineBuilder) Build() *Machine {
	return &Machine{States: b.states, Start: b.start}
}
