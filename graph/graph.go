package graph

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/deepresearch/types"
)

// End is the terminal pseudo-node. Connecting an edge to End finishes the
// run after the source node completes.
const End = "__end__"

// Update is a partial state update returned by a node. Apply merges the
// update into the current state using the state type's per-field merge
// rules and returns the merged state.
type Update[S any] interface {
	Apply(state S) S
}

// NodeFunc is a single unit of work. It reads the state and returns a
// partial update; a nil update leaves the state unchanged. Nodes must not
// mutate the state they receive.
type NodeFunc[S any] func(ctx context.Context, state S) (Update[S], error)

// RouterFunc picks the label of the outgoing edge to follow after a node.
// Routing must be pure with respect to the state.
type RouterFunc[S any] func(state S) string

type conditionalEdge[S any] struct {
	route   RouterFunc[S]
	targets map[string]string // label -> node name or End
}

// Graph is a mutable pipeline definition. Build it with Register, Connect,
// ConnectConditional and SetEntry, then call Compile to validate the wiring
// and obtain a Runner.
type Graph[S any] struct {
	name    string
	nodes   map[string]NodeFunc[S]
	edges   map[string]string
	routers map[string]*conditionalEdge[S]
	entry   string
}

// New creates an empty graph.
func New[S any](name string) *Graph[S] {
	return &Graph[S]{
		name:    name,
		nodes:   make(map[string]NodeFunc[S]),
		edges:   make(map[string]string),
		routers: make(map[string]*conditionalEdge[S]),
	}
}

// Name returns the graph name.
func (g *Graph[S]) Name() string { return g.name }

// Register adds a named node. Registering the same name twice replaces the
// previous function.
func (g *Graph[S]) Register(name string, fn NodeFunc[S]) *Graph[S] {
	g.nodes[name] = fn
	return g
}

// Connect wires an unconditional edge from one node to another (or to End).
func (g *Graph[S]) Connect(from, to string) *Graph[S] {
	g.edges[from] = to
	return g
}

// ConnectConditional wires a routing function on the node's exit. The
// router's return value is looked up in targets to find the successor.
func (g *Graph[S]) ConnectConditional(from string, route RouterFunc[S], targets map[string]string) *Graph[S] {
	g.routers[from] = &conditionalEdge[S]{route: route, targets: targets}
	return g
}

// SetEntry marks the node execution starts from.
func (g *Graph[S]) SetEntry(name string) *Graph[S] {
	g.entry = name
	return g
}

// CompileOption configures the Runner produced by Compile.
type CompileOption[S any] func(*Runner[S])

// WithStore sets the checkpoint store. Without a store the Runner executes
// in memory only and cannot suspend or resume.
func WithStore[S any](store Store[S]) CompileOption[S] {
	return func(r *Runner[S]) { r.store = store }
}

// WithLogger sets the zap logger.
func WithLogger[S any](logger *zap.Logger) CompileOption[S] {
	return func(r *Runner[S]) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithInterruptBefore suspends the session when execution reaches node,
// before the node runs. denyTo names the node to jump to when the resume
// denies approval; it may be End.
func WithInterruptBefore[S any](node, denyTo string) CompileOption[S] {
	return func(r *Runner[S]) { r.interruptBefore[node] = denyTo }
}

// WithEventHandler registers a callback receiving execution events for
// progressive rendering. The callback runs inline on the session's thread
// and must be fast.
func WithEventHandler[S any](handler EventHandler) CompileOption[S] {
	return func(r *Runner[S]) { r.events = handler }
}

// WithMaxSteps bounds the total node invocations per run as an engine-level
// safety valve against wiring mistakes that produce unbounded cycles.
func WithMaxSteps[S any](n int) CompileOption[S] {
	return func(r *Runner[S]) {
		if n > 0 {
			r.maxSteps = n
		}
	}
}

// Compile validates the graph wiring and returns a Runner. Every wiring
// error is reported here; a compiled graph cannot fail on configuration at
// run time.
func (g *Graph[S]) Compile(opts ...CompileOption[S]) (*Runner[S], error) {
	if g.entry == "" {
		return nil, types.NewError(types.ErrNoEntryNode, fmt.Sprintf("graph %s has no entry node", g.name))
	}
	if _, ok := g.nodes[g.entry]; !ok {
		return nil, types.NewError(types.ErrNodeNotRegistered, fmt.Sprintf("entry node %q is not registered", g.entry))
	}

	for from, to := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, types.NewError(types.ErrNodeNotRegistered, fmt.Sprintf("edge source %q is not registered", from))
		}
		if err := g.checkTarget(to); err != nil {
			return nil, err
		}
		if _, both := g.routers[from]; both {
			return nil, types.NewError(types.ErrUnmappedRouteLabel, fmt.Sprintf("node %q has both a fixed edge and a router", from))
		}
	}
	for from, cond := range g.routers {
		if _, ok := g.nodes[from]; !ok {
			return nil, types.NewError(types.ErrNodeNotRegistered, fmt.Sprintf("router source %q is not registered", from))
		}
		if len(cond.targets) == 0 {
			return nil, types.NewError(types.ErrUnmappedRouteLabel, fmt.Sprintf("router on %q has no labels", from))
		}
		for label, to := range cond.targets {
			if label == "" {
				return nil, types.NewError(types.ErrUnmappedRouteLabel, fmt.Sprintf("router on %q has an empty label", from))
			}
			if err := g.checkTarget(to); err != nil {
				return nil, err
			}
		}
	}

	// Every node must have exactly one way out.
	for name := range g.nodes {
		_, hasEdge := g.edges[name]
		_, hasRouter := g.routers[name]
		if !hasEdge && !hasRouter {
			return nil, types.NewError(types.ErrUnmappedRouteLabel, fmt.Sprintf("node %q has no outgoing edge", name))
		}
	}

	r := &Runner[S]{
		graph:           g,
		logger:          zap.NewNop(),
		interruptBefore: make(map[string]string),
		maxSteps:        defaultMaxSteps,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("component", "graph_runner"), zap.String("graph", g.name))

	for node, denyTo := range r.interruptBefore {
		if _, ok := g.nodes[node]; !ok {
			return nil, types.NewError(types.ErrBadInterruptTarget, fmt.Sprintf("interrupt target %q is not registered", node))
		}
		if err := g.checkTarget(denyTo); err != nil {
			return nil, types.NewError(types.ErrBadInterruptTarget, fmt.Sprintf("deny path for %q: %v", node, err))
		}
		if r.store == nil {
			return nil, types.NewError(types.ErrBadInterruptTarget, fmt.Sprintf("interrupt before %q requires a checkpoint store", node))
		}
	}

	return r, nil
}

func (g *Graph[S]) checkTarget(to string) error {
	if to == End {
		return nil
	}
	if _, ok := g.nodes[to]; !ok {
		return types.NewError(types.ErrNodeNotRegistered, fmt.Sprintf("edge target %q is not registered", to))
	}
	return nil
}

// successor resolves the node to execute after from. Routing labels were
// validated at compile time, so an unmapped label here means the router
// returned a label it never declared.
func (g *Graph[S]) successor(from string, state S) (string, error) {
	if to, ok := g.edges[from]; ok {
		return to, nil
	}
	cond := g.routers[from]
	label := cond.route(state)
	to, ok := cond.targets[label]
	if !ok {
		return "", types.NewError(types.ErrUnmappedRouteLabel, fmt.Sprintf("router on %q returned undeclared label %q", from, label))
	}
	return to, nil
}
