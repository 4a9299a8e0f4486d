// Package analyzer infers types for a whole program by abstract
// interpretation of its instruction sequences. Execution points are
// stepped from a worklist until no environment changes; calls are
// summarized per context and connected to their callers by continuations.
package analyzer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redneckbeard/rbprof/ir"
	"github.com/redneckbeard/rbprof/types"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type Config struct {
	// MaxIterations stops the analysis after this many steps. Zero means
	// no limit.
	MaxIterations int
	// MaxDuration stops the analysis once it has run this long. Zero means
	// no limit.
	MaxDuration time.Duration
	Logger      *zap.Logger
	// Trace logs every step at debug level.
	Trace bool
	// Fs is where require_relative finds other programs.
	Fs afero.Fs
}

// Scratch holds the whole state of one analysis. It is not safe for
// concurrent use.
type Scratch struct {
	Registry *Registry

	lattice *types.Lattice
	cfg     Config
	log *zap.Logger

	work   *worklist
	points pointTable
	crefs  map[string]*CRef

	ep2env     map[ExecutionPoint]*Env
	returnEnvs map[ExecutionPoint]*Env

	callsites      map[Context]*callsites
	sigFargs       map[Context]*FormalArguments
	sigRet         map[Context]types.Type
	yields         map[Context]*contextSet
	methodContexts map[*MethodDef]*contextSet
	mainContexts   []Context

	ivars, cvars, gvars *VarTable
	siteVars            map[types.AllocSite]string

	diagnostics []Diagnostic
	reported    map[string]bool

	accessors map[string]*ir.Body
	required  map[string]bool

	iterations int
	aborted    bool

	// onWiden, when set, sees every environment that replaces an earlier
	// one at the same point.
	onWiden func(ep ExecutionPoint, prev, next *Env)
}

func New(cfg Config) *Scratch {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	s := &Scratch{
		Registry:       NewRegistry(),
		lattice:        types.NewLattice(),
		cfg:            cfg,
		log:            cfg.Logger,
		work:           newWorklist(),
		points:         pointTable{ids: map[ExecutionPoint]PointID{}},
		crefs:          map[string]*CRef{},
		ep2env:         map[ExecutionPoint]*Env{},
		returnEnvs:     map[ExecutionPoint]*Env{},
		callsites:      map[Context]*callsites{},
		sigFargs:       map[Context]*FormalArguments{},
		sigRet:         map[Context]types.Type{},
		yields:         map[Context]*contextSet{},
		methodContexts: map[*MethodDef]*contextSet{},
		siteVars:       map[types.AllocSite]string{},
		reported:       map[string]bool{},
		accessors:      map[string]*ir.Body{},
		required:       map[string]bool{},
	}
	s.ivars = NewVarTable(s.lattice)
	s.cvars = NewVarTable(s.lattice)
	s.gvars = NewVarTable(s.lattice)
	s.registerBuiltins()
	return s
}

// Analyze runs main to a fixpoint and summarizes the result. Hitting the
// iteration or time limit, or cancellation of ctx, stops the analysis
// early; the partial result is still returned with Stats.Aborted set.
func (s *Scratch) Analyze(ctx context.Context, main *ir.Body) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*InvariantError)
			if !ok {
				panic(r)
			}
			result, err = nil, errors.Wrapf(ie, "analyzing %s", main.Path)
		}
	}()

	start := time.Now()
	s.startMain(main, ExecutionPoint{}, NewEnv(types.Any, types.NilType, nil), func(types.Type, ExecutionPoint, *Env) {})
	s.run(ctx, start)
	s.log.Info("analysis finished",
		zap.Int("iterations", s.iterations),
		zap.Int("points", len(s.ep2env)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("aborted", s.aborted))
	return s.result(time.Since(start)), nil
}

// startMain enters a top-level body as if called from callerEP.
func (s *Scratch) startMain(main *ir.Body, callerEP ExecutionPoint, callerEnv *Env, ctn Continuation) {
	ctx := Context{Body: main, CRef: s.cref(nil, types.ObjectClass)}
	s.mainContexts = append(s.mainContexts, ctx)
	s.mergeEnv(ExecutionPoint{Ctx: ctx}, NewEnv(types.ObjectType, types.NilType, nilLocals(len(main.Locals))))
	s.addCallsite(ctx, nil, callerEP, callerEnv, ctn)
}

func (s *Scratch) run(ctx context.Context, start time.Time) {
	for {
		if s.cfg.MaxIterations > 0 && s.iterations >= s.cfg.MaxIterations {
			s.abort("iteration limit reached")
			return
		}
		if s.cfg.MaxDuration > 0 && time.Since(start) > s.cfg.MaxDuration {
			s.abort("time limit reached")
			return
		}
		select {
		case <-ctx.Done():
			s.abort(ctx.Err().Error())
			return
		default:
		}
		ep, ok := s.work.pop()
		if !ok {
			return
		}
		s.iterations++
		if s.iterations%1000 == 0 {
			s.log.Info("analyzing", zap.Int("iterations", s.iterations), zap.Int("pending", s.work.Len()))
		}
		s.step(ep)
	}
}

func (s *Scratch) abort(reason string) {
	s.aborted = true
	s.log.Warn("analysis stopped early", zap.String("reason", reason), zap.Int("iterations", s.iterations))
}

// mergeEnv joins env into the environment recorded for ep and schedules ep
// when that changed anything.
func (s *Scratch) mergeEnv(ep ExecutionPoint, env *Env) {
	if prev, ok := s.ep2env[ep]; ok {
		merged := prev.mergeWith(s.lattice.Join, env)
		if merged.Equal(prev) {
			return
		}
		if s.onWiden != nil {
			s.onWiden(ep, prev, merged)
		}
		env = merged
	}
	s.ep2env[ep] = env
	s.work.push(ep)
}
