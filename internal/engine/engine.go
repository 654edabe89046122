package engine

// #region imports
import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/bandit"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/decision"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/eval"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/explain"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/features"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/gate"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/logging"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/store"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/update"
)

// #endregion

// #region engine-struct

// Engine runs the per-event decision pipeline: features, state estimators,
// reward for the previous action, bandit selection, mapping, guardrails and
// explanation. Users are independent; events for one user are serialized.
type Engine struct {
	config   Config
	catalog  *catalog.Catalog
	store    store.Store
	builder  *features.Builder
	learner  *bandit.Learner
	mapper   *decision.Mapper
	gate     *gate.Gate
	eval     *eval.EvalHarness
	reward   RewardFunc
	logger   *zap.Logger
	observer Observer
	recorder Recorder
	now      func() time.Time
	locks    *userLocks
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l.Named("engine") }
}

// WithObserver sets the telemetry hook.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithRecorder sets the provenance hook.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithRewardFunc replaces the weighted default reward.
func WithRewardFunc(f RewardFunc) Option {
	return func(e *Engine) { e.reward = f }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// #endregion

// #region constructor

// New creates a fully wired engine. cat must already be validated.
func New(config Config, cat *catalog.Catalog, st store.Store, opts ...Option) (*Engine, error) {
	if cat == nil {
		return nil, fmt.Errorf("new engine: %w: nil catalog", catalog.ErrInvalidCatalog)
	}
	if st == nil {
		return nil, errors.New("new engine: nil store")
	}

	e := &Engine{
		config:   config,
		catalog:  cat,
		store:    st,
		builder:  features.NewBuilder(config.Features),
		learner:  bandit.NewLearner(config.Bandit, cat),
		mapper:   decision.NewMapper(config.Mapper),
		gate:     gate.NewGate(config.Guardrails),
		eval:     eval.NewEvalHarness(config.Eval),
		reward:   WeightedReward(config.Reward),
		logger:   zap.NewNop(),
		observer: nopObserver{},
		now:      time.Now,
		locks:    newUserLocks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Catalog returns the action catalog the engine selects from.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// #endregion

// #region process-event

// ProcessEvent handles one interaction event for userID. It never fails:
// internal errors produce a degraded response carrying the previous strategy.
func (e *Engine) ProcessEvent(ctx context.Context, userID string, ev features.RawEvent) Response {
	unlock := e.locks.lock(userID)
	defer unlock()
	return e.process(ctx, userID, ev)
}

// BatchProcess replays events for one user strictly in order. Each event's
// reward depends on the action chosen for the one before it.
func (e *Engine) BatchProcess(ctx context.Context, userID string, events []features.RawEvent) []Response {
	unlock := e.locks.lock(userID)
	defer unlock()

	out := make([]Response, 0, len(events))
	for _, ev := range events {
		out = append(out, e.process(ctx, userID, ev))
	}
	return out
}

func (e *Engine) process(ctx context.Context, userID string, ev features.RawEvent) Response {
	start := e.now()
	log := e.logger.With(zap.String("user_id", userID))

	snap, err := e.load(ctx, userID)
	if err != nil {
		log.Warn("load failed, serving default strategy", zap.Error(err))
		return e.degrade(ctx, log, e.fresh(userID), ev, start, err)
	}

	next, resp, err := e.decide(log, snap, ev, start)
	if err != nil {
		log.Warn("decision failed, keeping previous strategy", zap.Error(err))
		return e.degrade(ctx, log, snap, ev, start, err)
	}

	if err := e.store.Save(ctx, next); err != nil {
		log.Error("save failed", zap.Error(err), zap.String("version_id", next.VersionID))
		resp.VersionID = ""
	}

	for _, t := range resp.Guardrails {
		e.observer.GuardrailTriggered(string(t.Type))
	}
	if resp.Reward != nil {
		e.observer.RewardObserved(*resp.Reward)
	}
	e.observer.EventProcessed(string(resp.Phase), false, e.now().Sub(start))
	e.record(ctx, log, resp, ev)

	log.Debug("decision",
		zap.String("phase", string(resp.Phase)),
		zap.String("action", resp.Action.ID),
		zap.Int("batch_size", resp.Strategy.BatchSize),
		zap.String("difficulty", string(resp.Strategy.Difficulty)),
		zap.Bool("should_break", resp.ShouldBreak),
		zap.String("dominant", string(resp.Explanation.Dominant)),
	)
	return resp
}

// #endregion

// #region decide

// decide runs the pipeline on a loaded snapshot and returns the snapshot to
// persist along with the response. Panics are converted to errors.
func (e *Engine) decide(log *zap.Logger, snap store.Snapshot, ev features.RawEvent, now time.Time) (next store.Snapshot, resp Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()

	at := ev.Timestamp
	if at.IsZero() {
		at = now
	}
	prior := update.Rest(snap.State, at, e.config.Estimators.Fatigue)
	model := snap.Model

	// 1. Features and state
	f := e.builder.Build(ev, prior.History.Recent)
	if len(f.Anomalies) > 0 {
		log.Debug("repaired event fields", zap.Strings("fields", f.Anomalies))
	}
	res := update.Update(prior, f, e.config.Estimators)
	newState := res.State
	// out-of-order events never move the clock back
	if at.After(prior.LastUpdated) {
		newState.LastUpdated = at
	}

	// 2. Credit the previous action
	var reward *float64
	if snap.Last != nil {
		reward = e.credit(log, model, snap.Last, RewardInput{Prior: prior, Next: newState, Features: f})
	}

	// 3. Select, map, guard
	phase := state.PhaseFor(newState.InteractionCount)
	sel := e.learner.Select(model, newState, phase)
	proposed := e.mapper.Map(sel.Action, snap.Strategy)
	guarded := e.gate.Evaluate(newState, proposed)

	// 4. Validate before anything is persisted
	result := e.eval.Run(newState, model, guarded.Strategy)
	if !result.Passed {
		return store.Snapshot{}, Response{}, errors.New(result.Reason)
	}

	exp := explain.Explain(explain.Input{
		Prior:        prior,
		Next:         newState,
		Phase:        phase,
		Action:       sel.Action,
		PrevStrategy: snap.Strategy,
		NewStrategy:  guarded.Strategy,
		Triggered:    guarded.Triggered,
	})

	next = store.Snapshot{
		UserID:   snap.UserID,
		State:    newState,
		Model:    model,
		Strategy: guarded.Strategy,
		Last: &store.LastDecision{
			ActionIndex: sel.Action.Index,
			ActionID:    sel.Action.ID,
			State:       newState,
			Phase:       phase,
			DecidedAt:   now,
		},
		VersionID: uuid.New().String(),
		UpdatedAt: now,
	}

	action := sel.Action
	resp = Response{
		UserID:      snap.UserID,
		Strategy:    guarded.Strategy,
		Explanation: exp,
		State:       newState,
		ShouldBreak: guarded.ShouldBreak,
		Phase:       phase,
		Action:      &action,
		Reward:      reward,
		Guardrails:  guarded.Triggered,
		VersionID:   next.VersionID,
		DecidedAt:   now,
	}
	return next, resp, nil
}

// credit updates the model with the reward for the last decision. A failed
// factorization resets the model; it is not an error for the event.
func (e *Engine) credit(log *zap.Logger, model *bandit.Model, last *store.LastDecision, in RewardInput) *float64 {
	action, ok := e.catalog.At(last.ActionIndex)
	if !ok || action.ID != last.ActionID {
		log.Warn("previous action not in catalog, skipping reward",
			zap.Int("action_index", last.ActionIndex), zap.String("action_id", last.ActionID))
		return nil
	}

	r := clamp(e.reward(in), -1, 1)
	reset, err := e.learner.Update(model, last.State, action, r)
	switch {
	case reset:
		log.Warn("bandit model reinitialized", zap.Error(err), zap.Int("update_count", model.UpdateCount()))
		e.observer.ModelReset()
	case err != nil:
		log.Warn("bandit update skipped", zap.Error(err))
		return nil
	}
	return &r
}

// #endregion

// #region degrade

// degrade answers with the snapshot's strategy unchanged. Nothing is saved.
func (e *Engine) degrade(ctx context.Context, log *zap.Logger, snap store.Snapshot, ev features.RawEvent, start time.Time, cause error) Response {
	phase := state.PhaseFor(snap.State.InteractionCount)
	resp := Response{
		UserID:      snap.UserID,
		Strategy:    snap.Strategy,
		Explanation: explain.Degraded(snap.Strategy),
		State:       snap.State,
		Phase:       phase,
		Degraded:    true,
		DecidedAt:   start,
	}
	e.observer.EventProcessed(string(phase), true, e.now().Sub(start))
	e.record(ctx, log, resp, ev)
	log.Debug("degraded response", zap.NamedError("cause", cause))
	return resp
}

// #endregion

// #region load

// load returns the user's snapshot, or a fresh one when the user is unknown
// or the stored data is corrupt. Other store errors are returned.
func (e *Engine) load(ctx context.Context, userID string) (store.Snapshot, error) {
	snap, found, err := e.store.Load(ctx, userID)
	switch {
	case errors.Is(err, store.ErrCorruptState):
		e.logger.Warn("corrupt snapshot, starting fresh", zap.String("user_id", userID), zap.Error(err))
		return e.fresh(userID), nil
	case err != nil:
		return store.Snapshot{}, fmt.Errorf("load %s: %w", userID, err)
	case !found:
		return e.fresh(userID), nil
	}

	snap.UserID = userID
	snap.State = snap.State.Clamp()
	if !snap.Strategy.Difficulty.Valid() {
		snap.Strategy = catalog.DefaultStrategy()
	}
	return snap, nil
}

func (e *Engine) fresh(userID string) store.Snapshot {
	return store.Snapshot{
		UserID:   userID,
		State:    state.Default(),
		Model:    e.learner.NewModel(),
		Strategy: catalog.DefaultStrategy(),
	}
}

// #endregion

// #region record

func (e *Engine) record(ctx context.Context, log *zap.Logger, resp Response, ev features.RawEvent) {
	if e.recorder == nil {
		return
	}
	eventJSON, err := json.Marshal(ev)
	if err != nil {
		log.Warn("encode event for provenance", zap.Error(err))
	}
	entry := logging.DecisionEntry{
		UserID:      resp.UserID,
		VersionID:   resp.VersionID,
		Phase:       string(resp.Phase),
		Reward:      resp.Reward,
		Guardrails:  joinTriggers(resp.Guardrails),
		Dominant:    string(resp.Explanation.Dominant),
		Explanation: resp.Explanation.Text,
		EventJSON:   string(eventJSON),
		Degraded:    resp.Degraded,
		CreatedAt:   resp.DecidedAt,
	}
	if resp.Action != nil {
		entry.ActionID = resp.Action.ID
	}
	if err := e.recorder.Record(ctx, entry); err != nil {
		log.Warn("record decision failed", zap.Error(err))
	}
}

func joinTriggers(ts []gate.Trigger) string {
	if len(ts) == 0 {
		return ""
	}
	kinds := make([]string, len(ts))
	for i, t := range ts {
		kinds[i] = string(t.Type)
	}
	return strings.Join(kinds, ",")
}

// #endregion

// #region queries

// GetColdStartPhase returns the user's current phase. Unknown and corrupt
// users are in the classification phase.
func (e *Engine) GetColdStartPhase(ctx context.Context, userID string) (state.Phase, error) {
	snap, err := e.load(ctx, userID)
	if err != nil {
		return "", err
	}
	return state.PhaseFor(snap.State.InteractionCount), nil
}

// GetCurrentStrategy returns the last strategy handed to the user, or the
// default strategy for a user with no history.
func (e *Engine) GetCurrentStrategy(ctx context.Context, userID string) (catalog.StrategyParams, error) {
	snap, err := e.load(ctx, userID)
	if err != nil {
		return catalog.StrategyParams{}, err
	}
	return snap.Strategy, nil
}

// GetState returns the user's current state estimate.
func (e *Engine) GetState(ctx context.Context, userID string) (state.UserState, error) {
	snap, err := e.load(ctx, userID)
	if err != nil {
		return state.UserState{}, err
	}
	return snap.State, nil
}

// ResetUser drops the user's state and model. The next event starts from
// defaults with A=λI and b=0.
func (e *Engine) ResetUser(ctx context.Context, userID string) error {
	unlock := e.locks.lock(userID)
	defer unlock()
	if err := e.store.Reset(ctx, userID); err != nil {
		return fmt.Errorf("reset %s: %w", userID, err)
	}
	e.logger.Info("user reset", zap.String("user_id", userID))
	return nil
}

// #endregion

// #region replay-users

// ReplayUsers processes several users' event streams. Users run in parallel
// with at most workers at once; each user's events stay in order. A
// cancelled context stops users that have not started yet.
func (e *Engine) ReplayUsers(ctx context.Context, events map[string][]features.RawEvent, workers int) (map[string][]Response, error) {
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	out := make(map[string][]Response, len(events))
	for userID, evs := range events {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resps := e.BatchProcess(gctx, userID, evs)
			mu.Lock()
			out[userID] = resps
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, fmt.Errorf("replay users: %w", err)
	}
	return out, nil
}

// #endregion
