package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ui_harness/application/pom"
	"ui_harness/application/session"
	"ui_harness/domain/entities"
	"ui_harness/domain/faults"
	"ui_harness/domain/interfaces"
)

// Step is one executable step of a scenario
type Step struct {
	Name string
	Run  func(w *World) error
}

// Scenario is a named list of steps
type Scenario struct {
	Info  entities.Scenario
	Steps []Step
}

// World is what a step can reach: its session, the page registry of that
// session, scenario test data and the reporter.
type World struct {
	Ctx      context.Context
	Session  *session.Context
	Pages    *pom.Registry
	Data     interfaces.TestData
	Reporter interfaces.Reporter
	Log      *logrus.Entry
}

// Page returns the page for key as T
func Page[T pom.PageObject](w *World, key pom.PageKey) (T, error) {
	return pom.Get[T](w.Pages, key)
}

// Input returns a named test data value, failing when it is missing
func (w *World) Input(name string) (string, error) {
	if w.Data != nil {
		if v, ok := w.Data.Value(name); ok {
			return v, nil
		}
	}
	return "", &faults.ConfigurationError{Subject: name, Reason: "no test data for " + w.Session.Scenario().Name}
}

// Runner executes scenarios. Every worker gets its own session manager.
type Runner struct {
	cfg       interfaces.Config
	launchers session.Launchers
	catalog   *pom.Catalog
	store     interfaces.ArtifactStore
	reporter  interfaces.Reporter
	data      func(scenario string) interfaces.TestData
	log       *logrus.Logger
}

// Option configures a Runner
type Option func(*Runner)

// WithArtifactStore sets where step screenshots go
func WithArtifactStore(s interfaces.ArtifactStore) Option {
	return func(r *Runner) { r.store = s }
}

// WithReporter sets the reporting collaborator
func WithReporter(rep interfaces.Reporter) Option {
	return func(r *Runner) { r.reporter = rep }
}

// WithTestData sets how test data is looked up per scenario
func WithTestData(fn func(scenario string) interfaces.TestData) Option {
	return func(r *Runner) { r.data = fn }
}

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// NewRunner - creates a scenario runner
func NewRunner(cfg interfaces.Config, launchers session.Launchers, catalog *pom.Catalog, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		launchers: launchers,
		catalog:   catalog,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type worker struct {
	id  int
	r   *Runner
	mgr *session.Manager
}

func (r *Runner) newWorker(id int) *worker {
	opts := []session.Option{session.WithLogger(r.log)}
	if r.store != nil {
		opts = append(opts, session.WithArtifactStore(r.store))
	}
	if r.reporter != nil {
		opts = append(opts, session.WithReporter(r.reporter))
	}
	return &worker{id: id, r: r, mgr: session.NewManager(r.cfg, r.launchers, opts...)}
}

// Run executes one scenario on a fresh worker
func (r *Runner) Run(ctx context.Context, s Scenario) entities.ScenarioResult {
	return r.newWorker(0).run(ctx, s)
}

// RunAll executes scenarios on up to workers concurrent workers. Results
// keep the input order. The returned error is only set when ctx ends the run.
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario, workers int) ([]entities.ScenarioResult, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(scenarios) {
		workers = len(scenarios)
	}

	results := make([]entities.ScenarioResult, len(scenarios))
	jobs := make(chan int)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i := range scenarios {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var mu sync.Mutex
	for id := 1; id <= workers; id++ {
		w := r.newWorker(id)
		g.Go(func() error {
			for i := range jobs {
				res := w.run(gctx, scenarios[i])
				mu.Lock()
				results[i] = res
				mu.Unlock()
			}
			return nil
		})
	}

	err := g.Wait()
	for i := range results {
		if results[i].Status == "" {
			results[i] = entities.ScenarioResult{Scenario: scenarios[i].Info, Status: entities.ScenarioPending}
		}
	}
	if err == nil {
		err = ctx.Err()
	}
	return results, err
}

// run drives one scenario through the lifecycle. Teardown always runs.
func (w *worker) run(ctx context.Context, s Scenario) (res entities.ScenarioResult) {
	log := w.r.log.WithFields(logrus.Fields{"worker": w.id, "scenario": s.Info.Name})
	res = entities.ScenarioResult{
		Scenario:  s.Info,
		Status:    entities.ScenarioRunning,
		Worker:    w.id,
		StartedAt: time.Now(),
	}
	defer func() { res.Duration = time.Since(res.StartedAt) }()

	sc, err := w.mgr.Initialize(ctx, s.Info)
	if err != nil {
		log.WithError(err).Error("scenario could not start")
		res.Status = entities.ScenarioAborted
		res.Error = err.Error()
		res.Scenario.Failed = true
		return res
	}
	defer w.mgr.Teardown()
	res.SessionID = sc.ID()

	world := &World{
		Ctx:      ctx,
		Session:  sc,
		Pages:    pom.NewRegistry(sc, w.r.catalog),
		Reporter: sc.Reporter(),
		Log:      sc.Logger(),
	}
	if w.r.data != nil {
		world.Data = w.r.data(s.Info.Name)
	}

	log.Info("scenario started")
	failed := false
	for i, step := range s.Steps {
		if ctx.Err() != nil {
			res.Status = entities.ScenarioAborted
			res.Error = fmt.Sprintf("scenario canceled: %v", ctx.Err())
			break
		}
		if failed {
			log.WithField("step", step.Name).Debug("skipped after failure")
			continue
		}

		start := time.Now()
		err := execute(world, step)
		outcome := entities.StepOutcome{
			Name:           step.Name,
			Index:          i,
			Failed:         err != nil,
			ScenarioFailed: err != nil,
			Duration:       time.Since(start),
		}
		if err != nil {
			outcome.Error = err.Error()
			failed = true
			res.Error = err.Error()
			if faults.IsFatal(err) {
				res.Status = entities.ScenarioAborted
			}
			log.WithError(err).WithField("step", step.Name).Error("step failed")
		}
		res.Steps = append(res.Steps, outcome)

		if d := w.mgr.AfterStep(outcome); d != nil {
			res.Diagnostics = append(res.Diagnostics, *d)
		}
	}

	res.Scenario = sc.Scenario()
	if res.Status == entities.ScenarioRunning {
		if failed {
			res.Status = entities.ScenarioFailed
		} else {
			res.Status = entities.ScenarioPassed
		}
	}
	if res.Status != entities.ScenarioPassed {
		res.Scenario.Failed = true
	}
	log.WithFields(logrus.Fields{"status": res.Status, "steps": len(res.Steps)}).Info("scenario finished")
	return res
}

// execute runs one step; a panic becomes the step's failure
func execute(w *World, step Step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected panic in step %q: %+v\n%s", step.Name, r, string(debug.Stack()))
		}
	}()
	if step.Run == nil {
		return errors.New("step has no implementation")
	}
	return step.Run(w)
}
