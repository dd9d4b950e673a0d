// Package engine keeps projects, feature trees, tasks, and user back-references
// consistent. Every public Engine method runs inside one store transaction:
// either all of its writes commit or none do. The Hierarchy and Coordinator
// primitives take the transaction as an argument so they can be composed.
package engine

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mesh-intelligence/teamboard/internal/logging"
	"github.com/mesh-intelligence/teamboard/pkg/types"
)

const tracerName = "github.com/mesh-intelligence/teamboard/internal/engine"

// Hooks captures engine-level observability events.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	ObserveCascade(name string, features, tasks int)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) ObserveCascade(string, int, int)                {}

// Authorizer answers whether userID administers projectID. It reads through
// the caller's transaction so the answer is consistent with the writes that
// follow.
type Authorizer interface {
	IsAdmin(ctx context.Context, tx types.Tx, projectID, userID string) (bool, error)
}

// storeAdmin is the default Authorizer: it compares against Project.Admin.
type storeAdmin struct{}

func (storeAdmin) IsAdmin(ctx context.Context, tx types.Tx, projectID, userID string) (bool, error) {
	p, err := tx.GetProject(ctx, projectID)
	if err != nil {
		return false, err
	}
	return p.IsAdmin(userID), nil
}

// Options configures an Engine. Zero fields get defaults.
type Options struct {
	Log        *logging.Logger
	Hooks      Hooks
	Authorizer Authorizer
	Tracer     trace.Tracer
}

// Engine is the cascade orchestrator. It holds no entity state between
// calls; each operation re-reads what it needs inside its transaction.
type Engine struct {
	store  types.Store
	log    *logging.Logger
	hooks  Hooks
	authz  Authorizer
	tracer trace.Tracer

	hier  Hierarchy
	coord Coordinator
}

// New builds an Engine over store.
func New(store types.Store, opts Options) *Engine {
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	if opts.Hooks == nil {
		opts.Hooks = noopHooks{}
	}
	if opts.Authorizer == nil {
		opts.Authorizer = storeAdmin{}
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	return &Engine{
		store:  store,
		log:    opts.Log,
		hooks:  opts.Hooks,
		authz:  opts.Authorizer,
		tracer: opts.Tracer,
	}
}

// inTx runs fn in a transaction and commits if fn returns nil. Any error
// rolls back every write fn made. Errors are returned unchanged.
func (e *Engine) inTx(ctx context.Context, op string, fn func(ctx context.Context, tx types.Tx) error) error {
	return e.run(ctx, op, true, fn)
}

// view runs fn in a transaction that is always rolled back.
func (e *Engine) view(ctx context.Context, op string, fn func(ctx context.Context, tx types.Tx) error) error {
	return e.run(ctx, op, false, fn)
}

func (e *Engine) run(ctx context.Context, op string, write bool, fn func(ctx context.Context, tx types.Tx) error) error {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine."+op, trace.WithAttributes(
		attribute.String("teamboard.op", op),
		attribute.Bool("teamboard.write", write),
	))
	defer span.End()

	err := e.exec(ctx, write, fn)

	status := "success"
	if err != nil {
		status = types.KindOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		if errors.Is(err, types.ErrConflict) {
			e.hooks.IncConflict(op)
		}
		switch status {
		case types.KindStoreUnavailable, types.KindInternal:
			e.log.Error("operation aborted", "op", op, "kind", status, "error", err)
		default:
			e.log.Warn("operation aborted", "op", op, "kind", status, "error", err)
		}
	} else if write {
		e.log.Debug("operation committed", "op", op, "duration_ms", time.Since(start).Milliseconds())
	}
	e.hooks.ObserveOperation(op, status, time.Since(start))
	return err
}

func (e *Engine) exec(ctx context.Context, write bool, fn func(ctx context.Context, tx types.Tx) error) error {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !write {
		return nil
	}
	return tx.Commit()
}

// requireAdmin fails with ErrForbidden unless actorID administers projectID.
func (e *Engine) requireAdmin(ctx context.Context, tx types.Tx, projectID, actorID string) error {
	ok, err := e.authz.IsAdmin(ctx, tx, projectID, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return types.Forbiddenf("user %s is not the admin of project %s", actorID, projectID)
	}
	return nil
}
