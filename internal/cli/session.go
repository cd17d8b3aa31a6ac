package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/daybook/internal/codec"
	"github.com/mesh-intelligence/daybook/internal/coordinator"
	"github.com/mesh-intelligence/daybook/internal/render"
	"github.com/mesh-intelligence/daybook/internal/store"
	"github.com/mesh-intelligence/daybook/internal/views"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

var errUnknownCategory = errors.New("unknown category")

// userErrors are failures caused by the input rather than the system.
var userErrors = []error{
	types.ErrInvalidID,
	types.ErrInvalidName,
	types.ErrInvalidDate,
	types.ErrInvalidTime,
	types.ErrInvalidDuration,
	types.ErrCategoryExists,
	types.ErrBackendEmpty,
	types.ErrBackendUnknown,
	types.ErrKVDriverUnknown,
	types.ErrKVAddrEmpty,
	codec.ErrInvalidEnvelope,
	views.ErrUnknownRange,
	views.ErrUnknownChartType,
	errUnknownCategory,
}

// fail returns err unchanged when it is a user error and marks it as a
// system error otherwise.
func fail(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return sysError(err)
}

// isViewError reports whether err includes a failed view refresh.
func isViewError(err error) bool {
	var ve *coordinator.ViewError
	return errors.As(err, &ve)
}

// session is an open backend with a coordinator drawing to the command's
// output.
type session struct {
	cmd     *cobra.Command
	backend types.Backend
	coord   *coordinator.Coordinator
	jsonOut *render.JSON
}

// openSession opens the configured backend. Only the views named in show
// reach the output; the rest are still recomputed.
func (a *app) openSession(cmd *cobra.Command, show ...coordinator.View) (*session, error) {
	cfg, err := a.storeConfig()
	if err != nil {
		return nil, fail(err)
	}
	exportDir, err := a.exportDir("")
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve export dir: %w", err))
	}
	backend, err := store.Open(cmd.Context(), cfg, store.Options{Logger: a.logger, Metrics: a.metrics})
	if err != nil {
		return nil, sysError(err)
	}

	s := &session{cmd: cmd, backend: backend}
	var r coordinator.Renderer
	if a.flags.jsonMode {
		s.jsonOut = render.NewJSON(cmd.OutOrStdout())
		r = s.jsonOut
	} else {
		r = render.NewText(cmd.OutOrStdout())
	}

	chart, rng := a.chartDefaults()
	s.coord = coordinator.New(backend, render.Only(r, show...),
		coordinator.WithExporter(codec.FileExporter{Dir: exportDir, Now: a.now}),
		coordinator.WithClock(a.now),
		coordinator.WithLogger(a.logger),
		coordinator.WithMetrics(a.metrics),
		coordinator.WithState(coordinator.ViewState{Chart: chart, Range: rng}),
	)
	return s, nil
}

// report prints a text message, or records result for the JSON document.
func (s *session) report(result any, format string, args ...any) {
	if s.jsonOut != nil {
		s.jsonOut.SetResult(result)
		return
	}
	fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

// finish flushes JSON output and closes the backend. err is the command's
// own result and takes precedence.
func (s *session) finish(err error) error {
	var closeErr error
	if s.jsonOut != nil {
		closeErr = s.jsonOut.Flush()
	}
	closeErr = errors.Join(closeErr, s.backend.Close())
	if err != nil {
		return err
	}
	if closeErr != nil {
		return sysError(closeErr)
	}
	return nil
}
