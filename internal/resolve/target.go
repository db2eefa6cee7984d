package resolve

import (
	"context"

	"github.com/agentd/agentd/internal/model"
	"github.com/agentd/agentd/internal/mux"
)

// Resolution sources, ordered by decreasing confidence. Source is carried
// on the launch metrics so operators can see how often the static fallback
// is hit.
const (
	SourceExplicit = "explicit" // verbatim caller-supplied target
	SourceSession  = "session"  // caller-supplied session, defaulted window/pane
	SourceSaved    = "saved"    // persisted default target, still valid
	SourceAuto     = "auto"     // session heuristics + active pane
	SourceSelf     = "self"     // the pane this process runs in
	SourceStatic   = "static"   // configured session:window.0, may not exist yet
)

// Request carries the caller's explicit placement intent. Every field is
// optional; empty fields fall through to the next resolution tier.
type Request struct {
	// Target is a verbatim "session:window.pane" target.
	Target string
	// Session is an explicit session name, combined with Window and Pane.
	Session string
	// Window overrides the configured window name when Session is set.
	Window string
	// Pane overrides pane index 0 when Session is set.
	Pane int
}

// Resolution is a resolved target plus the tier that produced it.
type Resolution struct {
	Target string
	Source string
}

// Resolver produces the single target pane for a job.
//
// Saved is the persisted default target read by the caller before each
// resolution; it only wins when its pane still exists. Self is the pane
// the resolving process runs in, detected once at process start and empty
// outside the multiplexer. Session and Window are the configured static
// fallback names.
type Resolver struct {
	Mux     mux.Multiplexer
	Saved   string
	Self    string
	Session string
	Window  string
}

// Resolve walks the priority chain and returns the first satisfiable tier:
// explicit target, explicit session, saved default (existence re-checked),
// inferred session + active pane, self pane, static configured fallback.
// The static fallback always satisfies, so Resolve never fails; an
// explicit target is chosen verbatim and validated at launch time instead.
func (r *Resolver) Resolve(ctx context.Context, req Request) Resolution {
	if req.Target != "" {
		return Resolution{Target: req.Target, Source: SourceExplicit}
	}

	if req.Session != "" {
		window := req.Window
		if window == "" {
			window = r.Window
		}
		target := model.Target{Session: req.Session, Window: window, Pane: req.Pane}
		return Resolution{Target: target.String(), Source: SourceSession}
	}

	// Remembered intent only counts while its pane is alive; validity is
	// re-checked on every call, never cached.
	if r.Saved != "" && r.Mux.PaneExists(ctx, r.Saved) {
		return Resolution{Target: r.Saved, Source: SourceSaved}
	}

	if session := AutoSession(ctx, r.Mux); session != "" {
		if target := ActivePane(ctx, r.Mux, session); target != "" {
			return Resolution{Target: target, Source: SourceAuto}
		}
	}

	if r.Self != "" {
		return Resolution{Target: r.Self, Source: SourceSelf}
	}

	// The external runner creates this window if it does not exist yet.
	target := model.Target{Session: r.Session, Window: r.Window}
	return Resolution{Target: target.String(), Source: SourceStatic}
}
