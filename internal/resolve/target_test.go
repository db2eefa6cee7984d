package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/agentd/agentd/internal/model"
)

var errUnavailable = errors.New("multiplexer unavailable")

func newResolver(m *fakeMux) *Resolver {
	return &Resolver{
		Mux:     m,
		Session: "agentd",
		Window:  "cli",
	}
}

func TestResolve_ExplicitTargetWinsEvenWhenInvalid(t *testing.T) {
	// A full heuristic environment is available, yet the verbatim target
	// wins without any existence check. Validity is launch's problem.
	m := &fakeMux{
		clients:  []model.Client{{Session: "dev", Activity: 100}},
		sessions: []model.Session{{Name: "dev", Created: 1, LastAttached: 1}},
		panes: map[string][]model.Pane{
			"dev": {pane("dev", 0, 0, true, "bash")},
		},
	}
	r := newResolver(m)
	r.Saved = "dev:0.0"
	m.exists = map[string]bool{"dev:0.0": true}

	res := r.Resolve(context.Background(), Request{Target: "ghost:9.9"})
	if res.Target != "ghost:9.9" || res.Source != SourceExplicit {
		t.Errorf("Resolve = %+v, want ghost:9.9/%s", res, SourceExplicit)
	}
}

func TestResolve_ExplicitSessionDefaultsWindowAndPane(t *testing.T) {
	r := newResolver(&fakeMux{})

	res := r.Resolve(context.Background(), Request{Session: "work"})
	if res.Target != "work:cli.0" || res.Source != SourceSession {
		t.Errorf("Resolve = %+v, want work:cli.0/%s", res, SourceSession)
	}

	res = r.Resolve(context.Background(), Request{Session: "work", Window: "build", Pane: 2})
	if res.Target != "work:build.2" {
		t.Errorf("Resolve = %+v, want work:build.2", res)
	}
}

func TestResolve_SavedDefaultRequiresLivePane(t *testing.T) {
	m := &fakeMux{exists: map[string]bool{"dev:1.0": true}}
	r := newResolver(m)
	r.Saved = "dev:1.0"

	res := r.Resolve(context.Background(), Request{})
	if res.Target != "dev:1.0" || res.Source != SourceSaved {
		t.Errorf("Resolve = %+v, want dev:1.0/%s", res, SourceSaved)
	}

	// The saved pane died: resolution must fall through, not return it.
	m.exists = map[string]bool{}
	res = r.Resolve(context.Background(), Request{})
	if res.Source == SourceSaved {
		t.Errorf("Resolve returned dead saved target: %+v", res)
	}
}

func TestResolve_AutoSessionActivePane(t *testing.T) {
	m := &fakeMux{
		clients: []model.Client{{Session: "dev", Activity: 42}},
		panes: map[string][]model.Pane{
			"dev": {
				pane("dev", 0, 0, false, "vim"),
				pane("dev", 1, 0, true, "bash"),
			},
		},
	}
	r := newResolver(m)

	res := r.Resolve(context.Background(), Request{})
	if res.Target != "dev:1.0" || res.Source != SourceAuto {
		t.Errorf("Resolve = %+v, want dev:1.0/%s", res, SourceAuto)
	}
}

func TestResolve_SelfPaneBeforeStaticFallback(t *testing.T) {
	r := newResolver(&fakeMux{})
	r.Self = "home:0.2"

	res := r.Resolve(context.Background(), Request{})
	if res.Target != "home:0.2" || res.Source != SourceSelf {
		t.Errorf("Resolve = %+v, want home:0.2/%s", res, SourceSelf)
	}
}

func TestResolve_StaticFallback(t *testing.T) {
	// Multiplexer completely unavailable, nothing saved, not inside the
	// multiplexer: resolution still succeeds with the configured default.
	r := newResolver(&fakeMux{
		clientsErr:  errUnavailable,
		sessionsErr: errUnavailable,
		panesErr:    errUnavailable,
	})

	res := r.Resolve(context.Background(), Request{})
	if res.Target != "agentd:cli.0" || res.Source != SourceStatic {
		t.Errorf("Resolve = %+v, want agentd:cli.0/%s", res, SourceStatic)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	m := &fakeMux{
		clients: []model.Client{{Session: "dev", Activity: 1}},
		panes: map[string][]model.Pane{
			"dev": {pane("dev", 0, 0, true, "bash")},
		},
	}
	r := newResolver(m)

	first := r.Resolve(context.Background(), Request{})
	for i := 0; i < 5; i++ {
		if got := r.Resolve(context.Background(), Request{}); got != first {
			t.Fatalf("Resolve not deterministic: got %+v, want %+v", got, first)
		}
	}
}
