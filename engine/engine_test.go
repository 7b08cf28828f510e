package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/tiled-lighting/engine/camera"
	"github.com/Carmen-Shannon/tiled-lighting/engine/renderer"
	"github.com/Carmen-Shannon/tiled-lighting/engine/scene"
)

func newTestScene(t *testing.T, name string) scene.Scene {
	t.Helper()
	const w, h = 32, 32
	ctrl := camera.NewSceneController(scene.DefaultBounds.Min, scene.DefaultBounds.Max)
	cam := camera.NewCamera(camera.WithViewport(w, h), camera.WithController(ctrl))
	r, err := renderer.NewRenderer(renderer.BackendTypeCPU, w, h)
	if err != nil {
		t.Fatal(err)
	}
	s := scene.NewScene(name, cam, r, w, h, scene.WithRayWorkers(1), scene.WithGridObjects(28))
	t.Cleanup(func() {
		s.Release()
		r.Release()
	})
	return s
}

// stubScene renders canned results. Only the methods the render loop calls
// are implemented.
type stubScene struct {
	scene.Scene
	name   string
	active bool
	err    error

	mu    sync.Mutex
	calls int
}

func (s *stubScene) Name() string { return s.name }
func (s *stubScene) Active() bool { return s.active }

func (s *stubScene) Render(ctx context.Context) (*renderer.FrameResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &renderer.FrameResult{}, nil
}

func TestRunStopsAfterFrameBudget(t *testing.T) {
	s := newTestScene(t, "main")
	var order []int
	e := NewEngine(
		WithFrames(3),
		WithScene(2, s),
		WithScene(1, &stubScene{name: "first", active: true}),
		WithScene(3, &stubScene{name: "inactive"}),
		WithFrameCallback(func(frame, key int, _ scene.Scene, res *renderer.FrameResult) {
			if res == nil {
				t.Errorf("frame %d scene %d: nil result", frame, key)
			}
			order = append(order, key)
		}),
	)
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.Frames() != 3 {
		t.Errorf("expected 3 frames, got %d", e.Frames())
	}
	want := []int{1, 2, 1, 2, 1, 2}
	if len(order) != len(want) {
		t.Fatalf("expected render order %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected render order %v, got %v", want, order)
		}
	}
	if r := e.Profiler().Report(); r.Frames != 6 {
		t.Errorf("expected 6 recorded results, got %d", r.Frames)
	}
	if err := e.Run(context.Background()); err != nil {
		t.Errorf("a finished engine should return immediately, got %v", err)
	}
}

func TestRunReturnsFrameError(t *testing.T) {
	boom := errors.New("boom")
	bad := &stubScene{name: "bad", active: true, err: boom}
	e := NewEngine(WithScene(0, bad))

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Errorf("expected the frame error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		e.Quit()
		t.Fatal("engine did not stop on a frame error")
	}
	if bad.calls != 1 {
		t.Errorf("expected one render call, got %d", bad.calls)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	e := NewEngine(WithScene(0, &stubScene{name: "idle", active: true}), WithRenderFrameLimit(200))

	ticks := make(chan struct{}, 1)
	e.SetTickRate(500)
	e.SetTickCallback(func(float32) {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	select {
	case <-ticks:
	case <-time.After(5 * time.Second):
		t.Fatal("tick callback never ran")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("cancellation is not an error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop on cancel")
	}
}

func TestSceneRegistry(t *testing.T) {
	e := NewEngine()
	a := &stubScene{name: "a"}
	e.AddScene(5, a)
	if e.Scene(5) != a {
		t.Error("expected the registered scene")
	}
	cp := e.Scenes()
	delete(cp, 5)
	if e.Scene(5) == nil {
		t.Error("Scenes should return a copy")
	}
	e.RemoveScene(5)
	if e.Scene(5) != nil {
		t.Error("expected the scene to be removed")
	}
}
