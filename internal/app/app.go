// Package app wires the recognition engine to its pointer sources, the
// action plugins and the event history.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/handtrack"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/recognizer"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/timeutil"
)

// Logf reports pipeline failures. Tests may replace it.
var Logf = log.Printf

// ErrNoStore is returned by New when Config.Store is nil.
var ErrNoStore = errors.New("app requires a store")

const (
	// EventQueueSize bounds the events waiting for recording and dispatch.
	EventQueueSize = 64
	// InputQueueSize bounds the hand-tracking inputs waiting for the engine.
	InputQueueSize = 16

	pausedSetting = "paused"
)

// Config holds configuration options for the application.
type Config struct {
	Settings *config.Config
	Store    *store.Store
	// Camera and Detector override the hand-tracking devices built from
	// Settings.Camera. They are only used when hand tracking is enabled.
	Camera   handtrack.Camera
	Detector handtrack.Detector
	Clock    timeutil.Clock
}

// App is the main application that turns recognized gestures into plugin
// actions.
type App struct {
	settings   *config.Config
	store      *store.Store
	clock      timeutil.Clock
	engine     *engine.Engine
	sub        engine.Subscription
	pluginMgr  *plugin.Manager
	dispatcher *plugin.Dispatcher
	camera     handtrack.Camera
	tracker    *handtrack.Tracker

	events   chan engine.Event
	recorded int

	mu        sync.RWMutex
	paused    bool
	last      *engine.Event
	callbacks []func(engine.Event)
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates an App, registers the configured and stored recognizer
// profiles and restores the persisted pause state.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, ErrNoStore
	}
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	opts := []engine.Option{engine.WithClock(clock)}
	if len(settings.Recognizers) > 0 {
		rs, err := buildRecognizers(settings.Recognizers)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithoutDefaults(), engine.WithRecognizers(rs...))
	}

	pluginMgr := plugin.NewManager(settings.PluginDir())
	a := &App{
		settings:   settings,
		store:      cfg.Store,
		clock:      clock,
		engine:     engine.New(opts...),
		pluginMgr:  pluginMgr,
		dispatcher: plugin.NewDispatcher(cfg.Store.Actions(), pluginMgr, plugin.NewExecutor(time.Duration(settings.Plugins.Timeout)*time.Millisecond)),
		events:     make(chan engine.Event, EventQueueSize),
	}

	if err := a.LoadProfiles(); err != nil {
		return nil, err
	}

	if settings.Camera.Enabled {
		a.setupTracking(cfg.Camera, cfg.Detector)
	}

	if v, err := a.store.Settings().Get(pausedSetting); err == nil {
		paused, _ := strconv.ParseBool(v)
		a.setPaused(paused)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load pause state: %w", err)
	}

	a.engine.Intercept(func(r recognizer.Recognizer, deliver func()) {
		if !a.IsPaused() {
			deliver()
		}
	})
	a.sub = a.engine.On(engine.CatchAll, a.enqueue)

	return a, nil
}

func buildRecognizers(profiles []recognizer.Profile) ([]recognizer.Recognizer, error) {
	rs := make([]recognizer.Recognizer, 0, len(profiles))
	for _, p := range profiles {
		r, err := recognizer.FromProfile(p)
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return rs, nil
}

func (a *App) setupTracking(camera handtrack.Camera, detector handtrack.Detector) {
	cam := a.settings.Camera
	if camera == nil {
		camera = handtrack.NewCamera(handtrack.CameraConfig{
			DeviceID: cam.DeviceID,
			Width:    cam.Width,
			Height:   cam.Height,
			FPS:      cam.FPS,
		})
	}

	// Try MediaPipe first, fall back to mock detector
	if detector == nil {
		if mp, err := handtrack.NewMediaPipeDetector(handtrack.DefaultDetectorConfig()); err == nil {
			detector = mp
			log.Println("Using MediaPipe hand detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock detector", err)
			detector = handtrack.NewMockDetector()
		}
	}

	a.camera = camera
	a.tracker = handtrack.NewTracker(camera, detector, handtrack.AdapterConfig{
		Width:    cam.Width,
		Height:   cam.Height,
		PinchGap: cam.PinchGap,
		Smooth:   cam.Smooth,
		FPS:      cam.FPS,
	}, a.clock)
}

// LoadProfiles registers every stored recognizer profile with the engine.
// A stored profile replaces a configured recognizer of the same name.
func (a *App) LoadProfiles() error {
	profiles, err := a.store.Profiles().List()
	if err != nil {
		return fmt.Errorf("load recognizer profiles: %w", err)
	}

	for _, p := range profiles {
		r, err := recognizer.FromProfile(p.Profile)
		if err != nil {
			Logf("Skipping recognizer profile %q: %v", p.Name, err)
			continue
		}
		a.engine.Replace(r)
	}

	log.Printf("Loaded %d recognizer profiles from database", len(profiles))
	return nil
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// Start begins recording and dispatching events and, when hand tracking is
// enabled, feeding camera input to the engine.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.runPipeline(ctx)
	}()

	if a.tracker != nil {
		inputs := make(chan *pointer.Input, InputQueueSize)
		a.wg.Add(2)
		go func() {
			defer a.wg.Done()
			a.engine.Run(ctx, inputs)
		}()
		go func() {
			defer a.wg.Done()
			if err := a.tracker.Run(ctx, inputs); err != nil && !errors.Is(err, context.Canceled) {
				Logf("Hand tracking failed: %v", err)
			}
		}()
	}

	log.Println("Gesture pipeline started")
	return nil
}

// Stop halts the pipeline and waits for it to finish. Queued events that
// were not handled yet are dropped.
func (a *App) Stop() {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	a.wg.Wait()

	log.Println("Gesture pipeline stopped")
}

// Close stops the pipeline and releases the engine and the tracker.
func (a *App) Close() error {
	a.Stop()
	a.sub.Remove()
	a.engine.Close()
	if a.tracker != nil {
		return a.tracker.Close()
	}
	return nil
}

// SetPaused stops or resumes gesture delivery and persists the choice.
// Input keeps flowing through the engine while paused, but no gesture
// event reaches the pipeline.
func (a *App) SetPaused(paused bool) {
	a.setPaused(paused)
	if err := a.store.Settings().Set(pausedSetting, strconv.FormatBool(paused)); err != nil {
		Logf("Failed to save pause state: %v", err)
	}
}

func (a *App) setPaused(paused bool) {
	a.mu.Lock()
	a.paused = paused
	a.mu.Unlock()

	if a.tracker != nil {
		a.tracker.SetPaused(paused)
	}
}

// IsPaused reports whether gesture delivery is paused.
func (a *App) IsPaused() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.paused
}

// OnEvent registers fn to be called from the pipeline for every handled
// gesture event.
func (a *App) OnEvent(fn func(engine.Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callbacks = append(a.callbacks, fn)
}

// LastEvent returns the most recently handled gesture event.
func (a *App) LastEvent() (engine.Event, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.last == nil {
		return engine.Event{}, false
	}
	return *a.last, true
}

// Engine returns the recognition engine.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Camera returns the hand-tracking camera, or nil when tracking is off.
func (a *App) Camera() handtrack.Camera {
	return a.camera
}
