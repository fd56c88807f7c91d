package hoverrace

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"time"
)

type systemFn any

type Module interface {
	Install(app *App, cmd *Commands)
}

type App struct {
	stages        []Stage
	systems       map[string][]systemFn
	resources     map[reflect.Type]any
	logger        Logger
	ecs           *Ecs
	exitRequested bool

	// Command Buffering
	pendingAdditions    []pendingAdd
	pendingRemovals     []EntityId
	pendingCompAdds     []pendingCompAdd
	pendingCompRemovals []pendingCompAdd
}

type pendingAdd struct {
	eid        EntityId
	components []any
}

type pendingCompAdd struct {
	eid        EntityId
	components []any
}

func newApp() *App {
	ecs := MakeEcs()
	app := &App{
		systems:   make(map[string][]systemFn),
		resources: make(map[reflect.Type]any),
		ecs:       &ecs,
	}
	for _, stage := range defaultStages {
		app.stages = append(app.stages, stage)
		app.systems[stage.Name] = nil
	}
	return app
}

func (app *App) Commands() *Commands {
	return &Commands{app: app}
}

// Update advances the simulation by one frame of frameDt seconds. Dynamic
// stages run once. The consecutive run of fixed stages runs once per fixed
// step the Time accumulator released; without a Time resource it runs once.
func (app *App) Update(frameDt float32) {
	steps := 1
	clock := Resource[Time](app)
	if clock != nil {
		steps = clock.advance(frameDt)
	}

	for i := 0; i < len(app.stages); {
		if app.stages[i].UpdateType != FixedUpdate {
			app.callStage(app.stages[i])
			i++
			continue
		}

		j := i
		for j < len(app.stages) && app.stages[j].UpdateType == FixedUpdate {
			j++
		}
		for s := 0; s < steps; s++ {
			for _, stage := range app.stages[i:j] {
				app.callStage(stage)
			}
			if clock != nil {
				clock.FixedSteps++
			}
		}
		i = j
	}

	if clock != nil {
		clock.Frame++
	}
}

// Run drives Update from wall-clock time at the given frame rate until ctx
// is done or a system requested exit.
func (app *App) Run(ctx context.Context, frameRate float32) error {
	if frameRate <= 0 {
		return fmt.Errorf("frame rate must be positive, got %v", frameRate)
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / float64(frameRate)))
	defer ticker.Stop()

	last := time.Now()
	for !app.exitRequested {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			app.Update(float32(now.Sub(last).Seconds()))
			last = now
		}
	}
	return nil
}

// ExitRequested reports whether a system called Commands.RequestExit.
func (app *App) ExitRequested() bool {
	return app.exitRequested
}

func (app *App) callStage(stage Stage) {
	for _, system := range app.systems[stage.Name] {
		app.callSystem(system)
	}
	app.FlushCommands()
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("resource %s must be a pointer", resourceType))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
		if l, ok := resource.(Logger); ok && app.logger == nil {
			app.logger = l
		}
	}
	return app
}

// Resource returns the resource of type T registered in app, or nil.
func Resource[T any](app *App) *T {
	var zero T
	r, ok := app.resources[reflect.TypeOf(zero)]
	if !ok {
		return nil
	}
	return r.(*T)
}

func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			panic(unresolved(systemValue, systemType, argType))
		}
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, argIsResource := app.resources[underlyingType]; argIsResource {
			args[i] = reflect.ValueOf(resource)
		} else {
			panic(unresolved(systemValue, systemType, argType))
		}
	}
	systemValue.Call(args)
}

var typeOfCommands = reflect.TypeOf(Commands{})

func unresolved(systemValue reflect.Value, systemType, argType reflect.Type) string {
	return fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
		runtime.FuncForPC(systemValue.Pointer()).Name(),
		fmt.Sprint(systemType),
		fmt.Sprint(argType),
	)
}

func (app *App) FlushCommands() {
	if len(app.pendingAdditions) == 0 && len(app.pendingRemovals) == 0 &&
		len(app.pendingCompAdds) == 0 && len(app.pendingCompRemovals) == 0 {
		return
	}

	// Removals first, so nothing is added to a dead entity.
	for _, eid := range app.pendingRemovals {
		app.ecs.removeEntity(eid)
	}
	app.pendingRemovals = app.pendingRemovals[:0]

	for _, add := range app.pendingAdditions {
		app.ecs.insertEntity(add.eid, add.components...)
	}
	app.pendingAdditions = app.pendingAdditions[:0]

	for _, add := range app.pendingCompAdds {
		app.ecs.addComponents(add.eid, add.components...)
	}
	app.pendingCompAdds = app.pendingCompAdds[:0]

	for _, rem := range app.pendingCompRemovals {
		app.ecs.removeComponents(rem.eid, rem.components...)
	}
	app.pendingCompRemovals = app.pendingCompRemovals[:0]
}
