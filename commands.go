package hoverrace

// Commands is handed to systems and modules. Structural changes (entity and
// component additions or removals) are buffered and applied when the
// current stage finishes.
type Commands struct {
	app *App
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) AddEntity(components ...any) EntityId {
	eid := cmd.app.ecs.nextEntityId()
	cmd.app.pendingAdditions = append(cmd.app.pendingAdditions, pendingAdd{
		eid:        eid,
		components: components,
	})
	return eid
}

func (cmd *Commands) AddComponents(entityId EntityId, components ...any) {
	cmd.app.pendingCompAdds = append(cmd.app.pendingCompAdds, pendingCompAdd{
		eid:        entityId,
		components: components,
	})
}

func (cmd *Commands) RemoveComponents(entityId EntityId, components ...any) {
	cmd.app.pendingCompRemovals = append(cmd.app.pendingCompRemovals, pendingCompAdd{
		eid:        entityId,
		components: components,
	})
}

func (cmd *Commands) RemoveEntity(entityId EntityId) {
	cmd.app.pendingRemovals = append(cmd.app.pendingRemovals, entityId)
}

func (cmd *Commands) HasEntity(entityId EntityId) bool {
	return cmd.app.ecs.hasEntity(entityId)
}

func (cmd *Commands) GetAllComponents(entityId EntityId) []any {
	ecs := cmd.app.ecs
	archId, ok := ecs.entityIndex[entityId]
	if !ok {
		return nil
	}
	arch := ecs.archetypes[archId]
	r := arch.entities[entityId]

	var res []any
	for _, compId := range arch.key {
		res = append(res, reflectSliceGet(arch.componentData[compId], int(r)).Interface())
	}
	return res
}

// Logger returns the app logger; never nil.
func (cmd *Commands) Logger() Logger {
	return cmd.app.Logger()
}

// RequestExit makes App.Run return after the current frame.
func (cmd *Commands) RequestExit() {
	cmd.app.exitRequested = true
}

// GetComponent returns a pointer to the stored component of entityId, or nil.
// The pointer is valid until the next structural change.
func GetComponent[T any](cmd *Commands, entityId EntityId) *T {
	return lookupComponent[T](cmd.app.ecs, entityId)
}
