package hoverrace

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEcsReflect_MakeTypedColumn(t *testing.T) {
	col := reflectSliceMake(reflect.TypeOf(TransformComponent{}))
	assert.IsType(t, []TransformComponent{}, col)
	assert.Empty(t, col)
}

func TestEcsReflect_AppendGetSet(t *testing.T) {
	col := reflectSliceMake(reflect.TypeOf(RigidBodyComponent{}))
	col = reflectSliceAppend(col, reflect.ValueOf(RigidBodyComponent{Mass: 1}))
	col = reflectSliceAppend(col, reflect.ValueOf(RigidBodyComponent{Mass: 2}))

	assert.Equal(t, float32(2), reflectSliceGet(col, 1).Interface().(RigidBodyComponent).Mass)

	reflectSliceSet(col, 0, reflect.ValueOf(RigidBodyComponent{Mass: 5}))
	assert.Equal(t, float32(5), col.([]RigidBodyComponent)[0].Mass)
}

func TestEcsReflect_Panics(t *testing.T) {
	assert.Panics(t, func() { reflectSliceGet([]int{1, 2}, 10) })
	assert.Panics(t, func() { reflectSliceSet([]int{1, 2}, 0, reflect.ValueOf("wrong type")) })
	assert.Panics(t, func() { reflectSliceAppend([]int{}, reflect.ValueOf("string")) })
}
