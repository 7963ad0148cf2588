package presets

import (
	"testing"

	"github.com/tj/assert"
)

type cloneUser struct {
	Name string
	Tags []string
}

func TestCopyFromMap(t *testing.T) {
	src := Record{"name": "default", "nested": map[string]any{"volume": 0.5}}
	dst := CopyFrom(src)

	dst["name"] = "changed"
	assert.Equal(t, "default", src["name"])

	nested := dst["nested"].(map[string]any)
	nested["volume"] = 1.0
	assert.Equal(t, 0.5, src["nested"].(map[string]any)["volume"])
}

func TestCopyFromStruct(t *testing.T) {
	src := cloneUser{Name: "bob", Tags: []string{"a"}}
	dst := CopyFrom(src)

	dst.Tags[0] = "b"
	assert.Equal(t, "a", src.Tags[0])
}

func TestCopyFromPtr(t *testing.T) {
	src := &cloneUser{Name: "bob"}
	dst := CopyFrom(src)

	dst.Name = "alice"
	assert.Equal(t, "bob", src.Name)
}

func TestCopyFromScalar(t *testing.T) {
	assert.Equal(t, 3, CopyFrom(3))
	assert.Equal(t, "abc", CopyFrom("abc"))
}
