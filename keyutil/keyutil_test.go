package keyutil

import (
	"testing"

	"github.com/tj/assert"
)

func TestCamelCase(t *testing.T) {
	assert.Equal(t, "Name", CamelCase("name"))
	assert.Equal(t, "FadeInDuration", CamelCase("fade_in_duration"))
}

func TestCamelCaseAcronyms(t *testing.T) {
	assert.Equal(t, "ID", CamelCase("id"))
	assert.Equal(t, "UUID", CamelCase("uuid"))
	assert.Equal(t, "URL", CamelCase("URL"))
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "deep_cave", SnakeCase("DeepCave"))
	assert.Equal(t, "name", SnakeCase("Name"))
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "entries", Plural("entry"))
}
