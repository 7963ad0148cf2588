package keyutil

import (
	"strings"

	"github.com/gertd/go-pluralize"
	"github.com/iancoleman/strcase"
)

var plurClient = pluralize.NewClient()

// acronyms lists key fields whose exported Go spelling is fully
// uppercased, where strcase would produce Id/Uuid/Url.
var acronyms = map[string]string{
	"id":   "ID",
	"uid":  "UID",
	"uuid": "UUID",
	"url":  "URL",
	"api":  "API",
}

// CamelCase resolves a record key field to its exported Go field name.
func CamelCase(s string) string {
	if a, ok := acronyms[strings.ToLower(s)]; ok {
		return a
	}
	return strcase.ToCamel(s)
}

func SnakeCase(s string) string {
	return strcase.ToSnake(s)
}

func Plural(s string) string {
	return plurClient.Plural(s)
}
