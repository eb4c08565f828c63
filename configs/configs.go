// Package configs embeds the default format definitions.
package configs

import _ "embed"

const FormatsFile = "formats.yaml"

//go:embed formats.yaml
var formats []byte

func Formats() []byte {
	return append([]byte(nil), formats...)
}
