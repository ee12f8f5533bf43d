// Package docs embeds the service's OpenAPI document.
package docs

import _ "embed"

//go:embed swagger.yaml
var OpenAPI []byte
