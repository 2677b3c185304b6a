// Package spec embeds the OpenAPI description of the trip planner API.
// The server hands it to handler.Options so it is served at /openapi.yaml.
package spec

import _ "embed"

// OpenAPI contains the raw bytes of openapi.yaml, embedded at compile time.
//
//go:embed openapi.yaml
var OpenAPI []byte
