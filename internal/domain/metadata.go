package domain

import "encoding/json"

// Metadata is what the metadata provider knows about a mint.
// All fields are optional; a nil *Metadata means the provider had nothing.
type Metadata struct {
	Name   *string
	Symbol *string
	Image  *string
	Raw    json.RawMessage
}
