package bus

import "github.com/next-trace/scg-rabbit-bus/config"

// DescriptorParser turns a textual connection descriptor into a structured
// configuration. Registered as a capability so callers may replace descriptor
// parsing (e.g., to resolve descriptors from an external source) without
// touching the composition path.
type DescriptorParser interface {
	Parse(descriptor string) (*config.Connection, error)
}
