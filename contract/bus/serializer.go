package bus

// Serializer converts application payloads to and from wire bytes.
// Implementations must be safe for concurrent use by multiple goroutines.
type Serializer interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}
