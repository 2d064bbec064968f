package errors

// Error codes for the bus contracts. Keep stable; used across adapters and the composer.
const (
	ErrCodeInvalidArgument      = "rabbitbus.invalid_argument"
	ErrCodeMalformedDescriptor  = "rabbitbus.malformed_descriptor"
	ErrCodeInvalidConfiguration = "rabbitbus.invalid_configuration"
	ErrCodeNotRegistered        = "rabbitbus.capability_not_registered"
	ErrCodeCapabilityMismatch   = "rabbitbus.capability_mismatch"
	ErrCodeCircularDependency   = "rabbitbus.circular_dependency"
	ErrCodeNotConnected         = "rabbitbus.not_connected"
	ErrCodePublishFailed        = "rabbitbus.publish_failed"
	ErrCodeConsumeFailed        = "rabbitbus.consume_failed"
	ErrCodeSerializationFailed  = "rabbitbus.serialization_failed"
)

// Code returns an error value that carries only a code string.
// It implements error by returning the code string in Error().
func Code(code string) error { return codedError(code) }

type codedError string

func (e codedError) Error() string { return string(e) }

var (
	ErrInvalidArgument      = Code(ErrCodeInvalidArgument)
	ErrMalformedDescriptor  = Code(ErrCodeMalformedDescriptor)
	ErrInvalidConfiguration = Code(ErrCodeInvalidConfiguration)
	ErrNotRegistered        = Code(ErrCodeNotRegistered)
	ErrCapabilityMismatch   = Code(ErrCodeCapabilityMismatch)
	ErrCircularDependency   = Code(ErrCodeCircularDependency)
	ErrNotConnected         = Code(ErrCodeNotConnected)
	ErrPublishFailed        = Code(ErrCodePublishFailed)
	ErrConsumeFailed        = Code(ErrCodeConsumeFailed)
	ErrSerializationFailed  = Code(ErrCodeSerializationFailed)
)
