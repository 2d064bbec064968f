/*
Package rabbitbus composes a broker bus from a connection descriptor,
discrete options, a prebuilt configuration, or a configuration factory.

Every construction form converges on one canonical path: the configuration
capability is registered (wrapping the factory with defaulting and
validation), the default services are bootstrapped, caller overrides are
applied, and the bus capability is resolved from the registry. Overrides win
by the registry's last-registration rule, so replacing any capability —
serializer, producer, consumer, topology, even the configuration itself — is
a plain re-registration.
*/
package rabbitbus
