/*
Package amqp provides the default broker-facing capabilities the bus composer
registers: a lazily-dialing connection manager with host rotation and backoff,
a producer honoring publisher confirms and message persistence, a prefetch-
aware consumer, and a topology declarer. All of them read the finalized
connection configuration resolved from the registry.
*/
package amqp
