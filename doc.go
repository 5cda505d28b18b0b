/*
Package redis_enterprise provides a typed and convenient interface to the
Redis Enterprise cluster management REST API.

It wraps raw HTTP operations in a structured API, exposing high-level
methods to manage cluster resources like databases, nodes, users, roles,
modules, and more. Each resource is available as a sub-client that
supports common CRUD operations (List, Get, GetByUID, Create, Update,
Delete, etc.) plus resource-specific actions.

The main entry point is the EnterpriseRest client, initialized from a
ClusterConfig configuration struct or from REDIS_ENTERPRISE_* environment
variables. The configuration covers connection parameters, credentials,
TLS behavior, request timeouts, and request/response hooks.

Long-running cluster operations return an AsyncResult task handle whose
progress can be streamed through a WatchSession or awaited with Wait.
*/
package redis_enterprise
