/*
Package ports defines the driven ports (interfaces) for the hypernote
engine.

These interfaces decouple the rendering core from external collaborators:
data fetching, component resolution, signing and publishing. The engine
itself performs no network I/O and no cryptography; it consumes current
values, subscribes to updates, and hands finished events to a signer.

# Key Interfaces

  - QuerySource: current query results plus an update subscription.
  - RecordSource: point lookups the data-bound primitives trigger.
  - ComponentFetcher: resolves an opaque address to a component AST.
  - Signer / Publisher: the outbound half of action execution.
*/
package ports
