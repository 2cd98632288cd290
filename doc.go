/*
Package hypernote renders markdown-plus-element documents into live,
data-bound interfaces and publishes signed records built from them.

A document arrives as an AST produced by an external parser, with
frontmatter declaring component imports, form defaults and actions. The
engine evaluates binding expressions against a per-render scope, resolves
imported components exactly one level deep, and turns declared actions
into signed events handed to external sign/publish collaborators.

# Architecture

The core is a pure recursive renderer over the AST. All I/O lives behind
ports (see pkg/ports): query results and record lookups arrive through
observer-style sources the engine only reads, component imports resolve
through a fetcher, and finished events leave through a signer and a
publisher. Adapters for memory, Redis and HTTP live under pkg/adapters.

# Usage

	eng, err := hypernote.Load(docJSON,
		hypernote.WithQuerySource(queries),
		hypernote.WithSigner(signer),
		hypernote.WithPublisher(relays),
	)
	if err != nil {
		log.Fatal(err)
	}
	tree := eng.Render(ctx)

Rendering never blocks on data: anything not yet available renders as
absent, and Watch re-renders when a subscribed source updates.
*/
package hypernote
