/*
Package domain defines the data model shared across the engine: the AST
produced by the external parser, the frontmatter declarations (imports,
form defaults, actions), the evaluated render tree handed to hosts, and
the event shapes exchanged with the external signer and publisher.

Everything here is plain data. Behavior lives in the runtime, evaluator
and adapter packages.
*/
package domain
