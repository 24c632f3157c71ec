// Package adapter holds the boundary between the diagram core and
// external collaborators: a natural-language generation service and an
// inventory system. Adapters emit loosely-typed data from the outside
// world; everything is parsed and defaulted into typed fragments before
// the core sees it.
package adapter
