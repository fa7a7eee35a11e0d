// Package graphql serves read-only storefront queries (products, cart, quote)
// through graph-gophers/graphql-go.
package graphql

import (
	_ "embed"

	gql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
)

//go:embed schema.graphqls
var schemaSource string

// Schema returns the SDL served at /api/graphql.
func Schema() string {
	return schemaSource
}

// NewSchema parses the schema against the root resolver.
func NewSchema(root *RootResolver) (*gql.Schema, error) {
	return gql.ParseSchema(schemaSource, root, gql.UseFieldResolvers())
}

// Handler returns an http.Handler for GraphQL (relay format).
func Handler(schema *gql.Schema) *relay.Handler {
	return &relay.Handler{Schema: schema}
}
