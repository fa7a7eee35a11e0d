package graphql

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront.GO/api"
	graphqlpkg "storefront.GO/graphql"
)

func init() {
	api.RegisterModule(RegisterGraphQLRoutes)
	api.RegisterGET("/playground", echo.WrapHandler(playgroundHandler()))
}

// RegisterGraphQLRoutes serves /api/graphql behind the API key.
func RegisterGraphQLRoutes(apiGroup *echo.Group, deps *api.Deps) {
	if deps == nil {
		return
	}
	schema, err := graphqlpkg.NewSchema(graphqlpkg.NewRootResolver(deps.Cart, deps.Checkout, deps.Products))
	if err != nil {
		panic("graphql schema: " + err.Error())
	}
	apiGroup.POST("/graphql", echo.WrapHandler(graphqlpkg.Handler(schema)))
}

func playgroundHandler() http.Handler {
	html := `<!DOCTYPE html>
<html>
<head>
	<title>Storefront GraphQL</title>
	<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/graphql-playground-react/build/static/css/index.css"/>
</head>
<body>
	<div id="root"/>
	<script src="https://cdn.jsdelivr.net/npm/graphql-playground-react/build/static/js/middleware.js"></script>
	<script>window.addEventListener('load', function() {
		GraphQLPlayground.init(document.getElementById('root'), { endpoint: '/api/graphql' });
	})</script>
</body>
</html>`
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
	})
}
