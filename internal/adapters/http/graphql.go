package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/mashup/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the place and article services.
// Object fields resolve through the domain types' json tags.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"country_code": &graphql.Field{Type: graphql.String},
			"postal_code":  &graphql.Field{Type: graphql.String},
			"place_name":   &graphql.Field{Type: graphql.String},
			"admin_name1":  &graphql.Field{Type: graphql.String},
			"admin_code1":  &graphql.Field{Type: graphql.String},
			"latitude":     &graphql.Field{Type: graphql.Float},
			"longitude":    &graphql.Field{Type: graphql.Float},
		},
	})

	articleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Article",
		Fields: graphql.Fields{
			"link":  &graphql.Field{Type: graphql.String},
			"title": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"places": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Places matching a postal-code prefix or \"City[, State]\"",
				Args: graphql.FieldConfigArgument{
					"q": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					places, err := deps.Places.Search(p.Context, p.Args["q"].(string))
					return places, publicError(err)
				},
			},
			"viewport": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Up to ten places inside the box given by its corners, \"lat,lng\" each",
				Args: graphql.FieldConfigArgument{
					"sw": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"ne": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					box, err := domain.ParseBoundingBox(p.Args["sw"].(string), p.Args["ne"].(string))
					if err != nil {
						return nil, err
					}
					places, err := deps.Places.Viewport(p.Context, box)
					return places, publicError(err)
				},
			},
			"articles": &graphql.Field{
				Type:        graphql.NewList(articleType),
				Description: "News articles for a 5-character postal code",
				Args: graphql.FieldConfigArgument{
					"geo": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					articles, err := deps.Articles.Lookup(p.Context, p.Args["geo"].(string))
					return articles, publicError(err)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// publicError keeps validation messages and hides store and upstream details.
func publicError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrValidation):
		return err
	case errors.Is(err, domain.ErrLookup):
		return errors.New("article source unavailable")
	case errors.Is(err, domain.ErrStore):
		return errors.New("places query failed")
	default:
		return errors.New("internal error")
	}
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return newError(c, fiber.StatusBadRequest, "validation_error", "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})
		for _, e := range result.Errors {
			LoggerFromCtx(c.UserContext()).Warn("graphql error", "error", e.Message)
		}

		return c.JSON(result)
	}
}
