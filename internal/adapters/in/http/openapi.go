package http

import (
	"context"
	_ "embed"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/swaggo/swag"
)

//go:embed openapi.yaml
var openapiYAML []byte

// LoadSpec parses and validates the embedded OpenAPI document.
func LoadSpec() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiYAML)
	if err != nil {
		return nil, errors.Wrap(err, "load openapi document")
	}
	if err = doc.Validate(context.Background()); err != nil {
		return nil, errors.Wrap(err, "validate openapi document")
	}
	return doc, nil
}

// RequestValidator rejects requests that do not match the document with 400.
// Routes missing from the document pass through untouched.
func RequestValidator(doc *openapi3.T) (echo.MiddlewareFunc, error) {
	// the document's server url would otherwise be matched against the Host header
	doc.Servers = nil
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, errors.Wrap(err, "build openapi router")
	}

	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			route, pathParams, err := router.FindRoute(req)
			if err != nil {
				if errors.Is(err, routers.ErrPathNotFound) {
					return next(c)
				}
				if errors.Is(err, routers.ErrMethodNotAllowed) {
					return c.JSON(http.StatusMethodNotAllowed, Error{Code: http.StatusMethodNotAllowed, Message: err.Error()})
				}
				return c.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: err.Error()})
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    req,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if err = openapi3filter.ValidateRequest(req.Context(), input); err != nil {
				return c.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: validationMessage(err)})
			}
			return next(c)
		}
	}, nil
}

// validationMessage returns the text of the first failing rule.
func validationMessage(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Error()
	}
	return err.Error()
}

// swaggerDoc serves the document to swag.
type swaggerDoc struct {
	json []byte
}

// ReadDoc returns the embedded OpenAPI document.
func (d swaggerDoc) ReadDoc() string {
	return string(d.json)
}

var registerSwagger sync.Once

// RegisterSwaggerDoc publishes the document for the swagger UI. Only the first
// call has an effect.
func RegisterSwaggerDoc(doc *openapi3.T) error {
	raw, err := doc.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "encode openapi document")
	}
	registerSwagger.Do(func() {
		swag.Register(swag.Name, swaggerDoc{json: raw})
	})
	return nil
}
