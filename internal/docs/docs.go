// Package docs registers the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/products": {
            "get": {
                "tags": ["products"],
                "summary": "List products",
                "parameters": [
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["products"],
                "summary": "Create product (admin)",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/products/{id}": {
            "get": {
                "tags": ["products"],
                "summary": "Get product",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/cart": {
            "get": {
                "tags": ["cart"],
                "summary": "Get current user's cart",
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["cart"],
                "summary": "Clear cart",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/cart/items": {
            "post": {
                "tags": ["cart"],
                "summary": "Add item to cart",
                "responses": {"200": {"description": "OK"}, "409": {"description": "Insufficient stock"}}
            }
        },
        "/orders": {
            "get": {
                "tags": ["orders"],
                "summary": "List own orders",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["orders"],
                "summary": "Checkout: convert cart into an order",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Empty cart or invalid address"},
                    "409": {"description": "Insufficient stock or product unavailable"}
                }
            }
        },
        "/orders/{number}/cancel": {
            "post": {
                "tags": ["orders"],
                "summary": "Cancel an order and restore stock",
                "parameters": [{"name": "number", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid transition"}}
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Nexus Shop API",
	Description:      "E-commerce backend: catalog, cart, checkout and order lifecycle.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
