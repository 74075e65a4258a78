// Package docs registers the storefront OpenAPI document with swag so that
// gin-swagger can serve it under /swagger.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Active items for the home page",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/shop": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Paginated active items",
                "parameters": [{"type": "integer", "default": 1, "name": "page", "in": "query"}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Page out of range", "schema": {"$ref": "#/definitions/HTTPError"}}
                }
            }
        },
        "/category/{slug}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Items of a category",
                "parameters": [{"type": "string", "name": "slug", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Unknown category", "schema": {"$ref": "#/definitions/HTTPError"}}
                }
            }
        },
        "/product/{slug}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Item detail; records the item in the viewed_products cookie",
                "parameters": [{"type": "string", "name": "slug", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Unknown item", "schema": {"$ref": "#/definitions/HTTPError"}}
                }
            }
        },
        "/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Search items",
                "parameters": [
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "string", "enum": ["price_asc", "price_desc"], "name": "sorting", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Recently viewed items and visit counts",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/items": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Create an item (staff only)",
                "responses": {
                    "303": {"description": "Created, redirect to the item"},
                    "400": {"description": "Invalid form"},
                    "403": {"description": "Not staff", "schema": {"$ref": "#/definitions/HTTPError"}}
                }
            }
        },
        "/order-summary": {
            "get": {
                "produces": ["application/json"],
                "tags": ["cart"],
                "summary": "Active order of the current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/OrderView"}},
                    "303": {"description": "No active order"}
                }
            }
        },
        "/add-to-cart/{slug}": {
            "post": {
                "tags": ["cart"],
                "summary": "Add one unit of an item to the cart",
                "parameters": [{"type": "string", "name": "slug", "in": "path", "required": true}],
                "responses": {"303": {"description": "Redirect to /order-summary"}, "404": {"description": "Unknown item"}}
            }
        },
        "/remove-from-cart/{slug}": {
            "post": {
                "tags": ["cart"],
                "summary": "Remove an item from the cart",
                "parameters": [{"type": "string", "name": "slug", "in": "path", "required": true}],
                "responses": {"303": {"description": "Redirect"}}
            }
        },
        "/remove-item-from-cart/{slug}": {
            "post": {
                "tags": ["cart"],
                "summary": "Remove one unit of an item from the cart",
                "parameters": [{"type": "string", "name": "slug", "in": "path", "required": true}],
                "responses": {"303": {"description": "Redirect"}}
            }
        },
        "/add-coupon": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["cart"],
                "summary": "Attach a coupon to the cart",
                "parameters": [{"type": "string", "name": "code", "in": "formData", "required": true}],
                "responses": {"303": {"description": "Redirect to /checkout"}}
            }
        },
        "/checkout": {
            "get": {
                "produces": ["application/json"],
                "tags": ["checkout"],
                "summary": "Checkout form context",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["checkout"],
                "summary": "Store the billing address and choose a payment option",
                "parameters": [
                    {"type": "string", "name": "street_address", "in": "formData", "required": true},
                    {"type": "string", "name": "apartment_address", "in": "formData"},
                    {"type": "string", "name": "country", "in": "formData", "required": true},
                    {"type": "string", "name": "zip", "in": "formData", "required": true},
                    {"type": "string", "enum": ["S", "P"], "name": "payment_option", "in": "formData", "required": true}
                ],
                "responses": {"303": {"description": "Redirect to /payment/{option}"}, "400": {"description": "Invalid form"}}
            }
        },
        "/payment/{option}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["checkout"],
                "summary": "Payment view",
                "parameters": [{"type": "string", "enum": ["stripe", "paypal"], "name": "option", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "303": {"description": "Missing order or billing address"}}
            },
            "post": {
                "tags": ["checkout"],
                "summary": "Pay the active order",
                "parameters": [{"type": "string", "enum": ["stripe", "paypal"], "name": "option", "in": "path", "required": true}],
                "responses": {"303": {"description": "Redirect to /orders"}}
            }
        },
        "/orders": {
            "get": {
                "produces": ["application/json"],
                "tags": ["checkout"],
                "summary": "Completed orders of the current user",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/contact": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["account"],
                "summary": "Send a message to the shop",
                "parameters": [
                    {"type": "string", "name": "name", "in": "formData", "required": true},
                    {"type": "string", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "name": "message", "in": "formData", "required": true}
                ],
                "responses": {"303": {"description": "Redirect"}, "400": {"description": "Invalid form"}, "429": {"description": "Rate limited"}}
            }
        },
        "/signup": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["account"],
                "summary": "Register a user",
                "responses": {"303": {"description": "Redirect to /login"}, "400": {"description": "Invalid form"}}
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["account"],
                "summary": "Log in",
                "responses": {"303": {"description": "Redirect"}, "400": {"description": "Invalid credentials"}}
            }
        },
        "/password-reset": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["account"],
                "summary": "Mail a password reset link",
                "responses": {"303": {"description": "Redirect"}}
            }
        },
        "/password-reset/confirm": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["account"],
                "summary": "Set a new password with a reset token",
                "responses": {"303": {"description": "Redirect to /login"}, "400": {"description": "Invalid form or token"}}
            }
        },
        "/healthz": {
            "get": {
                "tags": ["ops"],
                "summary": "Database reachability",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Database unreachable"}}
            }
        }
    },
    "definitions": {
        "HTTPError": {
            "type": "object",
            "properties": {"error": {"type": "string", "example": "not found"}}
        },
        "OrderView": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "ordered_date": {"type": "string"},
                "ordered": {"type": "boolean"},
                "items": {"type": "array", "items": {"type": "object"}},
                "total": {"type": "string", "example": "12.50"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Storefront API",
	Description:      "Catalog, cart, checkout and account endpoints of the storefront.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
