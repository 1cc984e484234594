// Package docs holds the Swagger 2.0 document served at /swagger. The
// document is maintained by hand alongside the handler annotations; keep
// paths and definitions in step when routes change.
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
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "User registered and token generated", "schema": {"$ref": "#/definitions/handlers.AuthResponse"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login user",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}],
                "responses": {
                    "200": {"description": "User authenticated and token generated", "schema": {"$ref": "#/definitions/handlers.AuthResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/profile": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["user"], "summary": "Get user profile", "responses": {"200": {"description": "User profile"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["user"], "summary": "Update user profile", "responses": {"200": {"description": "Updated profile"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["user"], "summary": "Delete account", "responses": {"200": {"description": "Account deleted"}}}
        },
        "/categories": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["categories"], "summary": "List categories", "responses": {"200": {"description": "Paginated categories"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["categories"], "summary": "Create a category", "responses": {"201": {"description": "Category created"}}}
        },
        "/categories/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["categories"], "summary": "Get a category", "responses": {"200": {"description": "Category"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["categories"], "summary": "Update a category", "responses": {"200": {"description": "Updated category"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["categories"], "summary": "Delete a category", "responses": {"200": {"description": "Category deleted"}, "409": {"description": "Category in use or default"}}}
        },
        "/transactions": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "List transactions", "responses": {"200": {"description": "Paginated transactions"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "Create a transaction", "responses": {"201": {"description": "Transaction created"}}}
        },
        "/transactions/export": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "Export transactions", "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "responses": {"200": {"description": "Workbook"}}}
        },
        "/transactions/bulk-delete": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "Delete several transactions", "responses": {"200": {"description": "Number of deleted transactions"}}}
        },
        "/transactions/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "Get a transaction", "responses": {"200": {"description": "Transaction"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "Update a transaction", "responses": {"200": {"description": "Updated transaction"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["transactions"], "summary": "Delete a transaction", "responses": {"200": {"description": "Number of deleted transactions"}}}
        },
        "/budgets": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["budgets"], "summary": "List budgets", "responses": {"200": {"description": "Budgets"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["budgets"], "summary": "Create a budget", "responses": {"201": {"description": "Budget created"}}}
        },
        "/budgets/alerts": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["budgets"], "summary": "Budget alerts", "responses": {"200": {"description": "Alerts"}}}
        },
        "/budgets/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["budgets"], "summary": "Get a budget", "responses": {"200": {"description": "Budget"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["budgets"], "summary": "Update a budget", "responses": {"200": {"description": "Updated budget"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["budgets"], "summary": "Delete a budget", "responses": {"200": {"description": "Budget deleted"}}}
        },
        "/reports/summary": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Summary report", "responses": {"200": {"description": "Summary"}}}
        },
        "/reports/by-category": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Totals by category", "responses": {"200": {"description": "Category totals"}}}
        },
        "/reports/monthly-trend": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Monthly trend", "responses": {"200": {"description": "Trend"}}}
        },
        "/reports/dashboard": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Dashboard", "responses": {"200": {"description": "Dashboard"}}}
        },
        "/reports/forecast": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Forecast", "responses": {"200": {"description": "Projection"}}}
        }
    },
    "definitions": {
        "handlers.RegisterRequest": {
            "type": "object",
            "required": ["email", "name", "password"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8},
                "currency": {"type": "string", "enum": ["EUR", "USD", "GBP", "BRL"]}
            }
        },
        "handlers.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handlers.UserResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "currency": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "handlers.AuthResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/handlers.UserResponse"}
            }
        },
        "handlers.ErrorDetail": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "field": {"type": "string"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/handlers.ErrorDetail"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Fintrack API",
	Description:      "Personal finance tracker: categories, transactions with recurring series, monthly budgets, reports and a forecast simulator.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
