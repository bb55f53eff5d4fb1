// Package docs registers the OpenAPI document served under /swagger.
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
        "/ballots": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["ballots"],
                "summary": "List ballots",
                "parameters": [
                    {"type": "string", "description": "draft, open, closed or results_published", "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "unknown status"}, "401": {"description": "unauthorized"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ballots"],
                "summary": "Create ballot",
                "responses": {"201": {"description": "Created"}, "400": {"description": "validation failed"}, "403": {"description": "forbidden"}}
            }
        },
        "/ballots/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["ballots"],
                "summary": "Get ballot",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "not found"}}
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["ballots"],
                "summary": "Edit draft ballot",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "ballot is not a draft"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["ballots"],
                "summary": "Delete draft ballot",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "409": {"description": "ballot is not a draft"}}
            }
        },
        "/ballots/{id}/open": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["lifecycle"],
                "summary": "Open ballot for voting",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "invalid state"}}
            }
        },
        "/ballots/{id}/close": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["lifecycle"],
                "summary": "Close voting",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "invalid state"}}
            }
        },
        "/ballots/{id}/publish": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["lifecycle"],
                "summary": "Publish results",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "invalid state"}}
            }
        },
        "/ballots/{id}/votes": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "tags": ["votes"],
                "summary": "Cast vote",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "invalid selection"}, "409": {"description": "already voted or ballot not open"}, "429": {"description": "rate limited"}, "503": {"description": "storage unavailable"}}
            }
        },
        "/ballots/{id}/my-vote": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["votes"],
                "summary": "Caller's vote",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "ballot or vote not found"}}
            }
        },
        "/ballots/{id}/results": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["results"],
                "summary": "Ballot results",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "results withheld"}, "409": {"description": "ballot still a draft"}}
            }
        },
        "/ballots/{id}/export.csv": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "tags": ["results"],
                "summary": "Export votes as CSV",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "CSV document"}, "409": {"description": "ballot not closed"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Condominium Ballots API",
	Description:      "Ballot lifecycle, voting and tallying for condominium tenants",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
