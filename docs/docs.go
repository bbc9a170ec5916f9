// Package docs registers the Event Store API description with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/events": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Create an event",
                "parameters": [
                    {"description": "Event", "name": "event", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ports.CreateEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/entities.Event"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/events/{id}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "The version must match the stored one; a stale version yields 409.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Replace an event",
                "parameters": [
                    {"type": "string", "description": "Event ID", "name": "id", "in": "path", "required": true},
                    {"description": "Event", "name": "event", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ports.UpdateEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entities.Event"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["events"],
                "summary": "Delete an event",
                "parameters": [
                    {"type": "string", "description": "Event ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/events/{userId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "List a user's events",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "userId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/entities.Event"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/events/{userId}/ics": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["text/calendar"],
                "tags": ["events"],
                "summary": "Export a user's events as iCalendar",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "userId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "entities.Event": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "userId": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "date": {"type": "string", "example": "2025-01-06"},
                "time": {"type": "string", "example": "09:30"},
                "color": {"type": "string", "example": "#3b82f6"},
                "version": {"type": "integer"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "ports.CreateEventRequest": {
            "type": "object",
            "required": ["title", "date", "time"],
            "properties": {
                "userId": {"type": "string"},
                "title": {"type": "string", "maxLength": 200},
                "description": {"type": "string", "maxLength": 2000},
                "date": {"type": "string", "example": "2025-01-06"},
                "time": {"type": "string", "example": "09:30"},
                "color": {"type": "string"}
            }
        },
        "ports.UpdateEventRequest": {
            "type": "object",
            "required": ["title", "date", "time", "version"],
            "properties": {
                "title": {"type": "string", "maxLength": 200},
                "description": {"type": "string", "maxLength": 2000},
                "date": {"type": "string"},
                "time": {"type": "string"},
                "color": {"type": "string"},
                "version": {"type": "integer", "minimum": 0}
            }
        },
        "ports.ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "details": {"type": "object"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "InkBook Event Store API",
	Description:      "Appointments of the InkBook studio agenda.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
