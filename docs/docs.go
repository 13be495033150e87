// Package docs registers the OpenAPI description served under /api/swagger/.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/chats/messages": {
            "post": {
                "summary": "Start an exchange and stream the answer as server-sent events",
                "description": "Accepts JSON or multipart/form-data with optional image and document parts. Events: connecting, connected, chunk, progress, image, done or error, close.",
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["text/event-stream"],
                "parameters": [
                    {"in": "body", "name": "request", "schema": {"$ref": "#/definitions/api.ExchangeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Event stream"},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "403": {"description": "Space or conversation owned by another user", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "415": {"description": "Unsupported attachment", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/chats/ws": {
            "get": {
                "summary": "Start an exchange over a WebSocket",
                "description": "The first client frame is the JSON exchange request. A frame {\"type\":\"stop\"} cancels the running exchange.",
                "responses": {"101": {"description": "Switching protocols"}}
            }
        },
        "/chats/stop": {
            "post": {
                "summary": "Stop a running exchange",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/api.StopRequest"}}
                ],
                "responses": {
                    "200": {"description": "Stopped", "schema": {"$ref": "#/definitions/api.StopResponse"}},
                    "403": {"description": "Session owned by another user", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Session finished or unknown", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/chats": {
            "get": {
                "summary": "List the caller's conversations",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Conversation"}}}}
            }
        },
        "/chats/{chatID}": {
            "get": {
                "summary": "Get a conversation with its messages",
                "parameters": [{"in": "path", "name": "chatID", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            },
            "delete": {
                "summary": "Delete a conversation",
                "parameters": [{"in": "path", "name": "chatID", "type": "string", "required": true}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/chats/{chatID}/title": {
            "put": {
                "summary": "Rename a conversation",
                "parameters": [
                    {"in": "path", "name": "chatID", "type": "string", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/api.UpdateTitleRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.StatusResponse"}}}
            }
        },
        "/spaces": {
            "get": {"summary": "List the caller's spaces", "responses": {"200": {"description": "OK"}}},
            "post": {
                "summary": "Create a space",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/api.CreateSpaceRequest"}}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/spaces/{spaceID}": {
            "get": {
                "summary": "Get a space",
                "parameters": [{"in": "path", "name": "spaceID", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/history": {
            "get": {"summary": "List the caller's latest search history", "responses": {"200": {"description": "OK"}}}
        },
        "/settings": {
            "get": {"summary": "Get the model settings", "responses": {"200": {"description": "OK"}}},
            "post": {"summary": "Update the model settings", "responses": {"200": {"description": "OK"}}}
        },
        "/models": {
            "get": {"summary": "List models available on the backend", "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "api.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "api.StatusResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}}
        },
        "api.ExchangeRequest": {
            "type": "object",
            "properties": {
                "prompt": {"type": "string"},
                "conversationId": {"type": "string"},
                "mode": {"type": "string", "enum": ["quick", "think", "research"]},
                "spaceId": {"type": "string"}
            }
        },
        "api.StopRequest": {
            "type": "object",
            "required": ["sessionId"],
            "properties": {"sessionId": {"type": "string"}}
        },
        "api.StopResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "sessionId": {"type": "string"},
                "partialResponseLength": {"type": "integer"}
            }
        },
        "api.UpdateTitleRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {"title": {"type": "string", "maxLength": 100}}
        },
        "api.CreateSpaceRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string", "maxLength": 100},
                "instruction": {"type": "string", "maxLength": 4000}
            }
        },
        "model.Conversation": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "user_id": {"type": "string"},
                "space_id": {"type": "string"},
                "mode": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "AskFlow API",
	Description:      "Streaming answer engine with web search and image generation tools.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
