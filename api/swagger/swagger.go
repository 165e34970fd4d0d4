package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Data Room API",
        "description": "Document rooms with Google Drive import, RBAC and audit trail",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Google OAuth login and sessions"},
        {"name": "Drive", "description": "Remote document browsing"},
        {"name": "Import", "description": "Document import from Google Drive"},
        {"name": "Files", "description": "Owner-scoped imported files"},
        {"name": "Rooms", "description": "Rooms, memberships and room files"},
        {"name": "Audit", "description": "Audit trail export"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/auth/google/login": {
            "get": {
                "tags": ["Auth"],
                "summary": "Start the Google OAuth login flow",
                "responses": {
                    "307": {"description": "Redirect to the provider consent page"}
                }
            }
        },
        "/auth/google/callback": {
            "get": {
                "tags": ["Auth"],
                "summary": "Complete the Google OAuth login flow",
                "parameters": [
                    {"name": "code", "in": "query", "type": "string", "required": true},
                    {"name": "state", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "State mismatch or exchange failure"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Return the authenticated user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Not authenticated"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Clear the session cookie",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/api/drive/files": {
            "get": {
                "tags": ["Drive"],
                "summary": "List the caller's Google Drive documents",
                "parameters": [
                    {"name": "query", "in": "query", "type": "string"},
                    {"name": "page_token", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "No connected account"},
                    "502": {"description": "Provider failure"}
                }
            }
        },
        "/api/import": {
            "post": {
                "tags": ["Import"],
                "summary": "Import documents from Google Drive",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ImportRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-file outcomes", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Empty file list"},
                    "401": {"description": "Not authenticated"},
                    "403": {"description": "Editor role required for the target room"}
                }
            }
        },
        "/api/files": {
            "get": {
                "tags": ["Files"],
                "summary": "List the caller's imported files",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Not authenticated"}
                }
            }
        },
        "/api/files/{id}/preview": {
            "get": {
                "tags": ["Files"],
                "summary": "Stream an owned file's raw bytes",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Raw bytes with the declared MIME type"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/api/files/{id}": {
            "delete": {
                "tags": ["Files"],
                "summary": "Delete an owned file",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/api/rooms": {
            "get": {
                "tags": ["Rooms"],
                "summary": "List the caller's rooms",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Not authenticated"}
                }
            },
            "post": {
                "tags": ["Rooms"],
                "summary": "Create a room",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRoomRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Not authenticated"}
                }
            }
        },
        "/api/rooms/{id}/members": {
            "get": {
                "tags": ["Rooms"],
                "summary": "List a room's members",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not a member"}
                }
            },
            "post": {
                "tags": ["Rooms"],
                "summary": "Add a member or update their role",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddMemberRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admin role required"}
                }
            }
        },
        "/api/rooms/{id}/files": {
            "get": {
                "tags": ["Rooms"],
                "summary": "List the files linked into a room",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Not authenticated and not the public room"},
                    "403": {"description": "Not a member"}
                }
            },
            "post": {
                "tags": ["Rooms"],
                "summary": "Link an owned file into a room",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LinkFileRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Editor role required"},
                    "404": {"description": "File not found"}
                }
            }
        },
        "/api/rooms/{id}/files/{fileId}/preview": {
            "get": {
                "tags": ["Rooms"],
                "summary": "Stream a room file's raw bytes",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "fileId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Raw bytes with the declared MIME type"},
                    "403": {"description": "Not a member"},
                    "404": {"description": "Not linked into the room"}
                }
            }
        },
        "/api/rooms/{id}/files/{fileId}": {
            "delete": {
                "tags": ["Rooms"],
                "summary": "Delete a room file owned by the caller",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "fileId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Editor role and file ownership required"},
                    "404": {"description": "Not linked into the room"}
                }
            }
        },
        "/api/rooms/{id}/audit/export": {
            "get": {
                "tags": ["Audit"],
                "summary": "Export a room's audit trail",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "CSV or PDF document"},
                    "403": {"description": "Admin role required"}
                }
            }
        }
    },
    "definitions": {
        "ImportRequest": {
            "type": "object",
            "required": ["drive_file_ids"],
            "properties": {
                "drive_file_ids": {"type": "array", "items": {"type": "string"}},
                "room_id": {"type": "string"}
            }
        },
        "CreateRoomRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"}
            }
        },
        "AddMemberRequest": {
            "type": "object",
            "required": ["email", "role"],
            "properties": {
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["owner", "admin", "editor", "viewer"]}
            }
        },
        "LinkFileRequest": {
            "type": "object",
            "required": ["file_id"],
            "properties": {
                "file_id": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
