// Package docs registers the OpenAPI description served under /swagger.
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
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {
                        "description": "User registration details",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.registerRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.tokenResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": true}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {
                        "description": "Login credentials",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.loginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.tokenResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/v1/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["identity"],
                "summary": "Current identity",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.meResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/v1/instructor/courses": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["instructor"],
                "summary": "Create a course",
                "parameters": [
                    {
                        "description": "Course",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.courseRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.dataResponse"}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/v1/instructor/requests/{id}/approve": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["instructor"],
                "summary": "Approve an enrollment request",
                "parameters": [
                    {"type": "integer", "description": "Request id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.dataResponse"}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/v1/student/courses/{id}/requests": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["student"],
                "summary": "Request enrollment in a course",
                "parameters": [
                    {"type": "integer", "description": "Course id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.dataResponse"}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/v1/instructor/courses/{id}/assignments": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["instructor"],
                "summary": "Add an assignment or exam",
                "parameters": [
                    {"type": "integer", "description": "Course id", "name": "id", "in": "path", "required": true},
                    {"description": "Assessment", "name": "body", "in": "body", "required": true, "schema": {"type": "object", "additionalProperties": true}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.dataResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": true}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/v1/instructor/courses/{id}/assignments/{assessment_id}/submissions/{submission_id}/grade": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["instructor"],
                "summary": "Grade a submission",
                "parameters": [
                    {"type": "integer", "description": "Course id", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Assignment id", "name": "assessment_id", "in": "path", "required": true},
                    {"type": "integer", "description": "Submission id", "name": "submission_id", "in": "path", "required": true},
                    {"description": "Score from 0 to 100", "name": "body", "in": "body", "required": true, "schema": {"type": "object", "additionalProperties": true}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.dataResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/v1/student/enrollments/{id}/assignments/{assessment_id}/answer": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["student"],
                "summary": "Submit an answer",
                "parameters": [
                    {"type": "integer", "description": "Course id", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Assignment id", "name": "assessment_id", "in": "path", "required": true},
                    {"description": "Answer", "name": "body", "in": "body", "required": true, "schema": {"type": "object", "additionalProperties": true}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.dataResponse"}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": true}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/v1/admin/courses": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List courses",
                "parameters": [
                    {"type": "boolean", "description": "Only published (true) or hidden (false) courses", "name": "published", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.dataResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        }
    },
    "definitions": {
        "handler.registerRequest": {
            "type": "object",
            "required": ["email", "password", "role", "username"],
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "instructor", "student"]}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.tokenResponse": {
            "type": "object",
            "properties": {"jwt": {"type": "string"}}
        },
        "handler.courseRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "handler.meResponse": {
            "type": "object",
            "properties": {
                "user": {"type": "object"},
                "authorities": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handler.dataResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "integer"},
                "success": {"type": "boolean"},
                "data": {}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Academy API",
	Description:      "Role-based learning-management backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
