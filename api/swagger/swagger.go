package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable Engine API",
        "description": "Schedule validation, enrollment and faculty disruption recovery",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Registration", "description": "Timing and capacity checks, enrollment"},
        {"name": "Timetable", "description": "Weekly timetables and exports"},
        {"name": "Optimizer", "description": "Faculty disruption recovery"}
    ],
    "paths": {
        "/registration/validate": {
            "post": {
                "tags": ["Registration"],
                "summary": "Validate a proposed course selection",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ValidateScheduleRequest"}}],
                "responses": {
                    "200": {"description": "Validation report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/registration/enroll": {
            "post": {
                "tags": ["Registration"],
                "summary": "Enroll a student into one course section",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}],
                "responses": {
                    "201": {"description": "Enrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Schedule validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Course not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Course full, duplicate or concurrent update", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/students/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Weekly timetable of a student",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Timetable keyed Mon..Fri", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/students/{id}/export": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download a student's weekly timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/faculty/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Weekly timetable of a faculty member",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Timetable keyed Mon..Fri", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Faculty not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/optimizer/candidates": {
            "post": {
                "tags": ["Optimizer"],
                "summary": "Rank replacement faculty for a course",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CandidateQuery"}}],
                "responses": {
                    "200": {"description": "Ranked candidates", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Course not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/optimizer/reassign": {
            "post": {
                "tags": ["Optimizer"],
                "summary": "Report a faculty disruption and rank replacements",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/RecordDisruptionRequest"}}],
                "responses": {
                    "201": {"description": "Disruption recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Course not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/optimizer/approve": {
            "post": {
                "tags": ["Optimizer"],
                "summary": "Approve a faculty reassignment",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ApproveReassignmentRequest"}}],
                "responses": {
                    "200": {"description": "Reassignment result, success=false when course or faculty is missing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/disruptions/{id}": {
            "get": {
                "tags": ["Optimizer"],
                "summary": "Get a disruption with its candidate audit",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Disruption", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/disruptions": {
            "get": {
                "tags": ["Optimizer"],
                "summary": "List disruptions of a course",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "query", "name": "status", "type": "string", "enum": ["pending", "resolved"]}
                ],
                "responses": {
                    "200": {"description": "Disruptions", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Course not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ValidateScheduleRequest": {
            "type": "object",
            "required": ["studentId", "courseIds"],
            "properties": {
                "studentId": {"type": "string"},
                "courseIds": {"type": "array", "items": {"type": "string"}}
            }
        },
        "EnrollRequest": {
            "type": "object",
            "required": ["studentId", "courseId"],
            "properties": {
                "studentId": {"type": "string"},
                "courseId": {"type": "string"}
            }
        },
        "CandidateQuery": {
            "type": "object",
            "required": ["courseId", "unavailableFacultyId"],
            "properties": {
                "courseId": {"type": "string"},
                "unavailableFacultyId": {"type": "string"}
            }
        },
        "RecordDisruptionRequest": {
            "type": "object",
            "required": ["courseId", "unavailableFacultyId"],
            "properties": {
                "courseId": {"type": "string"},
                "unavailableFacultyId": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "ApproveReassignmentRequest": {
            "type": "object",
            "required": ["courseId", "newFacultyId"],
            "properties": {
                "courseId": {"type": "string"},
                "newFacultyId": {"type": "string"},
                "approvedBy": {"type": "string"},
                "disruptionId": {"type": "string"}
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
