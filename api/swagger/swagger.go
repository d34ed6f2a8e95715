package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Attendance API",
        "description": "Geofenced, face-verified attendance check-in service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Token issuance"},
        {"name": "Checkin", "description": "Attendance check-in and face enrollment"},
        {"name": "Sessions", "description": "Attendance session lifecycle"},
        {"name": "Courses", "description": "Courses and rosters"},
        {"name": "Leave", "description": "Leave / on-duty workflow"},
        {"name": "Dashboard", "description": "Attendance overviews"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/checkin": {
            "post": {
                "tags": ["Checkin"],
                "summary": "Submit an attendance check-in",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "lat", "in": "formData", "type": "number", "required": true},
                    {"name": "lon", "in": "formData", "type": "number", "required": true},
                    {"name": "image", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Attendance recorded", "schema": {"$ref": "#/definitions/CheckinDecision"}},
                    "400": {"description": "Invalid image or payload"},
                    "403": {"description": "Out of range, not enrolled, or face mismatch"},
                    "404": {"description": "No active session or unknown student"},
                    "409": {"description": "Attendance already recorded"}
                }
            }
        },
        "/checkin/face": {
            "post": {
                "tags": ["Checkin"],
                "summary": "Enroll a face template",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "image", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "Template stored"},
                    "400": {"description": "Invalid image"}
                }
            }
        },
        "/sessions": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Open an attendance session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Session opened"},
                    "403": {"description": "Faculty not assigned to course"},
                    "409": {"description": "Active session already exists today"}
                }
            }
        },
        "/sessions/{id}/end": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Close an attendance session",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Session closed"},
                    "404": {"description": "Session not found"},
                    "409": {"description": "Session already closed"}
                }
            }
        },
        "/sessions/active/summary": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Live summary of the active session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SessionSummary"}},
                    "404": {"description": "No active session"}
                }
            }
        },
        "/sessions/{id}/report": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Export a session report",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Report file"},
                    "404": {"description": "Session not found"}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Create a course",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/courses/{id}/enrollments": {
            "post": {
                "tags": ["Courses"],
                "summary": "Enroll students into a course",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Enrollment result"},
                    "404": {"description": "Course not found"}
                }
            }
        },
        "/leaves": {
            "get": {
                "tags": ["Leave"],
                "summary": "List own leave requests",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Leave"],
                "summary": "File a leave request",
                "responses": {
                    "201": {"description": "Filed"}
                }
            }
        },
        "/leaves/pending": {
            "get": {
                "tags": ["Leave"],
                "summary": "List pending leave requests",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/leaves/{id}/review": {
            "post": {
                "tags": ["Leave"],
                "summary": "Review a leave request",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Reviewed"},
                    "409": {"description": "Already reviewed"}
                }
            }
        },
        "/dashboard/students/{id}": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Student attendance dashboard",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "reg_no": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateSessionRequest": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string"},
                "lat": {"type": "number"},
                "lon": {"type": "number"},
                "radius_m": {"type": "number"},
                "remarks": {"type": "string"}
            }
        },
        "CheckinDecision": {
            "type": "object",
            "properties": {
                "accepted": {"type": "boolean"},
                "reason": {"type": "string"},
                "message": {"type": "string"},
                "distance_m": {"type": "number"},
                "face_distance": {"type": "number"},
                "record_id": {"type": "string"}
            }
        },
        "SessionSummary": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "course_id": {"type": "string"},
                "present_roll_numbers": {"type": "array", "items": {"type": "string"}},
                "present_count": {"type": "integer"},
                "total_students": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
