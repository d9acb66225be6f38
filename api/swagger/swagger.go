package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School ERP Reporting API",
        "description": "Report builder, export pipeline, document numbering and lab batching",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Reports",
            "description": "Ad-hoc report builder and exports"
        },
        {
            "name": "Report Templates",
            "description": "Saved report configurations"
        },
        {
            "name": "Sequences",
            "description": "Roll, admission and receipt numbering"
        },
        {
            "name": "Students",
            "description": "Admissions and fee payments"
        },
        {
            "name": "Labs",
            "description": "Lab batch assignment"
        },
        {
            "name": "Observability",
            "description": "Metrics"
        }
    ],
    "paths": {
        "/reports/models": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "List reportable models",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/reports/columns": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "List allow-listed columns",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "model",
                        "in": "query",
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/reports/build": {
            "post": {
                "tags": [
                    "Reports"
                ],
                "summary": "Preview an ad-hoc report",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ReportConfiguration"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/reports/export": {
            "post": {
                "tags": [
                    "Reports"
                ],
                "summary": "Queue a report export",
                "responses": {
                    "202": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateExportRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/reports/exports": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "List the caller's export jobs",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "page_size",
                        "in": "query",
                        "type": "integer"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/reports/exports/{id}": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Export job status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/reports/exports/{id}/download": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Download a completed export",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/reports/download/{token}": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Download an export through a signed link",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "token",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/reports/templates": {
            "get": {
                "tags": [
                    "Report Templates"
                ],
                "summary": "List readable report templates",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "category",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "public_only",
                        "in": "query",
                        "type": "boolean"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Report Templates"
                ],
                "summary": "Save a report template",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateTemplateRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/reports/templates/{id}": {
            "get": {
                "tags": [
                    "Report Templates"
                ],
                "summary": "Get a report template",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "put": {
                "tags": [
                    "Report Templates"
                ],
                "summary": "Update a report template",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateTemplateRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Report Templates"
                ],
                "summary": "Delete a report template",
                "responses": {
                    "204": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/reports/templates/{id}/run": {
            "post": {
                "tags": [
                    "Report Templates"
                ],
                "summary": "Run a saved report template",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/sequences/roll-numbers": {
            "post": {
                "tags": [
                    "Sequences"
                ],
                "summary": "Allocate a roll number",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RollNumberRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/sequences/admission-numbers": {
            "post": {
                "tags": [
                    "Sequences"
                ],
                "summary": "Allocate an admission number",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/YearSequenceRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/sequences/receipt-numbers": {
            "post": {
                "tags": [
                    "Sequences"
                ],
                "summary": "Allocate a receipt number",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/YearSequenceRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/students/admissions": {
            "post": {
                "tags": [
                    "Students"
                ],
                "summary": "Admit a student",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AdmitStudentRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/students/{id}/fee-payments": {
            "post": {
                "tags": [
                    "Students"
                ],
                "summary": "Record a fee payment",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/RecordFeePaymentRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/labs/batches": {
            "post": {
                "tags": [
                    "Labs"
                ],
                "summary": "Split an explicit roster into lab batches",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateLabBatchesRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/labs/batches/division": {
            "post": {
                "tags": [
                    "Labs"
                ],
                "summary": "Batch a division's active students by lab capacity",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateDivisionBatchesRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/labs/reassign": {
            "post": {
                "tags": [
                    "Labs"
                ],
                "summary": "Move a student to another lab session",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ReassignStudentRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/labs/sessions": {
            "get": {
                "tags": [
                    "Labs"
                ],
                "summary": "List lab sessions",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "lab_id",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "division_id",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "subject_name",
                        "in": "query",
                        "type": "string"
                    }
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": [
                    "Observability"
                ],
                "summary": "Metrics summary",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        }
    },
    "definitions": {
        "ColumnSelection": {
            "type": "object",
            "properties": {
                "field": {
                    "type": "string"
                },
                "alias": {
                    "type": "string"
                }
            },
            "required": [
                "field"
            ]
        },
        "Filter": {
            "type": "object",
            "properties": {
                "column": {
                    "type": "string"
                },
                "operator": {
                    "type": "string",
                    "enum": [
                        "=",
                        "!=",
                        ">",
                        "<",
                        ">=",
                        "<=",
                        "like",
                        "in"
                    ]
                },
                "value": {}
            },
            "required": [
                "column",
                "value"
            ]
        },
        "FilterGroup": {
            "type": "object",
            "properties": {
                "logic": {
                    "type": "string",
                    "enum": [
                        "AND",
                        "OR"
                    ]
                },
                "conditions": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/Filter"
                    }
                }
            }
        },
        "Join": {
            "type": "object",
            "properties": {
                "table": {
                    "type": "string"
                },
                "type": {
                    "type": "string",
                    "enum": [
                        "inner",
                        "left",
                        "right"
                    ]
                },
                "first": {
                    "type": "string"
                },
                "operator": {
                    "type": "string"
                },
                "second": {
                    "type": "string"
                }
            },
            "required": [
                "table",
                "first",
                "second"
            ]
        },
        "OrderBy": {
            "type": "object",
            "properties": {
                "column": {
                    "type": "string"
                },
                "direction": {
                    "type": "string",
                    "enum": [
                        "asc",
                        "desc"
                    ]
                }
            },
            "required": [
                "column"
            ]
        },
        "ReportConfiguration": {
            "type": "object",
            "properties": {
                "version": {
                    "type": "integer"
                },
                "base_model": {
                    "type": "string"
                },
                "columns": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/ColumnSelection"
                    }
                },
                "filters": {
                    "$ref": "#/definitions/FilterGroup"
                },
                "joins": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/Join"
                    }
                },
                "order_by": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/OrderBy"
                    }
                },
                "limit": {
                    "type": "integer"
                }
            },
            "required": [
                "base_model"
            ]
        },
        "CreateExportRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "format": {
                    "type": "string",
                    "enum": [
                        "excel",
                        "pdf",
                        "csv"
                    ]
                },
                "configuration": {
                    "$ref": "#/definitions/ReportConfiguration"
                }
            },
            "required": [
                "name",
                "format",
                "configuration"
            ]
        },
        "CreateTemplateRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "category": {
                    "type": "string",
                    "enum": [
                        "student",
                        "fee",
                        "academic",
                        "administrative"
                    ]
                },
                "configuration": {
                    "$ref": "#/definitions/ReportConfiguration"
                },
                "is_public": {
                    "type": "boolean"
                }
            },
            "required": [
                "name",
                "category",
                "configuration"
            ]
        },
        "UpdateTemplateRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "category": {
                    "type": "string"
                },
                "configuration": {
                    "$ref": "#/definitions/ReportConfiguration"
                },
                "is_public": {
                    "type": "boolean"
                },
                "is_active": {
                    "type": "boolean"
                }
            }
        },
        "RollNumberRequest": {
            "type": "object",
            "properties": {
                "program_id": {
                    "type": "string"
                },
                "academic_period": {
                    "type": "string"
                },
                "division": {
                    "type": "string"
                }
            },
            "required": [
                "program_id",
                "academic_period",
                "division"
            ]
        },
        "YearSequenceRequest": {
            "type": "object",
            "properties": {
                "year": {
                    "type": "integer"
                }
            },
            "required": [
                "year"
            ]
        },
        "AdmitStudentRequest": {
            "type": "object",
            "properties": {
                "first_name": {
                    "type": "string"
                },
                "last_name": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "date_of_birth": {
                    "type": "string",
                    "format": "date-time"
                },
                "gender": {
                    "type": "string"
                },
                "program_id": {
                    "type": "string"
                },
                "division_id": {
                    "type": "string"
                },
                "academic_period": {
                    "type": "string"
                },
                "admission_date": {
                    "type": "string",
                    "format": "date-time"
                }
            },
            "required": [
                "first_name",
                "last_name",
                "program_id",
                "division_id",
                "academic_period"
            ]
        },
        "RecordFeePaymentRequest": {
            "type": "object",
            "properties": {
                "student_fee_id": {
                    "type": "string"
                },
                "amount": {
                    "type": "string"
                },
                "payment_mode": {
                    "type": "string",
                    "enum": [
                        "cash",
                        "card",
                        "upi",
                        "bank_transfer",
                        "cheque"
                    ]
                },
                "reference": {
                    "type": "string"
                },
                "paid_at": {
                    "type": "string",
                    "format": "date-time"
                }
            },
            "required": [
                "student_fee_id",
                "amount",
                "payment_mode"
            ]
        },
        "CreateLabBatchesRequest": {
            "type": "object",
            "properties": {
                "subject_name": {
                    "type": "string"
                },
                "student_ids": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "capacity": {
                    "type": "integer"
                },
                "lab_id": {
                    "type": "string"
                },
                "division_id": {
                    "type": "string"
                }
            },
            "required": [
                "subject_name",
                "capacity"
            ]
        },
        "CreateDivisionBatchesRequest": {
            "type": "object",
            "properties": {
                "subject_name": {
                    "type": "string"
                },
                "division_id": {
                    "type": "string"
                },
                "lab_id": {
                    "type": "string"
                }
            },
            "required": [
                "subject_name",
                "division_id",
                "lab_id"
            ]
        },
        "ReassignStudentRequest": {
            "type": "object",
            "properties": {
                "student_id": {
                    "type": "string"
                },
                "from_session_id": {
                    "type": "string"
                },
                "to_session_id": {
                    "type": "string"
                }
            },
            "required": [
                "student_id",
                "from_session_id",
                "to_session_id"
            ]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "details": {}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
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
