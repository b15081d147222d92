// Package docs holds the generated Swagger specification for the pool
// admin API. Normally produced by `swag init` from the handler
// annotations in internal/interfaces/http/handler; committed here so
// the service can serve it without a generation step at build time.
package docs

import "github.com/swaggo/swag/v2"

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
        "/pool/stats": {
            "get": {
                "description": "Returns the pool's current worker and backlog counts",
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "Collect pool statistics",
                "responses": {
                    "200": { "description": "OK" }
                }
            }
        },
        "/pool/tasks": {
            "post": {
                "description": "Submit a task onto the pool, priority optional",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "Submit a report job",
                "responses": {
                    "202": { "description": "Accepted" },
                    "400": { "description": "Bad Request" },
                    "503": { "description": "Service Unavailable" }
                }
            }
        },
        "/pool/reports/trigger": {
            "post": {
                "description": "Triggers a report refresh for a tenant/report type outside the daily cadence",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "Manually trigger a report refresh",
                "responses": {
                    "202": { "description": "Accepted" },
                    "400": { "description": "Bad Request" },
                    "503": { "description": "Service Unavailable" }
                }
            }
        },
        "/pool/reports/recent": {
            "get": {
                "description": "Lists the most recent job runs, newest first",
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "List the most recent job runs",
                "responses": {
                    "200": { "description": "OK" }
                }
            }
        },
        "/pool/reports/{id}": {
            "get": {
                "description": "Fetches a single job run by ID",
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "Fetch a single job run",
                "responses": {
                    "200": { "description": "OK" },
                    "400": { "description": "Bad Request" },
                    "404": { "description": "Not Found" }
                }
            }
        },
        "/pool/resize": {
            "post": {
                "description": "Resizes the pool's worker count",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "Resize the pool",
                "responses": {
                    "200": { "description": "OK" },
                    "400": { "description": "Bad Request" }
                }
            }
        },
        "/pool/suspend": {
            "post": {
                "description": "Suspends every working worker",
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "Suspend the pool",
                "responses": {
                    "200": { "description": "OK" }
                }
            }
        },
        "/pool/resume": {
            "post": {
                "description": "Resumes all suspended workers",
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "Resume the pool",
                "responses": {
                    "200": { "description": "OK" }
                }
            }
        },
        "/pool/close": {
            "post": {
                "description": "Closes the pool, terminating every worker",
                "produces": ["application/json"],
                "tags": ["pool"],
                "summary": "Close the pool",
                "responses": {
                    "200": { "description": "OK" }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Worker Pool Admin API",
	Description:      "Admin HTTP API for submitting report jobs and controlling the worker pool.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
