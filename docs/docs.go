// Package docs registra la especificación OpenAPI que sirve /swagger.
// Se regenera con `swag init -g cmd/api/main.go`.
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
        "/health": {
            "get": {
                "tags": [
                    "system"
                ],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/pets": {
            "get": {
                "tags": [
                    "pets"
                ],
                "summary": "Explorar mascotas con match",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/pets/{petID}": {
            "get": {
                "tags": [
                    "pets"
                ],
                "summary": "Ver mascota",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "petID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/pets/{petID}/match": {
            "get": {
                "tags": [
                    "pets"
                ],
                "summary": "Explicación del match",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "petID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/pets/{petID}/status": {
            "post": {
                "tags": [
                    "pets"
                ],
                "summary": "Cambiar status del listado",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "petID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/me": {
            "get": {
                "tags": [
                    "users"
                ],
                "summary": "Usuario actual",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/me/preferences": {
            "put": {
                "tags": [
                    "users"
                ],
                "summary": "Guardar respuestas del quiz",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/me/recommendations": {
            "get": {
                "tags": [
                    "pets"
                ],
                "summary": "Recomendaciones para el adoptante",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/me/feed/pets": {
            "get": {
                "tags": [
                    "pets"
                ],
                "summary": "Feed de mascotas del dashboard",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/me/listings": {
            "get": {
                "tags": [
                    "pets"
                ],
                "summary": "Mis publicaciones",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/me/applications": {
            "get": {
                "tags": [
                    "applications"
                ],
                "summary": "Mis solicitudes y estadísticas",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/applications": {
            "post": {
                "tags": [
                    "applications"
                ],
                "summary": "Enviar solicitud",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/applications/{applicationID}/approve": {
            "post": {
                "tags": [
                    "applications"
                ],
                "summary": "Aprobar solicitud",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "applicationID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/applications/{applicationID}/reject": {
            "post": {
                "tags": [
                    "applications"
                ],
                "summary": "Rechazar solicitud",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "applicationID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/applications/{applicationID}/revoke": {
            "post": {
                "tags": [
                    "applications"
                ],
                "summary": "Revocar aprobación",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "applicationID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/applications/{applicationID}/reopen": {
            "post": {
                "tags": [
                    "applications"
                ],
                "summary": "Reabrir solicitud",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "applicationID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/shelter/applications": {
            "get": {
                "tags": [
                    "applications"
                ],
                "summary": "Tablero de solicitudes agrupadas por mascota",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/threads": {
            "post": {
                "tags": [
                    "threads"
                ],
                "summary": "Abrir conversación",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/threads/{threadID}": {
            "get": {
                "tags": [
                    "threads"
                ],
                "summary": "Ver conversación",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "threadID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/threads/{threadID}/messages": {
            "get": {
                "tags": [
                    "threads"
                ],
                "summary": "Mensajes de una conversación",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "threadID",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/me/threads": {
            "get": {
                "tags": [
                    "threads"
                ],
                "summary": "Mis conversaciones",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/me/threads/stream": {
            "get": {
                "tags": [
                    "threads"
                ],
                "summary": "Inbox en vivo (SSE)",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/catalog/types": {
            "get": {
                "tags": [
                    "catalog"
                ],
                "summary": "Tipos de animal",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/catalog/types/{animalType}/breeds": {
            "get": {
                "tags": [
                    "catalog"
                ],
                "summary": "Razas de un tipo",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "animalType",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Pet Adoption Marketplace API",
	Description:      "Matching adoptante/mascota, solicitudes y conversaciones en vivo.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
