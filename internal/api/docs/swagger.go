package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// GenerateResponse is the body of every /generate/ answer
type GenerateResponse struct {
	Image string `json:"image,omitempty" example:"/9j/4AAQSkZJRgABAQAAAQABAAD..."`
	Error string `json:"error,omitempty" example:""`
}

// AreaData describes one catalog entry
type AreaData struct {
	Key         string   `json:"key" example:"forehead_lines_botox"`
	DisplayName string   `json:"display_name" example:"forehead lines"`
	Kind        string   `json:"kind" example:"botox"`
	MaxUnits    int      `json:"max_units,omitempty" example:"30"`
	Regions     []string `json:"regions" example:"forehead"`
}

// ProfileData holds the strength curve constants
type ProfileData struct {
	BaseOffset       float64 `json:"base_offset" example:"0.35"`
	ResponseScale    float64 `json:"response_scale" example:"0.3"`
	ResponseExponent float64 `json:"response_exponent" example:"0.7"`
	StrengthCap      float64 `json:"strength_cap" example:"0.375"`
	FillerStrength   float64 `json:"filler_strength" example:"0.375"`
	GuidanceScale    float64 `json:"guidance_scale" example:"8.5"`
}

// AreasResponse is the catalog listing
type AreasResponse struct {
	CatalogVersion int         `json:"catalog_version" example:"2"`
	Profile        ProfileData `json:"profile"`
	Areas          []AreaData  `json:"areas"`
}

// PromptResponse is a compiled prompt preview
type PromptResponse struct {
	Area           string  `json:"area" example:"forehead_lines_botox"`
	Dosage         int     `json:"dosage" example:"20"`
	Prompt         string  `json:"prompt" example:"High-quality medical photograph after 20 units of Botox in the forehead lines area. ..."`
	NegativePrompt string  `json:"negative_prompt" example:"changed face, changed skin tone, ..."`
	Strength       float64 `json:"strength" example:"0.3636"`
	GuidanceScale  float64 `json:"guidance_scale" example:"8.5"`
}

// GenerationData is one history record
type GenerationData struct {
	ID            string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Area          string  `json:"area" example:"lip_filler"`
	Dosage        int     `json:"dosage" example:"0"`
	Strength      float64 `json:"strength" example:"0.375"`
	GuidanceScale float64 `json:"guidance_scale" example:"8.5"`
	Backend       string  `json:"backend" example:"diffusion"`
	Status        string  `json:"status" example:"succeeded"`
	ErrorCode     string  `json:"error_code,omitempty" example:""`
	InputWidth    int     `json:"input_width" example:"1024"`
	InputHeight   int     `json:"input_height" example:"768"`
	LatencyMs     int64   `json:"latency_ms" example:"41250"`
	CreatedAt     string  `json:"created_at" example:"2026-01-01T00:00:00Z"`
}

// GenerationsListResponse is the history listing
type GenerationsListResponse struct {
	Generations []GenerationData `json:"generations"`
	Count       int              `json:"count" example:"1"`
}

// GenerationStatsResponse counts generations by outcome
type GenerationStatsResponse struct {
	Succeeded int `json:"succeeded" example:"42"`
	Failed    int `json:"failed" example:"3"`
	Total     int `json:"total" example:"45"`
}

// HealthResponse is the body of /health and /ready
type HealthResponse struct {
	Status     string            `json:"status" example:"ready"`
	Version    string            `json:"version,omitempty" example:"0.1.0"`
	Components map[string]string `json:"components,omitempty"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Dermasim API",
		Version:     "v1.0.0",
		Description: "Aesthetic treatment simulation: Botox and filler previews from a patient photo, plus live facial landmark streaming",
		Host:        "localhost:3000",
		Path:        "/",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /generate/ - Simulate a treatment
		endpoint.New(
			endpoint.POST,
			"/generate/",
			endpoint.WithTags("Generation"),
			endpoint.WithSummary("Simulate a treatment on a photo"),
			endpoint.WithDescription("Multipart form with injection_number (units, integer), selected_area (catalog key) and file (image). "+
				"Always answers 200 with either image (base64 JPEG) or error (message)."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(GenerateResponse{}, "200", "Generated image or error message"),
			}),
		),

		// GET /areas - Treatment catalog
		endpoint.New(
			endpoint.GET,
			"/areas",
			endpoint.WithTags("Catalog"),
			endpoint.WithSummary("List treatment areas"),
			endpoint.WithDescription("Returns every supported area with its kind, max units and affected regions, plus the catalog version and strength profile"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AreasResponse{}, "200", "Catalog retrieved successfully"),
			}),
		),

		// GET /areas/{key}/prompt - Prompt preview
		endpoint.New(
			endpoint.GET,
			"/areas/{key}/prompt",
			endpoint.WithTags("Catalog"),
			endpoint.WithSummary("Preview the compiled prompt"),
			endpoint.WithDescription("Compiles the prompt, negative prompt and strength for an area without running a generation"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("key", parameter.Path, parameter.WithDescription("Treatment area key")),
				parameter.IntParam("dosage", parameter.Query, parameter.WithDescription("Botox units (ignored for fillers, default: 0)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(PromptResponse{}, "200", "Prompt compiled successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNKNOWN_TREATMENT_AREA", Message: "Unknown treatment area"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
			}),
		),

		// GET /generations - History
		endpoint.New(
			endpoint.GET,
			"/generations",
			endpoint.WithTags("History"),
			endpoint.WithSummary("List recent generations"),
			endpoint.WithDescription("Most recent first. Only available when a database is configured. Photos are never stored."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Number of records (1-200, default: 20)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(GenerationsListResponse{}, "200", "Generations retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// GET /generations/stats - Outcome counts
		endpoint.New(
			endpoint.GET,
			"/generations/stats",
			endpoint.WithTags("History"),
			endpoint.WithSummary("Count generations by outcome"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(GenerationStatsResponse{}, "200", "Counts retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// GET /ws - Landmark stream
		endpoint.New(
			endpoint.GET,
			"/ws",
			endpoint.WithTags("Streaming"),
			endpoint.WithSummary("Stream facial landmarks"),
			endpoint.WithDescription("WebSocket. Send binary JPEG frames; each frame is answered with a JSON text message "+
				`{"landmarks":[{"name","index","x","y"}]} followed by the annotated JPEG as a binary message.`),
			endpoint.WithParams(
				parameter.StrParam("area", parameter.Query, parameter.WithDescription("Only track the landmark sites of this treatment area")),
			),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "HTTP_ERROR", Message: "Upgrade Required"}, "426", "Upgrade Required"),
				response.New(ErrorResponse{Code: "UNKNOWN_TREATMENT_AREA", Message: "Unknown treatment area"}, "422", "Unprocessable Entity"),
			}),
		),

		// GET /health, GET /ready
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Process is up"),
			}),
		),
		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithDescription("Checks the synthesis backend and, when configured, the database"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Ready"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{Status: "unavailable"}, "503", "A dependency is unavailable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
