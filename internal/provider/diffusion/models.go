package diffusion

// Img2ImgRequest for POST /img2img
type Img2ImgRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Image          string  `json:"image"` // base64 encoded PNG
	Strength       float64 `json:"strength"`
	GuidanceScale  float64 `json:"guidance_scale"`
	NumImages      int     `json:"num_images_per_prompt"`
}

// Img2ImgResponse from POST /img2img
type Img2ImgResponse struct {
	Images []string `json:"images"` // base64 encoded
}

// ReleaseResponse from POST /release
type ReleaseResponse struct {
	AllocatedBytes int64 `json:"allocated_bytes"`
	ReservedBytes  int64 `json:"reserved_bytes"`
}

// HealthResponse from GET /health
type HealthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
	Device string `json:"device"`
}
