package diffusion

import "errors"

var (
	ErrNotReady     = errors.New("diffusion model not ready")
	ErrInvalidImage = errors.New("diffusion returned an undecodable image")
)
