package rekognition

import "errors"

var (
	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrInvalidImage indicates the frame cannot be sent to Rekognition
	ErrInvalidImage = errors.New("invalid image for rekognition")

	// ErrThrottled indicates the account exceeded its request rate
	ErrThrottled = errors.New("rekognition request throttled")
)
