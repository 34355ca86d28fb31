package ws

import (
	"errors"

	"github.com/gofiber/websocket/v2"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/domain"
)

// State is the session lifecycle
type State int32

const (
	StateOpen State = iota
	StateClosed
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Close codes sent to clients
const (
	CloseNormal          = websocket.CloseNormalClosure
	CloseGoingAway       = websocket.CloseGoingAway
	CloseUnsupportedData = websocket.CloseUnsupportedData
	CloseInternalError   = websocket.CloseInternalServerErr
)

// closeCodeFor picks the close frame for a fatal frame error
func closeCodeFor(err error) (int, string) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		if errors.Is(err, domain.ErrDecodeFailure) {
			return CloseUnsupportedData, appErr.Code
		}
		return CloseInternalError, appErr.Code
	}
	return CloseInternalError, domain.ErrInternal.Code
}
