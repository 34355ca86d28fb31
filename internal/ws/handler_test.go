package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/audit"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/landmark"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider/mock"
)

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, e audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingAudit) types() []audit.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType
	}
	return out
}

func startServer(t *testing.T) (string, *Registry, *recordingAudit) {
	t.Helper()

	registry := NewRegistry()
	auditor := &recordingAudit{}
	processor := landmark.NewProcessor(mock.New(), landmark.DefaultProcessorConfig(), testLogger())

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(testLogger()),
	})
	app.Use("/ws", UpgradeMiddleware())
	app.Get("/ws", Handler(registry, processor, auditor, HandlerConfig{
		Session: DefaultSessionConfig(),
		Backend: "mock",
	}, testLogger()))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() {
		registry.CloseAll()
		_ = app.Shutdown()
	})

	return "ws://" + ln.Addr().String() + "/ws", registry, auditor
}

func encodeFrame(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 90, G: 60, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestHandler_StreamsLandmarksThenFrame(t *testing.T) {
	url, registry, auditor := startServer(t)

	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return registry.Count() == 1 }, time.Second, 5*time.Millisecond)

	frame := encodeFrame(t, 320, 240)
	for i := 0; i < 2; i++ {
		require.NoError(t, conn.WriteMessage(gorillaws.BinaryMessage, frame))

		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, gorillaws.TextMessage, kind)

		var msg landmark.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Len(t, msg.Landmarks, landmark.MaxCacheEntries())

		kind, data, err = conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, gorillaws.BinaryMessage, kind)

		annotated, err := jpeg.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, image.Pt(320, 240), annotated.Bounds().Size())
	}

	// Text frames are ignored; the next binary frame still answers
	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte("ping")))
	require.NoError(t, conn.WriteMessage(gorillaws.BinaryMessage, encodeFrame(t, 16, 16)))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"landmarks":[]}`, string(data))

	require.NoError(t, conn.WriteMessage(gorillaws.CloseMessage,
		gorillaws.FormatCloseMessage(gorillaws.CloseNormalClosure, "")))

	require.Eventually(t, func() bool { return registry.Count() == 0 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(auditor.types()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []audit.EventType{audit.EventSessionOpened, audit.EventSessionClosed}, auditor.types())
}

func TestHandler_AreaFilter(t *testing.T) {
	url, _, _ := startServer(t)

	conn, _, err := gorillaws.DefaultDialer.Dial(url+"?area=lip_filler", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(gorillaws.BinaryMessage, encodeFrame(t, 200, 200)))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg landmark.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Len(t, msg.Landmarks, 2)
	for _, p := range msg.Landmarks {
		assert.Equal(t, "lips", p.Name)
	}
}

func TestHandler_UnknownAreaRejected(t *testing.T) {
	url, registry, _ := startServer(t)

	_, resp, err := gorillaws.DefaultDialer.Dial(url+"?area=eyelid_botox", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, 0, registry.Count())
}

func TestHandler_BadFrameClosesOnlyThatSession(t *testing.T) {
	url, registry, _ := startServer(t)

	good, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer good.Close()

	bad, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer bad.Close()

	require.Eventually(t, func() bool { return registry.Count() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, bad.WriteMessage(gorillaws.BinaryMessage, []byte("not a jpeg")))
	_, _, err = bad.ReadMessage()
	require.Error(t, err)
	assert.True(t, gorillaws.IsCloseError(err, gorillaws.CloseUnsupportedData), "got %v", err)

	require.Eventually(t, func() bool { return registry.Count() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, good.WriteMessage(gorillaws.BinaryMessage, encodeFrame(t, 64, 64)))
	kind, _, err := good.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, gorillaws.TextMessage, kind)
}

func TestUpgradeMiddleware_RequiresUpgrade(t *testing.T) {
	app := fiber.New()
	app.Use("/ws", UpgradeMiddleware())
	app.Get("/ws", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req, err := http.NewRequest(http.MethodGet, "/ws", nil)
	require.NoError(t, err)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
