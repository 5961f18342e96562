package tts

import (
	"context"
	"encoding/binary"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	edgeTrustedToken = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	edgeEndpoint     = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1?TrustedClientToken=" + edgeTrustedToken
	edgeOrigin       = "chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold"
	edgeUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0"
	edgeAudioFormat  = "audio-24khz-48kbitrate-mono-mp3"
)

// EdgeSynthesizer streams speech from the Edge read-aloud websocket service.
// Each Synthesize call dials its own connection and closes it when the
// stream ends, so no in-flight state is shared between concurrent requests.
type EdgeSynthesizer struct {
	dialer *websocket.Dialer
	logger *slog.Logger
}

func NewEdgeSynthesizer(log *slog.Logger) *EdgeSynthesizer {
	return &EdgeSynthesizer{
		dialer: &websocket.Dialer{
			HandshakeTimeout:  10 * time.Second,
			EnableCompression: true,
		},
		logger: log.With(slog.String("component", "edge-synthesizer")),
	}
}

func (e *EdgeSynthesizer) Synthesize(ctx context.Context, req SpeechRequest) (<-chan StreamEvent, <-chan error) {
	events := make(chan StreamEvent)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)
		if err := e.stream(ctx, req, events); err != nil {
			errs <- err
		}
	}()

	return events, errs
}

func (e *EdgeSynthesizer) stream(ctx context.Context, req SpeechRequest, events chan<- StreamEvent) error {
	connID := strings.ReplaceAll(uuid.NewString(), "-", "")

	header := http.Header{}
	header.Set("Origin", edgeOrigin)
	header.Set("User-Agent", edgeUserAgent)

	conn, resp, err := e.dialer.DialContext(ctx, edgeEndpoint+"&ConnectionId="+connID, header)
	if err != nil {
		return fmt.Errorf("dial edge speech endpoint: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()
	e.logger.Debug("edge stream opened",
		slog.String("connection_id", connID),
		slog.String("voice", req.Voice))

	// Unblock ReadMessage when the caller gives up mid-stream.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	timestamp := time.Now().UTC().Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")
	if err := conn.WriteMessage(websocket.TextMessage, []byte(speechConfigMessage(timestamp))); err != nil {
		return fmt.Errorf("send speech config: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ssmlMessage(connID, timestamp, req))); err != nil {
		return fmt.Errorf("send ssml request: %w", err)
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read edge stream: %w", err)
		}

		switch msgType {
		case websocket.TextMessage:
			if textMessagePath(data) == "turn.end" {
				return nil
			}
			if !send(ctx, events, StreamEvent{Type: EventMetadata}) {
				return ctx.Err()
			}
		case websocket.BinaryMessage:
			payload, ok := binaryAudioPayload(data)
			if !ok {
				continue
			}
			if !send(ctx, events, StreamEvent{Type: EventAudio, Data: payload}) {
				return ctx.Err()
			}
		}
	}
}

func send(ctx context.Context, events chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// textMessagePath extracts the Path header from a text frame.
func textMessagePath(data []byte) string {
	head, _, _ := strings.Cut(string(data), "\r\n\r\n")
	for _, line := range strings.Split(head, "\r\n") {
		if name, value, ok := strings.Cut(line, ":"); ok && name == "Path" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// binaryAudioPayload unpacks a binary frame: two big-endian bytes of header
// length, the header text, then the payload. Only Path:audio frames carry
// bytes to persist.
func binaryAudioPayload(data []byte) ([]byte, bool) {
	if len(data) < 2 {
		return nil, false
	}
	headerLen := int(binary.BigEndian.Uint16(data[:2]))
	if len(data) < 2+headerLen {
		return nil, false
	}
	head := string(data[2 : 2+headerLen])
	if !strings.Contains(head, "Path:audio") {
		return nil, false
	}
	payload := data[2+headerLen:]
	if len(payload) == 0 {
		return nil, false
	}
	return payload, true
}

func speechConfigMessage(timestamp string) string {
	return "X-Timestamp:" + timestamp + "\r\n" +
		"Content-Type:application/json; charset=utf-8\r\n" +
		"Path:speech.config\r\n\r\n" +
		`{"context":{"synthesis":{"audio":{"metadataoptions":{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"false"},"outputFormat":"` + edgeAudioFormat + `"}}}}`
}

func ssmlMessage(requestID, timestamp string, req SpeechRequest) string {
	rate := defaultIfEmpty(req.Rate, "+0%")
	volume := defaultIfEmpty(req.Volume, "+0%")
	pitch := defaultIfEmpty(req.Pitch, "+0Hz")

	ssml := fmt.Sprintf(
		`<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>`+
			`<voice name='%s'><prosody pitch='%s' rate='%s' volume='%s'>%s</prosody></voice></speak>`,
		req.Voice, pitch, rate, volume, html.EscapeString(req.Text))

	return "X-RequestId:" + requestID + "\r\n" +
		"Content-Type:application/ssml+xml\r\n" +
		"X-Timestamp:" + timestamp + "\r\n" +
		"Path:ssml\r\n\r\n" +
		ssml
}

func defaultIfEmpty(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
