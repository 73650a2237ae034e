// Package api is a thin client for the backend's REST endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/podiumhq/podium/internal/audience"
	"github.com/podiumhq/podium/internal/logging"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

type CreateRoomRequest struct {
	Name            string `json:"name,omitempty"`
	Category        string `json:"category,omitempty"`
	Topic           string `json:"topic,omitempty"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

type Room struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Bots      []audience.Bot `json:"bots"`
	Category  string         `json:"category,omitempty"`
}

// Feedback is the backend's answer to a feedback request. When generation
// is queued, Status is set and the report arrives later as a coach_feedback
// room event; otherwise Report holds the payload.
type Feedback struct {
	Status string          `json:"status,omitempty"`
	Report json.RawMessage `json:"report,omitempty"`
}

func (f *Feedback) Queued() bool { return f.Status == "feedback_generation_queued" }

type TranscriptWindow struct {
	RoomID        string `json:"roomId"`
	WindowSeconds int    `json:"windowSeconds"`
	Text          string `json:"text"`
}

type Client struct {
	base string
	c    *http.Client
	log  zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.c = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(cl *Client) { cl.log = l }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		c:    &http.Client{Timeout: 60 * time.Second},
		log:  logging.WithComponent("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateRoom asks the backend for a new room and its seeded audience.
func (c *Client) CreateRoom(ctx context.Context, in CreateRoomRequest) (*Room, error) {
	if in.DurationSeconds == 0 && in.DurationMinutes > 0 {
		in.DurationSeconds = in.DurationMinutes * 60
	}
	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	var out Room
	if err := c.do(ctx, "create room", http.MethodPost, "/rooms", "application/json", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, errors.New("create room: response has no id")
	}
	c.log.Info().Str("roomId", out.ID).Int("bots", len(out.Bots)).Msg("room created")
	return &out, nil
}

// AddBot spawns one more audience member.
func (c *Client) AddBot(ctx context.Context, roomID string) (*audience.Bot, error) {
	var out audience.Bot
	if err := c.do(ctx, "add bot", http.MethodPost, "/rooms/"+url.PathEscape(roomID)+"/bots", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveBot(ctx context.Context, roomID, botID string) error {
	p := "/rooms/" + url.PathEscape(roomID) + "/bots/" + url.PathEscape(botID)
	return c.do(ctx, "remove bot", http.MethodDelete, p, "", nil, nil)
}

// RequestFeedback uploads the recorded audio (may be nil) as the multipart
// field "file" and asks for end-of-session feedback.
func (c *Client) RequestFeedback(ctx context.Context, roomID string, audio io.Reader, filename string) (*Feedback, error) {
	var body io.Reader
	var contentType string
	if audio != nil {
		var b bytes.Buffer
		w := multipart.NewWriter(&b)
		if filename == "" {
			filename = "pitch.wav"
		}
		fw, err := w.CreateFormFile("file", filename)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(fw, audio); err != nil {
			return nil, fmt.Errorf("read audio: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		body, contentType = &b, w.FormDataContentType()
	}

	var raw json.RawMessage
	if err := c.do(ctx, "request feedback", http.MethodPost, "/rooms/"+url.PathEscape(roomID)+"/feedback", contentType, body, &raw); err != nil {
		return nil, err
	}

	var status struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal(raw, &status)
	fb := &Feedback{Status: status.Status}
	if !fb.Queued() {
		fb.Report = raw
	}
	return fb, nil
}

// Transcript fetches the last window of the room's transcript. A
// non-positive window uses the backend default.
func (c *Client) Transcript(ctx context.Context, roomID string, window time.Duration) (*TranscriptWindow, error) {
	p := "/rooms/" + url.PathEscape(roomID) + "/transcript"
	if secs := int(window / time.Second); secs > 0 {
		p += "?windowSeconds=" + strconv.Itoa(secs)
	}
	var out TranscriptWindow
	if err := c.do(ctx, "transcript", http.MethodGet, p, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.c.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode: %w", op, err)
	}
	return nil
}
