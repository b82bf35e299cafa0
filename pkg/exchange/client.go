// Package exchange implements the widget's only wire contract: one JSON POST
// per user message to the bot endpoint, answered by a JSON object carrying an
// "answer" field.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	// FallbackReply is shown when a successful response carries no usable answer.
	FallbackReply = "I'm sorry, I didn't understand that. Could you please rephrase?"
	// ApologyReply is shown for every failed exchange, whatever the cause.
	ApologyReply = "Sorry, I'm having trouble connecting right now. Please try again later."

	// TimestampLayout is ISO-8601 with millisecond precision in UTC.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

	maxResponseBytes = 1 << 20
)

// Request is the JSON body sent to the endpoint.
type Request struct {
	Message   string `json:"message"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
}

// NewRequest builds a request body for text sent by userID at sentAt.
func NewRequest(text, userID string, sentAt time.Time) Request {
	return Request{
		Message:   strings.TrimSpace(text),
		UserID:    userID,
		Timestamp: sentAt.UTC().Format(TimestampLayout),
	}
}

// Response is the subset of the endpoint's reply the widget understands.
type Response struct {
	Answer string `json:"answer"`
}

// ReplyText returns the answer, or FallbackReply when it is missing or blank.
func (r Response) ReplyText() string {
	if strings.TrimSpace(r.Answer) == "" {
		return FallbackReply
	}
	return r.Answer
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return "exchange: endpoint returned " + e.Status
}

// ErrTransport marks failures where no HTTP response was obtained.
var ErrTransport = errors.New("exchange: transport failure")

// transportError keeps the underlying network error reachable through
// errors.Is and errors.As while still matching ErrTransport.
type transportError struct {
	op    string
	cause error
}

func (e *transportError) Error() string {
	if e.op == "" {
		return ErrTransport.Error() + ": " + e.cause.Error()
	}
	return ErrTransport.Error() + ": " + e.op + ": " + e.cause.Error()
}

func (e *transportError) Is(target error) bool { return target == ErrTransport }

func (e *transportError) Unwrap() error { return e.cause }

// Sender performs one exchange. Implementations must make exactly one attempt.
type Sender interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// Client sends requests to an HTTP endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	chatbotID  string
	httpClient *http.Client
}

var _ Sender = &Client{}

type ClientOption func(*Client)

// WithHTTPClient overrides the underlying client. The default has no timeout;
// callers bound requests through the context.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(endpoint, apiKey, chatbotID string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("exchange: empty endpoint")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, errors.Wrap(err, "exchange: invalid endpoint")
	}
	c := &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		chatbotID:  chatbotID,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// URL returns the endpoint with the Botid query parameter applied.
func (c *Client) URL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", errors.Wrap(err, "exchange: invalid endpoint")
	}
	q := u.Query()
	q.Set("Botid", c.chatbotID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Send posts req and decodes the reply. A 2xx response whose body is not the
// expected JSON object still succeeds with an empty Response.
func (c *Client) Send(ctx context.Context, req Request) (Response, error) {
	target, err := c.URL()
	if err != nil {
		return Response{}, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, errors.Wrap(err, "exchange: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return Response{}, errors.Wrap(err, "exchange: build request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, &transportError{cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return Response{}, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, &transportError{op: "read body", cause: err}
	}
	return decodeResponse(raw), nil
}

func decodeResponse(raw []byte) Response {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		log.Debug().Err(err).Int("bytes", len(raw)).Msg("exchange: reply is not a JSON object")
		return Response{}
	}
	var out Response
	if a, ok := fields["answer"]; ok {
		if err := json.Unmarshal(a, &out.Answer); err != nil {
			log.Debug().Err(err).Msg("exchange: answer field is not a string")
		}
	}
	return out
}

// IsTransport reports whether err came from the network rather than the server.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// AsStatus extracts a StatusError from err.
func AsStatus(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
