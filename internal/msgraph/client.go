package msgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the Microsoft Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

const (
	// pageSize is the $top value requested per calendarView page.
	pageSize = 100
	// maxPages stops a sync whose nextLinks never run out.
	maxPages = 50
	// eventFields are the only event properties a sync reads.
	eventFields = "id,subject,isAllDay,isCancelled,sensitivity,showAs,start,end"
)

// ErrTooManyPages is returned when a calendar view exceeds maxPages pages.
var ErrTooManyPages = errors.New("calendar view exceeds page limit")

// APIError is a non-200 Graph response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("graph API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("graph API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Client fetches calendar events for the signed-in employee.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a Graph client that refreshes tok as needed and
// writes refreshed tokens back to store.
func NewClient(ctx context.Context, tok *oauth2.Token, cfg *oauth2.Config, store TokenStore, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	ts := &savingTokenSource{ts: cfg.TokenSource(ctx, tok), store: store, last: tok.AccessToken, log: log}
	return NewClientWithHTTP(oauth2.NewClient(ctx, ts), DefaultBaseURL)
}

// NewClientWithHTTP creates a Graph client over an already authenticated
// HTTP client.
func NewClientWithHTTP(httpClient *http.Client, baseURL string) *Client {
	return &Client{httpClient: httpClient, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// savingTokenSource persists a token whenever the wrapped source hands out
// a new access token.
type savingTokenSource struct {
	ts    oauth2.TokenSource
	store TokenStore
	last  string
	log   *zap.Logger
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.store.Save(tok); err != nil {
			s.log.Warn("could not cache refreshed token", zap.String("path", s.store.Path), zap.Error(err))
		}
	}
	return tok, nil
}

// graphTime is a Graph dateTimeTimeZone value.
type graphTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// CalendarEvent holds the event properties a sync needs.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	IsAllDay    bool      `json:"isAllDay"`
	IsCancelled bool      `json:"isCancelled"`
	Sensitivity string    `json:"sensitivity"` // normal, personal, private, confidential
	ShowAs      string    `json:"showAs"`      // free, tentative, busy, oof, workingElsewhere, unknown
	Start       graphTime `json:"start"`
	End         graphTime `json:"end"`
}

type calendarPage struct {
	Value    []CalendarEvent `json:"value"`
	NextLink string          `json:"@odata.nextLink"`
}

// GetCalendarView returns the events overlapping [from, to), following
// nextLinks until the view is exhausted. A non-empty timezone asks Graph to
// report event times in that IANA zone; otherwise they come back in UTC.
func (c *Client) GetCalendarView(ctx context.Context, from, to time.Time, timezone string) ([]CalendarEvent, error) {
	q := url.Values{}
	q.Set("startDateTime", from.UTC().Format(time.RFC3339))
	q.Set("endDateTime", to.UTC().Format(time.RFC3339))
	q.Set("$select", eventFields)
	q.Set("$top", fmt.Sprint(pageSize))
	next := c.baseURL + "/me/calendarView?" + q.Encode()

	var events []CalendarEvent
	for pages := 0; next != ""; pages++ {
		if pages == maxPages {
			return nil, fmt.Errorf("%w (%d pages of %d)", ErrTooManyPages, maxPages, pageSize)
		}
		page, err := c.fetchPage(ctx, next, timezone)
		if err != nil {
			return nil, err
		}
		events = append(events, page.Value...)
		next = page.NextLink
	}
	return events, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL, timezone string) (*calendarPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building calendar request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if timezone != "" {
		req.Header.Set("Prefer", fmt.Sprintf(`outlook.timezone="%s"`, timezone))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching calendar view: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var page calendarPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding calendar view: %w", err)
	}
	return &page, nil
}

// decodeAPIError reads Graph's {"error": {"code", "message"}} body, falling
// back to the raw text.
func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}

	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error.Code != "" {
		apiErr.Code = payload.Error.Code
		apiErr.Message = payload.Error.Message
	}
	return apiErr
}
