// Package client talks to the mealweek HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/mealweek/internal/model"
	"github.com/dukerupert/mealweek/internal/planner"
	"github.com/dukerupert/mealweek/internal/week"
)

// ErrConflict is matched by errors returned when a save lost to a remote
// change.
var ErrConflict = errors.New("plan changed remotely")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Days    []model.Day
}

func (e *APIError) Error() string {
	if len(e.Days) > 0 {
		days := make([]string, len(e.Days))
		for i, d := range e.Days {
			days[i] = string(d)
		}
		return fmt.Sprintf("%s (%s)", e.Message, strings.Join(days, ", "))
	}
	return e.Message
}

func (e *APIError) Is(target error) bool {
	return target == ErrConflict && e.Status == http.StatusConflict
}

// Scope selects the week and owner of a plan. GroupID zero is the caller's
// personal plan.
type Scope struct {
	Week    string
	GroupID int64
}

func (s Scope) values() url.Values {
	v := url.Values{}
	if s.Week != "" {
		v.Set("week", s.Week)
	}
	if s.GroupID != 0 {
		v.Set("group_id", strconv.FormatInt(s.GroupID, 10))
	}
	return v
}

// Plan is a plan view with the duplicate warning some edits return.
type Plan struct {
	planner.View
	Warning *week.DuplicateWarning `json:"warning,omitempty"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string      `json:"error"`
			Days  []model.Day `json:"days"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error, Days: e.Days}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) plan(ctx context.Context, method, path string, s Scope, body any) (*Plan, error) {
	var p Plan
	if err := c.do(ctx, method, path, s.values(), body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetPlan(ctx context.Context, s Scope) (*Plan, error) {
	return c.plan(ctx, "GET", "/api/plan", s, nil)
}

func (c *Client) Reload(ctx context.Context, s Scope) (*Plan, error) {
	return c.plan(ctx, "POST", "/api/plan/reload", s, nil)
}

func (c *Client) Assign(ctx context.Context, s Scope, day model.Day, req model.AssignRequest) (*Plan, error) {
	return c.plan(ctx, "PUT", "/api/plan/days/"+string(day), s, req)
}

func (c *Client) Remove(ctx context.Context, s Scope, day model.Day) (*Plan, error) {
	return c.plan(ctx, "DELETE", "/api/plan/days/"+string(day), s, nil)
}

func (c *Client) SetNote(ctx context.Context, s Scope, day model.Day, notes string) (*Plan, error) {
	return c.plan(ctx, "PUT", "/api/plan/days/"+string(day)+"/note", s, model.NoteRequest{Notes: notes})
}

// Swap moves the dish on from onto to. The bool reports whether anything
// changed.
func (c *Client) Swap(ctx context.Context, s Scope, from, to model.Day) (*Plan, bool, error) {
	var res struct {
		Swapped bool `json:"swapped"`
		Plan    Plan `json:"plan"`
	}
	if err := c.do(ctx, "POST", "/api/plan/swap", s.values(), model.SwapRequest{From: from, To: to}, &res); err != nil {
		return nil, false, err
	}
	return &res.Plan, res.Swapped, nil
}

func (c *Client) Save(ctx context.Context, s Scope) (*Plan, error) {
	return c.plan(ctx, "POST", "/api/plan/save", s, nil)
}

func (c *Client) Clear(ctx context.Context, s Scope) (*Plan, error) {
	return c.plan(ctx, "DELETE", "/api/plan", s, nil)
}

func (c *Client) RepeatPreviousWeek(ctx context.Context, s Scope) (*Plan, error) {
	return c.plan(ctx, "POST", "/api/plan/repeat-previous", s, nil)
}

// Dishes lists the dishes visible in the scope, filtered by a search term.
func (c *Client) Dishes(ctx context.Context, s Scope, search string) ([]model.Dish, error) {
	q := s.values()
	q.Del("week")
	if search != "" {
		q.Set("q", search)
	}
	var dishes []model.Dish
	if err := c.do(ctx, "GET", "/api/dishes", q, nil, &dishes); err != nil {
		return nil, err
	}
	return dishes, nil
}

// Attendance returns the counts for one group day.
func (c *Client) Attendance(ctx context.Context, s Scope, day model.Day) (*AttendanceDay, error) {
	q := s.values()
	q.Del("group_id")
	q.Set("day", string(day))
	var d AttendanceDay
	path := fmt.Sprintf("/api/groups/%d/attendance", s.GroupID)
	if err := c.do(ctx, "GET", path, q, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) SetAttendance(ctx context.Context, s Scope, day model.Day, status model.AttendanceStatus) error {
	req := model.AttendanceRequest{Day: day, WeekStart: s.Week, Status: status}
	path := fmt.Sprintf("/api/groups/%d/attendance", s.GroupID)
	return c.do(ctx, "PUT", path, nil, req, nil)
}

type AttendanceDay struct {
	Day          model.Day `json:"dayOfWeek"`
	Attending    int       `json:"attending"`
	NotAttending int       `json:"notAttending"`
	Unknown      int       `json:"unknown"`
}
