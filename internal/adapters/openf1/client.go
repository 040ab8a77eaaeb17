// Package openf1 reads sessions, laps and positions from the OpenF1 API.
package openf1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/table"
	"github.com/okian/gridcast/pkg/logger"
	"github.com/okian/gridcast/pkg/metrics"
)

// DefaultBaseURL is the public OpenF1 endpoint.
const DefaultBaseURL = "https://api.openf1.org/v1"

const (
	defaultAttempts = 3
	defaultBackoff  = time.Second
	defaultTimeout  = 30 * time.Second
	defaultRPS      = 3
)

// Client is an OpenF1 API client. It is safe for concurrent use.
type Client struct {
	base     string
	http     *http.Client
	limiter  *rate.Limiter
	attempts int
	backoff  time.Duration
	log      logger.Logger
}

// New creates a Client for baseURL; an empty baseURL uses DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		base:     strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: defaultTimeout},
		limiter:  rate.NewLimiter(rate.Limit(defaultRPS), 1),
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SessionRef identifies one session of a meeting.
type SessionRef struct {
	Session    model.Session
	SessionKey int
	MeetingKey int
}

type meetingDTO struct {
	CountryName string    `json:"country_name"`
	Location    string    `json:"location"`
	MeetingName string    `json:"meeting_name"`
	DateStart   time.Time `json:"date_start"`
	Year        int       `json:"year"`
}

type sessionDTO struct {
	SessionKey int `json:"session_key"`
	MeetingKey int `json:"meeting_key"`
}

type driverDTO struct {
	DriverNumber int    `json:"driver_number"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	FullName     string `json:"full_name"`
	TeamName     string `json:"team_name"`
}

func (d driverDTO) identity() model.DriverIdentity {
	name := strings.TrimSpace(d.FirstName + " " + d.LastName)
	if name == "" {
		name = d.FullName
	}
	return model.DriverIdentity{Number: d.DriverNumber, Name: name, Team: d.TeamName}
}

type lapDTO struct {
	DriverNumber int      `json:"driver_number"`
	LapNumber    int      `json:"lap_number"`
	LapDuration  *float64 `json:"lap_duration"`
	Sector1      *float64 `json:"duration_sector_1"`
	Sector2      *float64 `json:"duration_sector_2"`
	Sector3      *float64 `json:"duration_sector_3"`
	IsPitOutLap  *bool    `json:"is_pit_out_lap"`
}

type positionDTO struct {
	DriverNumber int       `json:"driver_number"`
	Date         time.Time `json:"date"`
	Position     *int      `json:"position"`
}

// Meetings returns the season calendar sorted by start date.
func (c *Client) Meetings(ctx context.Context, year int) ([]model.Event, error) {
	var dtos []meetingDTO
	if err := c.get(ctx, "meetings", url.Values{"year": {strconv.Itoa(year)}}, &dtos); err != nil {
		return nil, err
	}
	events := make([]model.Event, 0, len(dtos))
	for _, m := range dtos {
		y := m.Year
		if y == 0 {
			y = year
		}
		events = append(events, model.Event{
			EventKey: model.EventKey{Country: m.CountryName, Location: m.Location, Year: y},
			Name:     m.MeetingName,
			Date:     m.DateStart,
		})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}

// Session resolves one session of an event. ok is false when the provider
// has no such session.
func (c *Client) Session(ctx context.Context, key model.EventKey, s model.Session) (ref SessionRef, ok bool, err error) {
	q := url.Values{
		"country_name": {key.Country},
		"location":     {key.Location},
		"session_name": {s.String()},
		"year":         {strconv.Itoa(key.Year)},
	}
	var dtos []sessionDTO
	if err := c.get(ctx, "sessions", q, &dtos); err != nil {
		return SessionRef{}, false, err
	}
	if len(dtos) == 0 {
		return SessionRef{}, false, nil
	}
	return SessionRef{Session: s, SessionKey: dtos[0].SessionKey, MeetingKey: dtos[0].MeetingKey}, true, nil
}

// Drivers returns the roster of a session.
func (c *Client) Drivers(ctx context.Context, sessionKey int) ([]model.DriverIdentity, error) {
	var dtos []driverDTO
	if err := c.get(ctx, "drivers", url.Values{"session_key": {strconv.Itoa(sessionKey)}}, &dtos); err != nil {
		return nil, err
	}
	out := make([]model.DriverIdentity, len(dtos))
	for i, d := range dtos {
		out[i] = d.identity()
	}
	return out, nil
}

// Laps returns one driver's laps. Null timings become missing values.
func (c *Client) Laps(ctx context.Context, sessionKey int, driver model.DriverIdentity) ([]model.LapRecord, error) {
	q := url.Values{
		"session_key":   {strconv.Itoa(sessionKey)},
		"driver_number": {strconv.Itoa(driver.Number)},
	}
	var dtos []lapDTO
	if err := c.get(ctx, "laps", q, &dtos); err != nil {
		return nil, err
	}
	out := make([]model.LapRecord, len(dtos))
	for i, l := range dtos {
		out[i] = model.LapRecord{
			Driver:      driver,
			LapNumber:   l.LapNumber,
			LapDuration: orMissing(l.LapDuration),
			Sectors:     [3]float64{orMissing(l.Sector1), orMissing(l.Sector2), orMissing(l.Sector3)},
			PitOutLap:   l.IsPitOutLap != nil && *l.IsPitOutLap,
		}
	}
	return out, nil
}

// SessionLaps fetches the roster and then every driver's laps. A driver whose
// laps cannot be fetched is logged and left out.
func (c *Client) SessionLaps(ctx context.Context, sessionKey int) ([]model.LapRecord, error) {
	drivers, err := c.Drivers(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	var laps []model.LapRecord
	for _, d := range drivers {
		l, err := c.Laps(ctx, sessionKey, d)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.log.Warn(ctx, "skipping driver laps",
				logger.Int("session_key", sessionKey),
				logger.String("driver", d.String()),
				logger.Error(err),
			)
			continue
		}
		laps = append(laps, l...)
	}
	return laps, nil
}

// Positions returns every position sample of a session. Samples without a
// position are dropped.
func (c *Client) Positions(ctx context.Context, sessionKey int) ([]model.PositionObservation, error) {
	var dtos []positionDTO
	if err := c.get(ctx, "position", url.Values{"session_key": {strconv.Itoa(sessionKey)}}, &dtos); err != nil {
		return nil, err
	}
	out := make([]model.PositionObservation, 0, len(dtos))
	for _, p := range dtos {
		if p.Position == nil {
			continue
		}
		out = append(out, model.PositionObservation{DriverNumber: p.DriverNumber, Date: p.Date, Position: *p.Position})
	}
	return out, nil
}

func orMissing(v *float64) float64 {
	if v == nil {
		return table.Missing()
	}
	return *v
}

// get issues a GET and decodes the JSON body into out. Only 429 responses are
// retried; the wait doubles after each attempt.
func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	u := c.base + "/" + endpoint
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: %w", endpoint, err)
		}
		status, body, err := c.do(ctx, endpoint, u)
		if err != nil {
			return err
		}
		switch {
		case status == http.StatusTooManyRequests && attempt < c.attempts-1:
			wait := c.backoff * time.Duration(1<<attempt)
			metrics.RecordProviderRetry(endpoint)
			c.log.Warn(ctx, "openf1 rate limited, retrying",
				logger.String("endpoint", endpoint),
				logger.Int("attempt", attempt+1),
				logger.Duration("wait", wait),
			)
			if err := sleep(ctx, wait); err != nil {
				return fmt.Errorf("%s: %w", endpoint, err)
			}
			continue
		case status == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s after %d attempts", ErrRateLimited, endpoint, c.attempts)
		case status < 200 || status > 299:
			return fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, endpoint, status)
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrDecode, endpoint, err)
		}
		return nil
	}
}

func (c *Client) do(ctx context.Context, endpoint, u string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: build request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.RecordProviderLatency(endpoint, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordProviderRequest(endpoint, "error")
		return 0, nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	metrics.RecordProviderRequest(endpoint, strconv.Itoa(resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: read body: %w", endpoint, err)
	}
	return resp.StatusCode, body, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
