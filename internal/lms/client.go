package lms

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

	"github.com/google/uuid"
)

// Client talks to the LMS HTTP API. It holds no session state: callers pass
// the bearer token to each authenticated call.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	loginPath string
}

const (
	defaultBaseURL   = "http://127.0.0.1:3001"
	defaultLoginPath = "/api/login"
	defaultUserAgent = "aula/0.1"
	requestTimeout   = 10 * time.Second

	// maxErrorBody bounds how much of a failed response is read for its message.
	maxErrorBody = 64 * 1024
)

// ErrUnauthenticated is returned by authenticated calls made without a token.
var ErrUnauthenticated = errors.New("no bearer token")

// APIError reports a non-2xx response.
type APIError struct {
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Message)
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLoginPath overrides the login endpoint (e.g. /api/users/login).
func WithLoginPath(path string) Option {
	return func(c *Client) {
		if p := strings.TrimSpace(path); p != "" {
			c.loginPath = "/" + strings.TrimLeft(p, "/")
		}
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a Client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		loginPath: defaultLoginPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Login exchanges credentials for a bearer token. A 2xx response without a
// token is returned as-is with an empty Token; the caller decides.
func (c *Client) Login(ctx context.Context, creds Credentials) (LoginResponse, error) {
	if c == nil {
		return LoginResponse{}, fmt.Errorf("client is nil")
	}
	body, err := c.send(ctx, http.MethodPost, c.loginPath, "", creds)
	if err != nil {
		return LoginResponse{}, err
	}

	var raw struct {
		AccessToken string          `json:"access_token"`
		Token       string          `json:"token"`
		Results     json.RawMessage `json:"results"`
		User        json.RawMessage `json:"user"`
		Message     string          `json:"message"`
		Msg         string          `json:"msg"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return LoginResponse{}, fmt.Errorf("decode response: %w", err)
	}

	out := LoginResponse{
		Token:   strings.TrimSpace(raw.AccessToken),
		Message: firstNonEmpty(raw.Message, raw.Msg),
	}
	if out.Token == "" {
		out.Token = strings.TrimSpace(raw.Token)
	}
	for _, candidate := range []json.RawMessage{raw.Results, raw.User} {
		candidate = bytes.TrimSpace(candidate)
		if len(candidate) == 0 || candidate[0] != '{' {
			continue
		}
		if err := json.Unmarshal(candidate, &out.User); err != nil {
			return LoginResponse{}, fmt.Errorf("decode user: %w", err)
		}
		break
	}
	return out, nil
}

// Protected calls the token check endpoint.
func (c *Client) Protected(ctx context.Context, token string) (ProtectedResponse, error) {
	if c == nil {
		return ProtectedResponse{}, fmt.Errorf("client is nil")
	}
	if token == "" {
		return ProtectedResponse{}, ErrUnauthenticated
	}
	var payload ProtectedResponse
	if err := c.do(ctx, http.MethodGet, "/api/protected", token, nil, &payload); err != nil {
		return ProtectedResponse{}, err
	}
	return payload, nil
}

// Register creates a user account.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, http.MethodPost, "/api/users", "", reg, nil)
}

// UpdateUser replaces profile fields and returns the server's view of the user.
func (c *Client) UpdateUser(ctx context.Context, token string, id int64, update ProfileUpdate) (UserSummary, error) {
	if c == nil {
		return UserSummary{}, fmt.Errorf("client is nil")
	}
	if token == "" {
		return UserSummary{}, ErrUnauthenticated
	}
	body, err := c.send(ctx, http.MethodPut, "/api/users/"+strconv.FormatInt(id, 10), token, update)
	if err != nil {
		return UserSummary{}, err
	}
	var user UserSummary
	if err := decodeObject(body, &user, "user"); err != nil {
		return UserSummary{}, fmt.Errorf("decode response: %w", err)
	}
	return user, nil
}

// ListUsers returns every account. The server only answers admins.
func (c *Client) ListUsers(ctx context.Context, token string) ([]UserSummary, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	return getList[UserSummary](ctx, c, "/api/users", token, "users")
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, token string, id int64) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if token == "" {
		return ErrUnauthenticated
	}
	if id <= 0 {
		return fmt.Errorf("user id required")
	}
	return c.do(ctx, http.MethodDelete, "/api/users/"+strconv.FormatInt(id, 10), token, nil, nil)
}

// CreateModule adds a module to a course and returns the stored record.
// Teachers and admins may create modules.
func (c *Client) CreateModule(ctx context.Context, token string, mod NewModule) (Module, error) {
	if c == nil {
		return Module{}, fmt.Errorf("client is nil")
	}
	if token == "" {
		return Module{}, ErrUnauthenticated
	}
	if mod.CourseID <= 0 {
		return Module{}, fmt.Errorf("course id required")
	}
	body, err := c.send(ctx, http.MethodPost, "/api/modules-private", token, mod)
	if err != nil {
		return Module{}, err
	}
	var created Module
	if err := decodeObject(body, &created, "module"); err != nil {
		return Module{}, fmt.Errorf("decode response: %w", err)
	}
	return created, nil
}

// ListCourses returns the authenticated course catalog.
func (c *Client) ListCourses(ctx context.Context, token string) ([]Course, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	return getList[Course](ctx, c, "/api/courses-private", token, "courses")
}

// ListPublicCourses returns the catalog visible without signing in.
func (c *Client) ListPublicCourses(ctx context.Context) ([]Course, error) {
	return getList[Course](ctx, c, "/api/courses-public", "", "courses")
}

// ListModules returns the modules of a course.
func (c *Client) ListModules(ctx context.Context, courseID int64) ([]Module, error) {
	if courseID <= 0 {
		return nil, fmt.Errorf("course id required")
	}
	path := "/api/courses/" + strconv.FormatInt(courseID, 10) + "/modules"
	return getList[Module](ctx, c, path, "", "modules")
}

// ListLessons returns the lessons of a module.
func (c *Client) ListLessons(ctx context.Context, moduleID int64) ([]Lesson, error) {
	if moduleID <= 0 {
		return nil, fmt.Errorf("module id required")
	}
	path := "/api/modules/" + strconv.FormatInt(moduleID, 10) + "/lessons"
	return getList[Lesson](ctx, c, path, "", "lessons")
}

// ListResources returns the multimedia resources of a lesson.
func (c *Client) ListResources(ctx context.Context, lessonID int64) ([]Resource, error) {
	if lessonID <= 0 {
		return nil, fmt.Errorf("lesson id required")
	}
	path := "/api/lessons/" + strconv.FormatInt(lessonID, 10) + "/resources"
	return getList[Resource](ctx, c, path, "", "resources")
}

// ListProgress returns the signed-in user's progress records.
func (c *Client) ListProgress(ctx context.Context, token string) ([]ProgressRecord, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	return getList[ProgressRecord](ctx, c, "/api/progress", token, "progress")
}

// ListAchievements returns the achievement catalog for the signed-in user.
func (c *Client) ListAchievements(ctx context.Context, token string) ([]Achievement, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	return getList[Achievement](ctx, c, "/api/achievements", token, "achievements")
}

// MarkLesson records a lesson as completed (or not).
func (c *Client) MarkLesson(ctx context.Context, token string, update ProgressUpdate) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if token == "" {
		return ErrUnauthenticated
	}
	if update.LessonID <= 0 {
		return fmt.Errorf("lesson id required")
	}
	return c.do(ctx, http.MethodPost, "/api/progress", token, update, nil)
}

func getList[T any](ctx context.Context, c *Client, path, token string, keys ...string) ([]T, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	body, err := c.send(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	items, err := DecodeList[T](body, keys...)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return items, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, payload, dest any) error {
	body, err := c.send(ctx, method, path, token, payload)
	if err != nil {
		return err
	}
	if dest == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send performs the request and returns the raw body of a 2xx response.
func (c *Client) send(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	reqURL := c.baseURL.JoinPath(path)

	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Path: path, Status: resp.StatusCode, Message: errorMessage(data)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

// errorMessage extracts {msg} or {message} from an error body.
func errorMessage(body []byte) string {
	var payload struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return firstNonEmpty(payload.Msg, payload.Message, payload.Error)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse base url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
