package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"garagedesk/internal/config"
	"garagedesk/internal/domain"
	"garagedesk/internal/metrics"
	"garagedesk/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Client talks to the mechanic backend. Every call carries the current
// session token as a bearer header; a 401 response expires the session so
// the rest of the desk stops issuing requests until re-login.
type Client struct {
	baseURL    string
	session    domain.SessionStore
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client from config. The timeout applies per call;
// expiry is reported as a generic availability failure.
func NewClient(cfg config.APIConfig, session domain.SessionStore, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = time.Duration(models.DefaultAPITimeout) * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		session:    session,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		logger:     logger,
	}
}

// UseRedisCache configures read-through caching for catalog GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// loginRequest/loginResponse mirror the mechanic login endpoint.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is what the backend hands back on a successful login.
type LoginResult struct {
	AccessToken    string `json:"access_token"`
	UserID         int64  `json:"user_id"`
	WorkshopID     int64  `json:"workshop_id"`
	WorkshopName   string `json:"workshop_name"`
	ApprovalStatus string `json:"approval_status"`
}

// Login authenticates the workshop and stores the returned token in the
// session store.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	err := c.call(ctx, http.MethodPost, "/mechanic/login", "login",
		loginRequest{Email: email, Password: password}, &result, false)
	if err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("%w: login returned no token", ErrRejected)
	}
	if err := c.session.SetToken(ctx, result.AccessToken); err != nil {
		return nil, fmt.Errorf("store session token: %w", err)
	}
	return &result, nil
}

// ListBookings fetches one collection kind (pending, today, all).
func (c *Client) ListBookings(ctx context.Context, kind string) ([]models.Booking, error) {
	var wrap struct {
		Bookings []models.Booking `json:"bookings"`
	}
	endpoint := "/bookings?kind=" + url.QueryEscape(kind)
	if err := c.call(ctx, http.MethodGet, endpoint, "list_bookings", nil, &wrap, false); err != nil {
		return nil, err
	}
	return wrap.Bookings, nil
}

// UpdateBookingStatus PATCHes a booking's status and returns the updated
// record.
func (c *Client) UpdateBookingStatus(ctx context.Context, bookingID int64, status string) (*models.Booking, error) {
	body := map[string]string{"booking_status": status}
	var updated models.Booking
	endpoint := fmt.Sprintf("/bookings/%d", bookingID)
	if err := c.call(ctx, http.MethodPatch, endpoint, "update_status", body, &updated, true); err != nil {
		return nil, err
	}
	return &updated, nil
}

// RescheduleBooking PATCHes a booking's date and time slot.
func (c *Client) RescheduleBooking(ctx context.Context, bookingID int64, date, timeSlot string) (*models.Booking, error) {
	body := map[string]string{"scheduled_date": date, "scheduled_time": timeSlot}
	var updated models.Booking
	endpoint := fmt.Sprintf("/bookings/%d", bookingID)
	if err := c.call(ctx, http.MethodPatch, endpoint, "reschedule", body, &updated, true); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListCategories returns the service catalog's top level. Cached when a redis
// cache is configured.
func (c *Client) ListCategories(ctx context.Context) ([]models.ServiceCategory, error) {
	var wrap struct {
		Categories []models.ServiceCategory `json:"categories"`
	}
	if c.readCache(ctx, "catalog:categories", &wrap) {
		return wrap.Categories, nil
	}
	if err := c.call(ctx, http.MethodGet, "/ServiceCategories/categories", "list_categories", nil, &wrap, false); err != nil {
		return nil, err
	}
	c.writeCache(ctx, "catalog:categories", wrap)
	return wrap.Categories, nil
}

// CreateCategory adds a catalog category.
func (c *Client) CreateCategory(ctx context.Context, name string) (*models.ServiceCategory, error) {
	var created models.ServiceCategory
	body := map[string]string{"category_name": name}
	if err := c.call(ctx, http.MethodPost, "/ServiceCategories/categories", "create_category", body, &created, true); err != nil {
		return nil, err
	}
	c.dropCache(ctx, "catalog:categories")
	return &created, nil
}

// RenameCategory renames a catalog category.
func (c *Client) RenameCategory(ctx context.Context, categoryID int64, name string) error {
	endpoint := fmt.Sprintf("/ServiceCategories/categories/%d", categoryID)
	body := map[string]string{"category_name": name}
	if err := c.call(ctx, http.MethodPut, endpoint, "rename_category", body, nil, true); err != nil {
		return err
	}
	c.dropCache(ctx, "catalog:categories")
	return nil
}

// DeleteCategory removes a category and its services.
func (c *Client) DeleteCategory(ctx context.Context, categoryID int64) error {
	endpoint := fmt.Sprintf("/ServiceCategories/categories/%d", categoryID)
	if err := c.call(ctx, http.MethodDelete, endpoint, "delete_category", nil, nil, true); err != nil {
		return err
	}
	c.dropCache(ctx, "catalog:categories")
	return nil
}

// ListServices returns the priced services under one category.
func (c *Client) ListServices(ctx context.Context, categoryID int64) ([]models.ServiceItem, error) {
	var wrap struct {
		Services []models.ServiceItem `json:"subcategories"`
	}
	cacheKey := fmt.Sprintf("catalog:services:%d", categoryID)
	if c.readCache(ctx, cacheKey, &wrap) {
		return wrap.Services, nil
	}
	endpoint := fmt.Sprintf("/ServiceCategories/categories/%d/subcategories", categoryID)
	if err := c.call(ctx, http.MethodGet, endpoint, "list_services", nil, &wrap, false); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, wrap)
	return wrap.Services, nil
}

// CreateService adds a priced service under a category.
func (c *Client) CreateService(ctx context.Context, categoryID int64, name string, price float64) (*models.ServiceItem, error) {
	var created models.ServiceItem
	endpoint := fmt.Sprintf("/ServiceCategories/categories/%d/subcategories", categoryID)
	body := map[string]any{"subcategory_name": name, "price": price}
	if err := c.call(ctx, http.MethodPost, endpoint, "create_service", body, &created, true); err != nil {
		return nil, err
	}
	c.dropCache(ctx, fmt.Sprintf("catalog:services:%d", categoryID))
	return &created, nil
}

// UpdateService renames or reprices a service.
func (c *Client) UpdateService(ctx context.Context, serviceID int64, name string, price float64) error {
	endpoint := fmt.Sprintf("/ServiceCategories/services/%d", serviceID)
	body := map[string]any{"subcategory_name": name, "price": price}
	return c.call(ctx, http.MethodPut, endpoint, "update_service", body, nil, true)
}

// DeleteService removes a service.
func (c *Client) DeleteService(ctx context.Context, serviceID int64) error {
	endpoint := fmt.Sprintf("/ServiceCategories/services/%d", serviceID)
	return c.call(ctx, http.MethodDelete, endpoint, "delete_service", nil, nil, true)
}

// ListTransactions fetches the payments feed.
func (c *Client) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	var wrap struct {
		Transactions []models.Transaction `json:"transactions"`
	}
	if err := c.call(ctx, http.MethodGet, "/mechanic/payments", "list_transactions", nil, &wrap, false); err != nil {
		return nil, err
	}
	return wrap.Transactions, nil
}

// ListInvoices fetches the workshop's invoices.
func (c *Client) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	var wrap struct {
		Invoices []models.Invoice `json:"invoices"`
	}
	if err := c.call(ctx, http.MethodGet, "/mechanic/invoices", "list_invoices", nil, &wrap, false); err != nil {
		return nil, err
	}
	return wrap.Invoices, nil
}

// ListReviews fetches customer feedback.
func (c *Client) ListReviews(ctx context.Context) ([]models.Review, error) {
	var wrap struct {
		Reviews []models.Review `json:"reviews"`
	}
	if err := c.call(ctx, http.MethodGet, "/mechanic/reviews", "list_reviews", nil, &wrap, false); err != nil {
		return nil, err
	}
	return wrap.Reviews, nil
}

// RespondToReview posts the workshop's reply to a review.
func (c *Client) RespondToReview(ctx context.Context, reviewID int64, comment string) error {
	endpoint := fmt.Sprintf("/mechanic/reviews/%d/response", reviewID)
	body := map[string]string{"comment": comment}
	return c.call(ctx, http.MethodPost, endpoint, "respond_review", body, nil, true)
}

// GetWeekHours fetches the weekly schedule.
func (c *Client) GetWeekHours(ctx context.Context) (models.WeekHours, error) {
	var wrap struct {
		Hours models.WeekHours `json:"hours"`
	}
	if err := c.call(ctx, http.MethodGet, "/mechanic/hours", "get_hours", nil, &wrap, false); err != nil {
		return nil, err
	}
	return wrap.Hours, nil
}

// SaveWeekHours replaces the weekly schedule.
func (c *Client) SaveWeekHours(ctx context.Context, week models.WeekHours) error {
	body := map[string]any{"hours": week}
	return c.call(ctx, http.MethodPut, "/mechanic/hours", "save_hours", body, nil, true)
}

// call executes one API request. write marks mutations for error
// classification and metrics.
func (c *Client) call(ctx context.Context, method, endpoint, op string, body, out any, write bool) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	if op != "login" {
		token, err := c.session.Token(ctx)
		if err != nil {
			return fmt.Errorf("read session token: %w", err)
		}
		if token == "" {
			return fmt.Errorf("%w: no stored token", ErrAuthExpired)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncAPIRequest(op, "error")
		c.logger.Warn().Err(err).Str("op", op).Msg("api call failed")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		metrics.IncAPIRequest(op, fmt.Sprintf("http_%d", resp.StatusCode))
		classified := classify(resp.StatusCode, endpoint, write)
		if errors.Is(classified, ErrAuthExpired) {
			if expireErr := c.session.Expire(ctx); expireErr != nil {
				c.logger.Error().Err(expireErr).Msg("expire session after 401")
			}
		}
		c.logger.Warn().Int("status", resp.StatusCode).Str("op", op).Msg("api call rejected")
		return classified
	}

	metrics.IncAPIRequest(op, "ok")
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrUnavailable, op, err)
	}
	return nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) dropCache(ctx context.Context, key string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, key).Err()
}
