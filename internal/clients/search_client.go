package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spacesedan/tweetflow/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

type SearchClientOptions struct {
	BaseURL        string
	TokenURL       string
	ConsumerKey    string
	ConsumerSecret string
	// BearerToken skips the client-credentials exchange when set.
	BearerToken       string
	RequestsPerSecond float64
	// HTTPClient is the transport used for both the token exchange and the
	// search requests. Defaults to a client with SEARCH_REQUEST_TIMEOUT.
	HTTPClient *http.Client
}

// SearchClient issues single page requests against the search API. It does
// not retry; every failure comes back as an *APIError (or ctx.Err()).
type SearchClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewSearchClient(ctx context.Context, opts SearchClientOptions) *SearchClient {
	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: SEARCH_REQUEST_TIMEOUT}
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	var client *http.Client
	if opts.BearerToken != "" {
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: opts.BearerToken,
			TokenType:   "Bearer",
		}))
	} else {
		oauthConf := &clientcredentials.Config{
			ClientID:     opts.ConsumerKey,
			ClientSecret: opts.ConsumerSecret,
			TokenURL:     opts.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		client = oauthConf.Client(ctx)
	}
	client.Timeout = base.Timeout

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &SearchClient{
		baseURL: opts.BaseURL,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Search fetches one page of results for req.
func (sc *SearchClient) Search(ctx context.Context, req models.SearchRequest) (*models.SearchPage, error) {
	reqURL, err := sc.buildURL(req)
	if err != nil {
		return nil, err
	}

	if err := sc.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("[SearchClient] Failed to build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", USER_AGENT)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := sc.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiErrorFromResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &APIError{Kind: KindTransport, Err: err}
	}

	var decoded models.SearchAPIResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &APIError{Kind: KindUnexpected, StatusCode: resp.StatusCode, Message: "undecodable response body", Err: err}
	}

	slog.Debug("[SearchClient] Fetched page",
		slog.String("query", req.Query),
		slog.Int("statuses", len(decoded.Statuses)),
		slog.String("next_results", decoded.Metadata.NextResults))

	return &models.SearchPage{
		Statuses:   decoded.Statuses,
		NextCursor: ParseNextCursor(decoded.Metadata.NextResults),
	}, nil
}

func (sc *SearchClient) buildURL(req models.SearchRequest) (string, error) {
	parsedUrl, err := url.Parse(sc.baseURL)
	if err != nil {
		return "", fmt.Errorf("[SearchClient] Failed to parse URL: %w", err)
	}

	count := req.Count
	if count <= 0 {
		count = DEFAULT_PAGE_SIZE
	}
	if count > MAX_PAGE_SIZE {
		count = MAX_PAGE_SIZE
	}

	queryParams := parsedUrl.Query()
	queryParams.Set("q", req.Query)
	queryParams.Set("count", strconv.Itoa(count))
	queryParams.Set("include_entities", "true")
	if req.Cursor != "" {
		queryParams.Set("max_id", req.Cursor)
	}
	parsedUrl.RawQuery = queryParams.Encode()

	return parsedUrl.String(), nil
}

// ParseNextCursor extracts max_id from the next_results query string
// ("?max_id=123&q=..."). It returns "" when there is no next page.
func ParseNextCursor(nextResults string) string {
	nextResults = strings.TrimPrefix(strings.TrimSpace(nextResults), "?")
	if nextResults == "" {
		return ""
	}
	values, err := url.ParseQuery(nextResults)
	if err != nil {
		return ""
	}
	return values.Get("max_id")
}

func apiErrorFromResponse(resp *http.Response) *APIError {
	apiErr := &APIError{
		Kind:       ClassifyStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MAX_ERROR_BODY_BYTES))
	if err != nil {
		return apiErr
	}

	var detail models.SearchAPIError
	if err := json.Unmarshal(body, &detail); err == nil && len(detail.Errors) > 0 {
		apiErr.Message = detail.Errors[0].Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// classifyTransportError separates token exchange rejections, which carry
// an HTTP status, from plain network failures.
func classifyTransportError(err error) *APIError {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		return &APIError{
			Kind:       ClassifyStatus(retrieveErr.Response.StatusCode),
			StatusCode: retrieveErr.Response.StatusCode,
			Message:    "token exchange failed",
			Err:        err,
		}
	}
	return &APIError{Kind: KindTransport, Err: err}
}
