package clients

import "time"

const (
	USER_AGENT = "tweetflow-client/1.0 (+https://github.com/spacesedan/tweetflow)"

	// Twitter app-only search quota is 450 requests per 15 minutes.
	DEFAULT_REQUESTS_PER_SECOND = 0.5
	DEFAULT_PAGE_SIZE           = 100
	MAX_PAGE_SIZE               = 100

	SEARCH_REQUEST_TIMEOUT = 30 * time.Second
	MAX_ERROR_BODY_BYTES   = 4 << 10
)
