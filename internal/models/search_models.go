package models

// TWITTER_TIME_LAYOUT is the created_at layout used by the classic search API.
const TWITTER_TIME_LAYOUT = "Mon Jan 02 15:04:05 -0700 2006"

type SearchRequest struct {
	Query  string
	Count  int
	Cursor string
}

// SearchPage is one decoded page of results plus the cursor for the next
// page. An empty NextCursor means there are no further pages.
type SearchPage struct {
	Statuses   []Status
	NextCursor string
}

type SearchAPIResponse struct {
	Statuses []Status       `json:"statuses"`
	Metadata SearchMetadata `json:"search_metadata"`
}

type SearchMetadata struct {
	Count       int    `json:"count"`
	NextResults string `json:"next_results,omitempty"`
	MaxIDStr    string `json:"max_id_str,omitempty"`
	Query       string `json:"query,omitempty"`
}

type Status struct {
	IDStr     string     `json:"id_str"`
	Text      string     `json:"text"`
	FullText  string     `json:"full_text,omitempty"`
	CreatedAt string     `json:"created_at"`
	User      StatusUser `json:"user"`
}

type StatusUser struct {
	Name       string `json:"name"`
	ScreenName string `json:"screen_name"`
	Location   string `json:"location"`
}

type SearchAPIError struct {
	Errors []SearchAPIErrorDetail `json:"errors"`
}

type SearchAPIErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
