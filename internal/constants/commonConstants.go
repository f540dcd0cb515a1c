package constants

type (
	ShowWindow  string
	CachePrefix string
)

const (
	ShowWindowAll      ShowWindow = ""
	ShowWindowUpcoming ShowWindow = "upcoming"
	ShowWindowPast     ShowWindow = "past"

	CachePrefixIdempotency CachePrefix = "IDEMPOTENCY_"
)
