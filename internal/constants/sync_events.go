package constants

// Sync event types for show_sync_history table
const (
	SyncEventShowsAT = "SHOWS_AT_SYNC"
)
