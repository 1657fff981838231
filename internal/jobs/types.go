package jobs

const (
	TaskDownload = "download:video"

	// Asynq queue the worker consumes download tasks from.
	QueueDownloads = "downloads"
)

// DownloadPayload carries one accepted request from the bot to the worker.
// Quality is resolved against the catalog on the worker side so the catalog
// stays authoritative at execution time.
type DownloadPayload struct {
	ChatID    int64  `json:"chat_id"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	URL       string `json:"url"`
	Platform  string `json:"platform"`
	Quality   string `json:"quality"`
}
