package worker

// TaskPayload is the body of an ingest.task message: a request to rebuild a
// document's chunks from its stored file.
type TaskPayload struct {
	DocumentID    string `json:"document_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
