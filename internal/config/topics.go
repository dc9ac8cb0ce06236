package config

const (
	// TopicIngestTask is the NSQ topic for document (re)ingestion requests.
	TopicIngestTask = "ingest.task"

	// TopicIngestResult is the NSQ topic carrying per-document ingestion
	// tallies after the pipeline finishes.
	TopicIngestResult = "ingest.result"
)
