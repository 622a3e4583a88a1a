package httpapi

import (
	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/events"
	"leadhunt-engine/internal/inbox"
	"leadhunt-engine/internal/intake"
	"leadhunt-engine/internal/metrics"
	"leadhunt-engine/internal/store"
)

type Deps struct {
	Store store.Store

	// Pipeline is swapped when the locale changes.
	Pipeline    *intake.Current
	PipelineCfg config.PipelineConfig
	LocalePath  string

	Hub     *events.Hub
	Metrics *metrics.Metrics

	Inbox    *inbox.Runner
	InboxCfg config.InboxConfig
}
