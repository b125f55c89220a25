package controllers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	watchEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelfspace_watch_events_total",
		Help: "Watch events processed by the reconciler, by outcome.",
	}, []string{"outcome"})

	placementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelfspace_placements_total",
		Help: "Placement decisions made for calendar units, by decision.",
	}, []string{"decision"})

	ingestedEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelfspace_ingested_entries_total",
		Help: "Entries created by ingestion, by source.",
	}, []string{"source"})
)

const (
	outcomeCreated  = "created"
	outcomeFinished = "finished"
	outcomeNewUnit  = "new_unit"
	outcomeRewatch  = "rewatch"
	outcomeSkipped  = "skipped"
	outcomeFailed   = "failed"

	decisionPlaced = "placed"
	decisionMoved  = "moved"

	sourceWatchlist = "trakt_watchlist"
	sourceHLTB      = "hltb"
	sourceGoodreads = "goodreads"
)
