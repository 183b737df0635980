package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vyrodovalexey/gildedrose/internal/model"
)

// Prometheus metrics.
var (
	inventoryItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gildedrose_items",
			Help: "Number of items in inventory by category",
		},
		[]string{"category"},
	)

	inventoryQuality = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gildedrose_item_quality_sum",
			Help: "Sum of item quality by category",
		},
		[]string{"category"},
	)

	inventoryDay = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gildedrose_day",
			Help: "Days elapsed since the inventory was loaded",
		},
	)

	daysAdvancedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gildedrose_days_advanced_total",
			Help: "Total number of days the inventory has been advanced",
		},
	)

	advanceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gildedrose_advance_duration_seconds",
			Help:    "Time spent advancing the inventory",
			Buckets: prometheus.DefBuckets,
		},
	)
)

var categories = []model.Category{
	model.CategoryNormal,
	model.CategoryAgedBrie,
	model.CategoryLegendary,
	model.CategoryBackstagePass,
}

// observeInventory publishes per-category gauges for items.
func observeInventory(items []*model.Item, day int) {
	counts := make(map[model.Category]int, len(categories))
	quality := make(map[model.Category]int, len(categories))
	for _, item := range items {
		counts[item.Category]++
		quality[item.Category] += item.Quality
	}

	for _, c := range categories {
		inventoryItems.WithLabelValues(c.String()).Set(float64(counts[c]))
		inventoryQuality.WithLabelValues(c.String()).Set(float64(quality[c]))
	}
	inventoryDay.Set(float64(day))
}
