// Package prom содержит метрики Prometheus сервиса и помощники для их создания.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "daily_diet"

var (
	// HTTPRequestsTotal считает HTTP-запросы по маршруту, методу и коду ответа.
	HTTPRequestsTotal = Counter(
		"http_requests_total",
		"Total number of HTTP requests",
		"route", "method", "status",
	)

	// HTTPRequestDuration время обработки HTTP-запросов.
	HTTPRequestDuration = Histogram(
		"http_request_duration_seconds",
		"Latency of HTTP requests in seconds",
		prometheus.DefBuckets,
		"route", "method",
	)

	// MealsRecorded считает записанные приёмы пищи; in_diet = "true" | "false".
	MealsRecorded = Counter(
		"meals_recorded_total",
		"Total number of recorded meals",
		"in_diet",
	)

	// MealEventsPublished считает опубликованные события по типу и результату.
	MealEventsPublished = Counter(
		"meal_events_published_total",
		"Total number of published meal events",
		"type", "result",
	)
)

// Counter регистрирует CounterVec в стандартном реестре.
func Counter(name, help string, labelKeys ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labelKeys,
	)
}

// Histogram регистрирует HistogramVec в стандартном реестре.
func Histogram(name, help string, buckets []float64, labelKeys ...string) *prometheus.HistogramVec {
	return promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labelKeys,
	)
}
