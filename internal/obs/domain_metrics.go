package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CatalogRefreshTotal counts catalog reloads by source and outcome.
	CatalogRefreshTotal *prometheus.CounterVec
	// CatalogProducts reports the size of the live catalog snapshot.
	CatalogProducts prometheus.Gauge
	// SheetsRowsSkipped counts spreadsheet rows rejected during parsing.
	SheetsRowsSkipped *prometheus.CounterVec
	// CartMutationsTotal counts cart mutations by operation.
	CartMutationsTotal *prometheus.CounterVec
	// CartSurchargedLines counts cart lines priced with the below-minimum surcharge.
	CartSurchargedLines prometheus.Counter
	// OrderExportsTotal counts order texts rendered for hand-off.
	OrderExportsTotal prometheus.Counter
	// ImageVariantsUploaded counts resized images written to storage.
	ImageVariantsUploaded *prometheus.CounterVec
	// TaskRunsTotal counts background task executions by type and result.
	TaskRunsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CatalogRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_refresh_total",
			Help:      "Count of catalog reloads by source and result.",
		}, []string{"source", "result"})
		CatalogProducts = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_products",
			Help:      "Number of products in the current catalog snapshot.",
		})
		SheetsRowsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheets_rows_skipped_total",
			Help:      "Spreadsheet rows skipped because they lack a name or SKU.",
		}, []string{"sheet"})
		CartMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of cart mutations by operation.",
		}, []string{"op"})
		CartSurchargedLines = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_surcharged_lines_total",
			Help:      "Cart lines priced below the pooled minimum.",
		})
		OrderExportsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_exports_total",
			Help:      "Order texts rendered for manual fulfilment.",
		})
		ImageVariantsUploaded = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_variants_uploaded_total",
			Help:      "Resized product images written to object storage.",
		}, []string{"size"})
		TaskRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_runs_total",
			Help:      "Background task executions by type and result.",
		}, []string{"type", "result"})

		mustRegisterCollector(reg, CatalogRefreshTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CatalogRefreshTotal = v
			}
		})
		mustRegisterCollector(reg, CatalogProducts, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Gauge); ok {
				CatalogProducts = v
			}
		})
		mustRegisterCollector(reg, SheetsRowsSkipped, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SheetsRowsSkipped = v
			}
		})
		mustRegisterCollector(reg, CartMutationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartMutationsTotal = v
			}
		})
		mustRegisterCollector(reg, CartSurchargedLines, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CartSurchargedLines = v
			}
		})
		mustRegisterCollector(reg, OrderExportsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrderExportsTotal = v
			}
		})
		mustRegisterCollector(reg, ImageVariantsUploaded, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ImageVariantsUploaded = v
			}
		})
		mustRegisterCollector(reg, TaskRunsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				TaskRunsTotal = v
			}
		})
	})
}

// The helpers below are safe to call before registration; tests and tools that
// never register domain metrics simply skip the observation.

// ObserveCatalogRefresh records a catalog reload.
func ObserveCatalogRefresh(source, result string, products int) {
	if CatalogRefreshTotal != nil {
		CatalogRefreshTotal.WithLabelValues(source, result).Inc()
	}
	if CatalogProducts != nil && result == "ok" {
		CatalogProducts.Set(float64(products))
	}
}

// ObserveSheetsRowSkipped records a rejected spreadsheet row.
func ObserveSheetsRowSkipped(sheet string) {
	if SheetsRowsSkipped != nil {
		SheetsRowsSkipped.WithLabelValues(sheet).Inc()
	}
}

// ObserveCartMutation records a cart mutation.
func ObserveCartMutation(op string) {
	if CartMutationsTotal != nil {
		CartMutationsTotal.WithLabelValues(op).Inc()
	}
}

// ObserveSurchargedLines adds surcharged lines seen while summarising a cart.
func ObserveSurchargedLines(n int) {
	if CartSurchargedLines != nil && n > 0 {
		CartSurchargedLines.Add(float64(n))
	}
}

// ObserveOrderExport records a rendered order.
func ObserveOrderExport() {
	if OrderExportsTotal != nil {
		OrderExportsTotal.Inc()
	}
}

// ObserveImageVariant records an uploaded image variant.
func ObserveImageVariant(size string) {
	if ImageVariantsUploaded != nil {
		ImageVariantsUploaded.WithLabelValues(size).Inc()
	}
}

// ObserveTask records a background task run.
func ObserveTask(taskType string, err error) {
	if TaskRunsTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	TaskRunsTotal.WithLabelValues(taskType, result).Inc()
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
