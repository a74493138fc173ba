package metric

import (
	"evdesk/src-server/utils"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func databaseEmptyRead(as *utils.AppState, tickerInterval *time.Duration) {
	databaseEmptyRead := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evdesk_database_empty_read_microsec",
		Help: "The latency of an empty database read in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseEmptyRead); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register evdesk_database_empty_read_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("evdesk_database_empty_read_microsec metric registered")
		databaseEmptyRead.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(*tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseEmptyRead) {
				case true:
					slog.Debug("evdesk_database_empty_read_microsec metric unregistered")
				case false:
					slog.Warn("evdesk_database_empty_read_microsec metric not registered")
				}
				return
			case <-ticker.C:
				latency, err := database(as)
				if err != nil {
					slog.Error("can't get database latency", "error", err)
					continue
				}
				databaseEmptyRead.Set(float64(latency.Microseconds()))
			}
		}
	}()
}

func databaseRead(as *utils.AppState, clearTickerInterval *time.Duration) {
	databaseRead := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evdesk_database_read_microsec",
		Help: "The latency of a database read in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseRead); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register evdesk_database_read_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("evdesk_database_read_microsec metric registered")
		databaseRead.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseRead) {
				case true:
					slog.Debug("evdesk_database_read_microsec metric unregistered")
				case false:
					slog.Warn("evdesk_database_read_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.DatabaseRead:
				databaseRead.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				databaseRead.Set(0)
			}
		}
	}()
}

func databaseWrite(as *utils.AppState, clearTickerInterval *time.Duration) {
	databaseWrite := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evdesk_database_write_microsec",
		Help: "The latency of a database write in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseWrite); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register evdesk_database_write_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("evdesk_database_write_microsec metric registered")
		databaseWrite.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseWrite) {
				case true:
					slog.Debug("evdesk_database_write_microsec metric unregistered")
				case false:
					slog.Warn("evdesk_database_write_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.DatabaseWrite:
				databaseWrite.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				databaseWrite.Set(0)
			}
		}
	}()
}

func storageFlush(as *utils.AppState, clearTickerInterval *time.Duration) {
	storageFlush := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evdesk_storage_flush_microsec",
		Help: "The latency of a full CSV table flush in microseconds",
	})
	good := true
	if err := prometheus.Register(storageFlush); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register evdesk_storage_flush_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("evdesk_storage_flush_microsec metric registered")
		storageFlush.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(storageFlush) {
				case true:
					slog.Debug("evdesk_storage_flush_microsec metric unregistered")
				case false:
					slog.Warn("evdesk_storage_flush_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.StorageFlush:
				storageFlush.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				storageFlush.Set(0)
			}
		}
	}()
}

func attendeeCounts(as *utils.AppState, tickerInterval *time.Duration) {
	headcountGauge := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evdesk_headcount",
		Help: "The number of registered attendees",
	})
	checkedInGauge := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evdesk_checked_in",
		Help: "The number of checked-in attendees",
	})
	for _, gauge := range []prometheus.Gauge{headcountGauge, checkedInGauge} {
		if err := prometheus.Register(gauge); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				slog.Error("can't register attendee count metric", "error", err)
				return
			}
		}
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(*tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				prometheus.Unregister(headcountGauge)
				prometheus.Unregister(checkedInGauge)
				slog.Debug("attendee count metrics unregistered")
				return
			case <-ticker.C:
				headcount, checkedIn, err := headcounts(as)
				if err != nil {
					slog.Error("can't get attendee counts", "error", err)
					continue
				}
				headcountGauge.Set(float64(headcount))
				checkedInGauge.Set(float64(checkedIn))
			}
		}
	}()
}

func Init(as *utils.AppState) {
	tickerInterval := as.Config.GetMetricCollectionInterval()
	clearTickerInterval := as.Config.GetMetricCollectionInterval() * 2

	databaseEmptyRead(as, &tickerInterval)
	databaseRead(as, &clearTickerInterval)
	databaseWrite(as, &clearTickerInterval)
	storageFlush(as, &clearTickerInterval)
	attendeeCounts(as, &tickerInterval)
}
