// Package statistics keeps cheap scan counters in the cache so dashboards do
// not hammer the scans table. Counters are advisory; the scans table remains
// the source of truth.
package statistics

import (
	"fmt"
	"log"
	"time"

	"github.com/parkping/ParkPing/internal/pkg/cache"
)

const (
	CacheKeyScansTotal   = "statistics:scans:total"
	CacheKeyScansDaily   = "statistics:scans:daily:%s"   // Format with date YYYY-MM-DD
	CacheKeyVehicleScans = "statistics:scans:vehicle:%d" // Format with vehicle ID
	dailyExpiration      = 48 * time.Hour
)

// RecordScan bumps the scan counters. Failures are logged and swallowed;
// recording a scan must never fail the public request.
func RecordScan(vehicleID uint) {
	if _, err := cache.Increment(CacheKeyScansTotal); err != nil {
		log.Printf("statistics: failed to increment total scans: %v", err)
		return
	}

	dailyKey := fmt.Sprintf(CacheKeyScansDaily, time.Now().Format("2006-01-02"))
	if _, err := cache.Increment(dailyKey); err != nil {
		log.Printf("statistics: failed to increment daily scans: %v", err)
	}
	_ = cache.Expire(dailyKey, dailyExpiration)

	if _, err := cache.Increment(fmt.Sprintf(CacheKeyVehicleScans, vehicleID)); err != nil {
		log.Printf("statistics: failed to increment vehicle scans: %v", err)
	}
}

// TotalScans returns the cached global scan count.
func TotalScans() int {
	count, err := cache.GetInt(CacheKeyScansTotal)
	if err != nil {
		return 0
	}
	return count
}

// TodayScans returns the cached scan count for the current day.
func TodayScans() int {
	count, err := cache.GetInt(fmt.Sprintf(CacheKeyScansDaily, time.Now().Format("2006-01-02")))
	if err != nil {
		return 0
	}
	return count
}

// VehicleScans returns the cached scan count for one vehicle.
func VehicleScans(vehicleID uint) int {
	count, err := cache.GetInt(fmt.Sprintf(CacheKeyVehicleScans, vehicleID))
	if err != nil {
		return 0
	}
	return count
}
