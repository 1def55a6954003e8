// Package dashboard derives the overview figures from fetched properties and tenants.
package dashboard

import (
	"github.com/Strob0t/rentalmanager/internal/domain/property"
	"github.com/Strob0t/rentalmanager/internal/domain/tenant"
)

// RecentLimit is how many properties the overview lists.
const RecentLimit = 4

// Summary holds the aggregates shown on the dashboard. Nothing here is persisted.
type Summary struct {
	TotalProperties  int                 `json:"total_properties"`
	TotalRent        float64             `json:"total_rent"`
	Occupied         int                 `json:"occupied"`
	OccupancyRate    float64             `json:"occupancy_rate"` // percent, 0 when there are no properties
	Available        int                 `json:"available"`
	MaintenanceCount int                 `json:"maintenance_count"`
	UrgentCount      int                 `json:"urgent_count"`
	TenantCount      int                 `json:"tenant_count"`
	Recent           []property.Property `json:"recent_properties"`
}

// Compute aggregates props (with their maintenance requests) and tenants.
// props is expected in display order; Recent keeps its first RecentLimit entries.
func Compute(props []property.Property, tenants []tenant.Tenant) Summary {
	s := Summary{
		TotalProperties: len(props),
		TenantCount:     len(tenants),
	}
	for i := range props {
		p := &props[i]
		s.TotalRent += p.Rent
		switch p.Status {
		case property.StatusRented:
			s.Occupied++
		case property.StatusAvailable:
			s.Available++
		}
		s.MaintenanceCount += len(p.MaintenanceRequests)
		for j := range p.MaintenanceRequests {
			if p.MaintenanceRequests[j].Urgent() {
				s.UrgentCount++
			}
		}
	}
	if s.TotalProperties > 0 {
		s.OccupancyRate = float64(s.Occupied) / float64(s.TotalProperties) * 100
	}
	n := min(RecentLimit, len(props))
	s.Recent = append([]property.Property{}, props[:n]...)
	return s
}
