package workspace

import (
	"time"

	"github.com/google/uuid"
)

type Workspace struct {
	ID                uuid.UUID `json:"id"`
	OwnerID           uuid.UUID `json:"owner_id"`
	StorageUsedBytes  int64     `json:"storage_used_bytes"`
	StorageLimitBytes int64     `json:"storage_limit_bytes"`
	CreatedAt         time.Time `json:"created_at"`
}

// Usage is the quota view returned to callers. Warning flags are advisory
// only, the hard limit is enforced at write time.
type Usage struct {
	UsedBytes    int64   `json:"used_bytes"`
	LimitBytes   int64   `json:"limit_bytes"`
	UsagePercent float64 `json:"usage_percent"`
	Warning80    bool    `json:"warning_80"`
	Warning90    bool    `json:"warning_90"`
}

func NewUsage(used, limit int64) Usage {
	u := Usage{UsedBytes: used, LimitBytes: limit}
	if limit > 0 {
		u.UsagePercent = float64(used) / float64(limit) * 100
	}
	u.Warning80 = u.UsagePercent >= 80
	u.Warning90 = u.UsagePercent >= 90
	return u
}
