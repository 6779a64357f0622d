// internal/workers/catalog/refresh-provider-catalog/models.go
package refreshprovidercatalog

import "time"

type Input struct {
	Reason string `json:"reason,omitempty"`
}

type Output struct {
	Source      string         `json:"source"`
	Rows        int            `json:"rows"`
	Loaded      int            `json:"loaded"`
	Dropped     int            `json:"dropped"`
	DropReasons map[string]int `json:"dropReasons,omitempty"`
	RefreshedAt time.Time      `json:"refreshedAt"`
}
