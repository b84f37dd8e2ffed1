package models

import "time"

type SyncStatus struct {
	IsConnected  bool       `json:"isConnected"`
	IsSyncing    bool       `json:"isSyncing"`
	LastSyncTime *time.Time `json:"lastSyncTime"`
}
