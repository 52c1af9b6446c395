package dto

// CleanupScheduleReq 修改清理计划
type CleanupScheduleReq struct {
	RunsPerDay    int `json:"runs_per_day" binding:"required,min=1,max=24"`
	RetentionDays int `json:"retention_days" binding:"required,min=1"`
}

// CleanupReportDTO 一次清理的结果
type CleanupReportDTO struct {
	At       string `json:"at"`
	Scanned  int    `json:"scanned"`
	Removed  int    `json:"removed"`
	Exempted int    `json:"exempted"`
	Failed   int    `json:"failed"`
}

// CleanupStatusDTO 调度器状态
type CleanupStatusDTO struct {
	Running       bool              `json:"running"`
	RunsPerDay    int               `json:"runs_per_day"`
	RetentionDays int               `json:"retention_days"`
	NextRunTimes  []string          `json:"next_run_times"`
	LastRun       *CleanupReportDTO `json:"last_run,omitempty"`
}
