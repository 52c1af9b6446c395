package consts

const (
	PendingSubmissionKey = "bot:pending:"
)

const (
	LinkCleanupLock = "lock:link:cleanup"
)
