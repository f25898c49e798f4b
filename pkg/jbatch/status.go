package jbatch

import "fmt"

// StatusInfo is the human-readable projection of State, the same shape as
// the teacher's BatchStatusInfo (pkg/batch/status.go).
type StatusInfo struct {
	Status         Status
	PendingOps     int
	SentOps        int
	FailedAttempts uint64
	Message        string
}

// GetStatusInfo mirrors the teacher's GetStatusMessage helper.
func (s *State) GetStatusInfo() StatusInfo {
	info := StatusInfo{
		Status:         s.Status,
		PendingOps:     opsCount(s.Current),
		FailedAttempts: s.FailedAttempts,
	}
	if s.Sent != nil {
		info.SentOps = opsCount(*s.Sent)
	}
	switch s.Status {
	case StatusEmpty:
		info.Message = "no pending operations"
	case StatusAccumulating:
		info.Message = fmt.Sprintf("accumulating %d operation(s)", info.PendingOps)
	case StatusSent:
		info.Message = fmt.Sprintf("%d operation(s) sent, awaiting on-chain confirmation", info.SentOps)
	case StatusFailed:
		info.Message = fmt.Sprintf("last broadcast failed (%d attempt(s)); %d operation(s) pending retry", info.FailedAttempts, info.PendingOps)
	}
	return info
}
