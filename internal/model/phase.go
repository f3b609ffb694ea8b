package model

import "fmt"

const (
	PhaseQueued     = "queued"
	PhaseUploading  = "uploading"
	PhaseAnalyzing  = "analyzing"
	PhaseExtracting = "extracting"
	PhaseScoring    = "scoring"
	PhaseDone       = "done"
	PhaseFailed     = "failed"
)

var allowedTransitions = map[string]map[string]bool{
	PhaseQueued: {
		PhaseUploading: true,
		PhaseFailed:    true, // cancelled before start
	},
	PhaseUploading: {
		PhaseUploading: true,
		PhaseAnalyzing: true,
		PhaseFailed:    true,
	},
	PhaseAnalyzing: {
		PhaseExtracting: true,
	},
	PhaseExtracting: {
		PhaseScoring: true,
	},
	PhaseScoring: {
		PhaseDone: true,
	},
	PhaseDone:   {},
	PhaseFailed: {},
}

// Floor progress for each post-transfer phase. The network transfer itself
// is scaled into [0, TransferCeiling].
const TransferCeiling = 30

var phaseProgress = map[string]int{
	PhaseQueued:     0,
	PhaseUploading:  0,
	PhaseAnalyzing:  50,
	PhaseExtracting: 70,
	PhaseScoring:    90,
	PhaseDone:       100,
}

// UploadTask is the client-local record of one file in an upload batch.
type UploadTask struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	Progress    int    `json:"progress"`
	Phase       string `json:"phase"`
	Error       string `json:"error,omitempty"`
	CandidateID string `json:"candidate_id,omitempty"`
}

func IsKnownPhase(phase string) bool {
	_, ok := allowedTransitions[phase]
	return ok
}

func IsTerminalPhase(phase string) bool {
	return phase == PhaseDone || phase == PhaseFailed
}

func CanTransition(from, to string) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// TransitionTask moves a task to the next phase and raises its progress to
// the phase floor. Progress never decreases.
func TransitionTask(task *UploadTask, toPhase string, errMsg string) error {
	from := task.Phase
	if !CanTransition(from, toPhase) {
		return fmt.Errorf("invalid upload phase transition: %q -> %q (index=%d file=%s)", from, toPhase, task.Index, task.Name)
	}
	task.Phase = toPhase
	task.Error = errMsg
	if floor, ok := phaseProgress[toPhase]; ok && floor > task.Progress {
		task.Progress = floor
	}
	return nil
}

// SetTransferProgress maps loaded/total bytes into the transfer band of the
// progress bar. It only ever raises the value.
func SetTransferProgress(task *UploadTask, loaded, total int64) {
	if task.Phase != PhaseUploading || total <= 0 {
		return
	}
	if loaded > total {
		loaded = total
	}
	pct := int(loaded * TransferCeiling / total)
	if pct > task.Progress {
		task.Progress = pct
	}
}
