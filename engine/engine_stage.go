package engine

// Stage is one step of the per-frame state machine, in the order RenderFrame runs them.
type Stage int

const (
	StageBeginFrame Stage = iota
	StageTransitionToRenderTarget
	StageClearColorAndDepth
	StageRecordDrawables
	StageRecordOverlay
	StageTransitionToPresent
	StageClose
	StageSubmit
	StagePresent
	StageSynchronize
	StageResetRecorder
)

// FrameStages lists every stage in execution order.
var FrameStages = []Stage{
	StageBeginFrame,
	StageTransitionToRenderTarget,
	StageClearColorAndDepth,
	StageRecordDrawables,
	StageRecordOverlay,
	StageTransitionToPresent,
	StageClose,
	StageSubmit,
	StagePresent,
	StageSynchronize,
	StageResetRecorder,
}

func (s Stage) String() string {
	switch s {
	case StageBeginFrame:
		return "BeginFrame"
	case StageTransitionToRenderTarget:
		return "TransitionToRenderTarget"
	case StageClearColorAndDepth:
		return "ClearColorAndDepth"
	case StageRecordDrawables:
		return "RecordDrawables"
	case StageRecordOverlay:
		return "RecordOverlay"
	case StageTransitionToPresent:
		return "TransitionToPresent"
	case StageClose:
		return "Close"
	case StageSubmit:
		return "Submit"
	case StagePresent:
		return "Present"
	case StageSynchronize:
		return "Synchronize"
	case StageResetRecorder:
		return "ResetRecorder"
	default:
		return "Unknown"
	}
}

// StageObserver is called as each stage of a frame starts.
type StageObserver func(frame uint64, stage Stage)
