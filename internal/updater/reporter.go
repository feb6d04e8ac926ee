package updater

// Phase identifies a step of a run for progress reporting.
type Phase string

const (
	PhaseLock     Phase = "lock"
	PhaseManifest Phase = "manifest"
	PhaseLocal    Phase = "local"
	PhaseDecide   Phase = "decide"
	PhaseDownload Phase = "download"
	PhaseVerify   Phase = "verify"
	PhasePrune    Phase = "prune"
	PhaseInstall  Phase = "install"
	PhaseRecord   Phase = "record"
	PhaseDone     Phase = "done"
)

// Phases lists every phase in pipeline order.
var Phases = []Phase{
	PhaseLock,
	PhaseManifest,
	PhaseLocal,
	PhaseDecide,
	PhaseDownload,
	PhaseVerify,
	PhasePrune,
	PhaseInstall,
	PhaseRecord,
	PhaseDone,
}

// Reporter receives user-facing status while a run progresses. Calls come
// from the goroutine running the Synchronizer.
type Reporter interface {
	Phase(phase Phase, message string)
	Progress(written, total int64)
}

type nopReporter struct{}

func (nopReporter) Phase(Phase, string)   {}
func (nopReporter) Progress(int64, int64) {}
