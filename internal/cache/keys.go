package cache

type Kind string

const (
	KindJobs        Kind = "jobs"
	KindJob         Kind = "job"
	KindCandidates  Kind = "candidates"
	KindStats       Kind = "stats"
	KindVoiceGlobal Kind = "voice-global"
	KindVoiceJob    Kind = "voice-job"
)

// Key identifies one cached query. An empty Param in an invalidation
// matches every entry of the Kind.
type Key struct {
	Kind  Kind
	Param string
}

func (k Key) String() string {
	if k.Param == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + "/" + k.Param
}

// Matches reports whether k and other refer to overlapping entries.
func (k Key) Matches(other Key) bool {
	if k.Kind != other.Kind {
		return false
	}
	return k.Param == "" || other.Param == "" || k.Param == other.Param
}

func JobsKey() Key                   { return Key{Kind: KindJobs} }
func JobKey(id string) Key           { return Key{Kind: KindJob, Param: id} }
func CandidatesKey(jobID string) Key { return Key{Kind: KindCandidates, Param: jobID} }
func StatsKey() Key                  { return Key{Kind: KindStats} }
func VoiceGlobalKey() Key            { return Key{Kind: KindVoiceGlobal} }
func VoiceJobKey(jobID string) Key   { return Key{Kind: KindVoiceJob, Param: jobID} }
