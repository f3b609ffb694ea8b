package model

// Job is a posting owned by the backend. Counters are maintained server-side
// and refreshed through the sync endpoint.
type Job struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Responsibilities string `json:"responsibilities"`
	Requirements     string `json:"requirements"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
	TotalCandidates  int    `json:"total_candidates"`
	ResumeScreened   int    `json:"resume_screened"`
	PhoneScreened    int    `json:"phone_screened"`
	CreatedByID      string `json:"created_by_id,omitempty"`
}

// JobDraft is the create/update payload for a job.
type JobDraft struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	Responsibilities string `json:"responsibilities"`
	Requirements     string `json:"requirements"`
}

type Candidate struct {
	ID                   string             `json:"id"`
	JobID                string             `json:"job_id"`
	Name                 string             `json:"name"`
	Email                string             `json:"email"`
	Phone                string             `json:"phone,omitempty"`
	Location             string             `json:"location,omitempty"`
	ResumeFileID         string             `json:"resume_file_id"`
	Skills               map[string]float64 `json:"skills"`
	ResumeScore          float64            `json:"resume_score"`
	ScreeningScore       *float64           `json:"screening_score,omitempty"`
	ScreeningSummary     string             `json:"screening_summary,omitempty"`
	ScreeningInProgress  bool               `json:"screening_in_progress,omitempty"`
	CallTranscript       string             `json:"call_transcript,omitempty"`
	NoticePeriod         string             `json:"notice_period,omitempty"`
	CurrentCompensation  string             `json:"current_compensation,omitempty"`
	ExpectedCompensation string             `json:"expected_compensation,omitempty"`
	CreatedByID          string             `json:"created_by_id,omitempty"`
	CreatedAt            string             `json:"created_at"`
	UpdatedAt            string             `json:"updated_at"`
}

// Screened reports whether a phone screening score exists.
func (c Candidate) Screened() bool {
	return c.ScreeningScore != nil
}

type JobStats struct {
	TotalJobs       int `json:"total_jobs"`
	TotalCandidates int `json:"total_candidates"`
	ResumeScreened  int `json:"resume_screened"`
	PhoneScreened   int `json:"phone_screened"`
}

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IsActive bool   `json:"is_active"`
}

type Credentials struct {
	Username string
	Password string
}

type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type ScreenResponse struct {
	Status string `json:"status"`
	CallID string `json:"call_id"`
}

type GlobalVoiceConfig struct {
	Model            string   `json:"model"`
	VoiceID          string   `json:"voice_id"`
	Temperature      float64  `json:"temperature"`
	BaseSystemPrompt string   `json:"base_system_prompt"`
	DefaultQuestions []string `json:"default_questions"`
	RecordingEnabled bool     `json:"recording_enabled"`
	CreatedAt        string   `json:"created_at,omitempty"`
	UpdatedAt        string   `json:"updated_at,omitempty"`
}

// JobVoiceConfig overrides the global voice configuration for one job when
// UseGlobalConfig is false.
type JobVoiceConfig struct {
	JobID              string   `json:"job_id"`
	UseGlobalConfig    bool     `json:"use_global_config"`
	CustomSystemPrompt string   `json:"custom_system_prompt,omitempty"`
	CustomQuestions    []string `json:"custom_questions,omitempty"`
	Model              string   `json:"model,omitempty"`
	VoiceID            string   `json:"voice_id,omitempty"`
	Temperature        *float64 `json:"temperature,omitempty"`
	RecordingEnabled   *bool    `json:"recording_enabled,omitempty"`
	CreatedAt          string   `json:"created_at,omitempty"`
	UpdatedAt          string   `json:"updated_at,omitempty"`
}

type VoiceModel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type VoiceInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Language    string `json:"language"`
	Gender      string `json:"gender,omitempty"`
	Description string `json:"description,omitempty"`
	PreviewURL  string `json:"preview_url,omitempty"`
}
