package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"recruit-console/internal/cache"
	"recruit-console/internal/model"
)

func (m dashModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		m.mode = dashModeBrowse
		return m, nil
	}
	key := strings.ToLower(msg.String())
	if key == "esc" {
		if m.screen == dashScreenLogin {
			return m, tea.Quit
		}
		m.mode = dashModeBrowse
		m.form = nil
		m.statusMessage = "cancelled"
		return m, nil
	}
	if m.form.Saving {
		return m, nil
	}

	switch key {
	case "up", "shift+tab":
		m.form.commitInput()
		if m.form.Index > 0 {
			m.form.Index--
		}
		m.form.loadFieldIntoInput()
		return m, nil
	case "down", "tab":
		m.form.commitInput()
		if m.form.Index < len(m.form.Fields)-1 {
			m.form.Index++
		}
		m.form.loadFieldIntoInput()
		return m, nil
	case "enter", "ctrl+s":
		m.form.commitInput()
		if m.form.Index < len(m.form.Fields)-1 && key != "ctrl+s" {
			m.form.Index++
			m.form.loadFieldIntoInput()
			return m, nil
		}
		return m.submitForm()
	}

	var cmd tea.Cmd
	m.form.Input, cmd = m.form.Input.Update(msg)
	m.form.Fields[m.form.Index].Value = m.form.Input.Value()
	return m, cmd
}

func (m dashModel) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	switch f.Kind {
	case dashFormLogin:
		creds, err := f.toCredentials()
		if err != nil {
			f.Error = err.Error()
			return m, nil
		}
		f.Error = ""
		f.Saving = true
		return m, m.loginCmd(creds)
	case dashFormJobCreate, dashFormJobEdit:
		draft, err := f.toJobDraft()
		if err != nil {
			f.Error = err.Error()
			return m, nil
		}
		f.Error = ""
		f.Saving = true
		if f.Kind == dashFormJobEdit {
			return m, m.updateJobCmd(f.JobID, draft)
		}
		return m, m.createJobCmd(draft)
	case dashFormUpload:
		paths, err := f.toPaths()
		if err != nil {
			f.Error = err.Error()
			return m, nil
		}
		if m.uploadInFlight() {
			f.Error = "an upload batch is already in flight"
			return m, nil
		}
		jobID := f.JobID
		m.mode = dashModeBrowse
		m.form = nil
		m.uploading = true
		m.statusMessage = fmt.Sprintf("uploading %d file(s)...", len(paths))
		return m, m.startUploadCmd(jobID, paths)
	}
	return m, nil
}

func (m dashModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm == nil {
		m.mode = dashModeBrowse
		return m, nil
	}
	switch msg.String() {
	case "esc", "n":
		m.mode = dashModeBrowse
		m.confirm = nil
		m.statusMessage = "cancelled"
		return m, nil
	case "y", "enter":
		action := m.confirm.Action
		m.mode = dashModeBrowse
		m.confirm = nil
		m.statusMessage = "working..."
		return m, action
	}
	return m, nil
}

func (m dashModel) askConfirm(title, body string, action tea.Cmd) dashModel {
	m.mode = dashModeConfirm
	m.confirm = &dashConfirm{Title: title, Body: body, Action: action}
	return m
}

func (m dashModel) openForm(f *dashForm) dashModel {
	m.mode = dashModeForm
	m.form = f
	m.statusMessage = ""
	return m
}

func (m dashModel) uploadInFlight() bool {
	return m.uploading || (m.batch != nil && m.batch.InFlight)
}

func (m dashModel) selectedJob() (model.Job, bool) {
	if m.cursor < 0 || m.cursor >= len(m.jobs) {
		return model.Job{}, false
	}
	return m.jobs[m.cursor], true
}

func (m dashModel) selectedCandidate() (model.Candidate, bool) {
	if m.candCursor < 0 || m.candCursor >= len(m.cands) {
		return model.Candidate{}, false
	}
	return m.cands[m.candCursor], true
}

// updateJobs handles the job list. The row after the last job is the
// "new job" entry.
func (m dashModel) updateJobs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.jobs) {
			m.cursor++
		}
		return m, nil
	case "enter":
		job, ok := m.selectedJob()
		if !ok {
			return m.openForm(newJobForm(nil, m.width)), nil
		}
		return m.openJob(job)
	case "n":
		return m.openForm(newJobForm(nil, m.width)), nil
	case "e":
		job, ok := m.selectedJob()
		if !ok {
			m.statusMessage = "select a job to edit"
			return m, nil
		}
		return m.openForm(newJobForm(&job, m.width)), nil
	case "d":
		job, ok := m.selectedJob()
		if !ok {
			m.statusMessage = "select a job to delete"
			return m, nil
		}
		return m.askConfirm(
			"Delete job '"+model.Truncate(job.Title, 40)+"'?",
			"Candidates and resumes for this job are removed on the server.",
			m.deleteJobCmd(job),
		), nil
	case "s":
		job, ok := m.selectedJob()
		if !ok {
			m.statusMessage = "select a job to sync"
			return m, nil
		}
		m.statusMessage = "syncing " + model.Truncate(job.Title, 40) + "..."
		return m, m.syncJobCmd(job)
	case "S":
		if len(m.jobs) == 0 {
			m.statusMessage = "no jobs to sync"
			return m, nil
		}
		m.statusMessage = fmt.Sprintf("syncing %d jobs...", len(m.jobs))
		return m, m.syncAllCmd()
	case "t":
		m.screen = dashScreenStats
		m.loading = true
		return m, m.loadStatsCmd()
	case "r":
		m.loading = true
		m.app.cache.Invalidate(cache.JobsKey())
		return m, m.loadJobsCmd()
	case "L":
		return m, m.logoutCmd()
	}
	return m, nil
}

func (m dashModel) openJob(job model.Job) (tea.Model, tea.Cmd) {
	m.screen = dashScreenJob
	m.job = job
	m.cands = nil
	m.candCursor = 0
	m.loading = true
	m.statusMessage = ""
	return m, m.loadJobCmd(job.ID)
}

func (m dashModel) updateJob(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace", "left":
		m.screen = dashScreenJobs
		m.statusMessage = ""
		return m, m.loadJobsCmd()
	case "up", "k":
		if m.candCursor > 0 {
			m.candCursor--
		}
		return m, nil
	case "down", "j":
		if m.candCursor < len(m.cands)-1 {
			m.candCursor++
		}
		return m, nil
	case "u":
		if m.uploadInFlight() {
			m.statusMessage = "error: an upload batch is already in flight"
			return m, nil
		}
		return m.openForm(newUploadForm(m.job.ID, m.orch.Allow(), m.width)), nil
	case "e":
		job := m.job
		return m.openForm(newJobForm(&job, m.width)), nil
	case "D":
		return m.askConfirm(
			"Delete job '"+model.Truncate(m.job.Title, 40)+"'?",
			"Candidates and resumes for this job are removed on the server.",
			m.deleteJobCmd(m.job),
		), nil
	case "s":
		m.statusMessage = "syncing..."
		return m, m.syncJobCmd(m.job)
	case "x":
		m.statusMessage = "exporting..."
		return m, m.exportCmd(m.job, m.cands)
	case "r":
		m.loading = true
		m.app.cache.Invalidate(cache.JobKey(m.job.ID), cache.CandidatesKey(m.job.ID))
		return m, m.loadJobCmd(m.job.ID)
	case "d":
		c, ok := m.selectedCandidate()
		if !ok {
			m.statusMessage = "select a candidate to delete"
			return m, nil
		}
		return m.askConfirm(
			"Delete candidate '"+model.Truncate(c.Name, 40)+"'?",
			"The candidate and their resume are removed on the server.",
			m.deleteCandidateCmd(m.job.ID, c),
		), nil
	case "v":
		c, ok := m.selectedCandidate()
		if !ok {
			m.statusMessage = "select a candidate to screen"
			return m, nil
		}
		if reason := model.ScreenBlocker(c); reason != "" {
			m.statusMessage = fmt.Sprintf("error: cannot screen %s: %s", c.Name, reason)
			return m, nil
		}
		return m.askConfirm(
			"Start a voice screening call?",
			fmt.Sprintf("%s will be called at %s.", c.Name, c.Phone),
			m.voiceScreenCmd(m.job.ID, c),
		), nil
	case "o":
		c, ok := m.selectedCandidate()
		if !ok {
			m.statusMessage = "select a candidate"
			return m, nil
		}
		m.statusMessage = "downloading resume..."
		return m, m.downloadCmd(m.job.ID, c)
	}
	return m, nil
}

func (m dashModel) updateStats(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace", "left":
		m.screen = dashScreenJobs
		return m, m.loadJobsCmd()
	case "r":
		m.loading = true
		m.app.cache.Invalidate(cache.StatsKey())
		return m, m.loadStatsCmd()
	}
	return m, nil
}
