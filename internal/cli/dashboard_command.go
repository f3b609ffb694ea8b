package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"recruit-console/internal/api"
	"recruit-console/internal/cache"
	"recruit-console/internal/config"
	"recruit-console/internal/localstore"
	"recruit-console/internal/logger"
	"recruit-console/internal/model"
	"recruit-console/internal/upload"
)

type dashScreen int

const (
	dashScreenLogin dashScreen = iota
	dashScreenJobs
	dashScreenJob
	dashScreenStats
)

type dashMode int

const (
	dashModeBrowse dashMode = iota
	dashModeForm
	dashModeConfirm
)

type dashConfirm struct {
	Title  string
	Body   string
	Action tea.Cmd
}

type dashModel struct {
	ctx     context.Context
	app     *app
	orch    *upload.Orchestrator
	bridge  *dashBridge
	uploads *sync.WaitGroup

	screen  dashScreen
	mode    dashMode
	form    *dashForm
	confirm *dashConfirm

	width      int
	height     int
	cursor     int
	candCursor int
	loading    bool

	jobs  []model.Job
	stats model.JobStats
	job   model.Job
	cands []model.Candidate
	batch *upload.Batch

	// uploading is set when a batch is submitted and cleared when Run
	// returns, so the upload control is disabled before the first event.
	uploading bool

	bars progress.Model
	spin spinner.Model

	statusMessage string
	fatalErr      error
}

type dashJobsMsg struct {
	jobs []model.Job
	err  error
}

type dashStatsMsg struct {
	stats model.JobStats
	err   error
}

type dashJobMsg struct {
	job   model.Job
	cands []model.Candidate
	err   error
}

type dashLoginMsg struct {
	username string
	err      error
}

type dashActionMsg struct {
	message string
	err     error
	// back returns to the jobs screen on success.
	back bool
}

type dashCacheMsg struct {
	ev cache.Event
}

type dashUploadMsg struct {
	ev upload.Event
}

type dashUploadDoneMsg struct {
	res upload.Result
	err error
}

type dashClearBatchMsg struct {
	batchID string
}

type dashUnauthorizedMsg struct{}

type dashLogoutMsg struct {
	err error
}

var (
	dashTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dashMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dashErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	dashOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	dashPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	dashSelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
)

// dashBridge forwards events produced outside the bubbletea loop (cache
// notifications, upload progress, 401s) into it.
type dashBridge struct {
	ch   chan tea.Msg
	done chan struct{}
}

func newDashBridge() *dashBridge {
	return &dashBridge{ch: make(chan tea.Msg, 256), done: make(chan struct{})}
}

func (b *dashBridge) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	case <-b.done:
	}
}

// trySend drops msg when the buffer is full. Used from callbacks that must
// not block.
func (b *dashBridge) trySend(msg tea.Msg) {
	select {
	case b.ch <- msg:
	default:
	}
}

func (b *dashBridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.ch:
			return msg
		case <-b.done:
			return nil
		}
	}
}

func (b *dashBridge) close() {
	close(b.done)
}

func runDashboard(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !stdinIsTTY() {
		return errors.New("dashboard requires an interactive terminal (TTY)")
	}

	// Logs would corrupt the alternate screen.
	ctx, cancel := context.WithCancel(logger.Context(ctx, logger.Discard()))
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	m := newDashModel(ctx, a)
	unsubscribe := a.cache.Subscribe(func(ev cache.Event) {
		m.bridge.trySend(dashCacheMsg{ev: ev})
	})
	defer unsubscribe()

	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	cancel()
	m.bridge.close()
	m.uploads.Wait()
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "tty") {
			return errors.New("dashboard requires an interactive terminal (TTY)")
		}
		return err
	}
	if fm, ok := finalModel.(dashModel); ok {
		return fm.fatalErr
	}
	return nil
}

func newDashModel(ctx context.Context, a *app) dashModel {
	m := dashModel{
		ctx:     ctx,
		app:     a,
		bridge:  newDashBridge(),
		uploads: &sync.WaitGroup{},
		mode:    dashModeBrowse,
		bars:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(24)),
		spin:    spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	bridge := m.bridge
	m.orch = a.orchestrator(func(ev upload.Event) {
		bridge.send(dashUploadMsg{ev: ev})
	})
	a.client.SetUnauthorizedHandler(func() {
		bridge.trySend(dashUnauthorizedMsg{})
	})

	if a.client.LoggedIn() {
		m.screen = dashScreenJobs
		m.loading = true
	} else {
		m.screen = dashScreenLogin
		m.mode = dashModeForm
		m.form = newLoginForm(80, "")
	}
	return m
}

func (m dashModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.bridge.wait(), m.spin.Tick}
	if m.screen == dashScreenJobs {
		cmds = append(cmds, m.loadJobsCmd())
	}
	return tea.Batch(cmds...)
}

func (m dashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.form.resize(m.width)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case dashJobsMsg:
		m.loading = false
		if msg.err != nil {
			return m.handleLoadError(msg.err)
		}
		m.jobs = msg.jobs
		m.cursor = clampInt(m.cursor, 0, len(m.jobs))
		return m, nil
	case dashStatsMsg:
		m.loading = false
		if msg.err != nil {
			return m.handleLoadError(msg.err)
		}
		m.stats = msg.stats
		return m, nil
	case dashJobMsg:
		m.loading = false
		if msg.err != nil {
			return m.handleLoadError(msg.err)
		}
		if msg.job.ID != m.job.ID {
			return m, nil
		}
		m.job = msg.job
		m.cands = msg.cands
		m.candCursor = clampInt(m.candCursor, 0, maxInt(len(m.cands)-1, 0))
		return m, nil
	case dashLoginMsg:
		if msg.err != nil {
			if m.form != nil {
				m.form.Error = api.Detail(msg.err)
				m.form.Saving = false
			}
			return m, nil
		}
		m.screen = dashScreenJobs
		m.mode = dashModeBrowse
		m.form = nil
		m.loading = true
		m.statusMessage = "signed in as " + msg.username
		return m, m.loadJobsCmd()
	case dashActionMsg:
		return m.handleAction(msg)
	case dashCacheMsg:
		return m, tea.Batch(m.bridge.wait(), m.reloadFor(msg.ev.Key))
	case dashUploadMsg:
		m = m.handleUploadEvent(msg.ev)
		return m, m.bridge.wait()
	case dashUploadDoneMsg:
		return m.handleUploadDone(msg)
	case dashClearBatchMsg:
		if m.batch != nil && m.batch.ID == msg.batchID && m.orch.Dismiss() {
			m.batch = nil
		}
		return m, nil
	case dashLogoutMsg:
		if msg.err != nil {
			m.statusMessage = "error: " + msg.err.Error()
			return m, nil
		}
		m = m.toLogin("")
		return m, nil
	case dashUnauthorizedMsg:
		// A rejected sign-in also answers 401; keep the form as it is.
		if m.screen != dashScreenLogin {
			m = m.toLogin("session expired, please sign in again")
		}
		return m, m.bridge.wait()
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if keyMsg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case dashModeForm:
		return m.updateForm(keyMsg)
	case dashModeConfirm:
		return m.updateConfirm(keyMsg)
	}
	switch m.screen {
	case dashScreenJobs:
		return m.updateJobs(keyMsg)
	case dashScreenJob:
		return m.updateJob(keyMsg)
	case dashScreenStats:
		return m.updateStats(keyMsg)
	default:
		return m, nil
	}
}

func (m dashModel) handleLoadError(err error) (tea.Model, tea.Cmd) {
	if errors.Is(err, api.ErrUnauthorized) {
		return m.toLogin("session expired, please sign in again"), nil
	}
	m.statusMessage = "error: " + api.Detail(err)
	return m, nil
}

func (m dashModel) handleAction(msg dashActionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, api.ErrUnauthorized) {
			return m.toLogin("session expired, please sign in again"), nil
		}
		if m.mode == dashModeForm && m.form != nil {
			m.form.Error = api.Detail(msg.err)
			m.form.Saving = false
			return m, nil
		}
		m.mode = dashModeBrowse
		m.confirm = nil
		m.statusMessage = "error: " + api.Detail(msg.err)
		return m, nil
	}
	m.mode = dashModeBrowse
	m.form = nil
	m.confirm = nil
	m.statusMessage = msg.message
	if msg.back && m.screen == dashScreenJob {
		m.screen = dashScreenJobs
		m.job = model.Job{}
		m.cands = nil
		m.loading = true
		return m, m.loadJobsCmd()
	}
	return m, nil
}

func (m dashModel) handleUploadEvent(ev upload.Event) dashModel {
	if snap, ok := m.orch.Snapshot(); ok {
		m.batch = &snap
	}
	if ev.Type == upload.EventNotice && ev.Notice.Level == upload.NoticeError {
		m.statusMessage = "error: " + ev.Notice.Title + ": " + ev.Notice.Message
	}
	return m
}

func (m dashModel) handleUploadDone(msg dashUploadDoneMsg) (tea.Model, tea.Cmd) {
	m.uploading = false
	if snap, ok := m.orch.Snapshot(); ok {
		m.batch = &snap
	}
	switch {
	case msg.err != nil && msg.res.BatchID == "":
		m.statusMessage = "error: " + api.Detail(msg.err)
		return m, nil
	case len(msg.res.Tasks) == 0:
		m.statusMessage = fmt.Sprintf("error: no acceptable files (%d rejected)", len(msg.res.Rejected))
		return m, nil
	case msg.res.Failed > 0:
		m.statusMessage = fmt.Sprintf("error: uploaded %d of %d resumes; %d failed", msg.res.Succeeded, len(msg.res.Tasks), msg.res.Failed)
	default:
		m.statusMessage = fmt.Sprintf("uploaded %d resumes", msg.res.Succeeded)
	}
	batchID := msg.res.BatchID
	return m, tea.Tick(m.app.cfg.Upload.ClearDelay, func(time.Time) tea.Msg {
		return dashClearBatchMsg{batchID: batchID}
	})
}

func (m dashModel) toLogin(message string) dashModel {
	m.screen = dashScreenLogin
	m.mode = dashModeForm
	m.confirm = nil
	m.loading = false
	m.form = newLoginForm(m.width, "")
	m.form.Error = message
	return m
}

// viewKeys lists the cache entries the current screen renders.
func (m dashModel) viewKeys() []cache.Key {
	switch m.screen {
	case dashScreenJobs:
		return []cache.Key{cache.JobsKey()}
	case dashScreenJob:
		return []cache.Key{cache.JobKey(m.job.ID), cache.CandidatesKey(m.job.ID)}
	case dashScreenStats:
		return []cache.Key{cache.StatsKey()}
	default:
		return nil
	}
}

func (m dashModel) reloadFor(key cache.Key) tea.Cmd {
	for _, k := range m.viewKeys() {
		if k.Matches(key) {
			return m.reloadCmd()
		}
	}
	return nil
}

func (m dashModel) reloadCmd() tea.Cmd {
	switch m.screen {
	case dashScreenJobs:
		return m.loadJobsCmd()
	case dashScreenJob:
		return m.loadJobCmd(m.job.ID)
	case dashScreenStats:
		return m.loadStatsCmd()
	default:
		return nil
	}
}

func (m dashModel) loadJobsCmd() tea.Cmd {
	ctx, q := m.ctx, m.app.queries
	return func() tea.Msg {
		jobs, err := q.Jobs(ctx)
		return dashJobsMsg{jobs: jobs, err: err}
	}
}

func (m dashModel) loadStatsCmd() tea.Cmd {
	ctx, q := m.ctx, m.app.queries
	return func() tea.Msg {
		stats, err := q.Stats(ctx)
		return dashStatsMsg{stats: stats, err: err}
	}
}

func (m dashModel) loadJobCmd(jobID string) tea.Cmd {
	ctx, q := m.ctx, m.app.queries
	return func() tea.Msg {
		job, err := q.Job(ctx, jobID)
		if err != nil {
			return dashJobMsg{job: model.Job{ID: jobID}, err: err}
		}
		cands, err := q.Candidates(ctx, jobID)
		if err != nil {
			return dashJobMsg{job: job, err: err}
		}
		ranked := append([]model.Candidate(nil), cands...)
		model.SortByResumeScore(ranked)
		return dashJobMsg{job: job, cands: ranked}
	}
}

func (m dashModel) loginCmd(creds model.Credentials) tea.Cmd {
	ctx, client := m.ctx, m.app.client
	return func() tea.Msg {
		_, err := client.Login(ctx, creds)
		return dashLoginMsg{username: creds.Username, err: err}
	}
}

// mutateCmd runs write through the cache so the listed keys are
// invalidated once it succeeds.
func (m dashModel) mutateCmd(write func(context.Context) (string, error), back bool, keys ...cache.Key) tea.Cmd {
	ctx, c := m.ctx, m.app.cache
	return func() tea.Msg {
		var message string
		err := c.Mutate(ctx, func(ctx context.Context) error {
			var err error
			message, err = write(ctx)
			return err
		}, keys...)
		return dashActionMsg{message: message, err: err, back: back}
	}
}

func (m dashModel) createJobCmd(draft model.JobDraft) tea.Cmd {
	client := m.app.client
	return m.mutateCmd(func(ctx context.Context) (string, error) {
		job, err := client.CreateJob(ctx, draft)
		return "job created: " + job.Title, err
	}, false, cache.AfterJobChange("")...)
}

func (m dashModel) updateJobCmd(id string, draft model.JobDraft) tea.Cmd {
	client := m.app.client
	return m.mutateCmd(func(ctx context.Context) (string, error) {
		job, err := client.UpdateJob(ctx, id, draft)
		return "job updated: " + job.Title, err
	}, false, cache.AfterJobChange(id)...)
}

func (m dashModel) deleteJobCmd(job model.Job) tea.Cmd {
	client := m.app.client
	return m.mutateCmd(func(ctx context.Context) (string, error) {
		return "job deleted: " + job.Title, client.DeleteJob(ctx, job.ID)
	}, true, cache.AfterJobChange(job.ID)...)
}

func (m dashModel) syncJobCmd(job model.Job) tea.Cmd {
	client := m.app.client
	return m.mutateCmd(func(ctx context.Context) (string, error) {
		synced, err := client.SyncJob(ctx, job.ID)
		return fmt.Sprintf("job synced: %s (%d candidates)", synced.Title, synced.TotalCandidates), err
	}, false, cache.AfterJobSync(job.ID)...)
}

func (m dashModel) syncAllCmd() tea.Cmd {
	ctx, a := m.ctx, m.app
	jobs := append([]model.Job(nil), m.jobs...)
	return func() tea.Msg {
		res := syncAll(ctx, a, jobs)
		if len(res.Failed) > 0 {
			return dashActionMsg{err: fmt.Errorf("synced %d/%d jobs; first failure %s: %s", len(res.Synced), len(jobs), res.Failed[0].JobID, res.Failed[0].Error)}
		}
		return dashActionMsg{message: fmt.Sprintf("synced %d jobs", len(res.Synced))}
	}
}

func (m dashModel) deleteCandidateCmd(jobID string, c model.Candidate) tea.Cmd {
	client := m.app.client
	return m.mutateCmd(func(ctx context.Context) (string, error) {
		return "candidate deleted: " + c.Name, client.DeleteCandidate(ctx, jobID, c.ID)
	}, false, cache.AfterCandidateDelete(jobID)...)
}

func (m dashModel) voiceScreenCmd(jobID string, c model.Candidate) tea.Cmd {
	client := m.app.client
	return m.mutateCmd(func(ctx context.Context) (string, error) {
		_, err := client.StartVoiceScreen(ctx, jobID, c.ID)
		return "voice screening started for " + c.Name, err
	}, false, cache.AfterVoiceScreen(jobID)...)
}

func (m dashModel) downloadCmd(jobID string, c model.Candidate) tea.Cmd {
	ctx, client := m.ctx, m.app.client
	return func() tea.Msg {
		path, err := client.DownloadResume(ctx, jobID, c.ID, api.DirSaver{Dir: "."})
		if err != nil {
			return dashActionMsg{err: fmt.Errorf("download failed: %w", err)}
		}
		return dashActionMsg{message: "saved resume to " + path}
	}
}

func (m dashModel) exportCmd(job model.Job, cands []model.Candidate) tea.Cmd {
	return func() tea.Msg {
		path, err := writeExport("", job, cands)
		if err != nil {
			return dashActionMsg{err: err}
		}
		return dashActionMsg{message: "exported to " + path}
	}
}

// startUploadCmd runs one batch in the background. Progress reaches the
// model through the bridge; the returned message marks the end.
func (m dashModel) startUploadCmd(jobID string, paths []string) tea.Cmd {
	ctx, a, orch, wg := m.ctx, m.app, m.orch, m.uploads
	wg.Add(1)
	return func() tea.Msg {
		defer wg.Done()
		lock, err := localstore.AcquireBatchLock(a.cfg.LocksDir(), jobID)
		if err != nil {
			return dashUploadDoneMsg{err: err}
		}
		defer func() { _ = lock.Release() }()

		res, err := orch.Run(ctx, jobID, localFiles(paths))
		a.recordBatch(context.WithoutCancel(ctx), res)
		return dashUploadDoneMsg{res: res, err: err}
	}
}

func (m dashModel) logoutCmd() tea.Cmd {
	client := m.app.client
	return func() tea.Msg {
		return dashLogoutMsg{err: client.Logout()}
	}
}
