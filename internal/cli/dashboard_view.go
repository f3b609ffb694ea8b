package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"recruit-console/internal/model"
)

func (m dashModel) View() string {
	if m.fatalErr != nil {
		return dashErrorStyle.Render("fatal: " + m.fatalErr.Error())
	}
	if m.width <= 0 {
		m.width = 100
	}
	if m.height <= 0 {
		m.height = 30
	}

	switch m.mode {
	case dashModeForm:
		return m.viewForm()
	case dashModeConfirm:
		return m.viewConfirm()
	}

	var body string
	switch m.screen {
	case dashScreenJobs:
		body = m.viewJobs()
	case dashScreenJob:
		body = m.viewJob()
	case dashScreenStats:
		body = m.viewStats()
	}
	parts := []string{m.viewHeader(), body}
	if m.batch != nil {
		parts = append(parts, m.viewUploadPanel(m.width))
	}
	parts = append(parts, m.renderStatusLine(m.width))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m dashModel) viewHeader() string {
	title := "recruit-console"
	hints := ""
	switch m.screen {
	case dashScreenJobs:
		title += " | jobs"
		hints = "up/down: move | enter: open | n: new | e: edit | d: delete | s: sync | S: sync all | t: stats | r: refresh | L: logout | q: quit"
	case dashScreenJob:
		title += " | " + model.Truncate(m.job.Title, 40)
		hints = "up/down: move | u: upload | v: voice screen | o: download | d: delete | e: edit job | D: delete job | s: sync | x: export | r: refresh | esc: back"
	case dashScreenStats:
		title += " | stats"
		hints = "r: refresh | esc: back | q: quit"
	}
	if m.loading {
		title += " " + m.spin.View()
	}
	return dashTitleStyle.Render(title) + "\n" + dashMutedStyle.Render(wrapOrTrim(hints, maxInt(m.width, 20)))
}

func (m dashModel) viewJobs() string {
	width := m.width
	total := len(m.jobs) + 1
	maxRows := clampInt(m.height-14, 4, 18)
	start, end := listWindow(total, clampInt(m.cursor, 0, total-1), maxRows)

	lines := make([]string, 0, maxRows+3)
	if len(m.jobs) == 0 && !m.loading {
		lines = append(lines, dashMutedStyle.Render("No jobs yet."))
		lines = append(lines, dashMutedStyle.Render("Select '[+] New Job' and press Enter."))
	}
	if start > 0 {
		lines = append(lines, dashMutedStyle.Render("..."))
	}
	for i := start; i < end; i++ {
		var line string
		if i == len(m.jobs) {
			line = "[+] New Job"
		} else {
			j := m.jobs[i]
			line = fmt.Sprintf("%s  candidates %d | resume %d | phone %d",
				padRight(truncateRunes(j.Title, 36), 36), j.TotalCandidates, j.ResumeScreened, j.PhoneScreened)
		}
		line = truncateRunes(line, maxInt(width-6, 10))
		if i == m.cursor {
			line = dashSelStyle.Width(maxInt(width-4, 6)).Render(line)
		}
		lines = append(lines, line)
	}
	if end < total {
		lines = append(lines, dashMutedStyle.Render("..."))
	}
	list := dashPanelStyle.Width(width).Render(strings.Join(lines, "\n"))

	job, ok := m.selectedJob()
	if !ok {
		return list
	}
	details := []string{
		kv("id", job.ID),
		kv("created", shortDate(job.CreatedAt)),
		kv("description", job.Description),
	}
	for i := range details {
		details[i] = wrapOrTrim(details[i], maxInt(width-6, 12))
	}
	return lipgloss.JoinVertical(lipgloss.Left, list, dashPanelStyle.Width(width).Render(strings.Join(details, "\n")))
}

func (m dashModel) viewJob() string {
	width := m.width
	summary := fmt.Sprintf("candidates %d | resume screened %d | phone screened %d",
		m.job.TotalCandidates, m.job.ResumeScreened, m.job.PhoneScreened)

	lines := []string{dashMutedStyle.Render(summary), ""}
	if len(m.cands) == 0 {
		if !m.loading {
			lines = append(lines, dashMutedStyle.Render("No candidates yet. Press u to upload resumes."))
		}
		return dashPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
	}

	lines = append(lines, dashMutedStyle.Render(fmt.Sprintf("%s %-7s %-12s %s", padRight("name", 28), "resume", "screening", "top skills")))
	maxRows := clampInt(m.height-18, 4, 16)
	start, end := listWindow(len(m.cands), m.candCursor, maxRows)
	if start > 0 {
		lines = append(lines, dashMutedStyle.Render("..."))
	}
	for i := start; i < end; i++ {
		c := m.cands[i]
		line := fmt.Sprintf("%s %-7s %-12s %s",
			padRight(truncateRunes(c.Name, 28), 28), formatScore(c.ResumeScore), formatScreening(c), topSkillsLine(c.Skills, 3))
		line = truncateRunes(line, maxInt(width-6, 10))
		if i == m.candCursor {
			line = dashSelStyle.Width(maxInt(width-4, 6)).Render(line)
		}
		lines = append(lines, line)
	}
	if end < len(m.cands) {
		lines = append(lines, dashMutedStyle.Render("..."))
	}
	list := dashPanelStyle.Width(width).Render(strings.Join(lines, "\n"))

	c, ok := m.selectedCandidate()
	if !ok {
		return list
	}
	details := []string{
		kv("email", defaultIfEmpty(c.Email, "-")),
		kv("phone", defaultIfEmpty(c.Phone, "-")),
		kv("screened", yesNo(c.Screened())),
	}
	if c.ScreeningSummary != "" {
		details = append(details, kv("summary", c.ScreeningSummary))
	}
	for i := range details {
		details[i] = wrapOrTrim(details[i], maxInt(width-6, 12))
	}
	return lipgloss.JoinVertical(lipgloss.Left, list, dashPanelStyle.Width(width).Render(strings.Join(details, "\n")))
}

func (m dashModel) viewStats() string {
	lines := []string{
		kv("jobs", strconv.Itoa(m.stats.TotalJobs)),
		kv("candidates", strconv.Itoa(m.stats.TotalCandidates)),
		kv("resume screened", strconv.Itoa(m.stats.ResumeScreened)),
		kv("phone screened", strconv.Itoa(m.stats.PhoneScreened)),
	}
	return dashPanelStyle.Width(clampInt(m.width, 30, 60)).Render(strings.Join(lines, "\n"))
}

func (m dashModel) viewUploadPanel(width int) string {
	b := m.batch
	lines := []string{dashTitleStyle.Render("Upload")}
	if b.Status != "" {
		lines = append(lines, wrapOrTrim(b.Status, maxInt(width-6, 12)))
	}
	maxRows := clampInt(m.height-16, 3, 10)
	for i, t := range b.Tasks {
		if i >= maxRows {
			lines = append(lines, dashMutedStyle.Render(fmt.Sprintf("... and %d more", len(b.Tasks)-maxRows)))
			break
		}
		line := fmt.Sprintf("%s %-10s %s", padRight(truncateRunes(t.Name, 28), 28), t.Phase, m.bars.ViewAs(float64(t.Progress)/100))
		switch {
		case t.Error != "":
			line += " " + dashErrorStyle.Render(truncateRunes(t.Error, 40))
		case t.Phase == model.PhaseDone:
			line += " " + dashOKStyle.Render("ok")
		}
		lines = append(lines, line)
	}
	return dashPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m dashModel) renderStatusLine(width int) string {
	msg := strings.TrimSpace(m.statusMessage)
	if msg == "" {
		return ""
	}
	style := dashMutedStyle
	lower := strings.ToLower(msg)
	switch {
	case strings.HasPrefix(lower, "error:"):
		style = dashErrorStyle
	case strings.HasSuffix(lower, "..."):
	default:
		style = dashOKStyle
	}
	return style.Width(width).Render(truncateRunes(msg, maxInt(width-2, 10)))
}

func (m dashModel) viewForm() string {
	if m.form == nil {
		return ""
	}
	header := dashTitleStyle.Render(m.form.Title)
	hints := dashMutedStyle.Render("tab/shift+tab or up/down: move | enter: next/save | ctrl+s: save | esc: cancel")
	if m.screen == dashScreenLogin {
		hints = dashMutedStyle.Render("tab/shift+tab or up/down: move | enter: next/sign in | esc: quit")
	}

	lines := make([]string, 0, len(m.form.Fields)+6)
	for i, f := range m.form.Fields {
		prefix := "  "
		if i == m.form.Index {
			prefix = "> "
		}
		display := strings.TrimSpace(f.Value)
		if f.Kind == dashFieldSecret && f.Value != "" {
			display = strings.Repeat("*", len([]rune(f.Value)))
		}
		if display == "" {
			display = dashMutedStyle.Render("(empty)")
		}
		line := fmt.Sprintf("%s%s: %s", prefix, f.Label, display)
		lines = append(lines, wrapOrTrim(line, maxInt(m.width-6, 20)))
	}

	curr := m.form.currentField()
	inputLabel := fmt.Sprintf("\n%s\n", curr.Label)
	inputHelp := ""
	if strings.TrimSpace(curr.Help) != "" {
		inputHelp = dashMutedStyle.Render(curr.Help) + "\n"
	}
	status := ""
	if m.form.Saving {
		status = "\n" + dashMutedStyle.Render(m.spin.View()+" Saving...")
	}
	if strings.TrimSpace(m.form.Error) != "" {
		status = "\n" + dashErrorStyle.Render(m.form.Error)
	}

	panel := dashPanelStyle.Width(maxInt(m.width, 40)).Render(strings.Join(lines, "\n") + inputLabel + inputHelp + m.form.Input.View() + status)
	return lipgloss.JoinVertical(lipgloss.Left, header, hints, panel)
}

func (m dashModel) viewConfirm() string {
	if m.confirm == nil {
		return ""
	}
	text := m.confirm.Title + "\n\n" + m.confirm.Body + "\n\nPress y or Enter to confirm, n or Esc to cancel."
	boxW := clampInt(m.width-8, 36, 80)
	boxH := clampInt(m.height-6, 7, 12)
	panel := dashPanelStyle.Width(boxW).Height(boxH).Render(text)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}
