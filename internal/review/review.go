// Package review provides the interactive terminal UI for browsing
// generated applications before sending them out.
package review

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/applypilot/applypilot/internal/model"
)

// Lines per application item in the list view (title + subtitle + blank separator).
const appItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle = lipgloss.NewStyle().
			Bold(true)

	itemSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(18)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	scoreHighStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	scoreLowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))
)

type reviewModel struct {
	records  []model.ApplicationRecord
	listView viewport.Model
	cursor   int
	width    int
	height   int
	ready    bool

	view           viewState
	detailViewport viewport.Model
	showLetter     bool
	showResume     bool
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m reviewModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	// Forward other keys (pgup/pgdn/home/end) to the viewport.
	var cmd tea.Cmd
	m.listView, cmd = m.listView.Update(msg)
	return m, cmd
}

func (m reviewModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		if len(m.records) > 0 {
			openURL(m.records[m.cursor].Job.URL)
		}
		return m, nil
	case "c":
		m.showLetter = !m.showLetter
		m.detailViewport.SetContent(m.renderDetail())
		m.detailViewport.SetYOffset(0)
		return m, nil
	case "r":
		m.showResume = !m.showResume
		m.detailViewport.SetContent(m.renderDetail())
		m.detailViewport.SetYOffset(0)
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *reviewModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(len(m.records)-1, 0))
}

func (m *reviewModel) ensureCursorVisible() {
	cursorTop := m.cursor * appItemHeight
	cursorBottom := cursorTop + appItemHeight - 1

	if cursorTop < m.listView.YOffset {
		m.listView.SetYOffset(cursorTop)
	} else if cursorBottom >= m.listView.YOffset+m.listView.Height {
		m.listView.SetYOffset(cursorBottom - m.listView.Height + 1)
	}
}

func (m reviewModel) openDetailView() (tea.Model, tea.Cmd) {
	if len(m.records) == 0 {
		return m, nil
	}

	m.view = viewDetail
	m.showLetter = false
	m.showResume = false
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *reviewModel) recalcLayout() {
	paneWidth := max(m.width-2, 20)
	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.listView = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.listView.Width = paneWidth
		m.listView.Height = paneHeight
	}

	m.recalcContent()
}

func (m *reviewModel) recalcContent() {
	m.listView.SetContent(renderRecords(m.records, m.cursor))
}

func (m reviewModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.view == viewDetail {
		return m.viewDetail()
	}

	return m.viewList()
}

func (m reviewModel) viewList() string {
	header := headerStyle.Render(fmt.Sprintf(" Applications (%d)", len(m.records)))
	pane := borderStyle.Width(m.listView.Width).Render(m.listView.View())

	statusText := " ↑/↓ cursor  Enter detail  q quit"
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return header + "\n" + pane + "\n" + statusBar
}

func (m reviewModel) viewDetail() string {
	title := detailTitleStyle.Render("Application Details")
	content := borderStyle.Width(m.width - 2).Render(m.detailViewport.View())

	statusText := " o open URL  c cover letter  r resume  esc back  ↑/↓ scroll  q quit"
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m reviewModel) renderDetail() string {
	rec := m.records[m.cursor]
	app := rec.Application
	job := rec.Job
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Title", job.Title)
	addField("Company", job.Company)
	addField("Location", job.Location)
	addField("Source", job.Source)
	addField("Created", app.CreatedAt.Local().Format("2006-01-02 15:04"))

	b.WriteByte('\n')
	b.WriteString(detailLabelStyle.Render("Match Score"))
	b.WriteString(scoreStyle(app.MatchScore).Render(fmt.Sprintf("%d/100", app.MatchScore)))
	b.WriteByte('\n')

	if len(app.MatchedSkills) > 0 {
		addField("Matched Skills", strings.Join(app.MatchedSkills, ", "))
	}
	if len(app.MissingSkills) > 0 {
		addField("Missing Skills", strings.Join(app.MissingSkills, ", "))
	}
	if app.Recommendations != "" {
		addField("Recommendations", app.Recommendations)
	}

	b.WriteByte('\n')
	addField("Job URL", job.URL)

	wrapWidth := max(m.width-8, 20)
	divider := func(label string) string {
		fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
		return dividerStyle.Render(label + fill)
	}

	if app.CoverLetter != "" {
		b.WriteByte('\n')
		if m.showLetter {
			b.WriteString(divider("── Cover Letter ") + "\n\n")
			b.WriteString(bodyStyle.Render(wordWrap(app.CoverLetter, wrapWidth)) + "\n")
		} else {
			b.WriteString(hintStyle.Render("  press c to read the cover letter") + "\n")
		}
	}

	if app.ResumeVersion != "" {
		b.WriteByte('\n')
		if m.showResume {
			b.WriteString(divider("── Tailored Resume ") + "\n\n")
			b.WriteString(bodyStyle.Render(wordWrap(app.ResumeVersion, wrapWidth)) + "\n")
		} else {
			b.WriteString(hintStyle.Render("  press r to read the tailored resume") + "\n")
		}
	}

	return b.String()
}

func scoreStyle(score int) lipgloss.Style {
	if score >= 70 {
		return scoreHighStyle
	}
	return scoreLowStyle
}

func renderRecords(records []model.ApplicationRecord, cursor int) string {
	if len(records) == 0 {
		return "  (no applications yet — run a fetch cycle first)"
	}

	var b strings.Builder
	for i, rec := range records {
		isSelected := i == cursor

		titleSt := itemTitleStyle
		subtitleSt := itemSubtitleStyle
		prefix := "  "
		if isSelected {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(fmt.Sprintf("%s — %s", rec.Job.Company, rec.Job.Title)))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("score %d · %s · %s",
			rec.Application.MatchScore,
			rec.Job.Location,
			rec.Application.CreatedAt.Format("2006-01-02"))))
		b.WriteByte('\n')

		if i < len(records)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func wordWrap(text string, width int) string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) <= width {
				line += " " + w
			} else {
				lines = append(lines, line)
				line = w
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run launches the interactive application review TUI.
func Run(records []model.ApplicationRecord) error {
	m := reviewModel{records: records}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
