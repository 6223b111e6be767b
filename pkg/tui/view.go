package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stefanpenner/daybook/pkg/progress"
	"github.com/stefanpenner/daybook/pkg/store"
)

const minWidth = 60
const minHeight = 12

// View implements tea.Model.
func (m Model) View() string {
	w := m.width
	h := m.height
	if w < minWidth {
		w = minWidth
	}
	if h < minHeight {
		h = minHeight
	}

	if m.showHelpModal {
		return placeOverlay(m.renderHelpModal(), w, h)
	}

	if m.confirm != nil {
		return placeOverlay(m.renderConfirmModal(), w, h)
	}

	var b strings.Builder

	b.WriteString(m.renderHeader(w))
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine(w))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")

	headerLines := 3
	footerLines := 2

	searchActive := m.isSearching || m.searchQuery != ""
	if searchActive {
		headerLines++
	}

	contentHeight := h - headerLines - footerLines

	if searchActive {
		b.WriteString(m.renderSearchBar(w))
		b.WriteString("\n")
	}

	leftWidth, rightWidth := panelWidths(w)

	leftPanel := m.renderTreePanel(leftWidth, contentHeight)
	var rightPanel string
	if m.focusedPane == paneSidebar {
		rightPanel = m.renderSidebarPanel(rightWidth, contentHeight)
	} else {
		rightPanel = m.renderDetailsPanel(rightWidth, contentHeight)
	}

	sepColor := ColorGrayDim
	if m.focusedPane == paneSidebar || m.isEditing {
		sepColor = ColorPurple
	}
	sep := lipgloss.NewStyle().Foreground(sepColor).Render("│")
	for i := 0; i < contentHeight; i++ {
		b.WriteString(getLine(leftPanel, i, leftWidth))
		b.WriteString(sep)
		b.WriteString(getLine(rightPanel, i, rightWidth))
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")
	b.WriteString(m.renderFooter(w))

	return b.String()
}

func (m Model) renderHeader(width int) string {
	title := HeaderStyle.Render("Daybook")

	date := m.app.Progress.Date()
	var dateTag string
	if date == m.app.Today() {
		dateTag = DateStyle.Render(date)
	} else {
		dateTag = PastDateStyle.Render(date + " (not today)")
	}

	stats := m.app.Stats(m.workflows)
	statsText := tierStyle(stats.Tier).Render(fmt.Sprintf("%d%%", stats.Percent)) +
		HeaderCountStyle.Render(fmt.Sprintf(" %d/%d tasks done", stats.Completed, stats.Total))

	left := title + " " + dateTag
	gap := width - lipgloss.Width(left) - lipgloss.Width(statsText)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + statsText
}

// renderStatusLine shows the running macro, then the current notification.
func (m Model) renderStatusLine(width int) string {
	var parts []string
	if m.run != nil {
		parts = append(parts, RunStyle.Render(IconRunning+" "+runLabel(m.run)))
	}
	if ev, ok := m.board.Current(); ok {
		text := ev.Message
		if ev.Title != "" {
			text = ev.Title + ": " + ev.Message
		}
		parts = append(parts, severityStyle(ev.Severity).Render(text))
	}
	if len(parts) == 0 {
		alerts := m.app.Inbox.Len()
		if alerts > 0 {
			return SectionAlertsStyle.Render(fmt.Sprintf("%d new file alert(s), tab to view", alerts))
		}
		return FooterStyle.Render("Idle")
	}
	line := strings.Join(parts, "  ")
	if lipgloss.Width(line) > width {
		line = lipgloss.NewStyle().MaxWidth(width).Render(line)
	}
	return line
}

func runLabel(r *runState) string {
	s := r.step
	if s.Index < 0 || s.Total == 0 {
		return fmt.Sprintf("Running %q", r.title)
	}
	label := fmt.Sprintf("Running %q %d/%d: %s", r.title, s.Index+1, s.Total, s.Task.Name)
	if s.Wait > 0 {
		label += fmt.Sprintf(" (waiting %s)", s.Wait)
	}
	return label
}

func (m Model) renderSearchBar(width int) string {
	prefix := SearchBarStyle.Render(" / ")
	query := SearchBarStyle.Render(m.searchQuery)
	cursor := ""
	if m.isSearching {
		cursor = SearchBarStyle.Render("█")
	}

	countStr := ""
	if m.searchQuery != "" {
		countStr = SearchCountStyle.Render(fmt.Sprintf(" %d matches", len(m.searchMatchIDs)))
	}

	left := prefix + query + cursor
	padWidth := width - lipgloss.Width(left) - lipgloss.Width(countStr)
	if padWidth < 1 {
		padWidth = 1
	}
	return left + strings.Repeat(" ", padWidth) + countStr
}

func (m Model) renderTreePanel(width, height int) string {
	var lines []string

	// Last line holds the data directory.
	treeHeight := height - 1
	if treeHeight < 1 {
		treeHeight = 1
	}

	if len(m.visibleItems) == 0 {
		if m.searchQuery != "" {
			lines = append(lines, FooterStyle.Render("No matches."))
		} else {
			lines = append(lines, FooterStyle.Render("No workflows yet. Press 'A' to add one."))
		}
	}

	startIdx, endIdx := scrollWindow(m.cursor, len(m.visibleItems), treeHeight)
	inputInTree := m.isInputMode && m.inputPane == paneTree

	for i := startIdx; i < endIdx; i++ {
		item := m.visibleItems[i]

		if inputInTree && m.inputReplaceID == item.ID {
			indent := strings.Repeat(DepthIndent, item.Depth)
			lines = append(lines, indent+InputPromptStyle.Render("✎ ")+m.textInput.View())
			continue
		}

		lines = append(lines, m.renderTreeItem(item, i == m.cursor, width))

		if inputInTree && m.inputReplaceID == "" && i == m.inputInsertAfter {
			indent := strings.Repeat(DepthIndent, m.inputDepth)
			lines = append(lines, indent+InputPromptStyle.Render("> ")+m.textInput.View())
		}
	}

	if inputInTree && m.inputReplaceID == "" &&
		(len(m.visibleItems) == 0 || m.inputInsertAfter < startIdx || m.inputInsertAfter >= endIdx) {
		indent := strings.Repeat(DepthIndent, m.inputDepth)
		lines = append(lines, indent+InputPromptStyle.Render("> ")+m.textInput.View())
	}

	for len(lines) < treeHeight {
		lines = append(lines, "")
	}

	dir := m.app.Config.DataDir
	lines = append(lines, lipgloss.NewStyle().Foreground(ColorGrayDim).Render(fileHyperlink(dir)))

	return strings.Join(lines, "\n")
}

func scrollWindow(cursor, n, height int) (int, int) {
	if n <= height {
		return 0, n
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	end := start + height
	if end > n {
		end = n
		start = end - height
	}
	return start, end
}

func (m Model) renderTreeItem(item TreeItem, isSelected bool, width int) string {
	indent := strings.Repeat(DepthIndent, item.Depth)

	var prefix string
	if item.IsTask() {
		if item.Done {
			prefix = CompleteStyle.Render(IconComplete)
		} else {
			prefix = IncompleteStyle.Render(IconIncomplete)
		}
		prefix += " " + kindIcon(item.Task.ResolvedKind())
	} else {
		expand := "  "
		if item.HasChildren {
			if item.IsExpanded {
				expand = IconExpanded + " "
			} else {
				expand = IconCollapsed + " "
			}
		}
		prefix = expand + tierStyle(progress.TierFor(item.Percent)).Render(fmt.Sprintf("%3d%%", item.Percent))
		if m.run != nil && m.run.workflowID == item.WorkflowID {
			prefix += " " + RunStyle.Render(IconRunning)
		}
	}

	isMoveTarget := m.isMoveMode && item.ID == m.moveTarget
	movePrefix := ""
	if isMoveTarget {
		movePrefix = IconMove + " "
	}

	isSearchMatch := m.searchMatchIDs[item.ID]
	name := item.Name
	if isSearchMatch && m.searchQuery != "" {
		if isSelected {
			name = highlightMatch(name, m.searchQuery, SearchCharSelectedStyle, SelectedStyle)
		} else {
			name = highlightMatch(name, m.searchQuery, SearchCharStyle, SearchRowStyle)
		}
	}

	line := indent + movePrefix + prefix + " " + name

	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		line += strings.Repeat(" ", width-lineWidth)
	}

	switch {
	case isMoveTarget:
		line = MoveStyle.Render(line)
	case isSearchMatch && !isSelected:
		line = SearchRowStyle.Render(line)
	case isSelected:
		line = SelectedStyle.Render(line)
	}
	return line
}

func (m Model) renderDetailsPanel(width, height int) string {
	item, ok := m.selected()
	if !ok {
		return FooterStyle.Render(" Select a workflow to see its tasks")
	}
	w, err := m.app.Store.Workflow(item.WorkflowID)
	if err != nil {
		return FooterStyle.Render(" " + err.Error())
	}

	if m.isEditing {
		lines := strings.Split(m.docEditor.View(), "\n")
		if len(lines) > height {
			lines = lines[:height]
		}
		return strings.Join(lines, "\n")
	}

	done := m.app.Progress.DoneFunc(m.app.Scheme)
	md := store.RenderWorkflowMarkdown(w, func(i int, t store.Task) bool { return done(w.ID, i, t) })
	if item.IsTask() {
		md += "\n---\n\n" + renderTaskDetails(item.Task)
	}

	rendered := md
	if m.glamourRenderer != nil {
		if out, err := m.glamourRenderer.Render(md); err == nil {
			rendered = out
		}
	}
	rendered = strings.TrimRight(rendered, "\n ")
	lines := strings.Split(rendered, "\n")

	scroll := m.notesScroll
	if scroll > len(lines)-1 {
		scroll = len(lines) - 1
	}
	if scroll < 0 {
		scroll = 0
	}
	lines = lines[scroll:]
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

// renderTaskDetails is the markdown block for the selected task.
func renderTaskDetails(t store.Task) string {
	var md strings.Builder
	md.WriteString("**" + t.Name + "**\n\n")
	meta := []string{"**Type:** " + string(t.ResolvedKind())}
	switch t.ResolvedKind() {
	case store.KindLink:
		target := t.Target
		if target == "" {
			target = "_none_"
		}
		meta = append(meta, "**Target:** "+target)
		if t.Placement != nil {
			meta = append(meta, "**Window:** "+t.Placement.String())
		}
	default:
		meta = append(meta, "**Value:** "+t.Value)
	}
	md.WriteString(strings.Join(meta, " | ") + "\n")
	return md.String()
}

func (m Model) renderSidebarPanel(width, height int) string {
	var lines []string
	startIdx, endIdx := scrollWindow(m.sidebarCursor, len(m.sidebar), height-1)
	for i := startIdx; i < endIdx; i++ {
		item := m.sidebar[i]
		if item.IsSectionHeader {
			lines = append(lines, renderSectionHeader(item, width))
			continue
		}
		line := "  " + item.Name
		if item.Detail != "" {
			line += " " + DetailStyle.Render(item.Detail)
		}
		lineWidth := lipgloss.Width(line)
		if lineWidth > width {
			line = lipgloss.NewStyle().MaxWidth(width).Render(line)
		} else {
			line += strings.Repeat(" ", width-lineWidth)
		}
		if i == m.sidebarCursor {
			line = SelectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	if m.isInputMode && m.inputPane == paneSidebar {
		lines = append(lines, InputPromptStyle.Render("✎ ")+m.textInput.View())
	}
	return strings.Join(lines, "\n")
}

func renderSectionHeader(item SidebarItem, width int) string {
	label := sectionStyle(item.Section).Render("── " + item.Name + " ")
	remaining := width - lipgloss.Width(label)
	if remaining > 0 {
		label += lipgloss.NewStyle().Foreground(ColorGrayDim).Render(strings.Repeat("─", remaining))
	}
	return label
}

func (m Model) renderFooter(width int) string {
	help := m.keys.ShortHelp()
	switch {
	case m.isInputMode:
		help = "enter confirm  esc cancel"
	case m.isEditing:
		help = "esc save & exit  ctrl+s save  ctrl+c cancel"
	case m.isSearching:
		help = "type to search  enter/↓ keep filter  esc clear"
	case m.searchQuery != "":
		help = "esc/enter clear filter  ↑↓ nav"
	case m.isMoveMode:
		help = "↑↓ reorder  enter/esc exit move"
	case m.focusedPane == paneSidebar:
		help = "↑↓ nav  enter/o open  a add  r rename  d remove/dismiss  tab tree  ? help"
	}
	if lipgloss.Width(help) > width {
		help = lipgloss.NewStyle().MaxWidth(width).Render(help)
	}
	return FooterStyle.Render(help)
}

func (m Model) renderHelpModal() string {
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().Foreground(ColorBlue).Width(16)
	descStyle := lipgloss.NewStyle().Foreground(ColorWhite)

	for _, binding := range m.keys.FullHelp() {
		b.WriteString(keyStyle.Render(binding[0]))
		b.WriteString(descStyle.Render(binding[1]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("Press Esc or ? to close"))

	return ModalStyle.Render(b.String())
}

func (m Model) renderConfirmModal() string {
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render(m.confirm.title))
	b.WriteString("\n\n")
	b.WriteString(m.confirm.prompt + "\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(ColorGreen).Render("[y]") + " Yes  ")
	b.WriteString(lipgloss.NewStyle().Foreground(ColorRed).Render("[n]") + " No")

	return ModalStyle.Render(b.String())
}

// highlightMatch styles the first case-insensitive occurrence of query with
// charStyle and the rest of name with rowStyle.
func highlightMatch(name, query string, charStyle, rowStyle lipgloss.Style) string {
	lower := strings.ToLower(name)
	q := strings.ToLower(query)
	idx := strings.Index(lower, q)
	if idx < 0 || len(lower) != len(name) {
		return rowStyle.Render(name)
	}
	before := name[:idx]
	match := name[idx : idx+len(q)]
	after := name[idx+len(q):]

	var result string
	if before != "" {
		result += rowStyle.Render(before)
	}
	result += charStyle.Render(match)
	if after != "" {
		result += rowStyle.Render(after)
	}
	return result
}

// fileHyperlink wraps a file path in an OSC 8 terminal hyperlink so it's clickable.
func fileHyperlink(path string) string {
	url := "file://" + path
	return fmt.Sprintf("\x1b]8;;%s\x1b\\%s\x1b]8;;\x1b\\", url, path)
}

func getLine(block string, idx int, width int) string {
	lines := strings.Split(block, "\n")
	if idx < len(lines) {
		line := lines[idx]
		lineWidth := lipgloss.Width(line)
		if lineWidth < width {
			return line + strings.Repeat(" ", width-lineWidth)
		}
		return line
	}
	return strings.Repeat(" ", width)
}

func placeOverlay(modal string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}
