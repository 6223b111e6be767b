package tui

import (
	"strconv"

	"github.com/stefanpenner/daybook/pkg/progress"
	"github.com/stefanpenner/daybook/pkg/store"
	"github.com/stefanpenner/daybook/pkg/watch"
)

// TreeItem is one row of the workflow tree: a workflow or one of its tasks.
type TreeItem struct {
	ID          string // "w3" for a workflow, "w3/1" for its second task
	ParentID    string
	Name        string
	WorkflowID  int
	TaskIndex   int // -1 on workflow rows
	Task        store.Task
	Depth       int
	HasChildren bool
	IsExpanded  bool
	Done        bool
	Percent     int // workflow rows only
}

// IsTask reports whether the row is a task.
func (i TreeItem) IsTask() bool { return i.TaskIndex >= 0 }

func workflowItemID(id int) string { return "w" + strconv.Itoa(id) }

func taskItemID(workflowID, index int) string {
	return workflowItemID(workflowID) + "/" + strconv.Itoa(index)
}

// FlattenVisibleItems lists workflows in order, each followed by its tasks
// when expanded. A nil done treats every task as unchecked.
func FlattenVisibleItems(workflows []store.Workflow, expandedState map[int]bool, done progress.DoneFunc) []TreeItem {
	if done == nil {
		done = func(int, int, store.Task) bool { return false }
	}
	var result []TreeItem
	for _, w := range workflows {
		item := TreeItem{
			ID:          workflowItemID(w.ID),
			Name:        displayName(w),
			WorkflowID:  w.ID,
			TaskIndex:   -1,
			HasChildren: len(w.Tasks) > 0,
			IsExpanded:  expandedState[w.ID],
			Percent:     progress.WorkflowPercent(w, done),
		}
		result = append(result, item)

		if !item.HasChildren || !item.IsExpanded {
			continue
		}
		for i, t := range w.Tasks {
			result = append(result, TreeItem{
				ID:         taskItemID(w.ID, i),
				ParentID:   item.ID,
				Name:       taskName(t),
				WorkflowID: w.ID,
				TaskIndex:  i,
				Task:       t,
				Depth:      1,
				Done:       done(w.ID, i, t),
			})
		}
	}
	return result
}

func displayName(w store.Workflow) string {
	if w.Title != "" {
		return w.Title
	}
	return "(untitled)"
}

func taskName(t store.Task) string {
	if t.Name != "" {
		return t.Name
	}
	return "(unnamed)"
}

// FilterVisibleItems keeps rows whose ID is in matchIDs or ancestorIDs.
func FilterVisibleItems(items []TreeItem, matchIDs, ancestorIDs map[string]bool) []TreeItem {
	var result []TreeItem
	for _, item := range items {
		if matchIDs[item.ID] || ancestorIDs[item.ID] {
			result = append(result, item)
		}
	}
	return result
}

// SidebarSection groups sidebar rows.
type SidebarSection string

const (
	SectionShortcuts SidebarSection = "SHORTCUTS"
	SectionTools     SidebarSection = "TOOLS"
	SectionFolders   SidebarSection = "FOLDERS"
	SectionAlerts    SidebarSection = "ALERTS"
)

// SidebarItem is one row of the launcher pane.
type SidebarItem struct {
	Section         SidebarSection
	ID              int
	Name            string
	Detail          string
	IsSectionHeader bool
}

// BuildSidebar lists shortcuts, tools, watched folders and file alerts under
// section headers. The alerts section is omitted while the inbox is empty.
func BuildSidebar(shortcuts, tools []store.Launcher, folders []store.WatchedFolder, alerts []watch.Alert) []SidebarItem {
	var result []SidebarItem
	header := func(s SidebarSection) {
		result = append(result, SidebarItem{Section: s, Name: string(s), IsSectionHeader: true})
	}

	header(SectionShortcuts)
	for _, l := range shortcuts {
		result = append(result, SidebarItem{Section: SectionShortcuts, ID: l.ID, Name: l.Name, Detail: l.Link})
	}
	header(SectionTools)
	for _, l := range tools {
		result = append(result, SidebarItem{Section: SectionTools, ID: l.ID, Name: l.Name, Detail: l.Link})
	}
	header(SectionFolders)
	for _, f := range folders {
		result = append(result, SidebarItem{Section: SectionFolders, ID: f.ID, Name: f.Name, Detail: f.Path})
	}
	if len(alerts) > 0 {
		header(SectionAlerts)
		for _, a := range alerts {
			result = append(result, SidebarItem{Section: SectionAlerts, ID: a.ID, Name: a.FileName, Detail: a.Path})
		}
	}
	return result
}
