package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vtschooldata/internal/core/enrollment"
	"vtschooldata/internal/shared/util"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type schoolItem struct {
	title, desc string
}

func (i schoolItem) Title() string       { return i.title }
func (i schoolItem) Description() string { return i.desc }
func (i schoolItem) FilterValue() string { return i.title + i.desc }

type uiModel struct {
	schoolList  list.Model
	variant     enrollment.Variant
	years       []int
	loaded      bool
	lastUpdate  time.Time
	recordCount int
	failures    []enrollment.YearFailure
	fetchErr    error
	refetch     func()
}

type resultMsg struct {
	result *enrollment.FetchResult
}

type fetchErrMsg struct {
	err error
}

func newUIModel(years []int, variant enrollment.Variant, refetch func()) uiModel {
	delegate := list.NewDefaultDelegate()
	schoolList := list.New([]list.Item{}, delegate, 0, 0)
	schoolList.Title = fmt.Sprintf("Vermont enrollment (%s)", variant)
	schoolList.SetShowStatusBar(false)

	return uiModel{
		schoolList: schoolList,
		variant:    variant,
		years:      years,
		refetch:    refetch,
	}
}

func (m uiModel) Init() tea.Cmd {
	return nil
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if m.refetch != nil {
				m.refetch()
			}
			return m, nil
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		height := msg.Height - v - 6
		if height < 5 {
			height = 5
		}
		m.schoolList.SetSize(msg.Width-h, height)
	case resultMsg:
		m.loaded = true
		m.fetchErr = nil
		m.lastUpdate = time.Now()
		m.recordCount = len(msg.result.Records)
		m.failures = msg.result.Failures
		m.schoolList.SetItems(summarizeSchools(msg.result.Records))
	case fetchErrMsg:
		m.loaded = true
		m.fetchErr = msg.err
	}

	var cmd tea.Cmd
	m.schoolList, cmd = m.schoolList.Update(msg)
	return m, cmd
}

func (m uiModel) View() string {
	header := titleStyle(fmt.Sprintf("vtenr · years %v", m.years))

	if !m.loaded {
		return docStyle.Render(header + "\n\n" + statusStyle.Render("fetching enrollment data..."))
	}
	if m.fetchErr != nil {
		return docStyle.Render(header + "\n\n" + failureStyle.Render(m.fetchErr.Error()) +
			"\n\n" + statusStyle.Render("r to retry, q to quit"))
	}

	footer := statusStyle.Render(fmt.Sprintf("%d records · updated %s · r refresh · q quit",
		m.recordCount, m.lastUpdate.Format("15:04:05")))
	if len(m.failures) > 0 {
		footer = failureStyle.Render(fmt.Sprintf("%d year(s) unavailable", len(m.failures))) + "  " + footer
	}

	return docStyle.Render(header + "\n" + m.schoolList.View() + "\n" + footer)
}

// summarizeSchools folds tidy records into one list item per school.
func summarizeSchools(records []enrollment.Record) []list.Item {
	type summary struct {
		name   string
		total  int
		grades map[string]bool
	}
	bySchool := make(map[string]*summary)
	for _, r := range records {
		s, ok := bySchool[r.SchoolID]
		if !ok {
			s = &summary{name: r.SchoolName, grades: make(map[string]bool)}
			bySchool[r.SchoolID] = s
		}
		s.total += r.Count
		s.grades[r.Grade] = true
	}

	order := util.SortedStringKeys(bySchool)
	items := make([]list.Item, 0, len(order))
	for _, id := range order {
		s := bySchool[id]
		items = append(items, schoolItem{
			title: fmt.Sprintf("%s (%s)", s.name, id),
			desc:  fmt.Sprintf("%d students across %d grades", s.total, len(s.grades)),
		})
	}
	return items
}

func (rt *Runtime) runUI(ctx context.Context, years []int, variant enrollment.Variant, school string) error {
	var p *tea.Program

	fetch := func() {
		result, err := rt.fetchFiltered(ctx, years, variant, school)
		if err != nil {
			p.Send(fetchErrMsg{err: err})
			return
		}
		p.Send(resultMsg{result: result})
	}

	m := newUIModel(years, variant, func() { go fetch() })
	p = tea.NewProgram(m, tea.WithAltScreen())

	go fetch()

	_, err := p.Run()
	return err
}
