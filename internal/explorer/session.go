// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package explorer holds the interactive session: the current view, the
// tracked entities and the colour assignments, and turns user actions
// into view changes and projections.
package explorer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/pdiddy/scatterscope/internal/dataset"
	"github.com/pdiddy/scatterscope/internal/filter"
	"github.com/pdiddy/scatterscope/internal/format"
	"github.com/pdiddy/scatterscope/internal/palette"
	"github.com/pdiddy/scatterscope/internal/projector"
	"github.com/pdiddy/scatterscope/internal/searchlist"
	"github.com/pdiddy/scatterscope/internal/viewstate"
	"github.com/pdiddy/scatterscope/pkg/types"
)

var (
	ErrUnknownProperty = errors.New("unknown property")
	ErrUnknownTicker   = errors.New("unknown ticker")
	ErrAlreadyTracked  = errors.New("already tracked")
	ErrNoFilter        = errors.New("no such filter")
	ErrUnknownIndustry = errors.New("unknown industry")
)

// Axis picks the horizontal or vertical axis.
type Axis int

const (
	X Axis = iota
	Y
)

func (a Axis) String() string {
	if a == Y {
		return "y"
	}
	return "x"
}

// ParseAxis accepts "x" or "y".
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return X, nil
	case "y":
		return Y, nil
	}
	return X, fmt.Errorf("unknown axis %q (want x or y)", s)
}

// Session is one user's explorer. It is not safe for concurrent use; the
// dataset it reads is shared and never modified.
type Session struct {
	ds     *dataset.Dataset
	state  types.ViewState
	colors *palette.Assigner

	// BestFitPerCategory fits one line per category when grouping.
	BestFitPerCategory bool

	// Warn receives decode warnings; defaults to stderr.
	Warn io.Writer

	search [2]*searchlist.List
}

// New starts a session on ds with the default view. A default axis
// property the dataset lacks is replaced by the first available one.
func New(ds *dataset.Dataset) *Session {
	s := &Session{
		ds:     ds,
		colors: palette.NewAssigner(),
		Warn:   os.Stderr,
	}
	s.state = s.withAvailableAxes(types.DefaultViewState())
	return s
}

func (s *Session) withAvailableAxes(v types.ViewState) types.ViewState {
	props := s.ds.Properties
	if len(props) == 0 {
		return v
	}
	if !s.ds.HasProperty(v.X.Property) {
		v.X.Property = props[0]
	}
	if !s.ds.HasProperty(v.Y.Property) {
		v.Y.Property = props[min(1, len(props)-1)]
	}
	return v
}

// Dataset returns the data the session reads.
func (s *Session) Dataset() *dataset.Dataset { return s.ds }

// State returns a copy of the current view.
func (s *Session) State() types.ViewState { return s.state.Clone() }

// SetState replaces the current view.
func (s *Session) SetState(v types.ViewState) { s.state = v.Clone() }

// Colors returns the session's colour assignments.
func (s *Session) Colors() *palette.Assigner { return s.colors }

func (s *Session) axis(a Axis) *types.AxisConfig {
	if a == Y {
		return &s.state.Y
	}
	return &s.state.X
}

// SetProperty selects the property plotted on a.
func (s *Session) SetProperty(a Axis, property string) error {
	if !s.ds.HasProperty(property) {
		return fmt.Errorf("%w: %s", ErrUnknownProperty, property)
	}
	s.axis(a).Property = property
	return nil
}

// Swap exchanges the X and Y properties. Log flags stay with their axes.
func (s *Session) Swap() {
	s.state.X.Property, s.state.Y.Property = s.state.Y.Property, s.state.X.Property
}

// SetLog sets the scale of a.
func (s *Session) SetLog(a Axis, log bool) { s.axis(a).Log = log }

// ToggleLog flips the scale of a.
func (s *Session) ToggleLog(a Axis) { s.axis(a).Log = !s.axis(a).Log }

// AddFilter appends f and returns its index. Blank operands are allowed
// while a filter is being edited; such filters are ignored by Project.
func (s *Session) AddFilter(f types.Filter) int {
	if f.Dir == "" {
		f.Dir = types.AtLeast
	}
	s.state.Filters = append(s.state.Filters, f)
	return len(s.state.Filters) - 1
}

// UpdateFilter replaces filter i.
func (s *Session) UpdateFilter(i int, f types.Filter) error {
	if err := s.checkFilter(i); err != nil {
		return err
	}
	if f.Dir == "" {
		f.Dir = s.state.Filters[i].Dir
	}
	s.state.Filters[i] = f
	return nil
}

// RemoveFilter deletes filter i.
func (s *Session) RemoveFilter(i int) error {
	if err := s.checkFilter(i); err != nil {
		return err
	}
	s.state.Filters = slices.Delete(s.state.Filters, i, i+1)
	return nil
}

// ToggleFilter flips the comparison of filter i.
func (s *Session) ToggleFilter(i int) error {
	if err := s.checkFilter(i); err != nil {
		return err
	}
	s.state.Filters[i] = filter.Toggle(s.state.Filters[i])
	return nil
}

func (s *Session) checkFilter(i int) error {
	if i < 0 || i >= len(s.state.Filters) {
		return fmt.Errorf("%w: %d", ErrNoFilter, i)
	}
	return nil
}

// Track adds a ticker to the tracked list. The ticker is upper-cased and
// must exist in the table.
func (s *Session) Track(ticker string) error {
	id := strings.ToUpper(strings.TrimSpace(ticker))
	if _, ok := s.ds.Table.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTicker, id)
	}
	if slices.Contains(s.state.Tracked, id) {
		return fmt.Errorf("%w: %s", ErrAlreadyTracked, id)
	}
	s.state.Tracked = append(s.state.Tracked, id)
	return nil
}

// Untrack removes a ticker and reports whether it was tracked.
func (s *Session) Untrack(ticker string) bool {
	id := strings.ToUpper(strings.TrimSpace(ticker))
	i := slices.Index(s.state.Tracked, id)
	if i < 0 {
		return false
	}
	s.state.Tracked = slices.Delete(s.state.Tracked, i, i+1)
	return true
}

// HandlePointClick tracks the entity behind a clicked point. Clicking an
// already tracked point does nothing.
func (s *Session) HandlePointClick(label string) error {
	err := s.Track(label)
	if errors.Is(err, ErrAlreadyTracked) {
		return nil
	}
	return err
}

// Tracked returns the tracked tickers in the order they were added.
func (s *Session) Tracked() []string { return slices.Clone(s.state.Tracked) }

// SelectIndustry restricts the plot to records in industry, in addition to
// any industries already selected. Selecting one twice does nothing.
func (s *Session) SelectIndustry(industry string) error {
	industry = strings.TrimSpace(industry)
	if !slices.Contains(s.KnownIndustries(), industry) {
		return fmt.Errorf("%w: %q", ErrUnknownIndustry, industry)
	}
	if !slices.Contains(s.state.Industries, industry) {
		s.state.Industries = append(s.state.Industries, industry)
	}
	return nil
}

// DeselectIndustry removes an industry and reports whether it was selected.
func (s *Session) DeselectIndustry(industry string) bool {
	i := slices.Index(s.state.Industries, strings.TrimSpace(industry))
	if i < 0 {
		return false
	}
	s.state.Industries = slices.Delete(s.state.Industries, i, i+1)
	return true
}

// Industries returns the selected industries.
func (s *Session) Industries() []string { return slices.Clone(s.state.Industries) }

// KnownIndustries returns the distinct non-empty industries of the dataset,
// sorted.
func (s *Session) KnownIndustries() []string {
	var out []string
	for _, c := range s.ds.Categories {
		if c.Industry != "" && !slices.Contains(out, c.Industry) {
			out = append(out, c.Industry)
		}
	}
	slices.Sort(out)
	return out
}

// SetColorByCategory, SetDiagonal and SetBestFit set the display toggles.
func (s *Session) SetColorByCategory(on bool) { s.state.ColorByCategory = on }

func (s *Session) SetDiagonal(on bool) { s.state.ShowDiagonal = on }

func (s *Session) SetBestFit(on bool) { s.state.ShowBestFit = on }

// Project computes the plot for the current view. Colours assigned here
// stick for the rest of the session.
func (s *Session) Project() projector.Projection {
	in := projector.InputFromView(s.ds.Table, s.ds.Categories, s.state)
	in.BestFitPerCategory = s.BestFitPerCategory
	return projector.Project(in, s.colors)
}

// Encoded returns the shareable encoding of the current view.
func (s *Session) Encoded() string { return viewstate.Encode(s.state) }

// URL returns base carrying the current view.
func (s *Session) URL(base string) (string, error) { return viewstate.URL(base, s.state) }

// ApplyEncoded replaces the view with a decoded one. A malformed value
// leaves the session on the default view and prints a warning; the error
// is returned so callers can report it too.
func (s *Session) ApplyEncoded(encoded string) error {
	v, err := viewstate.Decode(encoded)
	if err != nil {
		fmt.Fprintf(s.Warn, "warning: ignoring view: %v\n", err)
	}
	s.state = s.withAvailableAxes(v)
	return err
}

// PropertySearch returns the property picker for a. Committing a match
// selects that property.
func (s *Session) PropertySearch(a Axis) *searchlist.List {
	if s.search[a] == nil {
		s.search[a] = searchlist.New(s.ds.Properties, func(p string) {
			s.axis(a).Property = p
		})
	}
	return s.search[a]
}

// Info returns the detail view for ticker.
func (s *Session) Info(ticker string) (format.Info, error) {
	id := strings.ToUpper(strings.TrimSpace(ticker))
	rec, ok := s.ds.Table.Get(id)
	if !ok {
		return format.Info{}, fmt.Errorf("%w: %s", ErrUnknownTicker, id)
	}
	return format.BuildInfo(id, rec, s.ds.Categories[id], s.ds.Financials[id]), nil
}

// LastUpdated renders the data age at now, or "" when unknown.
func (s *Session) LastUpdated(now time.Time) string {
	if s.ds.UpdatedAt.IsZero() {
		return ""
	}
	return dataset.FormatLastUpdated(now, s.ds.UpdatedAt)
}
