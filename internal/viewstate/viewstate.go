// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package viewstate encodes a view into a short URL-safe string and back.
//
// Only fields that differ from the default view are written, as compact
// JSON with short keys. The JSON is snappy-compressed and then base64url
// encoded without padding. Filters are written as [left, right] pairs in
// their >= form, so a <= filter is stored with its operands swapped.
package viewstate

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"

	"github.com/golang/snappy"

	"github.com/pdiddy/scatterscope/internal/filter"
	"github.com/pdiddy/scatterscope/pkg/types"
)

// Param is the URL query parameter that carries an encoded view.
const Param = "v"

// MaxDecodedLen bounds the decompressed size of an encoded view.
const MaxDecodedLen = 64 << 10

// ErrMalformed is returned when an encoded view cannot be decoded.
var ErrMalformed = errors.New("malformed view state")

// compact is the wire form. Field order fixes the JSON key order.
type compact struct {
	X       string      `json:"x,omitempty"`
	Y       string      `json:"y,omitempty"`
	LogX    bool        `json:"lx,omitempty"`
	LogY    bool        `json:"ly,omitempty"`
	Filters [][2]string `json:"f,omitempty"`
	Color   bool        `json:"c,omitempty"`
	Diag    bool        `json:"d,omitempty"`
	BestFit bool        `json:"b,omitempty"`
	Tracked []string    `json:"t,omitempty"`
	Inds    []string    `json:"i,omitempty"`
}

func toCompact(s types.ViewState) compact {
	def := types.DefaultViewState()
	var c compact
	if s.X.Property != def.X.Property {
		c.X = s.X.Property
	}
	if s.Y.Property != def.Y.Property {
		c.Y = s.Y.Property
	}
	c.LogX = s.X.Log != def.X.Log && s.X.Log
	c.LogY = s.Y.Log != def.Y.Log && s.Y.Log
	for _, f := range s.Filters {
		n := filter.Normalize(f)
		c.Filters = append(c.Filters, [2]string{n.Left, n.Right})
	}
	c.Color = s.ColorByCategory
	c.Diag = s.ShowDiagonal
	c.BestFit = s.ShowBestFit
	c.Tracked = slices.Clone(s.Tracked)
	c.Inds = slices.Clone(s.Industries)
	return c
}

func (c compact) merge(onto types.ViewState) types.ViewState {
	s := onto.Clone()
	if c.X != "" {
		s.X.Property = c.X
	}
	if c.Y != "" {
		s.Y.Property = c.Y
	}
	s.X.Log = s.X.Log || c.LogX
	s.Y.Log = s.Y.Log || c.LogY
	if len(c.Filters) > 0 {
		s.Filters = make([]types.Filter, 0, len(c.Filters))
		for _, p := range c.Filters {
			s.Filters = append(s.Filters, types.Filter{Left: p[0], Right: p[1], Dir: types.AtLeast})
		}
	}
	s.ColorByCategory = s.ColorByCategory || c.Color
	s.ShowDiagonal = s.ShowDiagonal || c.Diag
	s.ShowBestFit = s.ShowBestFit || c.BestFit
	if len(c.Tracked) > 0 {
		s.Tracked = slices.Clone(c.Tracked)
	}
	if len(c.Inds) > 0 {
		s.Industries = slices.Clone(c.Inds)
	}
	return s
}

// Encode returns the URL-safe encoding of s.
func Encode(s types.ViewState) string {
	data, _ := json.Marshal(toCompact(s))
	return base64.RawURLEncoding.EncodeToString(snappy.Encode(nil, data))
}

// Decode parses an encoded view and merges it onto the default view. An
// empty string is the default view. On failure it returns the default view
// together with an error wrapping ErrMalformed; callers may log the error
// and carry on with the returned state.
func Decode(encoded string) (types.ViewState, error) {
	def := types.DefaultViewState()
	if encoded == "" {
		return def, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return def, fmt.Errorf("%w: base64: %v", ErrMalformed, err)
	}
	n, err := snappy.DecodedLen(raw)
	if err != nil {
		return def, fmt.Errorf("%w: decompress: %v", ErrMalformed, err)
	}
	if n > MaxDecodedLen {
		return def, fmt.Errorf("%w: decompressed length %d exceeds %d", ErrMalformed, n, MaxDecodedLen)
	}
	data, err := snappy.Decode(nil, raw)
	if err != nil {
		return def, fmt.Errorf("%w: decompress: %v", ErrMalformed, err)
	}
	var c compact
	if err := json.Unmarshal(data, &c); err != nil {
		return def, fmt.Errorf("%w: json: %v", ErrMalformed, err)
	}
	return c.merge(def), nil
}

// Merge fills every field of s left at its zero value from the default
// view. It is the state Decode(Encode(s)) yields, with <= filters in their
// >= form.
func Merge(s types.ViewState) types.ViewState {
	return toCompact(s).merge(types.DefaultViewState())
}

// FromQuery decodes the view carried by q. A missing parameter yields the
// default view.
func FromQuery(q url.Values) (types.ViewState, error) {
	return Decode(q.Get(Param))
}

// ToQuery returns query values carrying s. The default view needs no
// parameter and yields empty values.
func ToQuery(s types.ViewState) url.Values {
	q := url.Values{}
	enc := Encode(s)
	if enc != Encode(types.DefaultViewState()) {
		q.Set(Param, enc)
	}
	return q
}

// URL returns base with the view of s set as its query parameter,
// replacing any existing one.
func URL(base string, s types.ViewState) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	q := u.Query()
	q.Del(Param)
	for k, vs := range ToQuery(s) {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
