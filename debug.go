package aether

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/glasswing-games/aether/codec"
	"github.com/glasswing-games/aether/filter"
	"github.com/glasswing-games/aether/types"
)

// Catalog describes everything registered with a world. Payload shapes come
// out as JSON schemas, so tooling can validate inputs without linking the
// component types.
type Catalog struct {
	WorldID    string           `json:"world_id"`
	Tick       uint64           `json:"tick"`
	Components []ComponentEntry `json:"components"`
	Resources  []string         `json:"resources"`
	Channels   []ChannelEntry   `json:"channels"`
	Systems    []SystemEntry    `json:"systems"`
}

// ComponentEntry is one registered component type in the catalog.
type ComponentEntry struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema,omitempty"`
}

// ChannelEntry is one registered message channel in the catalog.
type ChannelEntry struct {
	Name      string          `json:"name"`
	Delivery  string          `json:"delivery"`
	Retention string          `json:"retention"`
	Pending   int             `json:"pending"`
	Schema    json.RawMessage `json:"schema,omitempty"`
}

// SystemEntry is one registered system and its declared access, flattened to
// names.
type SystemEntry struct {
	Name            string   `json:"name"`
	Init            bool     `json:"init,omitempty"`
	FatalFaults     bool     `json:"fatal_faults,omitempty"`
	Reads           []string `json:"reads,omitempty"`
	Writes          []string `json:"writes,omitempty"`
	ReadsResources  []string `json:"reads_resources,omitempty"`
	WritesResources []string `json:"writes_resources,omitempty"`
	Posts           []string `json:"posts,omitempty"`
	Drains          []string `json:"drains,omitempty"`
}

// Catalog returns the registration catalog of the world.
func (w *World) Catalog() Catalog {
	cat := Catalog{WorldID: w.id, Tick: w.core.CurrentTick()}

	for _, info := range w.core.DescribeComponents() {
		cat.Components = append(cat.Components, ComponentEntry{
			Name:   info.Name,
			Schema: w.componentSchemas[info.Name],
		})
	}
	for _, info := range w.core.DescribeResources() {
		cat.Resources = append(cat.Resources, info.Type)
	}
	for _, info := range w.core.DescribeChannels() {
		cat.Channels = append(cat.Channels, ChannelEntry{
			Name:      info.Name,
			Delivery:  info.Delivery.String(),
			Retention: info.Retention.String(),
			Pending:   info.Pending,
			Schema:    w.channelSchemas[info.Name],
		})
	}
	for _, info := range w.core.DescribeSystems() {
		cat.Systems = append(cat.Systems, SystemEntry{
			Name:            info.Name,
			Init:            info.Init,
			FatalFaults:     info.FatalFaults,
			Reads:           info.Reads,
			Writes:          info.Writes,
			ReadsResources:  info.ReadsResources,
			WritesResources: info.WritesResources,
			Posts:           info.Posts,
			Drains:          info.Drains,
		})
	}
	return cat
}

// EntityState is one live entity with its component values as raw JSON,
// keyed by component name.
type EntityState struct {
	ID         string                     `json:"id"`
	Components map[string]json.RawMessage `json:"components"`
}

// DumpState returns every live entity and its component data, in storage
// index order. Meant for debugging and snapshot tooling; it walks the whole
// world, so keep it off hot paths.
func (w *World) DumpState() ([]EntityState, error) {
	out := make([]EntityState, 0, w.EntityCount())
	var encodeErr error
	err := w.Search(filter.All()).Each(func(e types.Entity) bool {
		element := EntityState{ID: e.String(), Components: map[string]json.RawMessage{}}
		for _, c := range w.core.ComponentsOf(e) {
			data, err := codec.Encode(c)
			if err != nil {
				encodeErr = eris.Wrapf(err, "failed to encode component %q on entity %s", c.Name(), e)
				return false
			}
			element.Components[c.Name()] = data
		}
		out = append(out, element)
		return true
	})
	if err != nil {
		return nil, err
	}
	if encodeErr != nil {
		return nil, encodeErr
	}
	return out, nil
}
